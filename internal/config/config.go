package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	xerrors "OpenMCP-ABI/internal/errors"
)

// Config 描述了 ABI MCP 服务在启动阶段需要加载的全部配置。
type Config struct {
	Contract ContractConfig `json:"contract"`
	Wallet   WalletConfig   `json:"wallet"`
	Web3     Web3Config     `json:"web3"`
	Retry    RetryConfig    `json:"retry"`
	Server   ServerConfig   `json:"server"`
	Journal  JournalConfig  `json:"journal"`
	Log      LogConfig      `json:"log"`
}

// ContractConfig 描述需要暴露为工具的目标合约。
type ContractConfig struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	// ABIPath 与 ABI 二选一，ABI 允许直接内联 JSON。
	ABIPath              string            `json:"abi_path"`
	ABI                  json.RawMessage   `json:"abi"`
	Description          string            `json:"description"`
	FunctionDescriptions map[string]string `json:"function_descriptions"`
}

// WalletConfig 描述签名私钥的来源。私钥缺失时服务以只读模式运行。
type WalletConfig struct {
	PrivateKey    string `json:"private_key"`
	PrivateKeyEnv string `json:"private_key_env"`
}

// Web3Config 选择目标链以及可选的 RPC 覆盖。
type Web3Config struct {
	Chain       string `json:"chain"`
	ChainConfig string `json:"chain_config"`
	RPCURL      string `json:"rpc_url"`
	ChainID     int64  `json:"chain_id"`
}

// RetryConfig 控制合约调用的重试策略。
type RetryConfig struct {
	MaxRetries       int `json:"max_retries"`
	InitialBackoffMS int `json:"initial_backoff_ms"`
}

// InitialBackoff 返回首次退避时长。
func (r RetryConfig) InitialBackoff() time.Duration {
	return time.Duration(r.InitialBackoffMS) * time.Millisecond
}

// ServerConfig 控制 MCP 服务标识与可选的运维 HTTP 接口。
type ServerConfig struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	HTTPAddress string `json:"http_address"`
	// APITokens 为空时运维接口不做认证。
	APITokens []APITokenConfig `json:"api_tokens"`
}

// APITokenConfig 描述一个运维接口访问令牌。
type APITokenConfig struct {
	Name  string `json:"name"`
	Token string `json:"token"`
}

// JournalConfig 选择交易流水的存储后端。
type JournalConfig struct {
	Driver   string         `json:"driver"`
	MySQL    MySQLConfig    `json:"mysql"`
	Redis    RedisConfig    `json:"redis"`
	RabbitMQ RabbitMQConfig `json:"rabbitmq"`
}

// MySQLConfig 描述 MySQL 连接参数。
type MySQLConfig struct {
	DSN                    string `json:"dsn"`
	MaxOpenConns           int    `json:"max_open_conns"`
	MaxIdleConns           int    `json:"max_idle_conns"`
	ConnMaxLifetimeSeconds int    `json:"conn_max_lifetime_seconds"`
}

// RedisConfig 描述 Redis 连接参数。
type RedisConfig struct {
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Key      string `json:"key"`
	MaxLen   int64  `json:"max_len"`
}

// RabbitMQConfig 描述 RabbitMQ 连接参数。
type RabbitMQConfig struct {
	URL     string `json:"url"`
	Queue   string `json:"queue"`
	Durable bool   `json:"durable"`
}

// LogConfig 描述日志输出。
type LogConfig struct {
	Level       string         `json:"level"`
	Format      string         `json:"format"`
	OutputPaths []string       `json:"output_paths"`
	Audit       AuditLogConfig `json:"audit"`
}

// AuditLogConfig 控制审计日志（记录每一笔写交易）。
type AuditLogConfig struct {
	Enabled    bool   `json:"enabled"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// Load 负责解析指定路径的 JSON 配置文件。路径为空时仅返回默认配置，
// 由环境变量补全其余字段。
func Load(path string) (*Config, error) {
	if path == "" {
		cfg := &Config{}
		cfg.applyDefaults("")
		return cfg, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开配置文件失败: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	cfg.applyDefaults(filepath.Dir(path))

	return &cfg, nil
}

// applyDefaults 在用户未填写部分字段时设置合理的默认值。
func (c *Config) applyDefaults(baseDir string) {
	if c.Server.Name == "" {
		c.Server.Name = "OpenMCP ABI Server"
	}
	if c.Server.Version == "" {
		c.Server.Version = "0.1.0"
	}

	if c.Retry.MaxRetries <= 0 {
		c.Retry.MaxRetries = 3
	}
	if c.Retry.InitialBackoffMS <= 0 {
		c.Retry.InitialBackoffMS = 1000
	}

	if c.Journal.Driver == "" {
		c.Journal.Driver = "memory"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}

	c.Contract.ABIPath = resolvePath(baseDir, c.Contract.ABIPath)
	c.Web3.ChainConfig = resolvePath(baseDir, c.Web3.ChainConfig)
	c.Log.Audit.Path = resolvePath(baseDir, c.Log.Audit.Path)
}

// ApplyEnv 使用环境变量覆盖配置。lookup 通常为 os.LookupEnv。
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, target *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*target = strings.TrimSpace(v)
		}
	}

	str("CONTRACT_NAME", &c.Contract.Name)
	str("CONTRACT_ADDRESS", &c.Contract.Address)
	str("CONTRACT_ABI_PATH", &c.Contract.ABIPath)
	str("CHAIN", &c.Web3.Chain)
	str("RPC_URL", &c.Web3.RPCURL)
	str("LOG_LEVEL", &c.Log.Level)

	if v, ok := lookup("CHAIN_ID"); ok && strings.TrimSpace(v) != "" {
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return xerrors.Wrap(xerrors.CodeConfiguration, err, "CHAIN_ID 不是合法整数")
		}
		c.Web3.ChainID = id
	}

	if v, ok := lookup("OPS_API_TOKEN"); ok && strings.TrimSpace(v) != "" {
		c.Server.APITokens = append(c.Server.APITokens, APITokenConfig{Name: "env", Token: strings.TrimSpace(v)})
	}

	str("WALLET_PRIVATE_KEY", &c.Wallet.PrivateKey)
	if c.Wallet.PrivateKey == "" && c.Wallet.PrivateKeyEnv != "" {
		str(c.Wallet.PrivateKeyEnv, &c.Wallet.PrivateKey)
	}
	return nil
}

// Validate 检查启动所需的必填项，错误均为配置错误。
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Contract.Name) == "" {
		return xerrors.New(xerrors.CodeConfiguration, "contract.name 不能为空",
			xerrors.WithMetadata("field", "contract.name"))
	}
	if !common.IsHexAddress(c.Contract.Address) {
		return xerrors.New(xerrors.CodeConfiguration, fmt.Sprintf("contract.address %q 不是合法地址", c.Contract.Address),
			xerrors.WithMetadata("field", "contract.address"))
	}
	if c.Contract.ABIPath == "" && len(c.Contract.ABI) == 0 {
		return xerrors.New(xerrors.CodeConfiguration, "需要配置 contract.abi_path 或 contract.abi",
			xerrors.WithMetadata("field", "contract.abi"))
	}
	switch c.Journal.Driver {
	case "memory", "mysql", "redis", "rabbitmq", "none":
	default:
		return xerrors.New(xerrors.CodeConfiguration, fmt.Sprintf("未知的流水存储驱动: %s", c.Journal.Driver),
			xerrors.WithMetadata("field", "journal.driver"))
	}
	return nil
}

func resolvePath(baseDir, path string) string {
	if path == "" || baseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
