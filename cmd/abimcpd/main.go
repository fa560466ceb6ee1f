package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"

	"OpenMCP-ABI/internal/api"
	"OpenMCP-ABI/internal/auth"
	"OpenMCP-ABI/internal/config"
	"OpenMCP-ABI/internal/contract"
	"OpenMCP-ABI/internal/journal"
	"OpenMCP-ABI/internal/mcpserver"
	"OpenMCP-ABI/internal/observability/metrics"
	"OpenMCP-ABI/internal/retry"
	"OpenMCP-ABI/internal/tools"
	"OpenMCP-ABI/internal/web3"
	"OpenMCP-ABI/internal/web3/provider"
	"OpenMCP-ABI/pkg/logger"
)

// main 是 ABI MCP 服务的入口。
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("abimcpd 运行失败: %v", err)
	}
}

func run(ctx context.Context) error {
	configPath := flag.String("config", os.Getenv("OPENMCP_CONFIG"), "path to the JSON config file")
	envFile := flag.String("env", ".env", "optional dotenv file")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("加载 %s 失败: %w", *envFile, err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		OutputPaths: cfg.Log.OutputPaths,
		Audit: logger.AuditConfig{
			Enabled:    cfg.Log.Audit.Enabled,
			Path:       cfg.Log.Audit.Path,
			MaxSizeMB:  cfg.Log.Audit.MaxSizeMB,
			MaxBackups: cfg.Log.Audit.MaxBackups,
			MaxAgeDays: cfg.Log.Audit.MaxAgeDays,
		},
	}); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	lg := logger.Named("abimcpd")

	iface, functions, err := loadFunctions(cfg.Contract)
	if err != nil {
		return err
	}

	chains, err := provider.NewRegistry(cfg.Web3)
	if err != nil {
		return err
	}
	chain := chains.Default()
	client, err := chains.Dial(ctx, chain.Name)
	if err != nil {
		return err
	}
	defer client.Close()

	signer, err := newSigner(ctx, client, chain, cfg.Wallet.PrivateKey)
	if err != nil {
		return err
	}
	var writer web3.ContractWriter
	if signer != nil {
		writer = signer
		lg.Info("钱包已加载", slog.String("from", signer.From().Hex()))
	} else {
		lg.Warn("未配置私钥，写函数将不可用")
	}

	store, err := journal.Open(ctx, cfg.Journal)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			lg.Error("关闭交易流水失败", slog.Any("error", err))
		}
	}()

	m := metrics.New()
	service, err := contract.NewService(client, writer, common.HexToAddress(cfg.Contract.Address), iface, contract.Options{
		Name:  cfg.Contract.Name,
		Chain: chain.Name,
		Retry: retry.Options{
			MaxRetries:     cfg.Retry.MaxRetries,
			InitialBackoff: cfg.Retry.InitialBackoff(),
		},
		Journal: store,
		Metrics: m,
		Audit:   logger.Audit(),
	})
	if err != nil {
		return err
	}

	registry, err := tools.NewRegistry(tools.Generate(service, cfg.Contract.Name, functions,
		tools.WithExplorer(chain.TransactionURL),
		tools.WithMetrics(m),
	)...)
	if err != nil {
		return err
	}
	lg.Info("合约工具已生成",
		slog.String("contract", cfg.Contract.Name),
		slog.String("address", service.Address().Hex()),
		slog.String("chain", chain.Name),
		slog.Int("tools", registry.Len()),
		slog.Bool("writable", service.CanWrite()),
	)

	if cfg.Server.HTTPAddress != "" {
		httpServer := api.NewServer(cfg.Server.HTTPAddress, api.Dependencies{
			Chain:    client,
			Tools:    registry,
			Journal:  store,
			Metrics:  m,
			Contract: cfg.Contract.Name,
			Address:  service.Address().Hex(),
			Auth:     auth.NewAuthenticator(apiTokens(cfg.Server.APITokens), logger.Audit()),
		})
		go func() {
			if err := httpServer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				lg.Error("HTTP 接口异常退出", slog.Any("error", err))
			}
		}()
	}

	return mcpserver.New(cfg.Server.Name, cfg.Server.Version, registry).ServeStdio(ctx, os.Stdin, os.Stdout)
}
