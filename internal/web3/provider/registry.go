package provider

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"OpenMCP-ABI/internal/config"
	xerrors "OpenMCP-ABI/internal/errors"
	"OpenMCP-ABI/internal/web3"
	"OpenMCP-ABI/internal/web3/ethereum"
)

// DefaultChain is selected when neither the config nor the chain file names one.
const DefaultChain = "fraxtal"

func builtinChains() map[string]web3.ChainDefinition {
	return map[string]web3.ChainDefinition{
		"fraxtal": {
			Type:        "evm",
			ChainID:     252,
			RPCURL:      "https://rpc.frax.com",
			ExplorerURL: "https://fraxscan.com",
			Description: "Fraxtal mainnet",
		},
		"ethereum": {
			Type:        "evm",
			ChainID:     1,
			RPCURL:      "https://eth.llamarpc.com",
			ExplorerURL: "https://etherscan.io",
			Description: "Ethereum mainnet",
		},
		"base": {
			Type:        "evm",
			ChainID:     8453,
			RPCURL:      "https://mainnet.base.org",
			ExplorerURL: "https://basescan.org",
			Description: "Base mainnet",
		},
		"sepolia": {
			Type:        "evm",
			ChainID:     11155111,
			RPCURL:      "https://rpc.sepolia.org",
			ExplorerURL: "https://sepolia.etherscan.io",
			Description: "Ethereum Sepolia testnet",
		},
	}
}

// Registry resolves chain names to endpoint definitions. Built-in chains can
// be overridden or extended through a chains YAML file.
type Registry struct {
	defaultChain string
	chains       map[string]web3.ChainDefinition
}

// NewRegistry merges built-in chains with the optional chain file and the
// rpc_url/chain_id overrides, which apply to the selected chain only.
func NewRegistry(cfg config.Web3Config) (*Registry, error) {
	defs, err := web3.LoadChainDefinitions(cfg.ChainConfig)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeConfiguration, err, "加载链配置失败")
	}

	chains := builtinChains()
	for name, def := range defs.Chains {
		key := normalizeName(name)
		base := chains[key]
		chains[key] = merge(base, def)
	}

	selected := normalizeName(cfg.Chain)
	if selected == "" {
		selected = normalizeName(defs.Default)
	}
	if selected == "" {
		selected = DefaultChain
	}

	def, ok := chains[selected]
	if !ok {
		if strings.TrimSpace(cfg.RPCURL) == "" {
			return nil, xerrors.New(xerrors.CodeConfiguration, fmt.Sprintf("未知的链 %s，且未提供 RPC 地址", selected),
				xerrors.WithMetadata("chain", selected))
		}
		def = web3.ChainDefinition{Type: "evm"}
	}
	if rpc := strings.TrimSpace(cfg.RPCURL); rpc != "" {
		def.RPCURL = rpc
	}
	if cfg.ChainID > 0 {
		def.ChainID = cfg.ChainID
	}
	chains[selected] = def

	for name, chain := range chains {
		chain.Name = name
		if chain.Type == "" {
			chain.Type = "evm"
		}
		chains[name] = chain
	}

	return &Registry{defaultChain: selected, chains: chains}, nil
}

// Default returns the selected chain.
func (r *Registry) Default() web3.ChainDefinition {
	return r.chains[r.defaultChain]
}

// Resolve looks up a chain by name, case-insensitively.
func (r *Registry) Resolve(name string) (web3.ChainDefinition, bool) {
	if r == nil {
		return web3.ChainDefinition{}, false
	}
	def, ok := r.chains[normalizeName(name)]
	return def, ok
}

// Dial connects to the named chain. An empty name dials the default chain.
func (r *Registry) Dial(ctx context.Context, name string) (*ethereum.Client, error) {
	if name == "" {
		name = r.defaultChain
	}
	def, ok := r.Resolve(name)
	if !ok {
		return nil, xerrors.New(xerrors.CodeConfiguration, fmt.Sprintf("链 %s 未在注册表中", name))
	}
	if !strings.EqualFold(def.Type, "evm") {
		return nil, xerrors.New(xerrors.CodeConfiguration, fmt.Sprintf("链 %s 使用了不支持的类型 %s", def.Name, def.Type))
	}
	client, err := ethereum.NewClient(ctx, ethereum.Config{
		Name:    def.Name,
		RPCURL:  def.RPCURL,
		ChainID: def.ChainID,
		Notes:   def.Description,
	})
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeConfiguration, err, fmt.Sprintf("初始化链 %s 失败", def.Name))
	}
	return client, nil
}

// Chains returns the list of registered chain names.
func (r *Registry) Chains() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.chains))
	for name := range r.chains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func merge(base, override web3.ChainDefinition) web3.ChainDefinition {
	if override.Type != "" {
		base.Type = override.Type
	}
	if override.ChainID != 0 {
		base.ChainID = override.ChainID
	}
	if override.RPCURL != "" {
		base.RPCURL = override.RPCURL
	}
	if override.ExplorerURL != "" {
		base.ExplorerURL = override.ExplorerURL
	}
	if override.Description != "" {
		base.Description = override.Description
	}
	return base
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
