package main

import (
	"context"
	"math/big"
	"strings"

	"OpenMCP-ABI/internal/auth"
	"OpenMCP-ABI/internal/config"
	"OpenMCP-ABI/internal/contractabi"
	xerrors "OpenMCP-ABI/internal/errors"
	"OpenMCP-ABI/internal/web3"
	"OpenMCP-ABI/internal/web3/ethereum"
)

// loadFunctions parses the configured ABI and returns its callable
// functions with the configured descriptions attached.
func loadFunctions(cfg config.ContractConfig) (*contractabi.Interface, []contractabi.FunctionDescriptor, error) {
	var (
		iface *contractabi.Interface
		err   error
	)
	if len(cfg.ABI) > 0 {
		iface, err = contractabi.Parse(cfg.ABI)
	} else {
		iface, err = contractabi.LoadFile(cfg.ABIPath)
	}
	if err != nil {
		return nil, nil, xerrors.Wrap(xerrors.CodeConfiguration, err, "加载合约 ABI 失败")
	}

	functions := contractabi.ExtractFunctions(iface)
	if len(functions) == 0 {
		return nil, nil, xerrors.Wrap(xerrors.CodeConfiguration, contractabi.ErrNoFunctions, "合约 ABI 不可用")
	}
	for i := range functions {
		if desc := strings.TrimSpace(cfg.FunctionDescriptions[functions[i].Name]); desc != "" {
			functions[i].Description = desc
		}
	}
	return iface, functions, nil
}

// newSigner returns nil without a key. A key that cannot be turned into a
// signer is fatal.
func newSigner(ctx context.Context, client *ethereum.Client, chain web3.ChainDefinition, privateKey string) (*ethereum.Signer, error) {
	if strings.TrimSpace(privateKey) == "" {
		return nil, nil
	}
	var chainID *big.Int
	if chain.ChainID > 0 {
		chainID = big.NewInt(chain.ChainID)
	}
	signer, err := ethereum.NewSigner(ctx, client.Backend(), privateKey, chainID)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeConfiguration, err, "初始化钱包失败")
	}
	return signer, nil
}

func apiTokens(cfg []config.APITokenConfig) []auth.Token {
	tokens := make([]auth.Token, 0, len(cfg))
	for _, t := range cfg {
		tokens = append(tokens, auth.Token{Name: t.Name, Value: t.Token})
	}
	return tokens
}
