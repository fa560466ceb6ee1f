package provider

import (
	"os"
	"path/filepath"
	"testing"

	"OpenMCP-ABI/internal/config"
)

func TestNewRegistryDefaultsToFraxtal(t *testing.T) {
	t.Parallel()

	registry, err := NewRegistry(config.Web3Config{})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	def := registry.Default()
	if def.Name != "fraxtal" || def.ChainID != 252 {
		t.Fatalf("unexpected default chain: %+v", def)
	}
	if got := def.TransactionURL("0xabc"); got != "https://fraxscan.com/tx/0xabc" {
		t.Fatalf("unexpected explorer url %q", got)
	}

	want := []string{"base", "ethereum", "fraxtal", "sepolia"}
	got := registry.Chains()
	if len(got) != len(want) {
		t.Fatalf("unexpected chains %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected chains %v", got)
		}
	}
}

func TestNewRegistryOverrides(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "chains.yaml")
	content := `default: local
chains:
  local:
    chain_id: 31337
    rpc_url: http://127.0.0.1:8545
    description: anvil
  base:
    explorer_url: https://base.blockscout.com
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write chains: %v", err)
	}

	registry, err := NewRegistry(config.Web3Config{ChainConfig: path})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if def := registry.Default(); def.Name != "local" || def.ChainID != 31337 || def.Type != "evm" {
		t.Fatalf("unexpected default chain: %+v", def)
	}
	base, ok := registry.Resolve("BASE")
	if !ok {
		t.Fatal("expected base chain")
	}
	if base.ChainID != 8453 || base.ExplorerURL != "https://base.blockscout.com" {
		t.Fatalf("override not merged: %+v", base)
	}

	registry, err = NewRegistry(config.Web3Config{ChainConfig: path, Chain: "ethereum", RPCURL: "http://node:8545", ChainID: 5})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	def := registry.Default()
	if def.RPCURL != "http://node:8545" || def.ChainID != 5 {
		t.Fatalf("rpc override not applied: %+v", def)
	}
	if other, _ := registry.Resolve("sepolia"); other.RPCURL != "https://rpc.sepolia.org" {
		t.Fatalf("override leaked into other chain: %+v", other)
	}
}

func TestNewRegistryUnknownChain(t *testing.T) {
	t.Parallel()

	if _, err := NewRegistry(config.Web3Config{Chain: "nowhere"}); err == nil {
		t.Fatal("expected error for unknown chain without rpc url")
	}

	registry, err := NewRegistry(config.Web3Config{Chain: "custom", RPCURL: "http://localhost:8545", ChainID: 99})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if def := registry.Default(); def.Name != "custom" || def.ChainID != 99 {
		t.Fatalf("unexpected custom chain: %+v", def)
	}
}
