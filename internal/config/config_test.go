package config

import (
	"os"
	"path/filepath"
	"testing"

	xerrors "OpenMCP-ABI/internal/errors"
)

func envMap(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "openmcp.json")
	content := `{
  "contract": {"name": "Token", "address": "0x0000000000000000000000000000000000000011", "abi_path": "abi/Token.json"},
  "web3": {"chain_config": "chains.yaml"}
}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Retry.MaxRetries != 3 || cfg.Retry.InitialBackoff().Seconds() != 1 {
		t.Fatalf("unexpected retry defaults: %+v", cfg.Retry)
	}
	if cfg.Journal.Driver != "memory" {
		t.Fatalf("unexpected journal driver %q", cfg.Journal.Driver)
	}
	if cfg.Contract.ABIPath != filepath.Join(dir, "abi/Token.json") {
		t.Fatalf("abi path not resolved: %s", cfg.Contract.ABIPath)
	}
	if cfg.Web3.ChainConfig != filepath.Join(dir, "chains.yaml") {
		t.Fatalf("chain config not resolved: %s", cfg.Web3.ChainConfig)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed json")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg.Wallet.PrivateKeyEnv = "SIGNER_KEY"

	err = cfg.ApplyEnv(envMap(map[string]string{
		"CONTRACT_NAME":     "Vault",
		"CONTRACT_ADDRESS":  "0x0000000000000000000000000000000000000022",
		"CONTRACT_ABI_PATH": "/abi/Vault.json",
		"CHAIN":             "base",
		"RPC_URL":           " http://localhost:8545 ",
		"CHAIN_ID":          "8453",
		"SIGNER_KEY":        "0xabc",
		"OPS_API_TOKEN":     "ops-secret",
	}))
	if err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if cfg.Contract.Name != "Vault" || cfg.Contract.ABIPath != "/abi/Vault.json" {
		t.Fatalf("contract not overridden: %+v", cfg.Contract)
	}
	if cfg.Web3.Chain != "base" || cfg.Web3.RPCURL != "http://localhost:8545" || cfg.Web3.ChainID != 8453 {
		t.Fatalf("web3 not overridden: %+v", cfg.Web3)
	}
	if cfg.Wallet.PrivateKey != "0xabc" {
		t.Fatalf("private key env not resolved: %q", cfg.Wallet.PrivateKey)
	}
	if len(cfg.Server.APITokens) != 1 || cfg.Server.APITokens[0].Token != "ops-secret" {
		t.Fatalf("api token env not applied: %+v", cfg.Server.APITokens)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	err = cfg.ApplyEnv(envMap(map[string]string{"CHAIN_ID": "abc"}))
	if xerrors.CodeOf(err) != xerrors.CodeConfiguration {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		cfg, _ := Load("")
		cfg.Contract.Name = "Token"
		cfg.Contract.Address = "0x0000000000000000000000000000000000000011"
		cfg.Contract.ABI = []byte(`[]`)
		return cfg
	}

	cases := map[string]func(*Config){
		"missing name":    func(c *Config) { c.Contract.Name = " " },
		"bad address":     func(c *Config) { c.Contract.Address = "0x1234" },
		"missing abi":     func(c *Config) { c.Contract.ABI = nil },
		"unknown journal": func(c *Config) { c.Journal.Driver = "kafka" },
	}
	for name, mutate := range cases {
		cfg := valid()
		mutate(cfg)
		err := cfg.Validate()
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		if xerrors.CodeOf(err) != xerrors.CodeConfiguration {
			t.Fatalf("%s: unexpected code %s", name, xerrors.CodeOf(err))
		}
	}
	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}
