package node

import (
	"os"
	"path/filepath"
	"testing"

	"smartrewards.dev/node/consensus"
)

func TestValidateConfigOK(t *testing.T) {
	cfg := DefaultConfig()
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateConfigRejectsEmptyNetwork(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Network = " "
	if err := ValidateConfig(cfg); err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidateConfigRejectsUnknownNetwork(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Network = "regtest"
	if err := ValidateConfig(cfg); err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidateConfigRejectsEmptyDataDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = ""
	if err := ValidateConfig(cfg); err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidateConfigRejectsInvalidLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "verbose"
	if err := ValidateConfig(cfg); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDefaultDataDirFallbackWithoutHome(t *testing.T) {
	t.Setenv("HOME", "")
	if got := DefaultDataDir(); got != ".smartrewards" {
		t.Fatalf("got=%q, want %q", got, ".smartrewards")
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.json")
	doc := `{"network":"testnet","data_dir":"/var/lib/sr","log_level":" WARN ","rewards_spork_height":5000}`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	want := Config{Network: "testnet", DataDir: "/var/lib/sr", LogLevel: "warn", RewardsSporkHeight: 5000}
	if cfg != want {
		t.Fatalf("got=%+v want=%+v", cfg, want)
	}
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("ValidateConfig: %v", err)
	}
}

func TestLoadConfigFileKeepsDefaultsForOmittedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.json")
	if err := os.WriteFile(path, []byte(`{"network":"mainnet"}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if cfg.Network != "mainnet" || cfg.LogLevel != "info" || cfg.DataDir != DefaultDataDir() {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadConfigFileRejectsUnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.json")
	if err := os.WriteFile(path, []byte(`{"peers":["127.0.0.1:1"]}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConfigFile(path); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoadConfigFileMissing(t *testing.T) {
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestConfigRewardActivation(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.RewardActivation() != consensus.AlwaysEnabled {
		t.Fatalf("zero spork height must not cap rewards")
	}
	cfg.RewardsSporkHeight = 10
	act := cfg.RewardActivation()
	if !act.RewardsEnabled(10) || act.RewardsEnabled(11) {
		t.Fatalf("spork ceiling not applied")
	}
}
