package node

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"smartrewards.dev/node/consensus"
)

type Config struct {
	Network  string `json:"network"`
	DataDir  string `json:"data_dir"`
	LogLevel string `json:"log_level"`
	// RewardsSporkHeight is the last height at which reward payouts are
	// enforced. Zero means no ceiling.
	RewardsSporkHeight uint64 `json:"rewards_spork_height"`
}

var allowedLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".smartrewards"
	}
	return filepath.Join(home, ".smartrewards")
}

func DefaultConfig() Config {
	return Config{
		Network:  "devnet",
		DataDir:  DefaultDataDir(),
		LogLevel: "info",
	}
}

// LoadConfigFile overlays the JSON document at path on DefaultConfig. Unknown
// fields are rejected.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()
	raw, err := ReadFileByPath(path, maxConfigFileBytes)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	return cfg, nil
}

func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.Network) == "" {
		return errors.New("network is required")
	}
	if _, err := consensus.RewardParamsForNetwork(cfg.Network); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return errors.New("data_dir is required")
	}
	logLevel := strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if _, ok := allowedLogLevels[logLevel]; !ok {
		return fmt.Errorf("invalid log_level %q", cfg.LogLevel)
	}
	return nil
}

// RewardActivation maps the spork setting onto the activation signal.
func (cfg Config) RewardActivation() consensus.RewardActivation {
	if cfg.RewardsSporkHeight == 0 {
		return consensus.AlwaysEnabled
	}
	return consensus.SporkCeiling(cfg.RewardsSporkHeight)
}
