// Package config loads runtime configuration from environment variables
// and an optional YAML file, mirroring the original service's
// os.environ-driven settings while giving this Go port a typed,
// file-backed alternative the way the teacher's own apply command
// layers YAML onto flags. FEEDER_GATEWAY_URL and GATEWAY_URL keep the
// original names; the data directory comes from INDEXER_DATA_DIR, and
// ASYNC_DATABASE_URL is not read.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config bounds every external dependency and timing knob the crawler,
// interpreter and signature-checking HTTP surface need. Zero-value
// fields are filled from environment variables by Load, then from
// defaults; an explicit YAML file can override either.
type Config struct {
	DataDir          string        `yaml:"data_dir"`
	FeederGatewayURL string        `yaml:"feeder_gateway_url"`
	GatewayURL       string        `yaml:"gateway_url"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	Cooldown         time.Duration `yaml:"cooldown"`
	PollInterval     time.Duration `yaml:"poll_interval"`
	MetadataTimeout  time.Duration `yaml:"metadata_timeout"`
	MetricsAddr      string        `yaml:"metrics_addr"`
}

// Default returns the configuration used when no file and no
// environment overrides are present.
func Default() Config {
	return Config{
		DataDir:          "./data",
		FeederGatewayURL: "https://alpha4.starknet.io/feeder_gateway",
		GatewayURL:       "https://alpha4.starknet.io/gateway",
		RequestTimeout:   10 * time.Second,
		Cooldown:         30 * time.Second,
		PollInterval:     5 * time.Second,
		MetadataTimeout:  10 * time.Second,
		MetricsAddr:      "127.0.0.1:9090",
	}
}

// Load builds a Config starting from Default, applying environment
// variables, then applying path's YAML contents if path is non-empty.
// Each layer only overrides fields it actually sets.
func Load(path string) (Config, error) {
	cfg := Default()
	applyEnv(&cfg)

	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("INDEXER_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("FEEDER_GATEWAY_URL"); v != "" {
		cfg.FeederGatewayURL = v
	}
	if v := os.Getenv("GATEWAY_URL"); v != "" {
		cfg.GatewayURL = v
	}
	if v := os.Getenv("INDEXER_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RequestTimeout = d
		}
	}
	if v := os.Getenv("INDEXER_COOLDOWN"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cooldown = d
		}
	}
	if v := os.Getenv("INDEXER_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.PollInterval = d
		}
	}
	if v := os.Getenv("INDEXER_METADATA_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.MetadataTimeout = d
		}
	}
	if v := os.Getenv("INDEXER_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
}
