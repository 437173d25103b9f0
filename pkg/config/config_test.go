package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("FEEDER_GATEWAY_URL", "https://example.test/feeder_gateway")
	t.Setenv("INDEXER_COOLDOWN", "45s")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "https://example.test/feeder_gateway", cfg.FeederGatewayURL)
	require.Equal(t, 45*time.Second, cfg.Cooldown)
}

func TestLoadYAMLOverridesEnv(t *testing.T) {
	t.Setenv("INDEXER_DATA_DIR", "/env/data")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: /yaml/data\nmetrics_addr: 0.0.0.0:9999\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/yaml/data", cfg.DataDir)
	require.Equal(t, "0.0.0.0:9999", cfg.MetricsAddr)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
