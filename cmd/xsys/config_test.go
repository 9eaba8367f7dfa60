package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "xsys.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	require.Equal(t, defaultConfig(), cfg)
	require.NoError(t, cfg.validate())
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
strategy: broadcast
bus_id: orders
nats_url: nats://nats:4222
patterns:
  - order.*
  - invoice.paid
metrics_addr: ":9090"
log_level: debug
`)

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "broadcast", cfg.Strategy)
	require.Equal(t, "orders", cfg.BusID)
	require.Equal(t, "nats://nats:4222", cfg.NatsURL)
	require.Equal(t, []string{"order.*", "invoice.paid"}, cfg.Patterns)
	require.Equal(t, ":9090", cfg.MetricsAddr)
	require.Empty(t, cfg.WebsocketAddr)
	require.NoError(t, cfg.validate())
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = loadConfig(writeConfig(t, "patterns: {"))
	require.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	cfg := defaultConfig()
	cfg.Strategy = "multicast"
	require.Error(t, cfg.validate())

	cfg = defaultConfig()
	cfg.BusID = ""
	require.Error(t, cfg.validate())

	cfg = defaultConfig()
	cfg.LogLevel = "loud"
	require.Error(t, cfg.validate())

	cfg = defaultConfig()
	cfg.LogLevel = "warn"
	require.NoError(t, cfg.validate())
}

func TestMergeFlags(t *testing.T) {
	file := defaultConfig()
	file.BusID = "from-file"
	file.MetricsAddr = ":9090"

	require.NoError(t, relayCmd.Flags().Set("strategy", "global-broadcast"))
	require.NoError(t, relayCmd.Flags().Set("pattern", "a.*"))
	require.NoError(t, relayCmd.Flags().Set("pattern", "b"))

	cfg := mergeFlags(relayCmd, file, relayFlags)
	require.Equal(t, "global-broadcast", cfg.Strategy)
	require.Equal(t, []string{"a.*", "b"}, cfg.Patterns)
	// untouched flags keep the file values
	require.Equal(t, "from-file", cfg.BusID)
	require.Equal(t, ":9090", cfg.MetricsAddr)
}
