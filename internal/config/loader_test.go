package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("COMPRELAY_UPSTREAM__QUERY_BASE_URL", "https://gapi.ziqni.com")

	loader := NewLoader("COMPRELAY")
	cfg, err := loader.Load(context.Background())
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0", cfg.Server.Listen.Address)
	require.Equal(t, 3000, cfg.Server.Listen.Port)
	require.Equal(t, "info", cfg.Server.Logging.Level)
	require.Equal(t, "json", cfg.Server.Logging.Format)
	require.Equal(t, "memory", cfg.Server.Cache.Backend)
	require.Equal(t, 1800, cfg.Server.Cache.TTLSeconds)
	require.Equal(t, 300, cfg.Server.Cache.SweepSeconds)
	require.Equal(t, "https://api.ziqni.com", cfg.Upstream.PlatformBaseURL)
	require.Equal(t, "https://gapi.ziqni.com", cfg.Upstream.QueryBaseURL)
	require.Equal(t, 30, cfg.Upstream.TimeoutSeconds)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	doc := `
server:
  listen:
    port: 8081
  logging:
    level: debug
    format: text
  cache:
    ttlSeconds: 60
    sweepSeconds: 10
upstream:
  queryBaseURL: https://gapi.example.com
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	loader := NewLoader("COMPRELAY", path)
	cfg, err := loader.Load(context.Background())
	require.NoError(t, err)

	require.Equal(t, 8081, cfg.Server.Listen.Port)
	require.Equal(t, "debug", cfg.Server.Logging.Level)
	require.Equal(t, "text", cfg.Server.Logging.Format)
	require.Equal(t, 60, cfg.Server.Cache.TTLSeconds)
	require.Equal(t, 10, cfg.Server.Cache.SweepSeconds)
	require.Equal(t, "https://gapi.example.com", cfg.Upstream.QueryBaseURL)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	doc := `
server:
  listen:
    port: 8081
upstream:
  queryBaseURL: https://gapi.example.com
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	t.Setenv("COMPRELAY_SERVER__LISTEN__PORT", "9000")
	t.Setenv("COMPRELAY_UPSTREAM__QUERY_BASE_URL", "https://gapi.override.example.com")
	t.Setenv("COMPRELAY_SERVER__CACHE__TTL_SECONDS", "120")

	loader := NewLoader("COMPRELAY", path)
	cfg, err := loader.Load(context.Background())
	require.NoError(t, err)

	require.Equal(t, 9000, cfg.Server.Listen.Port)
	require.Equal(t, "https://gapi.override.example.com", cfg.Upstream.QueryBaseURL)
	require.Equal(t, 120, cfg.Server.Cache.TTLSeconds)
}

func TestLoadMissingFileFails(t *testing.T) {
	loader := NewLoader("COMPRELAY", filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := loader.Load(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

func TestLoadRejectsMissingQueryBaseURL(t *testing.T) {
	loader := NewLoader("")
	_, err := loader.Load(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "upstream.queryBaseURL")
}
