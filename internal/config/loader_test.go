package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, err := LoadDefault()
	require.NoError(t, err)
	require.Equal(t, TransportHTTP, cfg.Backend.Transport)
	require.Equal(t, 40, cfg.Browser.BatchSize)
	require.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	require.True(t, cfg.TUI.Mouse)
}

func TestLoadFromFileAndEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend:
  url: http://photos.local:9000
  timeout: 3s
  invert_direction: true
browser:
  batch_size: 25
global:
  data_dir: ~/mosaic-data
`), 0o644))

	t.Setenv("MOSAIC_BROWSER_BATCH_SIZE", "12")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, "http://photos.local:9000", cfg.Backend.URL)
	require.Equal(t, 3*time.Second, cfg.Backend.Timeout)
	require.True(t, cfg.Backend.InvertDirection)
	require.Equal(t, 12, cfg.Browser.BatchSize)

	home, _ := os.UserHomeDir()
	require.Equal(t, filepath.Join(home, "mosaic-data"), cfg.Global.DataDir)
	require.Equal(t, filepath.Join(cfg.Global.DataDir, "catalog.db"), cfg.CatalogPath())
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend.Transport = "carrier-pigeon"
	cfg.Browser.BatchSize = 0
	cfg.TUI.Theme = "neon"

	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "backend.transport")
	require.Contains(t, err.Error(), "browser.batch_size")
	require.Contains(t, err.Error(), "tui.theme")
}

func TestValidateGRPCNeedsAddr(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend.Transport = TransportGRPC
	cfg.Backend.GRPCAddr = ""
	require.ErrorContains(t, cfg.Validate(), "backend.grpc_addr")
}
