// Package config handles Mosaic configuration loading and validation.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tOgg1/mosaic/internal/models"
)

// Backend transports.
const (
	TransportHTTP = "http"
	TransportGRPC = "grpc"
)

// Config is the root configuration structure for Mosaic.
type Config struct {
	Global  GlobalConfig  `yaml:"global" mapstructure:"global"`
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Backend BackendConfig `yaml:"backend" mapstructure:"backend"`
	Browser BrowserConfig `yaml:"browser" mapstructure:"browser"`
	Catalog CatalogConfig `yaml:"catalog" mapstructure:"catalog"`
	Daemon  DaemonConfig  `yaml:"daemon" mapstructure:"daemon"`
	TUI     TUIConfig     `yaml:"tui" mapstructure:"tui"`
}

// GlobalConfig contains global settings.
type GlobalConfig struct {
	// DataDir holds browser state, logs and the demo catalog (default: ~/.local/share/mosaic).
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	// ConfigDir is where config files are stored (default: ~/.config/mosaic).
	ConfigDir string `yaml:"config_dir" mapstructure:"config_dir"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is the log file path. The browser always logs to a file.
	File string `yaml:"file" mapstructure:"file"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// BackendConfig describes how to reach the navigation backend.
type BackendConfig struct {
	// URL is the HTTP base URL of the photo backend.
	URL string `yaml:"url" mapstructure:"url"`

	// Transport selects http or grpc.
	Transport string `yaml:"transport" mapstructure:"transport"`

	// GRPCAddr is the host:port of the gRPC navigator service.
	GRPCAddr string `yaml:"grpc_addr" mapstructure:"grpc_addr"`

	// Token is sent as a bearer token when set.
	Token string `yaml:"token" mapstructure:"token"`

	// Timeout bounds a single navigation round trip.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// InvertDirection swaps next/previous for backends where next means older.
	InvertDirection bool `yaml:"invert_direction" mapstructure:"invert_direction"`

	// CacheSize is the number of neighbor lookups kept in memory (0 disables).
	CacheSize int `yaml:"cache_size" mapstructure:"cache_size"`
}

// BrowserConfig tunes the chronological browser.
type BrowserConfig struct {
	// BatchSize is the number of items fetched per edge-load.
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size"`

	// InitialBatchSize is the number of items loaded around a jump target.
	InitialBatchSize int `yaml:"initial_batch_size" mapstructure:"initial_batch_size"`

	// EdgeThreshold is the distance in rows from an edge that triggers a load.
	EdgeThreshold int `yaml:"edge_threshold" mapstructure:"edge_threshold"`

	// LabelMinGap is the minimum row distance between scrubber labels.
	LabelMinGap int `yaml:"label_min_gap" mapstructure:"label_min_gap"`

	// WalkTimeout bounds a whole neighbor walk (0 means no limit).
	WalkTimeout time.Duration `yaml:"walk_timeout" mapstructure:"walk_timeout"`

	// MaxUntimedSkip caps consecutive timestamp-less items skipped by a walk.
	MaxUntimedSkip int `yaml:"max_untimed_skip" mapstructure:"max_untimed_skip"`
}

// CatalogConfig configures the SQLite catalog served by mosaicd.
type CatalogConfig struct {
	// Path is the SQLite database file path.
	Path string `yaml:"path" mapstructure:"path"`

	// BusyTimeoutMs is how long to wait for a locked database (milliseconds).
	BusyTimeoutMs int `yaml:"busy_timeout_ms" mapstructure:"busy_timeout_ms"`
}

// DaemonConfig configures mosaicd listeners.
type DaemonConfig struct {
	HTTPAddr string `yaml:"http_addr" mapstructure:"http_addr"`
	GRPCAddr string `yaml:"grpc_addr" mapstructure:"grpc_addr"`
}

// TUIConfig contains TUI settings.
type TUIConfig struct {
	// Theme is the color theme (default, high-contrast).
	Theme string `yaml:"theme" mapstructure:"theme"`

	// Mouse enables wheel and scrubber click handling.
	Mouse bool `yaml:"mouse" mapstructure:"mouse"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Global: GlobalConfig{
			DataDir:   filepath.Join(homeDir, ".local", "share", "mosaic"),
			ConfigDir: filepath.Join(homeDir, ".config", "mosaic"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Backend: BackendConfig{
			URL:       "http://127.0.0.1:8787",
			Transport: TransportHTTP,
			GRPCAddr:  "127.0.0.1:8788",
			Timeout:   10 * time.Second,
			CacheSize: 4096,
		},
		Browser: BrowserConfig{
			BatchSize:        40,
			InitialBatchSize: 60,
			EdgeThreshold:    3,
			LabelMinGap:      2,
			MaxUntimedSkip:   64,
		},
		Catalog: CatalogConfig{
			BusyTimeoutMs: 5000,
		},
		Daemon: DaemonConfig{
			HTTPAddr: "127.0.0.1:8787",
			GRPCAddr: "127.0.0.1:8788",
		},
		TUI: TUIConfig{
			Theme: "default",
			Mouse: true,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs models.ValidationErrors

	switch strings.ToLower(c.Backend.Transport) {
	case TransportHTTP:
		if u, err := url.Parse(c.Backend.URL); err != nil || u.Scheme == "" || u.Host == "" {
			errs.AddMessage("backend.url", "must be an absolute http(s) URL")
		}
	case TransportGRPC:
		if strings.TrimSpace(c.Backend.GRPCAddr) == "" {
			errs.AddMessage("backend.grpc_addr", "is required for the grpc transport")
		}
	default:
		errs.AddMessage("backend.transport", "must be one of http, grpc")
	}
	if c.Backend.Timeout < 0 {
		errs.AddMessage("backend.timeout", "must not be negative")
	}
	if c.Backend.CacheSize < 0 {
		errs.AddMessage("backend.cache_size", "must not be negative")
	}

	if c.Browser.BatchSize < 1 {
		errs.AddMessage("browser.batch_size", "must be at least 1")
	}
	if c.Browser.InitialBatchSize < 1 {
		errs.AddMessage("browser.initial_batch_size", "must be at least 1")
	}
	if c.Browser.EdgeThreshold < 0 {
		errs.AddMessage("browser.edge_threshold", "must not be negative")
	}
	if c.Browser.LabelMinGap < 1 {
		errs.AddMessage("browser.label_min_gap", "must be at least 1")
	}
	if c.Browser.WalkTimeout < 0 {
		errs.AddMessage("browser.walk_timeout", "must not be negative")
	}
	if c.Browser.MaxUntimedSkip < 0 {
		errs.AddMessage("browser.max_untimed_skip", "must not be negative")
	}

	if c.Catalog.BusyTimeoutMs < 0 {
		errs.AddMessage("catalog.busy_timeout_ms", "must not be negative")
	}

	switch c.TUI.Theme {
	case "default", "high-contrast":
	default:
		errs.AddMessage("tui.theme", "must be one of default, high-contrast")
	}

	return errs.Err()
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Global.DataDir, c.Global.ConfigDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// CatalogPath returns the full catalog database path.
func (c *Config) CatalogPath() string {
	if c.Catalog.Path != "" {
		return c.Catalog.Path
	}
	return filepath.Join(c.Global.DataDir, "catalog.db")
}

// LogPath returns the log file path.
func (c *Config) LogPath() string {
	if c.Logging.File != "" {
		return c.Logging.File
	}
	return filepath.Join(c.Global.DataDir, "mosaic.log")
}

// StatePath returns the browser state file path.
func (c *Config) StatePath() string {
	return filepath.Join(c.Global.DataDir, "browser-state.json")
}

// JumpRequestPath returns the file watched for external jump requests.
func (c *Config) JumpRequestPath() string {
	return filepath.Join(c.Global.DataDir, "jump-request")
}
