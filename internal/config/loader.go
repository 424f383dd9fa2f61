package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// envPrefix is prepended to every environment override, e.g. MOSAIC_BACKEND_URL.
const envPrefix = "MOSAIC"

// Loader handles configuration loading with Viper.
type Loader struct {
	v          *viper.Viper
	configFile string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{v: viper.New()}
}

// SetConfigFile sets an explicit config file path.
func (l *Loader) SetConfigFile(path string) {
	l.configFile = path
}

// Load loads configuration with proper precedence:
// defaults < config file < env vars < CLI flags
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()
	l.setupViper(cfg)

	if err := l.loadConfigFile(); err != nil {
		// Config file is optional, only error if explicitly specified
		if l.configFile != "" {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	expandPaths(cfg)
	cfg.Backend.Transport = strings.ToLower(strings.TrimSpace(cfg.Backend.Transport))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// expandTilde expands ~ to the user's home directory.
func expandTilde(path string) string {
	if path == "" {
		return path
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

func expandPaths(cfg *Config) {
	cfg.Global.DataDir = expandTilde(cfg.Global.DataDir)
	cfg.Global.ConfigDir = expandTilde(cfg.Global.ConfigDir)
	cfg.Logging.File = expandTilde(cfg.Logging.File)
	cfg.Catalog.Path = expandTilde(cfg.Catalog.Path)
}

func (l *Loader) setupViper(cfg *Config) {
	v := l.v

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		v.AddConfigPath(filepath.Join(xdgConfig, "mosaic"))
	}
	if homeDir, _ := os.UserHomeDir(); homeDir != "" {
		v.AddConfigPath(filepath.Join(homeDir, ".config", "mosaic"))
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	l.setDefaults(cfg)

	// Unmarshal only sees env vars for keys that are bound explicitly.
	bindEnvVars(v)
	v.AutomaticEnv()
}

func (l *Loader) setDefaults(cfg *Config) {
	v := l.v

	v.SetDefault("global.data_dir", cfg.Global.DataDir)
	v.SetDefault("global.config_dir", cfg.Global.ConfigDir)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.enable_caller", cfg.Logging.EnableCaller)

	v.SetDefault("backend.url", cfg.Backend.URL)
	v.SetDefault("backend.transport", cfg.Backend.Transport)
	v.SetDefault("backend.grpc_addr", cfg.Backend.GRPCAddr)
	v.SetDefault("backend.token", cfg.Backend.Token)
	v.SetDefault("backend.timeout", cfg.Backend.Timeout)
	v.SetDefault("backend.invert_direction", cfg.Backend.InvertDirection)
	v.SetDefault("backend.cache_size", cfg.Backend.CacheSize)

	v.SetDefault("browser.batch_size", cfg.Browser.BatchSize)
	v.SetDefault("browser.initial_batch_size", cfg.Browser.InitialBatchSize)
	v.SetDefault("browser.edge_threshold", cfg.Browser.EdgeThreshold)
	v.SetDefault("browser.label_min_gap", cfg.Browser.LabelMinGap)
	v.SetDefault("browser.walk_timeout", cfg.Browser.WalkTimeout)
	v.SetDefault("browser.max_untimed_skip", cfg.Browser.MaxUntimedSkip)

	v.SetDefault("catalog.path", cfg.Catalog.Path)
	v.SetDefault("catalog.busy_timeout_ms", cfg.Catalog.BusyTimeoutMs)

	v.SetDefault("daemon.http_addr", cfg.Daemon.HTTPAddr)
	v.SetDefault("daemon.grpc_addr", cfg.Daemon.GRPCAddr)

	v.SetDefault("tui.theme", cfg.TUI.Theme)
	v.SetDefault("tui.mouse", cfg.TUI.Mouse)
}

func (l *Loader) loadConfigFile() error {
	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	}

	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return err
	}
	return nil
}

// ConfigFileUsed returns the config file that was loaded.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Set sets a Viper value by key. Used by commands to apply flag overrides.
func (l *Loader) Set(key string, value interface{}) {
	l.v.Set(key, value)
}

// Viper returns the underlying Viper instance for advanced use.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// LoadFromFile loads configuration from a specific file.
func LoadFromFile(path string) (*Config, error) {
	loader := NewLoader()
	loader.SetConfigFile(path)
	return loader.Load()
}

// LoadDefault loads configuration with default search paths.
func LoadDefault() (*Config, error) {
	return NewLoader().Load()
}

var envBindings = []string{
	"global.data_dir",
	"global.config_dir",
	"logging.level",
	"logging.format",
	"logging.file",
	"logging.enable_caller",
	"backend.url",
	"backend.transport",
	"backend.grpc_addr",
	"backend.token",
	"backend.timeout",
	"backend.invert_direction",
	"backend.cache_size",
	"browser.batch_size",
	"browser.initial_batch_size",
	"browser.edge_threshold",
	"browser.label_min_gap",
	"browser.walk_timeout",
	"browser.max_untimed_skip",
	"catalog.path",
	"catalog.busy_timeout_ms",
	"daemon.http_addr",
	"daemon.grpc_addr",
	"tui.theme",
	"tui.mouse",
}

// bindEnvVars binds MOSAIC_* variables, e.g. backend.url -> MOSAIC_BACKEND_URL.
func bindEnvVars(v *viper.Viper) {
	for _, key := range envBindings {
		envVar := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, envVar)
	}
}
