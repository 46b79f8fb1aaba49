package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for modhost
type Config struct {
	Lifecycle LifecycleConfig `mapstructure:"lifecycle"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Manifest  ManifestConfig  `mapstructure:"manifest"`
	Tick      TickConfig      `mapstructure:"tick"`
}

// LifecycleConfig controls how component transitions are executed
type LifecycleConfig struct {
	// LockTimeoutMs bounds the wait for a component's lock (default: 10000)
	LockTimeoutMs int `mapstructure:"lock_timeout_ms"`
	// PropagateErrors makes single load/unload/reload calls return component
	// failures instead of only logging them (default: false)
	PropagateErrors bool `mapstructure:"propagate_errors"`
	// Gate is the name of the readiness gate gated components wait on
	// (default: "world")
	Gate string `mapstructure:"gate"`
	// GateTimeoutMs bounds the gate wait; 0 waits until shutdown (default: 0)
	GateTimeoutMs int `mapstructure:"gate_timeout_ms"`
	// GateOpenAfterMs opens the gate this long after startup; a negative
	// value leaves it closed (default: 0)
	GateOpenAfterMs int `mapstructure:"gate_open_after_ms"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	// Enabled writes logs to Dir when true; otherwise logs go to stderr (default: false)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// Dir is where modhost.log is written. Supports ~ for the home directory.
	// Empty means ".modhost/logs" under the working directory.
	Dir string `mapstructure:"dir"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of backup log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
}

// ManifestConfig controls where the component manifest is read from
type ManifestConfig struct {
	// Path to the manifest YAML file (default: "modhost.yaml")
	Path string `mapstructure:"path"`
	// Watch re-applies the manifest whenever the file changes (default: false)
	Watch bool `mapstructure:"watch"`
	// DebounceMs coalesces bursts of file events (default: 100)
	DebounceMs int `mapstructure:"debounce_ms"`
}

// TickConfig controls the periodic update loop
type TickConfig struct {
	// IntervalMs is the frame interval; 0 disables ticking (default: 100)
	IntervalMs int `mapstructure:"interval_ms"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Lifecycle: LifecycleConfig{
			LockTimeoutMs:   10000,
			PropagateErrors: false,
			Gate:            "world",
			GateTimeoutMs:   0,
			GateOpenAfterMs: 0,
		},
		Logging: LoggingConfig{
			Enabled:    false,
			Level:      "info",
			Dir:        "",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Manifest: ManifestConfig{
			Path:       "modhost.yaml",
			Watch:      false,
			DebounceMs: 100,
		},
		Tick: TickConfig{
			IntervalMs: 100,
		},
	}
}

// LockTimeout returns the lock timeout as a time.Duration
func (c *LifecycleConfig) LockTimeout() time.Duration {
	return time.Duration(c.LockTimeoutMs) * time.Millisecond
}

// GateTimeout returns the gate timeout as a time.Duration (0 means unbounded)
func (c *LifecycleConfig) GateTimeout() time.Duration {
	return time.Duration(c.GateTimeoutMs) * time.Millisecond
}

// GateOpenAfter returns the gate open delay and whether the gate opens at all
func (c *LifecycleConfig) GateOpenAfter() (time.Duration, bool) {
	if c.GateOpenAfterMs < 0 {
		return 0, false
	}
	return time.Duration(c.GateOpenAfterMs) * time.Millisecond, true
}

// Debounce returns the manifest debounce window as a time.Duration
func (c *ManifestConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// Interval returns the tick interval as a time.Duration (0 means disabled)
func (c *TickConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

// ResolveDir returns the resolved log directory.
// If Dir is empty, it returns ".modhost/logs" relative to baseDir.
// If Dir starts with ~, it expands to the user's home directory.
// If Dir is relative, it's resolved relative to baseDir.
func (c *LoggingConfig) ResolveDir(baseDir string) string {
	if c.Dir == "" {
		return filepath.Join(baseDir, ".modhost", "logs")
	}

	path := c.Dir

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}

	return path
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Lifecycle defaults
	viper.SetDefault("lifecycle.lock_timeout_ms", defaults.Lifecycle.LockTimeoutMs)
	viper.SetDefault("lifecycle.propagate_errors", defaults.Lifecycle.PropagateErrors)
	viper.SetDefault("lifecycle.gate", defaults.Lifecycle.Gate)
	viper.SetDefault("lifecycle.gate_timeout_ms", defaults.Lifecycle.GateTimeoutMs)
	viper.SetDefault("lifecycle.gate_open_after_ms", defaults.Lifecycle.GateOpenAfterMs)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)

	// Manifest defaults
	viper.SetDefault("manifest.path", defaults.Manifest.Path)
	viper.SetDefault("manifest.watch", defaults.Manifest.Watch)
	viper.SetDefault("manifest.debounce_ms", defaults.Manifest.DebounceMs)

	// Tick defaults
	viper.SetDefault("tick.interval_ms", defaults.Tick.IntervalMs)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "modhost")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".modhost"
	}
	return filepath.Join(home, ".config", "modhost")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
