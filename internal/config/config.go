// Package config handles configuration management using Viper
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/bnema/waywall/internal/compositor"
	"github.com/bnema/waywall/internal/logger"
)

// Config represents the application configuration
type Config struct {
	Backend BackendConfig `mapstructure:"backend"`
	Surface SurfaceConfig `mapstructure:"surface"`
	Outputs OutputsConfig `mapstructure:"outputs"`
	Logging LoggingConfig `mapstructure:"logging"`
	IPC     IPCConfig     `mapstructure:"ipc"`
}

// BackendConfig controls backend selection
type BackendConfig struct {
	Preferred string `mapstructure:"preferred"` // Empty means pick from the detected compositor
}

// SurfaceConfig is the placement applied to every wallpaper surface
type SurfaceConfig struct {
	Layer                 string `mapstructure:"layer"`  // background, bottom, top, overlay
	Anchor                string `mapstructure:"anchor"` // fill, none, or e.g. "top,left"
	ExclusiveZone         int32  `mapstructure:"exclusive_zone"`
	KeyboardInteractivity bool   `mapstructure:"keyboard_interactivity"`
	Width                 int32  `mapstructure:"width"`  // 0 = output width
	Height                int32  `mapstructure:"height"` // 0 = output height
}

// OutputsConfig restricts which outputs get a surface
type OutputsConfig struct {
	Include []string `mapstructure:"include"` // Output identifiers; empty means all
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	LogLevel string `mapstructure:"log_level"` // Override LOG_LEVEL env var
	File     string `mapstructure:"file"`      // Also log to this file when set
}

// IPCConfig controls the control socket
type IPCConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Socket  string `mapstructure:"socket"` // Empty means $XDG_RUNTIME_DIR/waywall.sock
}

var (
	// DefaultConfig provides sensible defaults
	DefaultConfig = Config{
		Backend: BackendConfig{
			Preferred: "",
		},
		Surface: SurfaceConfig{
			Layer:         "background",
			Anchor:        "fill",
			ExclusiveZone: -1,
		},
		Outputs: OutputsConfig{
			Include: []string{},
		},
		Logging: LoggingConfig{
			LogLevel: "", // Empty means use LOG_LEVEL env var
		},
		IPC: IPCConfig{
			Enabled: true,
		},
	}

	// Global config instance
	cfg *Config

	// Override config path if set
	configPathOverride string
)

// SetConfigPath allows overriding the config path
func SetConfigPath(path string) {
	configPathOverride = path
}

// Init initializes the configuration system
func Init() error {
	viper.SetConfigName("waywall")
	viper.SetConfigType("toml")

	if configPathOverride != "" {
		viper.SetConfigFile(configPathOverride)
	} else {
		viper.AddConfigPath(userConfigDir())
		viper.AddConfigPath("/etc/waywall")
	}

	setDefaults()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		// An explicit --config path that does not exist yet reports a plain
		// not-exist error instead of ConfigFileNotFoundError
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	c, err := load()
	if err != nil {
		return err
	}
	cfg = c
	return nil
}

func setDefaults() {
	viper.SetDefault("backend.preferred", DefaultConfig.Backend.Preferred)

	viper.SetDefault("surface.layer", DefaultConfig.Surface.Layer)
	viper.SetDefault("surface.anchor", DefaultConfig.Surface.Anchor)
	viper.SetDefault("surface.exclusive_zone", DefaultConfig.Surface.ExclusiveZone)
	viper.SetDefault("surface.keyboard_interactivity", DefaultConfig.Surface.KeyboardInteractivity)
	viper.SetDefault("surface.width", DefaultConfig.Surface.Width)
	viper.SetDefault("surface.height", DefaultConfig.Surface.Height)

	viper.SetDefault("outputs.include", DefaultConfig.Outputs.Include)

	viper.SetDefault("logging.log_level", DefaultConfig.Logging.LogLevel)
	viper.SetDefault("logging.file", DefaultConfig.Logging.File)

	viper.SetDefault("ipc.enabled", DefaultConfig.IPC.Enabled)
	viper.SetDefault("ipc.socket", DefaultConfig.IPC.Socket)
}

func load() (*Config, error) {
	c := &Config{}
	if err := viper.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config: %w", err)
	}
	if _, err := c.Surface.Compositor(); err != nil {
		return nil, fmt.Errorf("invalid surface config: %w", err)
	}
	return c, nil
}

// Get returns the current configuration
func Get() *Config {
	if cfg == nil {
		// Return defaults if not initialized
		return &DefaultConfig
	}
	return cfg
}

// Set sets the current configuration (for testing)
func Set(c *Config) {
	cfg = c
}

// Watch reloads the file on change and hands every valid result to fn. fn runs
// on the watcher goroutine.
func Watch(fn func(*Config)) {
	viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		logger.Infof("Config file changed: %s", e.Name)

		c, err := load()
		if err != nil {
			logger.Errorf("Ignoring config change: %v", err)
			return
		}
		cfg = c
		fn(c)
	})
	viper.WatchConfig()
}

// Save saves the current configuration to file
func Save() error {
	configPath := GetConfigPath()

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		if os.IsPermission(err) && strings.HasPrefix(configPath, "/etc/") {
			return fmt.Errorf("failed to create config directory %s: permission denied. Try running with sudo", dir)
		}
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Update stores c in viper and the global instance, then saves it
func Update(c *Config) error {
	if _, err := c.Surface.Compositor(); err != nil {
		return fmt.Errorf("invalid surface config: %w", err)
	}

	viper.Set("backend.preferred", c.Backend.Preferred)
	viper.Set("surface.layer", c.Surface.Layer)
	viper.Set("surface.anchor", c.Surface.Anchor)
	viper.Set("surface.exclusive_zone", c.Surface.ExclusiveZone)
	viper.Set("surface.keyboard_interactivity", c.Surface.KeyboardInteractivity)
	viper.Set("surface.width", c.Surface.Width)
	viper.Set("surface.height", c.Surface.Height)
	viper.Set("outputs.include", c.Outputs.Include)
	viper.Set("logging.log_level", c.Logging.LogLevel)
	viper.Set("logging.file", c.Logging.File)
	viper.Set("ipc.enabled", c.IPC.Enabled)
	viper.Set("ipc.socket", c.IPC.Socket)

	cfg = c
	return Save()
}

// GetConfigPath returns the path to the config file
func GetConfigPath() string {
	if configPathOverride != "" {
		return configPathOverride
	}

	if viper.ConfigFileUsed() != "" {
		return viper.ConfigFileUsed()
	}

	return filepath.Join(userConfigDir(), "waywall.toml")
}

func userConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "waywall")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "/etc/waywall"
	}
	return filepath.Join(home, ".config", "waywall")
}

// Compositor converts the file representation into a surface config
func (s SurfaceConfig) Compositor() (compositor.SurfaceConfig, error) {
	layer, err := compositor.ParseLayer(s.Layer)
	if err != nil {
		return compositor.SurfaceConfig{}, err
	}
	anchor, err := compositor.ParseAnchor(s.Anchor)
	if err != nil {
		return compositor.SurfaceConfig{}, err
	}
	if s.Width < 0 || s.Height < 0 {
		return compositor.SurfaceConfig{}, fmt.Errorf("negative surface size %dx%d", s.Width, s.Height)
	}
	if s.ExclusiveZone < -1 {
		return compositor.SurfaceConfig{}, fmt.Errorf("exclusive_zone must be -1, 0 or a pixel count, got %d", s.ExclusiveZone)
	}

	return compositor.SurfaceConfig{
		Layer:                 layer,
		Anchor:                anchor,
		ExclusiveZone:         s.ExclusiveZone,
		KeyboardInteractivity: s.KeyboardInteractivity,
		Width:                 s.Width,
		Height:                s.Height,
	}, nil
}

// Covers reports whether an output identifier is selected by Include
func (o OutputsConfig) Covers(identifier string) bool {
	if len(o.Include) == 0 {
		return true
	}
	for _, id := range o.Include {
		if id == identifier || id == "*" {
			return true
		}
	}
	return false
}
