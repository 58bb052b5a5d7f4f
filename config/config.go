// Package config provides configuration management for the QuickLinks dashboard.
// It handles loading, saving, and validating application settings.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yllada/quicklinks/common"
)

// Config represents the application configuration.
// All settings are persisted to a YAML file in the user's config directory.
type Config struct {
	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level"`
	// SecurityKeys configures the presence monitor.
	SecurityKeys SecurityKeyConfig `yaml:"security_keys"`
	// Notifications configures the notification log and desktop delivery.
	Notifications NotificationConfig `yaml:"notifications"`
	// VPN configures the vendor VPN client wrapper.
	VPN VPNConfig `yaml:"vpn"`
	// Links maps display names to intranet URLs.
	Links map[string]string `yaml:"links"`

	path string
}

// SecurityKeyConfig holds presence monitor settings.
type SecurityKeyConfig struct {
	// PollInterval is the time between enumeration cycles.
	PollInterval time.Duration `yaml:"poll_interval"`
	// ErrorBackoff is the wait after a failed enumeration.
	ErrorBackoff time.Duration `yaml:"error_backoff"`
	// JoinTimeout bounds how long shutdown waits for the poll loop.
	JoinTimeout time.Duration `yaml:"join_timeout"`
}

// NotificationConfig holds notification settings.
type NotificationConfig struct {
	// File is the JSON history path. Empty means the config directory.
	File string `yaml:"file"`
	// DisplayLimit is how many recent entries the dashboard shows.
	DisplayLimit int `yaml:"display_limit"`
	// Desktop enables OS notifications for security key events.
	Desktop bool `yaml:"desktop"`
}

// VPNConfig holds settings for the vendor VPN client.
type VPNConfig struct {
	// Enabled turns VPN status monitoring on.
	Enabled bool `yaml:"enabled"`
	// Server is the VPN head-end passed to "connect".
	Server string `yaml:"server"`
	// Username is the account used for scripted connects.
	Username string `yaml:"username"`
	// CLIPath overrides vendor CLI discovery.
	CLIPath string `yaml:"cli_path"`
	// StatusInterval is the time between status checks.
	StatusInterval time.Duration `yaml:"status_interval"`
	// CommandTimeout bounds each CLI invocation.
	CommandTimeout time.Duration `yaml:"command_timeout"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		SecurityKeys: SecurityKeyConfig{
			PollInterval: common.KeyPollInterval,
			ErrorBackoff: common.KeyErrorBackoff,
			JoinTimeout:  common.JoinTimeout,
		},
		Notifications: NotificationConfig{
			DisplayLimit: common.DisplayLimit,
			Desktop:      true,
		},
		VPN: VPNConfig{
			Enabled:        true,
			StatusInterval: common.VPNStatusInterval,
			CommandTimeout: common.VPNCommandTimeout,
		},
		Links: map[string]string{},
	}
}

// Load loads the configuration from the default config file.
// If the file doesn't exist, it creates one with default values.
func Load() (*Config, error) {
	configPath, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from path, writing defaults there
// when the file is missing.
func LoadFrom(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.path = configPath
		if err := cfg.Save(); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrConfigLoad, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	cfg := DefaultConfig()
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: error parsing configuration: %v", common.ErrConfigLoad, err)
	}
	cfg.path = configPath
	cfg.validate()

	return cfg, nil
}

// validate replaces out-of-range values with defaults.
func (c *Config) validate() {
	def := DefaultConfig()

	if c.SecurityKeys.PollInterval <= 0 {
		c.SecurityKeys.PollInterval = def.SecurityKeys.PollInterval
	}
	if c.SecurityKeys.ErrorBackoff <= 0 {
		c.SecurityKeys.ErrorBackoff = def.SecurityKeys.ErrorBackoff
	}
	if c.SecurityKeys.JoinTimeout <= 0 {
		c.SecurityKeys.JoinTimeout = def.SecurityKeys.JoinTimeout
	}
	if c.Notifications.DisplayLimit <= 0 {
		c.Notifications.DisplayLimit = def.Notifications.DisplayLimit
	}
	if c.VPN.StatusInterval <= 0 {
		c.VPN.StatusInterval = def.VPN.StatusInterval
	}
	if c.VPN.CommandTimeout <= 0 {
		c.VPN.CommandTimeout = def.VPN.CommandTimeout
	}
	if c.Links == nil {
		c.Links = map[string]string{}
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		c.LogLevel = def.LogLevel
	}
}

// Save saves the configuration to the file it was loaded from,
// or to the default path.
func (c *Config) Save() error {
	configPath := c.path
	if configPath == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		configPath = p
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("%w: error serializing configuration: %v", common.ErrConfigSave, err)
	}

	if err := common.WriteFileAtomic(configPath, data, 0600); err != nil {
		return fmt.Errorf("%w: %v", common.ErrConfigSave, err)
	}

	c.path = configPath
	return nil
}

// Path returns the file the configuration was loaded from or saved to.
func (c *Config) Path() string {
	return c.path
}

// Dir returns the directory holding the configuration file and the
// other per-user state files.
func (c *Config) Dir() (string, error) {
	if c.path != "" {
		return filepath.Dir(c.path), nil
	}
	return common.GetConfigDir()
}

// NotificationsPath resolves the notification history file.
func (c *Config) NotificationsPath() (string, error) {
	if c.Notifications.File != "" {
		return c.Notifications.File, nil
	}
	dir, err := c.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, common.NotificationsFileName), nil
}

// DefaultPath returns ~/.config/quicklinks/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error getting home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", common.ConfigDirName, common.ConfigFileName), nil
}
