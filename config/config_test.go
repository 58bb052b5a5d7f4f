package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yllada/quicklinks/common"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.SecurityKeys.PollInterval != time.Second {
		t.Errorf("PollInterval = %v, want 1s", cfg.SecurityKeys.PollInterval)
	}
	if cfg.SecurityKeys.ErrorBackoff != 5*time.Second {
		t.Errorf("ErrorBackoff = %v, want 5s", cfg.SecurityKeys.ErrorBackoff)
	}
	if cfg.VPN.StatusInterval != 2*time.Second {
		t.Errorf("StatusInterval = %v, want 2s", cfg.VPN.StatusInterval)
	}
	if cfg.VPN.CommandTimeout != 5*time.Second {
		t.Errorf("CommandTimeout = %v, want 5s", cfg.VPN.CommandTimeout)
	}
	if cfg.Notifications.DisplayLimit != 10 {
		t.Errorf("DisplayLimit = %v, want 10", cfg.Notifications.DisplayLimit)
	}
	if !cfg.Notifications.Desktop {
		t.Error("Desktop notifications should be enabled by default")
	}
}

func TestLoadFrom_CreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if !common.FileExists(path) {
		t.Error("LoadFrom should write a default config file")
	}
	if cfg.Path() != path {
		t.Errorf("Path() = %q, want %q", cfg.Path(), path)
	}

	again, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() reload error = %v", err)
	}
	if again.SecurityKeys.PollInterval != cfg.SecurityKeys.PollInterval {
		t.Errorf("reloaded PollInterval = %v, want %v", again.SecurityKeys.PollInterval, cfg.SecurityKeys.PollInterval)
	}
}

func TestLoadFrom_ParsesValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `log_level: debug
security_keys:
  poll_interval: 250ms
  error_backoff: 2s
vpn:
  enabled: false
  server: vpn.example.com
  username: alice
links:
  Tickets: https://tickets.example.com
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.SecurityKeys.PollInterval != 250*time.Millisecond {
		t.Errorf("PollInterval = %v, want 250ms", cfg.SecurityKeys.PollInterval)
	}
	if cfg.SecurityKeys.ErrorBackoff != 2*time.Second {
		t.Errorf("ErrorBackoff = %v, want 2s", cfg.SecurityKeys.ErrorBackoff)
	}
	// Unset fields keep their defaults.
	if cfg.SecurityKeys.JoinTimeout != common.JoinTimeout {
		t.Errorf("JoinTimeout = %v, want default %v", cfg.SecurityKeys.JoinTimeout, common.JoinTimeout)
	}
	if cfg.VPN.Enabled {
		t.Error("VPN.Enabled should be false")
	}
	if cfg.VPN.Server != "vpn.example.com" {
		t.Errorf("VPN.Server = %q", cfg.VPN.Server)
	}
	if cfg.Links["Tickets"] != "https://tickets.example.com" {
		t.Errorf("Links = %v", cfg.Links)
	}
}

func TestLoadFrom_RejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("unknown_field: true\n"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFrom(path)
	if !errors.Is(err, common.ErrConfigLoad) {
		t.Errorf("LoadFrom() error = %v, want ErrConfigLoad", err)
	}
}

func TestValidate_ReplacesInvalidValues(t *testing.T) {
	cfg := &Config{
		LogLevel: "loud",
		SecurityKeys: SecurityKeyConfig{
			PollInterval: -1,
		},
		Notifications: NotificationConfig{DisplayLimit: 0},
	}

	cfg.validate()

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.SecurityKeys.PollInterval != common.KeyPollInterval {
		t.Errorf("PollInterval = %v, want default", cfg.SecurityKeys.PollInterval)
	}
	if cfg.Notifications.DisplayLimit != common.DisplayLimit {
		t.Errorf("DisplayLimit = %v, want default", cfg.Notifications.DisplayLimit)
	}
	if cfg.Links == nil {
		t.Error("Links should be initialized")
	}
}

func TestNotificationsPath(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadFrom(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	got, err := cfg.NotificationsPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, common.NotificationsFileName); got != want {
		t.Errorf("NotificationsPath() = %q, want %q", got, want)
	}

	cfg.Notifications.File = "/tmp/custom.json"
	got, _ = cfg.NotificationsPath()
	if got != "/tmp/custom.json" {
		t.Errorf("NotificationsPath() override = %q", got)
	}
}
