// Package config - Tests for configuration management
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nikshitha/greythr-attendance/fault"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig should not return nil")
	}

	if cfg.Timeouts.ElementSeconds != 60 {
		t.Errorf("Expected default element wait of 60, got %d", cfg.Timeouts.ElementSeconds)
	}

	if cfg.Timeouts.ProbeElementSeconds != 10 {
		t.Errorf("Expected default probe element wait of 10, got %d", cfg.Timeouts.ProbeElementSeconds)
	}

	if !cfg.Browser.Headless || !cfg.Browser.NoSandbox || !cfg.Browser.DisableGPU || !cfg.Browser.DisableDevShmUsage {
		t.Error("Headless, no-sandbox, disable-gpu and disable-dev-shm-usage should be on by default")
	}

	if cfg.Selectors.Username != (Locator{By: ByID, Value: "username"}) {
		t.Errorf("Unexpected default username locator %s", cfg.Selectors.Username)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Defaults should validate: %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative base url", func(c *Config) { c.Portal.BaseURL = "greythr.local" }},
		{"zero window", func(c *Config) { c.Browser.WindowWidth = 0 }},
		{"zero element wait", func(c *Config) { c.Timeouts.ElementSeconds = 0 }},
		{"negative settle", func(c *Config) { c.Timeouts.LogoutSettleSeconds = -1 }},
		{"unknown strategy", func(c *Config) { c.Selectors.Submit.By = "name" }},
		{"empty dashboard", func(c *Config) { c.Selectors.Dashboard.Value = " " }},
		{"bad error selector", func(c *Config) { c.Selectors.ErrorMessages = []Locator{{By: "css"}} }},
		{"bad cron", func(c *Config) { c.Schedule.Signin = "every morning" }},
		{"invalid log level", func(c *Config) { c.Logging.Level = "invalid" }},
		{"invalid log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validation should fail")
			}
		})
	}
}

func TestCredentialsValidate(t *testing.T) {
	tests := []struct {
		name  string
		creds Credentials
		ok    bool
	}{
		{"both missing", Credentials{}, false},
		{"username missing", Credentials{Password: "secret"}, false},
		{"password missing", Credentials{Username: "emp01"}, false},
		{"whitespace only", Credentials{Username: "  ", Password: "\t"}, false},
		{"both set", Credentials{Username: "emp01", Password: "secret"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.creds.Validate()
			if tt.ok && err != nil {
				t.Errorf("Expected valid credentials, got %v", err)
			}
			if !tt.ok {
				if err == nil {
					t.Fatal("Expected a configuration error")
				}
				if !fault.Is(err, fault.Config) {
					t.Errorf("Expected config kind, got %q", fault.KindOf(err))
				}
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvUsername, "env_user")
	t.Setenv(EnvPassword, "env_password")
	t.Setenv(EnvBaseURL, "https://acme.greythr.com")
	t.Setenv("BROWSER_HEADLESS", "false")
	t.Setenv("ELEMENT_WAIT_SECONDS", "15")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	if cfg.Credentials.Username != "env_user" {
		t.Errorf("Username should be overridden from env, got %s", cfg.Credentials.Username)
	}

	if cfg.Credentials.Password != "env_password" {
		t.Error("Password should be overridden from env")
	}

	if cfg.Portal.BaseURL != "https://acme.greythr.com" {
		t.Errorf("Base URL should be overridden from env, got %s", cfg.Portal.BaseURL)
	}

	if cfg.Browser.Headless {
		t.Error("Headless should be disabled from env")
	}

	if cfg.ElementTimeout() != 15*time.Second {
		t.Errorf("Element wait should be 15s from env, got %s", cfg.ElementTimeout())
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Log level should be debug from env, got %s", cfg.Logging.Level)
	}
}

func TestDurations(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.PollInterval() != 500*time.Millisecond {
		t.Errorf("Expected 500ms poll interval, got %s", cfg.PollInterval())
	}
	if cfg.SubmitSettle() != 10*time.Second {
		t.Errorf("Expected 10s submit settle, got %s", cfg.SubmitSettle())
	}
	if cfg.LogoutSettle() != 5*time.Second {
		t.Errorf("Expected 5s logout settle, got %s", cfg.LogoutSettle())
	}
}

func TestLoginURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Portal.BaseURL = "https://acme.greythr.com/"
	cfg.Portal.LoginPath = "/uas/portal/auth/login"

	if got := cfg.LoginURL(); got != "https://acme.greythr.com/uas/portal/auth/login" {
		t.Errorf("Unexpected login URL %s", got)
	}
}

func TestLoadConfigNonExistent(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err != nil {
		t.Fatalf("Should not error for non-existent file: %v", err)
	}

	if cfg.Timeouts.ElementSeconds != 60 {
		t.Error("Should have default element wait")
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
portal:
  base_url: https://acme.greythr.com
selectors:
  dashboard:
    by: css
    value: gt-home-dashboard
timeouts:
  element_seconds: 30
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Selectors.Dashboard.Value != "gt-home-dashboard" {
		t.Errorf("Dashboard selector should come from file, got %s", cfg.Selectors.Dashboard)
	}
	if cfg.Timeouts.ElementSeconds != 30 {
		t.Errorf("Element wait should come from file, got %d", cfg.Timeouts.ElementSeconds)
	}
	// Untouched sections keep defaults
	if cfg.Selectors.Username.Value != "username" {
		t.Error("Username selector should keep its default")
	}
}

func TestLoadConfigInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("logging:\n  level: loud\n"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("Expected validation failure")
	}
	if !fault.Is(err, fault.Config) {
		t.Errorf("Expected config kind, got %q", fault.KindOf(err))
	}
}

func TestSaveConfigOmitsCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Credentials = Credentials{Username: "emp01", Password: "hunter2"}

	if err := cfg.SaveConfig(path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "hunter2") || strings.Contains(string(data), "emp01") {
		t.Error("Saved config must not contain credentials")
	}
	if cfg.Credentials.Password != "hunter2" {
		t.Error("SaveConfig must not modify the receiver")
	}
}
