// Package config provides configuration management for the attendance tool.
// It supports an optional YAML configuration file with environment variable overrides.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/nikshitha/greythr-attendance/fault"
)

// Environment variables recognized by applyEnvOverrides.
const (
	EnvUsername = "GREYTHR_USERNAME"
	EnvPassword = "GREYTHR_PASSWORD"
	EnvBaseURL  = "GREYTHR_BASE_URL"
)

// Config holds all configuration settings for the attendance tool
type Config struct {
	// greytHR credentials, normally injected through the environment
	Credentials Credentials `yaml:"greythr"`

	// Portal endpoints
	Portal PortalConfig `yaml:"portal"`

	// Browser launch options
	Browser BrowserConfig `yaml:"browser"`

	// Bounded waits and settle delays
	Timeouts TimeoutConfig `yaml:"timeouts"`

	// Deployment-specific element locators
	Selectors SelectorConfig `yaml:"selectors"`

	// Failure artifacts
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging"`

	// Crontab generation
	Schedule ScheduleConfig `yaml:"schedule"`
}

// Credentials is the username/password pair used for one run.
type Credentials struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// PortalConfig holds the attendance portal URLs
type PortalConfig struct {
	BaseURL        string `yaml:"base_url"`
	LoginPath      string `yaml:"login_path"`
	AttendancePath string `yaml:"attendance_path"`
}

// BrowserConfig holds browser launch settings. Each flag is applied independently.
type BrowserConfig struct {
	Headless           bool   `yaml:"headless"`
	DisableGPU         bool   `yaml:"disable_gpu"`
	NoSandbox          bool   `yaml:"no_sandbox"`
	DisableDevShmUsage bool   `yaml:"disable_dev_shm_usage"`
	Stealth            bool   `yaml:"stealth"`
	WindowWidth        int    `yaml:"window_width"`
	WindowHeight       int    `yaml:"window_height"`
	Bin                string `yaml:"bin"`
}

// TimeoutConfig holds wait durations
type TimeoutConfig struct {
	ElementSeconds      int `yaml:"element_seconds"`
	ProbeElementSeconds int `yaml:"probe_element_seconds"`
	PageLoadSeconds     int `yaml:"page_load_seconds"`
	PollIntervalMs      int `yaml:"poll_interval_ms"`
	LoadSettleSeconds   int `yaml:"load_settle_seconds"`
	SubmitSettleSeconds int `yaml:"submit_settle_seconds"`
	LogoutSettleSeconds int `yaml:"logout_settle_seconds"`
	HTTPSeconds         int `yaml:"http_seconds"`
}

// Locator identifies an element by strategy and value.
type Locator struct {
	By    string `yaml:"by"`
	Value string `yaml:"value"`
}

// Locating strategies accepted in Locator.By.
const (
	ByID    = "id"
	ByCSS   = "css"
	ByXPath = "xpath"
)

func (l Locator) String() string {
	return l.By + "=" + l.Value
}

// Validate checks the strategy and value of a locator.
func (l Locator) Validate() error {
	switch l.By {
	case ByID, ByCSS, ByXPath:
	default:
		return fmt.Errorf("unknown locating strategy %q (must be id, css, or xpath)", l.By)
	}
	if strings.TrimSpace(l.Value) == "" {
		return fmt.Errorf("locator value is required")
	}
	return nil
}

// SelectorConfig holds the page markup contract
type SelectorConfig struct {
	Username  Locator `yaml:"username"`
	Password  Locator `yaml:"password"`
	Submit    Locator `yaml:"submit"`
	Dashboard Locator `yaml:"dashboard"`
	SignOut   Locator `yaml:"sign_out"`
	// CSS selector of the meta tag carrying the CSRF token in its content attribute
	CSRFMeta string `yaml:"csrf_meta"`
	// Tried in order after a failed login; the first match is logged
	ErrorMessages []Locator `yaml:"error_messages"`
}

// DiagnosticsConfig holds post-mortem artifact paths
type DiagnosticsConfig struct {
	ScreenshotPath string `yaml:"screenshot_path"`
	HTMLPath       string `yaml:"html_path"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	OutputFile string `yaml:"output_file"`
}

// ScheduleConfig holds the cron expressions used to render crontab lines
type ScheduleConfig struct {
	Signin  string `yaml:"signin"`
	Signout string `yaml:"signout"`
	Binary  string `yaml:"binary"`
	LogFile string `yaml:"log_file"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Portal: PortalConfig{
			BaseURL:        "https://example.greythr.com",
			LoginPath:      "/",
			AttendancePath: "/v3/api/attendance/mark-attendance",
		},
		Browser: BrowserConfig{
			Headless:           true,
			DisableGPU:         true,
			NoSandbox:          true,
			DisableDevShmUsage: true,
			Stealth:            true,
			WindowWidth:        1920,
			WindowHeight:       1080,
		},
		Timeouts: TimeoutConfig{
			ElementSeconds:      60,
			ProbeElementSeconds: 10,
			PageLoadSeconds:     60,
			PollIntervalMs:      500,
			LoadSettleSeconds:   2,
			SubmitSettleSeconds: 10,
			LogoutSettleSeconds: 5,
			HTTPSeconds:         30,
		},
		Selectors: SelectorConfig{
			Username:  Locator{By: ByID, Value: "username"},
			Password:  Locator{By: ByID, Value: "password"},
			Submit:    Locator{By: ByXPath, Value: `//button[@type="submit"]`},
			Dashboard: Locator{By: ByCSS, Value: ".dashboard"},
			SignOut:   Locator{By: ByXPath, Value: `//div[contains(@class, "btn-container")]//gt-button[@shade="primary"]`},
			CSRFMeta:  `meta[name="csrf-token"]`,
			ErrorMessages: []Locator{
				{By: ByCSS, Value: ".login-error"},
				{By: ByCSS, Value: ".alert-danger"},
				{By: ByCSS, Value: "[role='alert']"},
			},
		},
		Diagnostics: DiagnosticsConfig{
			ScreenshotPath: "login_failure.png",
			HTMLPath:       "login_failure.html",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			OutputFile: "attendance.log",
		},
		Schedule: ScheduleConfig{
			Signin:  "30 9 * * 1-5",
			Signout: "30 18 * * 1-5",
			Binary:  "/usr/local/bin/attendance",
			LogFile: "/var/log/attendance-cron.log",
		},
	}
}

// LoadConfig loads configuration from a YAML file and applies environment variable overrides.
// A missing file is not an error. Credentials are not checked here; see Credentials.Validate.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fault.Wrap(err, fault.Config, "load config", "failed to read config file")
			}
		} else {
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fault.Wrap(err, fault.Config, "load config", "failed to parse config file")
			}
		}
	}

	config.applyEnvOverrides()

	if err := config.Validate(); err != nil {
		return nil, fault.Wrap(err, fault.Config, "load config", "configuration validation failed")
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration
func (c *Config) applyEnvOverrides() {
	if username := os.Getenv(EnvUsername); username != "" {
		c.Credentials.Username = username
	}
	if password := os.Getenv(EnvPassword); password != "" {
		c.Credentials.Password = password
	}
	if baseURL := os.Getenv(EnvBaseURL); baseURL != "" {
		c.Portal.BaseURL = baseURL
	}

	// Browser settings
	if headless := os.Getenv("BROWSER_HEADLESS"); headless != "" {
		c.Browser.Headless = headless == "true" || headless == "1"
	}
	if bin := os.Getenv("BROWSER_BIN"); bin != "" {
		c.Browser.Bin = bin
	}

	if wait := os.Getenv("ELEMENT_WAIT_SECONDS"); wait != "" {
		if val, err := strconv.Atoi(wait); err == nil {
			c.Timeouts.ElementSeconds = val
		}
	}

	// Logging
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		c.Logging.Format = logFormat
	}
	if logFile := os.Getenv("LOG_FILE"); logFile != "" {
		c.Logging.OutputFile = logFile
	}
}

// Validate checks if the configuration is structurally valid
func (c *Config) Validate() error {
	u, err := url.Parse(c.Portal.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("portal base_url must be an absolute URL, got %q", c.Portal.BaseURL)
	}

	if c.Browser.WindowWidth <= 0 || c.Browser.WindowHeight <= 0 {
		return fmt.Errorf("window size must be positive")
	}

	timeouts := map[string]int{
		"element_seconds":       c.Timeouts.ElementSeconds,
		"probe_element_seconds": c.Timeouts.ProbeElementSeconds,
		"page_load_seconds":     c.Timeouts.PageLoadSeconds,
		"poll_interval_ms":      c.Timeouts.PollIntervalMs,
		"http_seconds":          c.Timeouts.HTTPSeconds,
	}
	for name, v := range timeouts {
		if v <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.Timeouts.LoadSettleSeconds < 0 || c.Timeouts.SubmitSettleSeconds < 0 || c.Timeouts.LogoutSettleSeconds < 0 {
		return fmt.Errorf("settle delays must not be negative")
	}

	required := map[string]Locator{
		"username":  c.Selectors.Username,
		"password":  c.Selectors.Password,
		"submit":    c.Selectors.Submit,
		"dashboard": c.Selectors.Dashboard,
		"sign_out":  c.Selectors.SignOut,
	}
	for name, loc := range required {
		if err := loc.Validate(); err != nil {
			return fmt.Errorf("selector %s: %w", name, err)
		}
	}
	for i, loc := range c.Selectors.ErrorMessages {
		if err := loc.Validate(); err != nil {
			return fmt.Errorf("selector error_messages[%d]: %w", i, err)
		}
	}

	for name, expr := range map[string]string{"signin": c.Schedule.Signin, "signout": c.Schedule.Signout} {
		if _, err := cron.ParseStandard(expr); err != nil {
			return fmt.Errorf("schedule %s: %w", name, err)
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Logging.Format)
	}

	return nil
}

// Validate checks that both credentials are present. It must pass before any browser is launched.
func (cr Credentials) Validate() error {
	var missing []string
	if strings.TrimSpace(cr.Username) == "" {
		missing = append(missing, EnvUsername)
	}
	if strings.TrimSpace(cr.Password) == "" {
		missing = append(missing, EnvPassword)
	}
	if len(missing) > 0 {
		return fault.Newf(fault.Config, "credentials", "%s not set", strings.Join(missing, " and "))
	}
	return nil
}

// LoginURL returns the absolute URL of the login page
func (c *Config) LoginURL() string {
	return strings.TrimRight(c.Portal.BaseURL, "/") + c.Portal.LoginPath
}

// ElementTimeout returns the scheduled-run element wait
func (c *Config) ElementTimeout() time.Duration {
	return time.Duration(c.Timeouts.ElementSeconds) * time.Second
}

// ProbeElementTimeout returns the probe element wait
func (c *Config) ProbeElementTimeout() time.Duration {
	return time.Duration(c.Timeouts.ProbeElementSeconds) * time.Second
}

// PageLoadTimeout returns the ready-state wait
func (c *Config) PageLoadTimeout() time.Duration {
	return time.Duration(c.Timeouts.PageLoadSeconds) * time.Second
}

// PollInterval returns the element polling interval
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Timeouts.PollIntervalMs) * time.Millisecond
}

// LoadSettle returns the fixed delay after navigation in the probe
func (c *Config) LoadSettle() time.Duration {
	return time.Duration(c.Timeouts.LoadSettleSeconds) * time.Second
}

// SubmitSettle returns the fixed delay after submitting credentials in the probe
func (c *Config) SubmitSettle() time.Duration {
	return time.Duration(c.Timeouts.SubmitSettleSeconds) * time.Second
}

// LogoutSettle returns the fixed delay after clicking sign out
func (c *Config) LogoutSettle() time.Duration {
	return time.Duration(c.Timeouts.LogoutSettleSeconds) * time.Second
}

// HTTPTimeout returns the attendance API client timeout
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.Timeouts.HTTPSeconds) * time.Second
}

// SaveConfig saves the current configuration to a YAML file, without credentials
func (c *Config) SaveConfig(configPath string) error {
	redacted := *c
	redacted.Credentials = Credentials{}

	data, err := yaml.Marshal(&redacted)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
