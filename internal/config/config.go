// Package config loads the hostwarden YAML configuration, applies defaults
// and environment overrides, and validates the result.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Monitors   MonitorsConfig   `yaml:"monitors"`
	Detection  DetectionConfig  `yaml:"detection"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Whitelist  WhitelistConfig  `yaml:"whitelist"`
	Alerts     AlertsConfig     `yaml:"alerts"`
	Prevention PreventionConfig `yaml:"prevention"`
	Email      EmailConfig      `yaml:"email"`
	Dashboard  DashboardConfig  `yaml:"dashboard"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type MonitorsConfig struct {
	Process ProcessMonitorConfig `yaml:"process"`
	File    FileMonitorConfig    `yaml:"file"`
	Network NetworkMonitorConfig `yaml:"network"`
}

type ProcessMonitorConfig struct {
	Disabled bool   `yaml:"disabled"`
	Interval string `yaml:"interval"` // e.g. "2s"
}

type FileMonitorConfig struct {
	Disabled bool   `yaml:"disabled"`
	Root     string `yaml:"root"`
}

type NetworkMonitorConfig struct {
	Disabled bool   `yaml:"disabled"`
	Interval string `yaml:"interval"` // e.g. "5s"
}

type DetectionConfig struct {
	// CPUThresholdPercent flags a process whose CPU utilization exceeds it.
	CPUThresholdPercent float64 `yaml:"cpu_threshold_percent"`

	// MemoryThresholdMB flags a process whose resident memory exceeds it.
	MemoryThresholdMB float64 `yaml:"memory_threshold_mb"`

	// TrustedDirs are path prefixes (or glob patterns) under which an
	// executable is presumed benign without further checks.
	TrustedDirs []string `yaml:"trusted_dirs"`

	// SuspiciousDirs are path prefixes (or glob patterns) from which any
	// executable is presumed risky.
	SuspiciousDirs []string `yaml:"suspicious_dirs"`

	// HelperPatterns are substrings identifying benign OS/browser helper
	// process names.
	HelperPatterns []string `yaml:"helper_patterns"`
}

type ScoringConfig struct {
	HighCutoff   int `yaml:"high_cutoff"`   // score >= this -> high
	MediumCutoff int `yaml:"medium_cutoff"` // score >= this -> medium, else low
}

type WhitelistConfig struct {
	Path string `yaml:"path"`
}

type AlertsConfig struct {
	// Backend selects the alert store: "file" (JSON array) or "sqlite".
	Backend    string `yaml:"backend"`
	Path       string `yaml:"path"`
	SQLitePath string `yaml:"sqlite_path"`
}

type PreventionConfig struct {
	// AutoTerminate kills processes whose alert level is high. Off by
	// default; use with caution.
	AutoTerminate bool `yaml:"auto_terminate"`
}

type EmailConfig struct {
	Enabled  bool   `yaml:"enabled"`
	SMTPHost string `yaml:"smtp_host"`
	SMTPPort int    `yaml:"smtp_port"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
	Username string `yaml:"username"`
	Password string `yaml:"password"` // prefer HOSTWARDEN_SMTP_PASSWORD
}

type DashboardConfig struct {
	Disabled bool   `yaml:"disabled"`
	Addr     string `yaml:"addr"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Default trusted directory prefixes: OS, package-manager, application, and
// user-library locations whose executables are never flagged.
func defaultTrustedDirs() []string {
	dirs := []string{"/System/", "/usr/", "/bin/", "/sbin/", "/Applications/", "/Library/", "/opt/homebrew/", "/opt/", "/snap/"}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		dirs = append(dirs, home+"/Library/")
	}
	return dirs
}

func defaultSuspiciousDirs() []string {
	return []string{"/tmp/", "/var/tmp/", "/private/tmp/", "/dev/shm/"}
}

func defaultHelperPatterns() []string {
	return []string{"Helper", "Renderer", "GPU", "WebKit", "mdworker"}
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return LoadFromBytes(b)
}

func LoadFromBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	applyEnvOverrides(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Monitors.Process.Interval == "" {
		cfg.Monitors.Process.Interval = "2s"
	}
	if cfg.Monitors.Network.Interval == "" {
		cfg.Monitors.Network.Interval = "5s"
	}
	if cfg.Monitors.File.Root == "" {
		cfg.Monitors.File.Root = "."
	}

	if cfg.Detection.CPUThresholdPercent == 0 {
		cfg.Detection.CPUThresholdPercent = 85
	}
	if cfg.Detection.MemoryThresholdMB == 0 {
		cfg.Detection.MemoryThresholdMB = 800
	}
	if len(cfg.Detection.TrustedDirs) == 0 {
		cfg.Detection.TrustedDirs = defaultTrustedDirs()
	}
	if len(cfg.Detection.SuspiciousDirs) == 0 {
		cfg.Detection.SuspiciousDirs = defaultSuspiciousDirs()
	}
	if len(cfg.Detection.HelperPatterns) == 0 {
		cfg.Detection.HelperPatterns = defaultHelperPatterns()
	}

	if cfg.Scoring.HighCutoff == 0 {
		cfg.Scoring.HighCutoff = 70
	}
	if cfg.Scoring.MediumCutoff == 0 {
		cfg.Scoring.MediumCutoff = 30
	}

	if cfg.Whitelist.Path == "" {
		cfg.Whitelist.Path = "whitelist.json"
	}

	if cfg.Alerts.Backend == "" {
		cfg.Alerts.Backend = "file"
	}
	if cfg.Alerts.Path == "" {
		cfg.Alerts.Path = "logs/alerts.json"
	}
	if cfg.Alerts.SQLitePath == "" {
		cfg.Alerts.SQLitePath = "logs/alerts.db"
	}

	if cfg.Email.SMTPPort == 0 {
		cfg.Email.SMTPPort = 587
	}

	if cfg.Dashboard.Addr == "" {
		cfg.Dashboard.Addr = "127.0.0.1:5001"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HOSTWARDEN_CPU_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Detection.CPUThresholdPercent = f
		}
	}
	if v := os.Getenv("HOSTWARDEN_MEMORY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Detection.MemoryThresholdMB = f
		}
	}
	if v := os.Getenv("HOSTWARDEN_AUTO_PREVENTION"); v != "" {
		cfg.Prevention.AutoTerminate = isTruthy(v)
	}
	if v := os.Getenv("HOSTWARDEN_WHITELIST"); v != "" {
		cfg.Whitelist.Path = v
	}
	if v := os.Getenv("HOSTWARDEN_SMTP_PASSWORD"); v != "" {
		cfg.Email.Password = v
	}
	if v := os.Getenv("HOSTWARDEN_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func validateConfig(cfg *Config) error {
	if _, err := time.ParseDuration(cfg.Monitors.Process.Interval); err != nil {
		return fmt.Errorf("monitors.process.interval: %w", err)
	}
	if _, err := time.ParseDuration(cfg.Monitors.Network.Interval); err != nil {
		return fmt.Errorf("monitors.network.interval: %w", err)
	}
	if cfg.Detection.CPUThresholdPercent < 0 {
		return fmt.Errorf("detection.cpu_threshold_percent must be >= 0")
	}
	if cfg.Detection.MemoryThresholdMB < 0 {
		return fmt.Errorf("detection.memory_threshold_mb must be >= 0")
	}
	if cfg.Scoring.HighCutoff < cfg.Scoring.MediumCutoff {
		return fmt.Errorf("scoring.high_cutoff (%d) must be >= scoring.medium_cutoff (%d)", cfg.Scoring.HighCutoff, cfg.Scoring.MediumCutoff)
	}
	if cfg.Scoring.HighCutoff > 100 || cfg.Scoring.MediumCutoff < 0 {
		return fmt.Errorf("scoring cutoffs must fall within [0,100]")
	}
	switch cfg.Alerts.Backend {
	case "file", "sqlite":
	default:
		return fmt.Errorf("alerts.backend must be \"file\" or \"sqlite\", got %q", cfg.Alerts.Backend)
	}
	if cfg.Email.Enabled {
		if cfg.Email.SMTPHost == "" || cfg.Email.From == "" || cfg.Email.To == "" {
			return fmt.Errorf("email.enabled requires smtp_host, from, and to")
		}
	}
	return nil
}

// ProcessInterval returns the parsed process-monitor interval. Call only on
// a validated config.
func (c *Config) ProcessInterval() time.Duration {
	d, _ := time.ParseDuration(c.Monitors.Process.Interval)
	return d
}

// NetworkInterval returns the parsed network-monitor interval.
func (c *Config) NetworkInterval() time.Duration {
	d, _ := time.ParseDuration(c.Monitors.Network.Interval)
	return d
}
