// =============================================================================
// PO Reporter - Configuration Module
// =============================================================================
//
// Loads and validates the application configuration from YAML. Everything the
// business is known to change over time lives here rather than in code: the
// service endpoint and report path, the report parameters (business unit, PO
// filter, default from-date), the polling budget, and the PO numbers exempted
// from the diff-in-local-currency computation.
//
// Credentials are never stored in the YAML file. The file names the
// environment variables to read them from, and Load resolves them at load
// time.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full application configuration.
type Config struct {
	Service        ServiceConfig        `yaml:"service"`
	Report         ReportConfig         `yaml:"report"`
	Polling        PollingConfig        `yaml:"polling"`
	Reconciliation ReconciliationConfig `yaml:"reconciliation"`
	Output         OutputConfig         `yaml:"output"`

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `yaml:"log_level"`
}

// ServiceConfig describes the remote report service.
type ServiceConfig struct {
	// BaseURL is the server root, e.g. "https://host.example.com".
	BaseURL string `yaml:"base_url"`

	// ReportPath is the catalog path of the report definition.
	ReportPath string `yaml:"report_path"`

	// UsernameEnv and PasswordEnv name the environment variables holding the
	// service credentials.
	// Defaults: "ORACLE_USERNAME", "ORACLE_PASSWORD"
	UsernameEnv string `yaml:"username_env"`
	PasswordEnv string `yaml:"password_env"`

	// Username and Password are resolved from the environment by Load; they
	// are never read from the file itself.
	Username string `yaml:"-"`
	Password string `yaml:"-"`
}

// ReportConfig holds the report request parameters.
type ReportConfig struct {
	// BusinessUnit is the business-group parameter value.
	BusinessUnit string `yaml:"business_unit"`

	// PONumber is the PO filter; "*" selects all purchase orders.
	// Default: "*"
	PONumber string `yaml:"po_number"`

	// DefaultFromDate is the start of the date range when the caller does not
	// supply one, in MM-DD-YYYY form.
	DefaultFromDate string `yaml:"default_from_date"`
}

// PollingConfig bounds the job poll loop.
type PollingConfig struct {
	// IntervalSeconds is the pause between status queries. Default: 10
	IntervalSeconds int `yaml:"interval_seconds"`

	// TimeoutSeconds is the overall wait budget per job. Default: 3600
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// Interval returns the poll interval as a duration.
func (p PollingConfig) Interval() time.Duration {
	return time.Duration(p.IntervalSeconds) * time.Second
}

// Timeout returns the poll budget as a duration.
func (p PollingConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// ReconciliationConfig holds business overrides for the engine.
type ReconciliationConfig struct {
	// ExemptPONumbers lists PO numbers whose diff-in-local-currency is forced
	// to zero in the aggregated report. A documented business override; the
	// list changes over the system's life, so it is data, not code.
	ExemptPONumbers []string `yaml:"exempt_po_numbers"`
}

// OutputConfig describes where generated files land.
type OutputConfig struct {
	// Dir receives the generated CSV reports. Default: "./output"
	Dir string `yaml:"dir"`

	// RawArchiveDir receives downloaded raw artifacts. Default: "./raw_archive"
	RawArchiveDir string `yaml:"raw_archive_dir"`
}

// Load reads, defaults, and validates a configuration file, then resolves
// credentials from the environment.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.Service.Username = os.Getenv(cfg.Service.UsernameEnv)
	cfg.Service.Password = os.Getenv(cfg.Service.PasswordEnv)

	return &cfg, nil
}

// applyDefaults fills unset fields with their documented defaults.
func (c *Config) applyDefaults() {
	if c.Service.UsernameEnv == "" {
		c.Service.UsernameEnv = "ORACLE_USERNAME"
	}
	if c.Service.PasswordEnv == "" {
		c.Service.PasswordEnv = "ORACLE_PASSWORD"
	}
	if c.Report.PONumber == "" {
		c.Report.PONumber = "*"
	}
	if c.Polling.IntervalSeconds <= 0 {
		c.Polling.IntervalSeconds = 10
	}
	if c.Polling.TimeoutSeconds <= 0 {
		c.Polling.TimeoutSeconds = 3600
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "./output"
	}
	if c.Output.RawArchiveDir == "" {
		c.Output.RawArchiveDir = "./raw_archive"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks the fields that have no sensible default.
func (c *Config) Validate() error {
	if c.Service.BaseURL == "" {
		return fmt.Errorf("config: service.base_url is required")
	}
	if c.Service.ReportPath == "" {
		return fmt.Errorf("config: service.report_path is required")
	}
	if c.Report.BusinessUnit == "" {
		return fmt.Errorf("config: report.business_unit is required")
	}
	if c.Report.DefaultFromDate == "" {
		return fmt.Errorf("config: report.default_from_date is required")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: invalid log_level %q", c.LogLevel)
	}
	return nil
}
