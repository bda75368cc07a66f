// Package config defines service configuration structures and loading hooks.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/okian/admitly/internal/domain/reference"
)

// Supported values for DBDriver.
const (
	DBDriverSQLite   = "sqlite"
	DBDriverPostgres = "postgres"
	DBDriverNone     = "none"
)

// Weights are the default composite weights.
type Weights struct {
	Test float64 `koanf:"test"`
	GPA  float64 `koanf:"gpa"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory assessment queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of scoring workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets how many assessment ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxCohortLimit caps GET /v1/cohort/top?limit.
	MaxCohortLimit int `koanf:"max_cohort_limit"`

	// DBDriver selects the assessment log backend: sqlite, postgres or none.
	DBDriver string `koanf:"db_driver"`

	// DBDSN is passed to the driver; empty uses the driver default.
	DBDSN string `koanf:"db_dsn"`

	// CORSOrigins lists origins allowed to call the API from a browser.
	CORSOrigins []string `koanf:"cors_origins"`

	// DefaultApplicants is the applicant pool used in descriptions.
	DefaultApplicants int `koanf:"default_applicants"`

	// RequestTimeoutMS bounds each HTTP request.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	Weights   Weights              `koanf:"weights"`
	Reference reference.Statistics `koanf:"reference"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		QueueSize:         10_000,
		WorkerCount:       runtime.NumCPU() * 2,
		DedupeSize:        50_000,
		MaxCohortLimit:    100,
		DBDriver:          DBDriverSQLite,
		CORSOrigins:       []string{"*"},
		DefaultApplicants: 10_000,
		RequestTimeoutMS:  5_000,
		Weights:           Weights{Test: 0.5, GPA: 0.5},
		Reference:         reference.Default(),
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.DBDriver {
	case DBDriverSQLite, DBDriverPostgres, DBDriverNone:
	default:
		return fmt.Errorf("%w: unsupported db_driver %q", ErrInvalidConfig, c.DBDriver)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unsupported log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	}
	if c.MaxCohortLimit < 1 {
		return fmt.Errorf("%w: max_cohort_limit must be positive", ErrInvalidConfig)
	}
	if c.DefaultApplicants < 1 {
		return fmt.Errorf("%w: default_applicants must be positive", ErrInvalidConfig)
	}
	if c.Weights.Test < 0 || c.Weights.GPA < 0 || c.Weights.Test+c.Weights.GPA <= 0 {
		return fmt.Errorf("%w: weights must be non-negative with a positive sum", ErrInvalidConfig)
	}
	if err := c.Reference.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
