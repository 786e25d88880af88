// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults, Load(ctx) to layer
//   file and environment overrides on top.
// - Money and rule values are kept as decimal strings so that no float ever
//   reaches the payroll engine.
// - External errors are wrapped with ErrLoadConfig or ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"
	_ "time/tzdata" // zone data for hosts without /usr/share/zoneinfo

	"github.com/shopspring/decimal"

	"github.com/okian/harvestpay/internal/domain/payroll"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Timezone is the IANA zone calendar days are taken in.
	Timezone string `koanf:"timezone"`

	// StatewideMinimumWage is the hourly floor, e.g. "16.28".
	StatewideMinimumWage string `koanf:"statewide_minimum_wage"`

	// RestBreakIntervalHours is the number of hours worked per paid break.
	RestBreakIntervalHours string `koanf:"rest_break_interval_hours"`

	// RestBreakMinutes is the length of one paid break.
	RestBreakMinutes string `koanf:"rest_break_minutes"`

	// JobQueueSize bounds the in-memory report job queue.
	JobQueueSize int `koanf:"job_queue_size"`

	// WorkerCount sets the number of report workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets how many idempotency keys are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// ReportRetention caps the number of stored reports.
	ReportRetention int `koanf:"report_retention"`

	// ReportTimeoutMS bounds one synchronous report generation.
	ReportTimeoutMS int `koanf:"report_timeout_ms"`

	// MaxRequestBytes caps request bodies.
	MaxRequestBytes int64 `koanf:"max_request_bytes"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:               "info",
		LogFormat:              "text",
		Addr:                   ":9080",
		Timezone:               "America/Los_Angeles",
		StatewideMinimumWage:   "16.28",
		RestBreakIntervalHours: "4",
		RestBreakMinutes:       "10",
		JobQueueSize:           1_000,
		WorkerCount:            runtime.NumCPU(),
		DedupeSize:             10_000,
		ReportRetention:        1_000,
		ReportTimeoutMS:        30_000,
		MaxRequestBytes:        32 << 20,
	}
}

// Rules converts the configured rule values into payroll rules.
func (c *Config) Rules() (payroll.Rules, error) {
	wage, err := decimalField("statewide_minimum_wage", c.StatewideMinimumWage)
	if err != nil {
		return payroll.Rules{}, err
	}
	interval, err := decimalField("rest_break_interval_hours", c.RestBreakIntervalHours)
	if err != nil {
		return payroll.Rules{}, err
	}
	minutes, err := decimalField("rest_break_minutes", c.RestBreakMinutes)
	if err != nil {
		return payroll.Rules{}, err
	}
	rules := payroll.Rules{
		StatewideMinimumWage: wage,
		RestBreakInterval:    interval,
		RestBreakMinutes:     minutes,
	}
	if err := rules.Validate(); err != nil {
		return payroll.Rules{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return rules, nil
}

// Location loads the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(strings.TrimSpace(c.Timezone))
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %w", ErrInvalidConfig, c.Timezone, err)
	}
	return loc, nil
}

// ReportTimeout returns ReportTimeoutMS as a duration.
func (c *Config) ReportTimeout() time.Duration {
	return time.Duration(c.ReportTimeoutMS) * time.Millisecond
}

// Validate checks every field the service depends on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.JobQueueSize <= 0 {
		return fmt.Errorf("%w: job_queue_size must be positive", ErrInvalidConfig)
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	}
	if c.ReportTimeoutMS <= 0 {
		return fmt.Errorf("%w: report_timeout_ms must be positive", ErrInvalidConfig)
	}
	if _, err := c.Rules(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func decimalField(key, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s %q is not a number", ErrInvalidConfig, key, value)
	}
	return d, nil
}
