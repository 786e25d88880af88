package service

import (
	"time"

	"github.com/okian/harvestpay/internal/config"
	"github.com/okian/harvestpay/internal/domain/payroll"
	"github.com/okian/harvestpay/pkg/logger"
	"github.com/okian/harvestpay/pkg/metrics"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of queued report jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many idempotency keys are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithRetention sets how many finished jobs are kept. Zero keeps all.
func WithRetention(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.retention = n
		}
	}
}

// WithReportTimeout bounds a single report generation.
func WithReportTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.reportTimeout = d
		}
	}
}

// WithRules sets the payroll rules.
func WithRules(rules payroll.Rules) Option {
	return func(s *Service) {
		s.rules = rules
	}
}

// WithLocation sets the time zone calendar days are taken in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithIDGenerator replaces the uuid job id generator.
func WithIDGenerator(next func() string) Option {
	return func(s *Service) {
		if next != nil {
			s.newID = next
		}
	}
}

// OptionsFromConfig translates a loaded config into service options.
func OptionsFromConfig(cfg *config.Config) ([]Option, error) {
	rules, err := cfg.Rules()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return []Option{
		WithRules(rules),
		WithLocation(loc),
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.JobQueueSize),
		WithDedupeSize(cfg.DedupeSize),
		WithRetention(cfg.ReportRetention),
		WithReportTimeout(cfg.ReportTimeout()),
	}, nil
}
