package worker

import (
	"time"

	"github.com/okian/harvestpay/pkg/logger"
	"github.com/okian/harvestpay/pkg/metrics"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithJobTimeout bounds a single report generation.
func WithJobTimeout(d time.Duration) Option {
	return func(w *InMemoryWorker) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// WithMetrics records worker metrics on m instead of the process default.
func WithMetrics(m *metrics.Manager) Option {
	return func(w *InMemoryWorker) {
		if m != nil {
			w.metrics = m
		}
	}
}
