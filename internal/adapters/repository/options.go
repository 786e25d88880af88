package repository

import "github.com/okian/harvestpay/pkg/metrics"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithRetention caps how many jobs are kept. Once exceeded, the oldest
// finished jobs are evicted; pending and running jobs are never evicted.
// Zero or negative keeps everything.
func WithRetention(n int) Option {
	return func(s *MemoryStore) {
		s.retention = n
	}
}

// WithMetrics records store metrics on m instead of the process default.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *MemoryStore) {
		if m != nil {
			s.metrics = m
		}
	}
}
