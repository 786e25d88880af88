package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/harvestpay/internal/domain/model"
	"github.com/okian/harvestpay/internal/domain/payroll"
	"github.com/okian/harvestpay/internal/domain/types"
	"github.com/okian/harvestpay/pkg/metrics"
)

const defaultRetention = 1000

// MemoryStore is an in-memory Store. Reports are immutable once stored, so
// readers share them without copying.
type MemoryStore struct {
	mu        sync.RWMutex
	jobs      map[string]*types.Job
	order     []string // ids, oldest first
	retention int
	metrics   *metrics.Manager
	now       func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		jobs:      make(map[string]*types.Job),
		retention: defaultRetention,
		metrics:   metrics.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create records a new pending job.
func (s *MemoryStore) Create(_ context.Context, job model.ReportJob) (types.Job, error) { //nolint:gocritic // hugeParam: job carries the snapshot by value
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		s.metrics.RecordErrorByComponent("repository", "duplicate_id")
		return types.Job{}, fmt.Errorf("%w: %s", ErrDuplicateID, job.ID)
	}

	submitted := job.SubmittedAt
	if submitted.IsZero() {
		submitted = s.now()
	}
	rec := &types.Job{
		ID:             job.ID,
		IdempotencyKey: job.IdempotencyKey,
		Status:         types.StatusPending,
		SubmittedAt:    submitted,
	}
	s.jobs[job.ID] = rec
	s.order = append(s.order, job.ID)
	s.evict()
	s.metrics.UpdateReportsStored(len(s.jobs))
	return *rec, nil
}

// MarkRunning moves a pending job to running.
func (s *MemoryStore) MarkRunning(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.lookup(id)
	if err != nil {
		return err
	}
	if rec.Status != types.StatusPending {
		return fmt.Errorf("%w: %s is %s", ErrInvalidTransition, id, rec.Status)
	}
	started := s.now()
	rec.Status = types.StatusRunning
	rec.StartedAt = &started
	return nil
}

// Complete stores the generated report and marks the job done.
func (s *MemoryStore) Complete(_ context.Context, id string, result payroll.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.lookup(id)
	if err != nil {
		return err
	}
	if rec.Status.Finished() {
		return fmt.Errorf("%w: %s is already %s", ErrInvalidTransition, id, rec.Status)
	}
	report := result.Report
	finished := s.now()
	rec.Status = types.StatusDone
	rec.Report = &report
	rec.Usage = types.UsageFromStats(result.Stats)
	rec.FinishedAt = &finished
	s.evict()
	return nil
}

// Fail marks the job failed with cause.
func (s *MemoryStore) Fail(_ context.Context, id string, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.lookup(id)
	if err != nil {
		return err
	}
	if rec.Status.Finished() {
		return fmt.Errorf("%w: %s is already %s", ErrInvalidTransition, id, rec.Status)
	}
	finished := s.now()
	rec.Status = types.StatusFailed
	if cause != nil {
		rec.Error = cause.Error()
	}
	rec.FinishedAt = &finished
	s.evict()
	return nil
}

// Get returns a copy of the job record.
func (s *MemoryStore) Get(_ context.Context, id string) (types.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, err := s.lookup(id)
	if err != nil {
		return types.Job{}, err
	}
	return *rec, nil
}

// List returns up to limit jobs, newest first, without their reports.
func (s *MemoryStore) List(_ context.Context, limit int) ([]types.Job, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Job, 0, min(limit, len(s.order)))
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		job := *s.jobs[s.order[i]]
		job.Report = nil
		out = append(out, job)
	}
	return out, nil
}

// Count returns the number of stored jobs.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// Must be called with s.mu held.
func (s *MemoryStore) lookup(id string) (*types.Job, error) {
	rec, ok := s.jobs[id]
	if !ok {
		s.metrics.RecordErrorByComponent("repository", "not_found")
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, nil
}

// evict drops the oldest finished jobs while the store is over retention.
// Must be called with s.mu held.
func (s *MemoryStore) evict() {
	if s.retention <= 0 || len(s.jobs) <= s.retention {
		return
	}

	excess := len(s.jobs) - s.retention
	kept := s.order[:0]
	for _, id := range s.order {
		if excess > 0 && s.jobs[id].Status.Finished() {
			delete(s.jobs, id)
			excess--
			s.metrics.RecordReportEvicted()
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	s.metrics.UpdateReportsStored(len(s.jobs))
}
