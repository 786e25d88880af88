// Package service provides the payroll service behind the HTTP API and the
// report CLI: synchronous generation, queued report jobs, and exports.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	jobqueue "github.com/okian/harvestpay/internal/adapters/mq/queue"
	workerpool "github.com/okian/harvestpay/internal/adapters/mq/worker"
	"github.com/okian/harvestpay/internal/adapters/repository"
	"github.com/okian/harvestpay/internal/domain/dedupe"
	"github.com/okian/harvestpay/internal/domain/model"
	"github.com/okian/harvestpay/internal/domain/payroll"
	"github.com/okian/harvestpay/internal/domain/types"
	"github.com/okian/harvestpay/internal/export"
	"github.com/okian/harvestpay/pkg/logger"
	"github.com/okian/harvestpay/pkg/metrics"
)

// Service implements the API dependencies for the payroll system.
type Service struct {
	mu sync.RWMutex

	// Core components
	engine     *payroll.Engine
	store      repository.Store
	deduper    dedupe.Deduper
	jobQueue   jobqueue.Queue
	workerPool *workerpool.Pool

	// Configuration
	rules         payroll.Rules
	loc           *time.Location
	workerCount   int
	queueSize     int
	dedupeSize    int
	retention     int
	reportTimeout time.Duration

	// State
	started bool

	logger  logger.Logger
	metrics *metrics.Manager
	newID   func() string
}

// New constructs a Service. The engine, store and idempotency table live
// for the whole Service; the queue and workers are created by Start.
func New(opts ...Option) *Service {
	s := &Service{
		rules:         payroll.DefaultRules(),
		loc:           time.UTC,
		workerCount:   runtime.NumCPU(),
		queueSize:     1_000,
		dedupeSize:    10_000,
		retention:     1_000,
		reportTimeout: 30 * time.Second,
		logger:        logger.Nop(),
		metrics:       metrics.Default(),
		newID:         uuid.NewString,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.engine = payroll.NewEngine(
		payroll.WithRules(s.rules),
		payroll.WithLocation(s.loc),
		payroll.WithLogger(s.logger.Named("payroll")),
	)
	s.store = repository.NewMemoryStore(
		repository.WithRetention(s.retention),
		repository.WithMetrics(s.metrics),
	)
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	return s
}

// Start creates the job queue and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting payroll service...")

	s.jobQueue = jobqueue.NewInMemoryQueue(
		jobqueue.WithCapacity(s.queueSize),
		jobqueue.WithMetrics(s.metrics),
	)
	s.workerPool = workerpool.NewPool(s.workerCount, s.jobQueue, s.generator(metrics.ModeAsync), s.store,
		workerpool.WithLogger(s.logger),
		workerpool.WithMetrics(s.metrics),
		workerpool.WithJobTimeout(s.reportTimeout),
	)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "payroll service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("timezone", s.loc.String()),
		logger.String("minimumWage", s.rules.StatewideMinimumWage.String()),
	)
	return nil
}

// Stop closes the queue and waits for workers to finish what was queued.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping payroll service...")

	if err := s.workerPool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
		s.workerPool.Stop()
	}

	s.started = false
	s.logger.Info(ctx, "payroll service stopped")
}

// Generate produces a report synchronously, bounded by the report timeout.
func (s *Service) Generate(ctx context.Context, req model.Snapshot) (payroll.Result, error) { //nolint:gocritic // hugeParam: snapshot is request-scoped
	ctx, cancel := context.WithTimeout(ctx, s.reportTimeout)
	defer cancel()
	return s.generator(metrics.ModeSync)(ctx, req)
}

// Submit queues a report job and returns its id. A repeated non-empty
// idempotency key returns the id of the job it first created with
// duplicate=true.
func (s *Service) Submit(ctx context.Context, idempotencyKey string, req model.Snapshot) (string, bool, error) { //nolint:gocritic // hugeParam: snapshot is request-scoped
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return "", false, ErrNotStarted
	}

	id := s.newID()
	if idempotencyKey != "" {
		if existing, duplicate := s.deduper.Claim(ctx, idempotencyKey, id); duplicate {
			s.metrics.RecordJobDuplicate()
			s.logger.Debug(ctx, "duplicate report submission",
				logger.String("idempotencyKey", idempotencyKey),
				logger.String("jobId", existing),
			)
			return existing, true, nil
		}
	}

	job := model.ReportJob{
		ID:             id,
		IdempotencyKey: idempotencyKey,
		Snapshot:       req,
		SubmittedAt:    time.Now(),
	}
	if _, err := s.store.Create(ctx, job); err != nil {
		s.release(ctx, idempotencyKey)
		return "", false, fmt.Errorf("store report job: %w", err)
	}

	if err := s.jobQueue.Enqueue(ctx, job); err != nil {
		s.release(ctx, idempotencyKey)
		if ferr := s.store.Fail(ctx, id, err); ferr != nil {
			s.logger.Error(ctx, "could not fail rejected job", logger.String("jobId", id), logger.Error(ferr))
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", false, err
		}
		return "", false, fmt.Errorf("%w: %w", ErrBusy, err)
	}

	s.metrics.RecordJobSubmitted()
	s.logger.Debug(ctx, "report job queued",
		logger.String("jobId", id),
		logger.Int("timeEntries", len(req.TimeEntries)),
		logger.Int("piecework", len(req.Piecework)),
	)
	return id, false, nil
}

// Report returns a job record, including its report once done.
func (s *Service) Report(ctx context.Context, id string) (types.Job, error) {
	return s.store.Get(ctx, id)
}

// Jobs lists up to limit recent jobs without their reports.
func (s *Service) Jobs(ctx context.Context, limit int) ([]types.Job, error) {
	return s.store.List(ctx, limit)
}

// Export renders a finished report. ErrReportNotReady is returned while the
// job is pending or running, and for failed jobs.
func (s *Service) Export(ctx context.Context, id string, format export.Format) ([]byte, error) {
	job, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != types.StatusDone || job.Report == nil {
		return nil, fmt.Errorf("%w: job %s is %s", ErrReportNotReady, id, job.Status)
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, job.Report); err != nil {
		s.metrics.RecordErrorByComponent("export", string(format))
		return nil, err
	}
	s.metrics.RecordExport(string(format))
	return buf.Bytes(), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":         s.started,
		"workerCount":     s.workerCount,
		"queueSize":       s.queueSize,
		"dedupeSize":      s.dedupeSize,
		"retention":       s.retention,
		"timezone":        s.loc.String(),
		"minimumWage":     s.rules.StatewideMinimumWage.String(),
		"reportsStored":   s.store.Count(ctx),
		"idempotencyKeys": s.deduper.Size(),
	}

	if s.started {
		stats["queueLength"] = s.jobQueue.Len(ctx)
	}
	return stats
}

// generator runs the engine and records report metrics for mode.
func (s *Service) generator(mode string) workerpool.GeneratorFunc {
	return func(ctx context.Context, req model.Snapshot) (payroll.Result, error) {
		start := time.Now()
		res, err := s.engine.Generate(ctx, req)
		if err != nil {
			s.metrics.RecordReportFailure(mode, failureReason(err))
			return payroll.Result{}, err
		}

		s.metrics.RecordReportGenerated(mode, float64(time.Since(start).Milliseconds()), len(res.Report.EmployeeSummaries))
		for key, n := range res.Stats.Skipped {
			s.metrics.RecordRecordsSkipped(string(key.Kind), string(key.Reason), n)
		}
		for _, w := range res.Report.Warnings {
			s.metrics.RecordReportWarning(string(w.Code))
		}
		return res, nil
	}
}

func (s *Service) release(ctx context.Context, key string) {
	if key != "" {
		s.deduper.Release(ctx, key)
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, payroll.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, payroll.ErrInvalidRules):
		return "invalid_rules"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	}
	return "internal"
}
