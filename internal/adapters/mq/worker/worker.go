// Package worker runs report jobs taken off the queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/harvestpay/internal/domain/model"
	"github.com/okian/harvestpay/internal/domain/payroll"
	"github.com/okian/harvestpay/pkg/logger"
	"github.com/okian/harvestpay/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultJobTimeout     = 30 * time.Second
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Job abstracts what workers read off the queue.
type Job = model.ReportJob

// Generator produces a payroll report from a snapshot.
type Generator interface {
	Generate(ctx context.Context, req model.Snapshot) (payroll.Result, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req model.Snapshot) (payroll.Result, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, req model.Snapshot) (payroll.Result, error) {
	return f(ctx, req)
}

// Recorder persists job state transitions.
type Recorder interface {
	MarkRunning(ctx context.Context, id string) error
	Complete(ctx context.Context, id string, result payroll.Result) error
	Fail(ctx context.Context, id string, cause error) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker generates reports for queued jobs.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker once its current job is done.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue     Queue
	generator Generator
	recorder  Recorder
	name      string
	timeout   time.Duration
	metrics   *metrics.Manager

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, generator Generator, recorder Recorder, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     queue,
		generator: generator,
		recorder:  recorder,
		name:      "worker",
		timeout:   defaultJobTimeout,
		metrics:   metrics.Default(),
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Nop(),
	}

	for _, opt := range opts {
		opt(w)
	}

	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.processJob(ctx, job); err != nil {
				w.logger.Error(ctx, "report job failed",
					logger.String("jobId", job.ID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob runs one job and records its outcome. The returned error is the
// generation or bookkeeping failure, already recorded on the job when possible.
func (w *InMemoryWorker) processJob(ctx context.Context, job Job) error { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	start := time.Now()
	w.metrics.AddWorkerActive(1)
	defer func() {
		w.metrics.AddWorkerActive(-1)
		w.metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := w.recorder.MarkRunning(ctx, job.ID); err != nil {
		w.metrics.RecordWorkerError()
		w.metrics.RecordErrorByComponent("worker", "mark_running")
		return fmt.Errorf("mark job %s running: %w", job.ID, err)
	}

	jobCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	result, err := w.generator.Generate(jobCtx, job.Snapshot)
	if err != nil {
		w.metrics.RecordWorkerError()
		w.metrics.RecordErrorByComponent("worker", errorType(err))
		if ferr := w.recorder.Fail(ctx, job.ID, err); ferr != nil {
			return errors.Join(err, fmt.Errorf("record failure of job %s: %w", job.ID, ferr))
		}
		return fmt.Errorf("generate report for job %s: %w", job.ID, err)
	}

	if err := w.recorder.Complete(ctx, job.ID, result); err != nil {
		w.metrics.RecordWorkerError()
		w.metrics.RecordErrorByComponent("worker", "complete")
		return fmt.Errorf("complete job %s: %w", job.ID, err)
	}

	w.logger.Debug(ctx, "report job done",
		logger.String("jobId", job.ID),
		logger.Int("employees", len(result.Report.EmployeeSummaries)),
		logger.Duration("took", time.Since(start)),
	)
	return nil
}

func errorType(err error) string {
	switch {
	case errors.Is(err, payroll.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	}
	return "generate"
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	logger  logger.Logger
	metrics *metrics.Manager
}

// NewPool creates a new worker pool. Worker options are applied to every
// worker; names are assigned per worker.
func NewPool(workerCount int, queue Queue, generator Generator, recorder Recorder, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	// a throwaway worker resolves the shared options once
	probe := NewInMemoryWorker(queue, generator, recorder,
		append(append([]Option(nil), opts...), WithName("worker-pool"))...)

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  probe.logger,
		metrics: probe.metrics,
	}

	for i := 0; i < workerCount; i++ {
		workerOpts := append(append([]Option(nil), opts...), WithName("worker-"+strconv.Itoa(i)))
		pool.workers[i] = NewInMemoryWorker(queue, generator, recorder, workerOpts...)
	}

	pool.metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
}

// Stop signals all workers and waits briefly for each.
func (p *Pool) Stop() {
	for _, worker := range p.workers {
		close(worker.shutdown)
	}
	for _, worker := range p.workers {
		select {
		case <-worker.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown closes the queue, then waits for workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
