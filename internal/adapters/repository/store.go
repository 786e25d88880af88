// Package repository stores report jobs and their generated reports.
package repository

import (
	"context"

	"github.com/okian/harvestpay/internal/domain/model"
	"github.com/okian/harvestpay/internal/domain/payroll"
	"github.com/okian/harvestpay/internal/domain/types"
)

// Store provides read/write access to report jobs.
type Store interface {
	// Create records a new pending job. Returns ErrDuplicateID if the id is
	// already stored.
	Create(ctx context.Context, job model.ReportJob) (types.Job, error)

	// MarkRunning moves a pending job to running.
	MarkRunning(ctx context.Context, id string) error

	// Complete stores the generated report and marks the job done.
	Complete(ctx context.Context, id string, result payroll.Result) error

	// Fail marks the job failed with cause.
	Fail(ctx context.Context, id string, cause error) error

	// Get returns a job. Returns ErrNotFound if the id is unknown.
	Get(ctx context.Context, id string) (types.Job, error)

	// List returns up to limit jobs, newest first, without their reports.
	List(ctx context.Context, limit int) ([]types.Job, error)

	// Count returns the number of stored jobs.
	Count(ctx context.Context) int
}
