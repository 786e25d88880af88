// Package types contains common types used across the application
package types

import (
	"time"

	"github.com/okian/harvestpay/internal/domain/payroll"
)

// JobStatus is the lifecycle state of an asynchronous report job.
type JobStatus string

// Job statuses.
const (
	StatusPending JobStatus = "pending"
	StatusRunning JobStatus = "running"
	StatusDone    JobStatus = "done"
	StatusFailed  JobStatus = "failed"
)

// Finished reports whether the job reached a terminal state.
func (s JobStatus) Finished() bool {
	return s == StatusDone || s == StatusFailed
}

// Job is the stored view of a report job.
type Job struct {
	ID             string          `json:"id"`
	IdempotencyKey string          `json:"idempotencyKey,omitempty"`
	Status         JobStatus       `json:"status"`
	SubmittedAt    time.Time       `json:"submittedAt"`
	StartedAt      *time.Time      `json:"startedAt,omitempty"`
	FinishedAt     *time.Time      `json:"finishedAt,omitempty"`
	Error          string          `json:"error,omitempty"`
	Usage          *RecordUsage    `json:"usage,omitempty"`
	Report         *payroll.Report `json:"report,omitempty"`
}

// RecordUsage summarizes how a job's input records were consumed.
type RecordUsage struct {
	TimeEntriesUsed int            `json:"timeEntriesUsed"`
	PieceworkUsed   int            `json:"pieceworkUsed"`
	Skipped         map[string]int `json:"skipped,omitempty"` // "kind/reason" -> count
}

// UsageFromStats flattens engine stats into a RecordUsage.
func UsageFromStats(s payroll.Stats) *RecordUsage {
	u := &RecordUsage{
		TimeEntriesUsed: s.TimeEntriesUsed,
		PieceworkUsed:   s.PieceworkUsed,
	}
	if len(s.Skipped) > 0 {
		u.Skipped = make(map[string]int, len(s.Skipped))
		for k, n := range s.Skipped {
			u.Skipped[string(k.Kind)+"/"+string(k.Reason)] = n
		}
	}
	return u
}
