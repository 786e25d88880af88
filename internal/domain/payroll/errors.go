package payroll

import (
	"errors"
	"fmt"
)

// Sentinel kinds for payroll errors. Only structural problems with the whole
// request surface as errors; bad individual records are skipped and counted.
var (
	ErrInvalidRequest = errors.New("invalid payroll request")
	ErrInvalidRules   = errors.New("invalid payroll rules")
)

func invalidRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// WarningCode classifies a configuration problem found on a task.
type WarningCode string

// Warning codes attached to reports.
const (
	WarnMissingRate    WarningCode = "missing_rate"
	WarnNegativeRate   WarningCode = "negative_rate"
	WarnUnknownPayType WarningCode = "unknown_pay_type"
)

// Warning is a configuration problem that made the engine pay zero for a
// task's work. Hours still count toward the minimum-wage guarantee.
type Warning struct {
	Code    WarningCode `json:"code"`
	TaskID  string      `json:"taskId"`
	Message string      `json:"message"`
}

// RecordKind names the input collection a skipped record came from.
type RecordKind string

// Record kinds.
const (
	KindTimeEntry RecordKind = "time_entry"
	KindPiecework RecordKind = "piecework"
)

// SkipReason says why a record contributed nothing.
type SkipReason string

// Skip reasons.
const (
	SkipMalformed           SkipReason = "malformed"
	SkipActive              SkipReason = "active"
	SkipOutOfWindow         SkipReason = "out_of_window"
	SkipUnknownEmployee     SkipReason = "unknown_employee"
	SkipUnknownTask         SkipReason = "unknown_task"
	SkipNonPositiveDuration SkipReason = "non_positive_duration"
	SkipNoParticipants      SkipReason = "no_participants"
)

// SkipKey indexes Stats.Skipped.
type SkipKey struct {
	Kind   RecordKind
	Reason SkipReason
}

// Stats describes how the input records were consumed.
type Stats struct {
	TimeEntriesUsed int
	PieceworkUsed   int
	Skipped         map[SkipKey]int
}

func newStats() Stats {
	return Stats{Skipped: make(map[SkipKey]int)}
}

func (s *Stats) skip(kind RecordKind, reason SkipReason) {
	s.Skipped[SkipKey{Kind: kind, Reason: reason}]++
}

// SkippedTotal sums skipped records across kinds and reasons.
func (s Stats) SkippedTotal() int {
	total := 0
	for _, n := range s.Skipped {
		total += n
	}
	return total
}
