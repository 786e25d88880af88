package service

import "errors"

// Service errors. Errors from the engine, store and queue are wrapped, so
// callers can also match payroll.ErrInvalidRequest, repository.ErrNotFound
// and export.ErrUnsupportedFormat.
var (
	ErrNotStarted     = errors.New("service not started")
	ErrBusy           = errors.New("report queue is not accepting jobs")
	ErrReportNotReady = errors.New("report is not ready")
)
