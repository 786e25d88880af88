package repository

import "errors"

// Sentinel kinds for report store errors.
var (
	ErrNotFound          = errors.New("report job not found")
	ErrDuplicateID       = errors.New("report job already exists")
	ErrInvalidTransition = errors.New("invalid report job transition")
	ErrInvalidLimit      = errors.New("invalid list limit")
)
