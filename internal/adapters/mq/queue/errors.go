package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	ErrQueueFull   = errors.New("report queue full")
	ErrQueueClosed = errors.New("report queue closed")
)
