package scheduler

import "errors"

var (
	// ErrQueueNotRunning is returned when a document is submitted to a stopped queue
	ErrQueueNotRunning = errors.New("archive queue is not running")

	// ErrQueueFull is returned when the job buffer is full
	ErrQueueFull = errors.New("archive queue is full")
)
