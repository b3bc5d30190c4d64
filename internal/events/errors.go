package events

import "errors"

var (
	// ErrQueueFull is returned by Async.Publish when the buffer is full.
	ErrQueueFull = errors.New("events: queue full")

	// ErrClosed is returned by Async.Publish after Close.
	ErrClosed = errors.New("events: publisher closed")
)
