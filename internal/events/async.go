package events

import (
	"context"
	"sync"
)

// DefaultQueueSize is used when NewAsync is given a non-positive size.
const DefaultQueueSize = 64

// Logger is the logging surface used for delivery failures.
type Logger interface {
	Warn(msg string, args ...any)
}

// Async hands events to a background goroutine so a slow broker never holds
// up a serial exchange. Events are dropped, not queued without bound.
type Async struct {
	next   Publisher
	logger Logger
	queue  chan Event
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewAsync starts the delivery goroutine. Close stops it.
func NewAsync(next Publisher, size int, logger Logger) *Async {
	if size <= 0 {
		size = DefaultQueueSize
	}
	a := &Async{
		next:   next,
		logger: logger,
		queue:  make(chan Event, size),
		done:   make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) run() {
	defer close(a.done)
	for ev := range a.queue {
		// Delivery outlives the exchange that produced the event.
		if err := a.next.Publish(context.Background(), ev); err != nil && a.logger != nil {
			a.logger.Warn("event delivery failed", "type", string(ev.Type), "error", err)
		}
	}
}

// Publish enqueues ev without blocking.
func (a *Async) Publish(_ context.Context, ev Event) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}
	select {
	case a.queue <- ev:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close drains queued events and waits for delivery to finish.
func (a *Async) Close() error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()
	<-a.done
	return nil
}
