package clock

import "time"

// Deadline is a point in time measured on a Clock.
// A Deadline created with a non-positive duration never expires.
type Deadline struct {
	clock Clock
	at    time.Time
	never bool
}

// NewDeadline returns a deadline d from now on c.
func NewDeadline(c Clock, d time.Duration) Deadline {
	if d <= 0 {
		return Deadline{clock: c, never: true}
	}
	return Deadline{clock: c, at: c.Now().Add(d)}
}

// Expired reports whether the deadline has passed.
func (d Deadline) Expired() bool {
	if d.never {
		return false
	}
	return !d.clock.Now().Before(d.at)
}
