package lockout

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// DefaultMaxAttempts is the number of rejected credentials that triggers a
// lockout.
const DefaultMaxAttempts = 3

// Mode selects how the two units keep their counters.
type Mode string

const (
	// ModeAuthoritative makes the authority's counter the only source of
	// truth. The authority reports its count after each verification verdict
	// and acknowledges LockSystem; the front end mirrors the reported value.
	ModeAuthoritative Mode = "authoritative"

	// ModeLegacy keeps two independent counters and sends no extra bytes,
	// matching the deployed firmware byte for byte.
	ModeLegacy Mode = "legacy"
)

// ErrInvalidMode is returned by ParseMode for unknown mode names.
var ErrInvalidMode = errors.New("lockout: invalid counter mode")

// ParseMode parses a mode name, case-insensitively. An empty string selects
// ModeLegacy.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeLegacy:
		return ModeLegacy, nil
	case ModeAuthoritative:
		return ModeAuthoritative, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// ReportsCount reports whether the mode carries the attempt count on the wire.
func (m Mode) ReportsCount() bool { return m == ModeAuthoritative }

// Counter is a bounded attempt counter. It is safe for concurrent use so
// status readers can observe it while the owning loop mutates it.
type Counter struct {
	mu    sync.Mutex
	count int
	max   int
}

// NewCounter returns a counter with the given maximum. A non-positive max
// selects DefaultMaxAttempts.
func NewCounter(max int) *Counter {
	if max <= 0 {
		max = DefaultMaxAttempts
	}
	return &Counter{max: max}
}

// Fail records one rejected attempt and reports whether the maximum has been
// reached. The count saturates at the maximum.
func (c *Counter) Fail() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.count < c.max {
		c.count++
	}
	return c.count >= c.max
}

// Reset returns the count to zero.
func (c *Counter) Reset() {
	c.mu.Lock()
	c.count = 0
	c.mu.Unlock()
}

// Set overwrites the count with a value reported by the peer, clamped to
// [0, max]. It reports whether the maximum has been reached.
func (c *Counter) Set(n int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case n < 0:
		n = 0
	case n > c.max:
		n = c.max
	}
	c.count = n
	return c.count >= c.max
}

// Count returns the current number of recorded failures.
func (c *Counter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Max returns the configured maximum.
func (c *Counter) Max() int { return c.max }

// Exhausted reports whether the maximum has been reached.
func (c *Counter) Exhausted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count >= c.max
}

// Remaining returns the attempts left before lockout.
func (c *Counter) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.max - c.count
}
