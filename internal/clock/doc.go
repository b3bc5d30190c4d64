// Package clock provides the time source used by every timed wait in the
// door lock: actuator holds, alarm intervals, display pauses and the
// motion-clear poll.
//
// Real is backed by the runtime's monotonic clock. Fake advances instantly
// and records every sleep so tests can assert on timing without waiting.
package clock
