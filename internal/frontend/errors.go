package frontend

import "errors"

var (
	// ErrUnexpectedResponse is returned when the authority sends a byte the
	// current exchange does not allow.
	ErrUnexpectedResponse = errors.New("frontend: unexpected response")

	// ErrNotBooted is returned by Step before Boot has completed.
	ErrNotBooted = errors.New("frontend: machine not booted")

	// ErrNilDevice is returned by New when the link, keypad or display is missing.
	ErrNilDevice = errors.New("frontend: link, keypad and display are required")

	// ErrConsoleClosed is returned by Console.ReadKey once input has ended.
	ErrConsoleClosed = errors.New("frontend: console closed")
)
