package link

import "errors"

var (
	// ErrClosed is returned once the channel or its transport has closed.
	ErrClosed = errors.New("link: channel closed")

	// ErrTimeout is returned when a read exceeds Options.ReadTimeout.
	ErrTimeout = errors.New("link: read timeout")

	// ErrUnexpectedByte is returned when a byte does not fit the exchange,
	// such as a CheckInit reply other than 0 or 1.
	ErrUnexpectedByte = errors.New("link: unexpected byte")

	// ErrUnsupportedScheme is returned by Open for unknown URL schemes.
	ErrUnsupportedScheme = errors.New("link: unsupported transport scheme")
)
