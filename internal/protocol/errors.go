package protocol

import "errors"

// Domain errors for the wire protocol.
var (
	// ErrUnknownCommand is returned when a byte does not map to a Command.
	ErrUnknownCommand = errors.New("protocol: unknown command")

	// ErrUnknownResponse is returned when a byte does not map to a Response.
	ErrUnknownResponse = errors.New("protocol: unknown response")

	// ErrInvalidCredential is returned when a credential has the wrong length
	// or contains a value outside 0-9.
	ErrInvalidCredential = errors.New("protocol: invalid credential")
)
