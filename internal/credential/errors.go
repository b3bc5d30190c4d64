package credential

import "errors"

var (
	// ErrUninitialized is returned by Load before any credential was saved.
	ErrUninitialized = errors.New("credential: store not initialized")

	// ErrInvalidAddress is returned for a slot outside the storage's range.
	ErrInvalidAddress = errors.New("credential: invalid slot address")

	// ErrStorage wraps failures of the underlying storage medium.
	ErrStorage = errors.New("credential: storage failure")
)
