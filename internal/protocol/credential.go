package protocol

import (
	"crypto/subtle"
	"fmt"
	"strings"
)

// CredentialLength is the number of digits in a credential.
const CredentialLength = 5

// maxDigit is the largest value a keypad digit can take.
const maxDigit = 9

// Credential is an ordered sequence of CredentialLength digit values.
//
// The zero value is the all-zero credential. Values received from the link
// are stored verbatim, so a Credential may hold bytes outside 0-9 if the peer
// sends them; Valid reports whether every position is a digit.
type Credential [CredentialLength]byte

// NewCredential builds a Credential from exactly CredentialLength digits.
func NewCredential(digits ...byte) (Credential, error) {
	var c Credential
	if len(digits) != CredentialLength {
		return c, fmt.Errorf("%w: want %d digits, got %d", ErrInvalidCredential, CredentialLength, len(digits))
	}
	copy(c[:], digits)
	if !c.Valid() {
		return Credential{}, fmt.Errorf("%w: digits must be 0-9", ErrInvalidCredential)
	}
	return c, nil
}

// ParseCredential parses a string of decimal digits such as "12345".
func ParseCredential(s string) (Credential, error) {
	if len(s) != CredentialLength {
		return Credential{}, fmt.Errorf("%w: want %d digits, got %d", ErrInvalidCredential, CredentialLength, len(s))
	}
	digits := make([]byte, 0, CredentialLength)
	for _, r := range s {
		if r < '0' || r > '9' {
			return Credential{}, fmt.Errorf("%w: %q is not a digit", ErrInvalidCredential, r)
		}
		digits = append(digits, byte(r-'0'))
	}
	return NewCredential(digits...)
}

// MustParseCredential is ParseCredential for literals known to be valid.
// It panics on error.
func MustParseCredential(s string) Credential {
	c, err := ParseCredential(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Valid reports whether every position holds a digit 0-9.
func (c Credential) Valid() bool {
	for _, d := range c {
		if d > maxDigit {
			return false
		}
	}
	return true
}

// Equal reports whether c and other are identical position by position.
// The comparison takes the same time regardless of where they differ.
func (c Credential) Equal(other Credential) bool {
	return subtle.ConstantTimeCompare(c[:], other[:]) == 1
}

// String returns a masked representation so credentials never reach logs.
func (c Credential) String() string {
	return strings.Repeat("*", CredentialLength)
}
