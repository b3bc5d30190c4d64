package credential

import (
	"context"
	"fmt"

	"github.com/nerrad567/gray-logic-doorlock/internal/protocol"
)

// Slot layout.
const (
	// BaseAddress is the first credential slot.
	BaseAddress uint16 = 0x0311

	// MarkerAddress holds the init marker, immediately after the digits.
	MarkerAddress = BaseAddress + protocol.CredentialLength

	// MarkerValue is the only marker value that means "initialized".
	MarkerValue byte = 0x55

	// ErasedValue is what an unwritten slot reads as.
	ErasedValue byte = 0xFF
)

// Storage reads and writes single persisted bytes.
type Storage interface {
	ReadSlot(ctx context.Context, addr uint16) (byte, error)
	WriteSlot(ctx context.Context, addr uint16, v byte) error
}

// BatchWriter is implemented by storages that can write consecutive slots
// atomically. Store uses it when available so a power cut never leaves half a
// credential behind the marker.
type BatchWriter interface {
	WriteSlots(ctx context.Context, addr uint16, values []byte) error
}

// Record is the persisted state.
type Record struct {
	Credential  protocol.Credential
	Initialized bool
}

// Store is the authority's view of the credential record.
type Store struct {
	storage Storage
}

// NewStore wraps s.
func NewStore(s Storage) *Store {
	return &Store{storage: s}
}

// Initialized reports whether a credential has ever been saved.
func (s *Store) Initialized(ctx context.Context) (bool, error) {
	v, err := s.storage.ReadSlot(ctx, MarkerAddress)
	if err != nil {
		return false, fmt.Errorf("%w: reading init marker: %w", ErrStorage, err)
	}
	return v == MarkerValue, nil
}

// Load returns the stored credential, or ErrUninitialized.
func (s *Store) Load(ctx context.Context) (protocol.Credential, error) {
	rec, err := s.Record(ctx)
	if err != nil {
		return protocol.Credential{}, err
	}
	if !rec.Initialized {
		return protocol.Credential{}, ErrUninitialized
	}
	return rec.Credential, nil
}

// Record reads the full record. The credential is read even when the marker
// is absent, in which case it holds whatever the slots contain.
func (s *Store) Record(ctx context.Context) (Record, error) {
	var rec Record
	ok, err := s.Initialized(ctx)
	if err != nil {
		return rec, err
	}
	rec.Initialized = ok

	for i := range rec.Credential {
		addr := BaseAddress + uint16(i)
		v, err := s.storage.ReadSlot(ctx, addr)
		if err != nil {
			return Record{}, fmt.Errorf("%w: reading slot 0x%04X: %w", ErrStorage, addr, err)
		}
		rec.Credential[i] = v
	}
	return rec, nil
}

// Save persists c and marks the store initialized. Digits are written before
// the marker.
func (s *Store) Save(ctx context.Context, c protocol.Credential) error {
	if !c.Valid() {
		return fmt.Errorf("%w: digits must be 0-9", protocol.ErrInvalidCredential)
	}

	values := make([]byte, 0, protocol.CredentialLength+1)
	values = append(values, c[:]...)
	values = append(values, MarkerValue)

	if bw, ok := s.storage.(BatchWriter); ok {
		if err := bw.WriteSlots(ctx, BaseAddress, values); err != nil {
			return fmt.Errorf("%w: writing record: %w", ErrStorage, err)
		}
		return nil
	}

	for i, v := range values {
		addr := BaseAddress + uint16(i)
		if err := s.storage.WriteSlot(ctx, addr, v); err != nil {
			return fmt.Errorf("%w: writing slot 0x%04X: %w", ErrStorage, addr, err)
		}
	}
	return nil
}
