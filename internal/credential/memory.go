package credential

import (
	"context"
	"sync"
)

// MemoryStorage is a volatile Storage. Unwritten slots read as ErasedValue.
type MemoryStorage struct {
	mu    sync.Mutex
	slots map[uint16]byte
}

// NewMemoryStorage returns an empty, erased storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{slots: make(map[uint16]byte)}
}

// ReadSlot implements Storage.
func (m *MemoryStorage) ReadSlot(ctx context.Context, addr uint16) (byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.slots[addr]
	if !ok {
		return ErasedValue, nil
	}
	return v, nil
}

// WriteSlot implements Storage.
func (m *MemoryStorage) WriteSlot(ctx context.Context, addr uint16, v byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.slots[addr] = v
	m.mu.Unlock()
	return nil
}

// WriteSlots implements BatchWriter.
func (m *MemoryStorage) WriteSlots(ctx context.Context, addr uint16, values []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if int(addr)+len(values) > 1<<16 {
		return ErrInvalidAddress
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, v := range values {
		m.slots[addr+uint16(i)] = v
	}
	return nil
}
