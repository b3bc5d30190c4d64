package credential

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-doorlock/internal/infrastructure/database"
)

const upsertSlot = `
	INSERT INTO storage_slots (address, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(address) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

// SQLiteStorage keeps slots in the storage_slots table. The table is created
// by the embedded migrations.
type SQLiteStorage struct {
	db *database.DB
}

// NewSQLiteStorage returns a Storage backed by db.
func NewSQLiteStorage(db *database.DB) *SQLiteStorage {
	return &SQLiteStorage{db: db}
}

// ReadSlot implements Storage. A missing row reads as ErasedValue.
func (s *SQLiteStorage) ReadSlot(ctx context.Context, addr uint16) (byte, error) {
	var v int
	err := s.db.QueryRowContext(ctx, "SELECT value FROM storage_slots WHERE address = ?", addr).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return ErasedValue, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading slot 0x%04X: %w", addr, err)
	}
	return byte(v), nil
}

// WriteSlot implements Storage.
func (s *SQLiteStorage) WriteSlot(ctx context.Context, addr uint16, v byte) error {
	if _, err := s.db.ExecContext(ctx, upsertSlot, addr, v, now()); err != nil {
		return fmt.Errorf("writing slot 0x%04X: %w", addr, err)
	}
	return nil
}

// WriteSlots implements BatchWriter in one transaction.
func (s *SQLiteStorage) WriteSlots(ctx context.Context, addr uint16, values []byte) error {
	if int(addr)+len(values) > 1<<16 {
		return ErrInvalidAddress
	}
	ts := now()
	return s.db.InTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertSlot)
		if err != nil {
			return fmt.Errorf("preparing slot upsert: %w", err)
		}
		defer stmt.Close()

		for i, v := range values {
			a := addr + uint16(i)
			if _, err := stmt.ExecContext(ctx, a, v, ts); err != nil {
				return fmt.Errorf("writing slot 0x%04X: %w", a, err)
			}
		}
		return nil
	})
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
