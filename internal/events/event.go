package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Type names an event. Values are stable; they appear on MQTT and in
// InfluxDB tags.
type Type string

const (
	CredentialCreated        Type = "credential_created"
	CredentialCreateRejected Type = "credential_create_rejected"
	CredentialChanged        Type = "credential_changed"
	CredentialChangeRejected Type = "credential_change_rejected"
	CredentialRejected       Type = "credential_rejected"
	DoorUnlocked             Type = "door_unlocked"
	MotionDetected           Type = "motion_detected"
	MotionCleared            Type = "motion_cleared"
	DoorLocked               Type = "door_locked"
	DoorObstructed           Type = "door_obstructed"
	LockoutStarted           Type = "lockout_started"
	LockoutEnded             Type = "lockout_ended"
)

// Event is one occurrence at a door.
type Event struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	UnitID    string    `json:"unit_id"`
	Attempts  int       `json:"attempts"`
	HoldMS    int64     `json:"hold_ms,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// New returns an Event with a fresh ID.
func New(t Type, unitID string, at time.Time) Event {
	return Event{
		ID:        "evt-" + uuid.NewString()[:16],
		Type:      t,
		UnitID:    unitID,
		Timestamp: at.UTC(),
	}
}

// Publisher delivers events somewhere.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, ev Event) error

// Publish calls f.
func (f PublisherFunc) Publish(ctx context.Context, ev Event) error { return f(ctx, ev) }

// Noop discards events.
type Noop struct{}

// Publish does nothing.
func (Noop) Publish(context.Context, Event) error { return nil }

// Multi publishes to every member, continuing past failures.
type Multi []Publisher

// Publish returns the joined errors of the members that failed.
func (m Multi) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
