package events

import "context"

// InfoLogger is satisfied by logging.Logger.
type InfoLogger interface {
	Info(msg string, args ...any)
}

// LogPublisher writes each event as a structured log record.
type LogPublisher struct {
	logger InfoLogger
}

// NewLogPublisher returns a LogPublisher.
func NewLogPublisher(logger InfoLogger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs ev. It never fails.
func (p *LogPublisher) Publish(_ context.Context, ev Event) error {
	args := []any{
		"event_id", ev.ID,
		"type", string(ev.Type),
		"unit_id", ev.UnitID,
		"attempts", ev.Attempts,
	}
	if ev.Reason != "" {
		args = append(args, "reason", ev.Reason)
	}
	if ev.HoldMS != 0 {
		args = append(args, "hold_ms", ev.HoldMS)
	}
	p.logger.Info("lock event", args...)
	return nil
}
