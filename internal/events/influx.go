package events

import (
	"context"
	"time"
)

// Measurement is the InfluxDB measurement lock events are written to.
const Measurement = "doorlock_events"

// PointWriter is the write half of influxdb.Client.
type PointWriter interface {
	WritePoint(measurement string, tags map[string]string, fields map[string]any, at time.Time)
}

// InfluxRecorder writes one point per event, tagged by unit and type.
type InfluxRecorder struct {
	writer PointWriter
}

// NewInfluxRecorder returns an InfluxRecorder.
func NewInfluxRecorder(w PointWriter) *InfluxRecorder {
	return &InfluxRecorder{writer: w}
}

// Publish queues the point. Write errors arrive on the client's error
// callback, not here.
func (r *InfluxRecorder) Publish(_ context.Context, ev Event) error {
	fields := map[string]any{
		"attempts": ev.Attempts,
		"hold_ms":  ev.HoldMS,
	}
	if ev.Reason != "" {
		fields["reason"] = ev.Reason
	}
	r.writer.WritePoint(Measurement,
		map[string]string{"unit": ev.UnitID, "type": string(ev.Type)},
		fields,
		ev.Timestamp,
	)
	return nil
}
