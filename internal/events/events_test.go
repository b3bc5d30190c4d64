package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *recorder) Publish(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recorder) types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Type, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

func TestNew(t *testing.T) {
	a := New(DoorUnlocked, "door-01", at)
	b := New(DoorUnlocked, "door-01", at)

	assert.True(t, strings.HasPrefix(a.ID, "evt-"))
	assert.Len(t, a.ID, len("evt-")+16)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, DoorUnlocked, a.Type)
	assert.Equal(t, "door-01", a.UnitID)
	assert.Equal(t, at, a.Timestamp)
}

func TestEvent_JSON(t *testing.T) {
	ev := New(CredentialRejected, "door-01", at)
	ev.Attempts = 2
	ev.Reason = "mismatch"

	b, err := json.Marshal(ev)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "credential_rejected", m["type"])
	assert.Equal(t, "mismatch", m["reason"])
	assert.EqualValues(t, 2, m["attempts"])
	assert.NotContains(t, m, "hold_ms")
}

func TestMulti_ContinuesPastFailures(t *testing.T) {
	bad := &recorder{err: errors.New("broker down")}
	good := &recorder{}

	err := Multi{bad, good}.Publish(context.Background(), New(LockoutStarted, "door-01", at))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.Equal(t, []Type{LockoutStarted}, good.types())
}

func TestNoopAndFunc(t *testing.T) {
	require.NoError(t, Noop{}.Publish(context.Background(), Event{}))

	var got Type
	f := PublisherFunc(func(_ context.Context, ev Event) error {
		got = ev.Type
		return nil
	})
	require.NoError(t, f.Publish(context.Background(), Event{Type: DoorLocked}))
	assert.Equal(t, DoorLocked, got)
}

type warnLogger struct {
	mu    sync.Mutex
	warns int
}

func (l *warnLogger) Warn(string, ...any) {
	l.mu.Lock()
	l.warns++
	l.mu.Unlock()
}

func TestAsync_DeliversInOrder(t *testing.T) {
	next := &recorder{}
	a := NewAsync(next, 8, nil)

	for _, typ := range []Type{DoorUnlocked, MotionDetected, MotionCleared, DoorLocked} {
		require.NoError(t, a.Publish(context.Background(), New(typ, "door-01", at)))
	}
	require.NoError(t, a.Close())

	assert.Equal(t, []Type{DoorUnlocked, MotionDetected, MotionCleared, DoorLocked}, next.types())
	assert.ErrorIs(t, a.Publish(context.Background(), Event{}), ErrClosed)
	require.NoError(t, a.Close())
}

func TestAsync_QueueFull(t *testing.T) {
	release := make(chan struct{})
	blocked := PublisherFunc(func(context.Context, Event) error {
		<-release
		return nil
	})
	a := NewAsync(blocked, 1, nil)

	// The first event may already be in flight, so fill until refused.
	var err error
	for i := 0; i < 3 && err == nil; i++ {
		err = a.Publish(context.Background(), Event{Type: DoorUnlocked})
	}
	assert.ErrorIs(t, err, ErrQueueFull)

	close(release)
	require.NoError(t, a.Close())
}

func TestAsync_LogsDeliveryFailure(t *testing.T) {
	logger := &warnLogger{}
	a := NewAsync(&recorder{err: errors.New("nope")}, 4, logger)

	require.NoError(t, a.Publish(context.Background(), Event{Type: DoorLocked}))
	require.NoError(t, a.Close())

	assert.Equal(t, 1, logger.warns)
}

type infoLogger struct {
	msg  string
	args []any
}

func (l *infoLogger) Info(msg string, args ...any) {
	l.msg = msg
	l.args = args
}

func TestLogPublisher(t *testing.T) {
	logger := &infoLogger{}
	ev := New(DoorLocked, "door-01", at)
	ev.HoldMS = 1500

	require.NoError(t, NewLogPublisher(logger).Publish(context.Background(), ev))

	assert.Equal(t, "lock event", logger.msg)
	assert.Contains(t, logger.args, "hold_ms")
	assert.Contains(t, logger.args, int64(1500))
	assert.NotContains(t, logger.args, "reason")
}

type published struct {
	topic    string
	payload  string
	retained bool
}

type fakeMQTT struct {
	sent []published
	err  error
}

func (f *fakeMQTT) PublishJSON(topic string, v any, retained bool) error {
	if f.err != nil {
		return f.err
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	f.sent = append(f.sent, published{topic, string(payload), retained})
	return nil
}

func TestMQTTPublisher(t *testing.T) {
	client := &fakeMQTT{}
	state := func() any { return map[string]int{"attempts": 1} }
	p := NewMQTTPublisher(client, "door-01", state)

	require.NoError(t, p.Publish(context.Background(), New(CredentialRejected, "door-01", at)))

	require.Len(t, client.sent, 2)
	assert.Equal(t, "graylogic/doorlock/door-01/event", client.sent[0].topic)
	assert.False(t, client.sent[0].retained)
	assert.Contains(t, client.sent[0].payload, `"type":"credential_rejected"`)

	assert.Equal(t, "graylogic/doorlock/door-01/state", client.sent[1].topic)
	assert.True(t, client.sent[1].retained)
	assert.JSONEq(t, `{"attempts":1}`, client.sent[1].payload)
}

func TestMQTTPublisher_NoStateAndErrors(t *testing.T) {
	client := &fakeMQTT{}
	p := NewMQTTPublisher(client, "door-01", nil)

	require.NoError(t, p.Publish(context.Background(), New(DoorLocked, "door-01", at)))
	assert.Len(t, client.sent, 1)

	client.err = errors.New("not connected")
	err := p.Publish(context.Background(), New(DoorLocked, "door-01", at))
	assert.ErrorContains(t, err, "not connected")
}

type point struct {
	measurement string
	tags        map[string]string
	fields      map[string]any
	at          time.Time
}

type fakeWriter struct{ points []point }

func (w *fakeWriter) WritePoint(m string, tags map[string]string, fields map[string]any, at time.Time) {
	w.points = append(w.points, point{m, tags, fields, at})
}

func TestInfluxRecorder(t *testing.T) {
	w := &fakeWriter{}
	ev := New(CredentialRejected, "door-01", at)
	ev.Attempts = 3
	ev.Reason = "locked_out"

	require.NoError(t, NewInfluxRecorder(w).Publish(context.Background(), ev))

	require.Len(t, w.points, 1)
	p := w.points[0]
	assert.Equal(t, Measurement, p.measurement)
	assert.Equal(t, map[string]string{"unit": "door-01", "type": "credential_rejected"}, p.tags)
	assert.Equal(t, 3, p.fields["attempts"])
	assert.Equal(t, int64(0), p.fields["hold_ms"])
	assert.Equal(t, "locked_out", p.fields["reason"])
	assert.Equal(t, at, p.at)
}
