package actuator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-doorlock/internal/clock"
	"github.com/nerrad567/gray-logic-doorlock/internal/protocol"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type reports []protocol.Response

func (r *reports) record(_ context.Context, resp protocol.Response) error {
	*r = append(*r, resp)
	return nil
}

func newTestSequencer(t *testing.T, cfg Config) (*Sequencer, *SimMotor, *SimSensor, *clock.Fake) {
	t.Helper()
	fake := clock.NewFake(epoch)
	cfg.Clock = fake
	motor := &SimMotor{}
	sensor := &SimSensor{}
	seq, err := NewSequencer(motor, sensor, cfg)
	require.NoError(t, err)
	return seq, motor, sensor, fake
}

func TestRunNoMotion(t *testing.T) {
	seq, motor, _, fake := newTestSequencer(t, Config{HoldDuration: time.Second})
	var got reports

	res, err := seq.Run(context.Background(), got.record)
	require.NoError(t, err)

	assert.False(t, res.MotionDetected)
	assert.Equal(t, reports{protocol.ResponsePIRNotDetected}, got)
	assert.Equal(t, []Direction{Open, Stop, Close, Stop}, motor.History())
	assert.Equal(t, []time.Duration{time.Second, time.Second}, fake.Sleeps())
	assert.Equal(t, PhaseIdle, seq.Phase())
}

func TestRunHoldsUntilClear(t *testing.T) {
	seq, motor, sensor, fake := newTestSequencer(t, Config{
		HoldDuration: time.Second,
		PollInterval: 100 * time.Millisecond,
	})
	sensor.Queue(true, true, true, false)
	var got reports

	res, err := seq.Run(context.Background(), got.record)
	require.NoError(t, err)

	assert.True(t, res.MotionDetected)
	assert.Equal(t, 300*time.Millisecond, res.Held)
	assert.Equal(t, reports{protocol.ResponsePIRDetected, protocol.ResponsePIRNotDetected}, got)
	assert.Equal(t, 4, sensor.Reads())
	assert.Equal(t, []Direction{Open, Stop, Close, Stop}, motor.History())
	assert.Equal(t, 2300*time.Millisecond, fake.Slept())
}

// The final clear report is never sent before a clear sample follows motion.
func TestRunNeverReportsClearWhileMotion(t *testing.T) {
	seq, motor, sensor, _ := newTestSequencer(t, Config{PollInterval: time.Millisecond})
	sensor.Set(true)

	var got reports
	check := func(ctx context.Context, r protocol.Response) error {
		if r == protocol.ResponsePIRNotDetected {
			motion, err := sensor.Motion(ctx)
			if err != nil {
				return err
			}
			assert.False(t, motion, "clear reported while sensor reads motion")
		}
		if r == protocol.ResponsePIRDetected {
			// Person walks through after a while.
			sensor.Queue(true, true)
			sensor.Set(false)
		}
		return got.record(ctx, r)
	}

	_, err := seq.Run(context.Background(), check)
	require.NoError(t, err)
	assert.Equal(t, reports{protocol.ResponsePIRDetected, protocol.ResponsePIRNotDetected}, got)
	assert.Equal(t, Stop, motor.Current())
}

func TestRunObstructionWarning(t *testing.T) {
	var warnings []time.Duration
	seq, _, sensor, _ := newTestSequencer(t, Config{
		PollInterval:    time.Second,
		ObstructionWarn: 3 * time.Second,
		OnObstructed: func(_ context.Context, waited time.Duration) {
			warnings = append(warnings, waited)
		},
	})
	// Motion for ten polls, then clear.
	for i := 0; i < 10; i++ {
		sensor.Queue(true)
	}
	sensor.Queue(false)

	var got reports
	_, err := seq.Run(context.Background(), got.record)
	require.NoError(t, err)

	require.Len(t, warnings, 1)
	assert.Equal(t, 3*time.Second, warnings[0])
	assert.Equal(t, reports{protocol.ResponsePIRDetected, protocol.ResponsePIRNotDetected}, got)
}

func TestRunCancelledWhileHolding(t *testing.T) {
	seq, motor, sensor, _ := newTestSequencer(t, Config{})
	sensor.Set(true)

	ctx, cancel := context.WithCancel(context.Background())
	report := func(_ context.Context, r protocol.Response) error {
		if r == protocol.ResponsePIRDetected {
			cancel()
		}
		return nil
	}

	res, err := seq.Run(ctx, report)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, res.MotionDetected)
	// Opened and stopped; never closed.
	assert.Equal(t, []Direction{Open, Stop}, motor.History())
	assert.Equal(t, PhaseIdle, seq.Phase())
}

type failingSensor struct{ err error }

func (f failingSensor) Motion(context.Context) (bool, error) { return false, f.err }

func TestRunSensorFailureStopsMotor(t *testing.T) {
	motor := &SimMotor{}
	boom := errors.New("line fault")
	seq, err := NewSequencer(motor, failingSensor{err: boom}, Config{Clock: clock.NewFake(epoch)})
	require.NoError(t, err)

	_, err = seq.Run(context.Background(), func(context.Context, protocol.Response) error { return nil })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Stop, motor.Current())
}

func TestNewSequencerRequiresHardware(t *testing.T) {
	_, err := NewSequencer(nil, &SimSensor{}, Config{})
	assert.ErrorIs(t, err, ErrNilHardware)
}

func TestSound(t *testing.T) {
	alarm := &SimAlarm{}
	fake := clock.NewFake(epoch)

	require.NoError(t, Sound(context.Background(), alarm, fake, 3*time.Second))
	assert.Equal(t, []bool{true, false}, alarm.History())
	assert.False(t, alarm.On())
	assert.Equal(t, 3*time.Second, fake.Slept())
}

func TestSoundCancelledStillSilences(t *testing.T) {
	alarm := &SimAlarm{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Sound(ctx, alarm, clock.NewFake(epoch), 3*time.Second)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, alarm.On())
}
