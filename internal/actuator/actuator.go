package actuator

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-doorlock/internal/clock"
	"github.com/nerrad567/gray-logic-doorlock/internal/protocol"
)

// Direction is a motor drive state.
type Direction int

const (
	Stop Direction = iota
	Open
	Close
)

func (d Direction) String() string {
	switch d {
	case Stop:
		return "stop"
	case Open:
		return "open"
	case Close:
		return "close"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// Motor drives the lock bolt.
type Motor interface {
	Drive(ctx context.Context, d Direction) error
}

// MotionSensor reads the passage sensor line.
type MotionSensor interface {
	Motion(ctx context.Context) (bool, error)
}

// Alarm switches the lockout buzzer.
type Alarm interface {
	Set(ctx context.Context, on bool) error
}

// Phase is the sequencer's position in the cycle.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseOpening
	PhaseHolding
	PhaseClosing
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseOpening:
		return "opening"
	case PhaseHolding:
		return "holding"
	case PhaseClosing:
		return "closing"
	default:
		return fmt.Sprintf("phase(%d)", int32(p))
	}
}

// Defaults from the lock controller.
const (
	DefaultHoldDuration = time.Second
	DefaultPollInterval = 100 * time.Millisecond
)

// ErrNilHardware is returned by NewSequencer without a motor or sensor.
var ErrNilHardware = errors.New("actuator: motor and motion sensor are required")

// Logger is the logging surface the sequencer needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Config tunes a Sequencer.
type Config struct {
	// HoldDuration is how long the motor runs in each direction.
	HoldDuration time.Duration

	// PollInterval spaces motion sensor samples while motion is present.
	PollInterval time.Duration

	// ObstructionWarn, when positive, calls OnObstructed once if motion has
	// not cleared after this long. The sequencer keeps waiting.
	ObstructionWarn time.Duration

	// OnObstructed is called at most once per cycle.
	OnObstructed func(ctx context.Context, waited time.Duration)

	Clock  clock.Clock
	Logger Logger
}

// ReportFunc delivers a motion report to the front end.
type ReportFunc func(ctx context.Context, r protocol.Response) error

// Result summarises one cycle.
type Result struct {
	MotionDetected bool
	Held           time.Duration
}

// Sequencer runs door cycles. A Sequencer runs one cycle at a time; Phase may
// be read concurrently.
type Sequencer struct {
	motor  Motor
	sensor MotionSensor
	cfg    Config
	phase  atomic.Int32
}

// NewSequencer validates the hardware and fills defaults.
func NewSequencer(motor Motor, sensor MotionSensor, cfg Config) (*Sequencer, error) {
	if motor == nil || sensor == nil {
		return nil, ErrNilHardware
	}
	if cfg.HoldDuration <= 0 {
		cfg.HoldDuration = DefaultHoldDuration
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.Logger == nil {
		cfg.Logger = noopLogger{}
	}
	return &Sequencer{motor: motor, sensor: sensor, cfg: cfg}, nil
}

// Phase returns the current phase.
func (s *Sequencer) Phase() Phase {
	return Phase(s.phase.Load())
}

// Run performs one unlock, hold-for-clear and relock cycle.
//
// If ctx is cancelled the motor is stopped and the door is left where it is;
// it is not relocked on the way out.
func (s *Sequencer) Run(ctx context.Context, report ReportFunc) (res Result, err error) {
	defer s.setPhase(PhaseIdle)

	s.setPhase(PhaseOpening)
	if err := s.drive(ctx, Open); err != nil {
		return res, err
	}

	s.setPhase(PhaseHolding)
	start := s.cfg.Clock.Now()
	detected, err := s.awaitClear(ctx, report)
	res.MotionDetected = detected
	res.Held = s.cfg.Clock.Now().Sub(start)
	if err != nil {
		return res, err
	}

	s.setPhase(PhaseClosing)
	if err := s.drive(ctx, Close); err != nil {
		return res, err
	}
	return res, nil
}

// drive runs the motor in d for the hold duration and always stops it.
func (s *Sequencer) drive(ctx context.Context, d Direction) (err error) {
	defer func() {
		// Stop even when ctx is already done.
		if stopErr := s.motor.Drive(context.WithoutCancel(ctx), Stop); stopErr != nil && err == nil {
			err = fmt.Errorf("stopping motor: %w", stopErr)
		}
	}()

	s.cfg.Logger.Debug("motor drive", "direction", d.String(), "duration", s.cfg.HoldDuration)
	if err := s.motor.Drive(ctx, d); err != nil {
		return fmt.Errorf("driving motor %s: %w", d, err)
	}
	return s.cfg.Clock.Sleep(ctx, s.cfg.HoldDuration)
}

// awaitClear blocks until the sensor reads clear and reports the transitions.
func (s *Sequencer) awaitClear(ctx context.Context, report ReportFunc) (bool, error) {
	motion, err := s.sensor.Motion(ctx)
	if err != nil {
		return false, fmt.Errorf("reading motion sensor: %w", err)
	}
	if !motion {
		return false, report(ctx, protocol.ResponsePIRNotDetected)
	}

	if err := report(ctx, protocol.ResponsePIRDetected); err != nil {
		return true, err
	}
	s.cfg.Logger.Info("motion detected, holding door open")

	warn := clock.NewDeadline(s.cfg.Clock, s.cfg.ObstructionWarn)
	warned := false
	start := s.cfg.Clock.Now()

	for motion {
		if err := s.cfg.Clock.Sleep(ctx, s.cfg.PollInterval); err != nil {
			return true, err
		}
		if motion, err = s.sensor.Motion(ctx); err != nil {
			return true, fmt.Errorf("reading motion sensor: %w", err)
		}
		if motion && !warned && warn.Expired() {
			warned = true
			waited := s.cfg.Clock.Now().Sub(start)
			s.cfg.Logger.Warn("door obstructed", "waited", waited)
			if s.cfg.OnObstructed != nil {
				s.cfg.OnObstructed(ctx, waited)
			}
		}
	}

	return true, report(ctx, protocol.ResponsePIRNotDetected)
}

func (s *Sequencer) setPhase(p Phase) { s.phase.Store(int32(p)) }

// Sound turns the alarm on for d and then off. The alarm is switched off even
// if ctx is cancelled during the wait.
func Sound(ctx context.Context, a Alarm, c clock.Clock, d time.Duration) (err error) {
	if err := a.Set(ctx, true); err != nil {
		return fmt.Errorf("alarm on: %w", err)
	}
	defer func() {
		if offErr := a.Set(context.WithoutCancel(ctx), false); offErr != nil && err == nil {
			err = fmt.Errorf("alarm off: %w", offErr)
		}
	}()
	return c.Sleep(ctx, d)
}
