package actuator

import (
	"context"
	"sync"
)

// SimMotor records every drive command.
type SimMotor struct {
	mu      sync.Mutex
	history []Direction
}

// Drive implements Motor.
func (m *SimMotor) Drive(_ context.Context, d Direction) error {
	m.mu.Lock()
	m.history = append(m.history, d)
	m.mu.Unlock()
	return nil
}

// History returns a copy of the recorded commands.
func (m *SimMotor) History() []Direction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Direction(nil), m.history...)
}

// Current returns the last commanded direction.
func (m *SimMotor) Current() Direction {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.history) == 0 {
		return Stop
	}
	return m.history[len(m.history)-1]
}

// SimSensor is a settable motion sensor. Queued samples are returned first,
// then the level last passed to Set.
type SimSensor struct {
	mu      sync.Mutex
	level   bool
	samples []bool
	reads   int
}

// Set changes the steady sensor level.
func (s *SimSensor) Set(motion bool) {
	s.mu.Lock()
	s.level = motion
	s.mu.Unlock()
}

// Queue appends samples to be returned before the steady level.
func (s *SimSensor) Queue(samples ...bool) {
	s.mu.Lock()
	s.samples = append(s.samples, samples...)
	s.mu.Unlock()
}

// Motion implements MotionSensor.
func (s *SimSensor) Motion(_ context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if len(s.samples) > 0 {
		v := s.samples[0]
		s.samples = s.samples[1:]
		return v, nil
	}
	return s.level, nil
}

// Reads returns how many times Motion was called.
func (s *SimSensor) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

// SimAlarm records alarm switching.
type SimAlarm struct {
	mu      sync.Mutex
	on      bool
	history []bool
}

// Set implements Alarm.
func (a *SimAlarm) Set(_ context.Context, on bool) error {
	a.mu.Lock()
	a.on = on
	a.history = append(a.history, on)
	a.mu.Unlock()
	return nil
}

// On reports the current alarm state.
func (a *SimAlarm) On() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.on
}

// History returns a copy of every Set call.
func (a *SimAlarm) History() []bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]bool(nil), a.history...)
}
