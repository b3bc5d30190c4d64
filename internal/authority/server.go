package authority

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-doorlock/internal/actuator"
	"github.com/nerrad567/gray-logic-doorlock/internal/clock"
	"github.com/nerrad567/gray-logic-doorlock/internal/credential"
	"github.com/nerrad567/gray-logic-doorlock/internal/events"
	"github.com/nerrad567/gray-logic-doorlock/internal/link"
	"github.com/nerrad567/gray-logic-doorlock/internal/lockout"
	"github.com/nerrad567/gray-logic-doorlock/internal/protocol"
)

// Default timings.
const (
	DefaultLockoutDuration = 3 * time.Second
)

// Link is the authority's side of the command channel.
type Link interface {
	ReceiveCommand(ctx context.Context) (protocol.Command, error)
	ReceiveCredential(ctx context.Context) (protocol.Credential, error)
	SendResponse(ctx context.Context, r protocol.Response) error
	SendFlag(ctx context.Context, initialized bool) error
	SendCount(ctx context.Context, n int) error
}

// Sequencer runs the door cycle.
type Sequencer interface {
	Run(ctx context.Context, report actuator.ReportFunc) (actuator.Result, error)
	Phase() actuator.Phase
}

// Logger is the logging surface the server needs.
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

// Config holds policy and timing.
type Config struct {
	UnitID          string
	LockoutDuration time.Duration
	MaxAttempts     int
	Mode            lockout.Mode
}

// Options wires a Server.
type Options struct {
	Config    Config
	Link      Link
	Store     *credential.Store
	Sequencer Sequencer
	Alarm     actuator.Alarm
	Clock     clock.Clock
	Events    events.Publisher
	Logger    Logger
}

// Status is a point-in-time snapshot for the status API.
type Status struct {
	UnitID         string    `json:"unit_id"`
	Initialized    bool      `json:"initialized"`
	Attempts       int       `json:"attempts"`
	Remaining      int       `json:"remaining_attempts"`
	MaxAttempts    int       `json:"max_attempts"`
	LockedOut      bool      `json:"locked_out"`
	Mode           string    `json:"counter_mode"`
	DoorPhase      string    `json:"door_phase"`
	LastCommand    string    `json:"last_command,omitempty"`
	LastExchangeAt time.Time `json:"last_exchange_at,omitempty"`
	Exchanges      uint64    `json:"exchanges"`
	StorageHealthy bool      `json:"storage_healthy"`
}

// Server is the authority state machine.
type Server struct {
	cfg       Config
	link      Link
	store     *credential.Store
	sequencer Sequencer
	alarm     actuator.Alarm
	clock     clock.Clock
	events    events.Publisher
	logger    Logger
	attempts  *lockout.Counter

	exchanges atomic.Uint64

	mu           sync.Mutex
	initialized  bool
	storageOK    bool
	lastCommand  protocol.Command
	lastExchange time.Time
}

// New validates opts and returns a Server. It reads the init marker once so
// Status is meaningful before the first exchange.
func New(ctx context.Context, opts Options) (*Server, error) {
	switch {
	case opts.Link == nil:
		return nil, errors.New("authority: link is required")
	case opts.Store == nil:
		return nil, errors.New("authority: credential store is required")
	case opts.Sequencer == nil:
		return nil, errors.New("authority: sequencer is required")
	case opts.Alarm == nil:
		return nil, errors.New("authority: alarm is required")
	}

	cfg := opts.Config
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = DefaultLockoutDuration
	}
	if cfg.Mode == "" {
		cfg.Mode = lockout.ModeLegacy
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Events == nil {
		opts.Events = events.Noop{}
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}

	s := &Server{
		cfg:       cfg,
		link:      opts.Link,
		store:     opts.Store,
		sequencer: opts.Sequencer,
		alarm:     opts.Alarm,
		clock:     opts.Clock,
		events:    opts.Events,
		logger:    opts.Logger,
		attempts:  lockout.NewCounter(cfg.MaxAttempts),
	}

	ok, err := s.store.Initialized(ctx)
	s.setStorage(ok, err == nil)
	if err != nil {
		s.logger.Warn("reading init marker at startup", "error", err)
	}
	return s, nil
}

// Serve handles commands until ctx is cancelled or the link fails. A read
// timeout inside an exchange abandons that exchange; the server goes back to
// waiting for the next command.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("authority serving",
		"mode", string(s.cfg.Mode),
		"max_attempts", s.attempts.Max(),
	)
	for {
		cmd, err := s.link.ReceiveCommand(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil //nolint:nilerr // shutdown
			}
			return fmt.Errorf("receiving command: %w", err)
		}
		if err := s.Handle(ctx, cmd); err != nil {
			if errors.Is(err, protocol.ErrUnknownCommand) {
				s.logger.Warn("ignoring unknown command", "byte", fmt.Sprintf("0x%02X", byte(cmd)))
				continue
			}
			if errors.Is(err, link.ErrTimeout) {
				s.logger.Warn("exchange abandoned", "command", cmd.String(), "error", err)
				continue
			}
			if ctx.Err() != nil {
				return nil //nolint:nilerr // shutdown
			}
			return fmt.Errorf("handling %s: %w", cmd, err)
		}
	}
}

// Handle runs the exchange for one command. Errors are link or cancellation
// failures; verdicts are sent on the link, not returned.
func (s *Server) Handle(ctx context.Context, cmd protocol.Command) error {
	if err := protocol.Dispatch(ctx, cmd, handler{s}); err != nil {
		return err
	}
	s.exchanges.Add(1)
	s.mu.Lock()
	s.lastCommand = cmd
	s.lastExchange = s.clock.Now()
	s.mu.Unlock()
	return nil
}

// Attempts returns the current failed-attempt count.
func (s *Server) Attempts() int { return s.attempts.Count() }

// Status returns a snapshot.
func (s *Server) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		UnitID:         s.cfg.UnitID,
		Initialized:    s.initialized,
		Attempts:       s.attempts.Count(),
		Remaining:      s.attempts.Remaining(),
		MaxAttempts:    s.attempts.Max(),
		LockedOut:      s.attempts.Exhausted(),
		Mode:           string(s.cfg.Mode),
		DoorPhase:      s.sequencer.Phase().String(),
		LastExchangeAt: s.lastExchange,
		Exchanges:      s.exchanges.Load(),
		StorageHealthy: s.storageOK,
	}
	if s.lastCommand != 0 {
		st.LastCommand = s.lastCommand.String()
	}
	return st
}

func (s *Server) setStorage(initialized, healthy bool) {
	s.mu.Lock()
	if healthy {
		s.initialized = initialized
	}
	s.storageOK = healthy
	s.mu.Unlock()
}

func (s *Server) publish(ctx context.Context, t events.Type, mutate ...func(*events.Event)) {
	ev := events.New(t, s.cfg.UnitID, s.clock.Now())
	ev.Attempts = s.attempts.Count()
	for _, m := range mutate {
		m(&ev)
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.Warn("publishing event failed", "type", string(t), "error", err)
	}
}
