package frontend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-doorlock/internal/clock"
	"github.com/nerrad567/gray-logic-doorlock/internal/link"
	"github.com/nerrad567/gray-logic-doorlock/internal/lockout"
	"github.com/nerrad567/gray-logic-doorlock/internal/protocol"
)

// Default pauses, matching the authority's default timings.
const (
	DefaultLockingTime   = time.Second
	DefaultLockoutTime   = 3 * time.Second
	DefaultReadyPause    = time.Second
	DefaultMismatchPause = 2 * time.Second
	DefaultRejectPause   = time.Second
	DefaultSavedPause    = 2 * time.Second
)

// Keypad delivers key presses. ReadKey blocks until a key is pressed.
type Keypad interface {
	ReadKey(ctx context.Context) (Key, error)
}

// Display replaces the screen contents with lines.
type Display interface {
	Show(lines ...string)
}

// Link is the front end's side of the command channel.
type Link interface {
	SendCommand(ctx context.Context, cmd protocol.Command) error
	SendCredential(ctx context.Context, cred protocol.Credential) error
	ReceiveResponse(ctx context.Context) (protocol.Response, error)
	ReceiveFlag(ctx context.Context) (bool, error)
	ReceiveCount(ctx context.Context) (int, error)
}

// Logger is the logging surface the machine needs.
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

// Config holds the front end's timings and policy. Zero values take the
// defaults above.
type Config struct {
	LockingTime   time.Duration
	LockoutTime   time.Duration
	ReadyPause    time.Duration
	MismatchPause time.Duration
	RejectPause   time.Duration
	SavedPause    time.Duration
	MaxAttempts   int
	Mode          lockout.Mode
}

// Options wires a Machine.
type Options struct {
	Config  Config
	Link    Link
	Keypad  Keypad
	Display Display
	Clock   clock.Clock
	Logger  Logger
}

// Machine is the front-end state machine. It is driven from one goroutine.
type Machine struct {
	cfg      Config
	link     Link
	keypad   Keypad
	display  Display
	clock    clock.Clock
	logger   Logger
	attempts *lockout.Counter

	state  State
	booted bool
}

// New validates opts and returns a Machine in StateCreatePassword. Call Boot
// before Step, or use Run.
func New(opts Options) (*Machine, error) {
	if opts.Link == nil || opts.Keypad == nil || opts.Display == nil {
		return nil, ErrNilDevice
	}

	cfg := opts.Config
	defaultDuration(&cfg.LockingTime, DefaultLockingTime)
	defaultDuration(&cfg.LockoutTime, DefaultLockoutTime)
	defaultDuration(&cfg.ReadyPause, DefaultReadyPause)
	defaultDuration(&cfg.MismatchPause, DefaultMismatchPause)
	defaultDuration(&cfg.RejectPause, DefaultRejectPause)
	defaultDuration(&cfg.SavedPause, DefaultSavedPause)
	if cfg.Mode == "" {
		cfg.Mode = lockout.ModeLegacy
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}

	return &Machine{
		cfg:      cfg,
		link:     opts.Link,
		keypad:   opts.Keypad,
		display:  opts.Display,
		clock:    opts.Clock,
		logger:   opts.Logger,
		attempts: lockout.NewCounter(cfg.MaxAttempts),
		state:    StateCreatePassword,
	}, nil
}

func defaultDuration(d *time.Duration, def time.Duration) {
	if *d <= 0 {
		*d = def
	}
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Attempts returns the front end's view of the failed-attempt count.
func (m *Machine) Attempts() int { return m.attempts.Count() }

// Boot asks the authority whether a credential exists and picks the first
// state.
func (m *Machine) Boot(ctx context.Context) error {
	if err := m.link.SendCommand(ctx, protocol.CmdCheckInit); err != nil {
		return fmt.Errorf("sending %s: %w", protocol.CmdCheckInit, err)
	}
	initialized, err := m.link.ReceiveFlag(ctx)
	if err != nil {
		return fmt.Errorf("receiving init flag: %w", err)
	}

	m.booted = true
	if !initialized {
		m.setState(StateCreatePassword)
		return nil
	}
	m.display.Show(TextSystemReady)
	if err := m.clock.Sleep(ctx, m.cfg.ReadyPause); err != nil {
		return err
	}
	m.setState(StateMainMenu)
	return nil
}

// Step runs the current state to completion, including its exchange with
// the authority.
func (m *Machine) Step(ctx context.Context) error {
	if !m.booted {
		return ErrNotBooted
	}
	switch m.state {
	case StateCreatePassword:
		return m.createPassword(ctx)
	case StateMainMenu:
		return m.mainMenu(ctx)
	case StateOpenDoor:
		return m.openDoor(ctx)
	case StateChangePassword:
		return m.changePassword(ctx)
	case StateLocked:
		return m.locked(ctx)
	default:
		return fmt.Errorf("frontend: invalid state %d", m.state)
	}
}

// Run boots and steps until ctx is cancelled (returning nil) or a device or
// link fails.
func (m *Machine) Run(ctx context.Context) error {
	if err := m.Boot(ctx); err != nil {
		if ctx.Err() != nil {
			return nil //nolint:nilerr // shutdown
		}
		return fmt.Errorf("boot: %w", err)
	}
	for {
		if err := m.Step(ctx); err != nil {
			if ctx.Err() != nil {
				return nil //nolint:nilerr // shutdown
			}
			return fmt.Errorf("%s: %w", m.state, err)
		}
	}
}

func (m *Machine) createPassword(ctx context.Context) error {
	a, err := m.enter(ctx, TextEnterPassword)
	if err != nil {
		return err
	}
	b, err := m.enter(ctx, TextConfirmPassword)
	if err != nil {
		return err
	}

	if err := m.link.SendCommand(ctx, protocol.CmdCreatePassword); err != nil {
		return err
	}
	if err := m.link.SendCredential(ctx, a); err != nil {
		return err
	}
	if err := m.link.SendCredential(ctx, b); err != nil {
		return err
	}

	r, err := m.link.ReceiveResponse(ctx)
	if err != nil {
		return err
	}
	switch r {
	case protocol.ResponseOK:
		m.logger.Info("credential created")
		m.setState(StateMainMenu)
		return nil
	case protocol.ResponseError:
		return m.notice(ctx, m.cfg.MismatchPause, TextMismatchRetry)
	default:
		return unexpected(r)
	}
}

func (m *Machine) mainMenu(ctx context.Context) error {
	m.display.Show(TextMenuOpen, TextMenuChange)
	k, err := m.keypad.ReadKey(ctx)
	if err != nil {
		return err
	}
	switch k {
	case KeyOpen:
		m.setState(StateOpenDoor)
	case KeyChange:
		m.setState(StateChangePassword)
	}
	return nil
}

func (m *Machine) openDoor(ctx context.Context) error {
	a, err := m.enter(ctx, TextEnterPass)
	if err != nil {
		return err
	}
	if err := m.link.SendCommand(ctx, protocol.CmdOpenDoor); err != nil {
		return err
	}
	if err := m.link.SendCredential(ctx, a); err != nil {
		return err
	}

	accepted, err := m.verdict(ctx)
	if err != nil {
		return err
	}
	if !accepted {
		return m.rejected(ctx, TextWrongPassOpen)
	}

	m.display.Show(TextUnlocking)
	if err := m.clock.Sleep(ctx, m.cfg.LockingTime); err != nil {
		return err
	}
	if err := m.awaitClear(ctx); err != nil {
		return err
	}
	m.display.Show(TextLocking)
	if err := m.clock.Sleep(ctx, m.cfg.LockingTime); err != nil {
		return err
	}
	m.setState(StateMainMenu)
	return nil
}

// awaitClear consumes motion reports until the authority says the doorway
// is clear. People walking through set the pace, so the link read timeout
// does not apply.
func (m *Machine) awaitClear(ctx context.Context) error {
	ctx = link.WithoutTimeout(ctx)
	for {
		r, err := m.link.ReceiveResponse(ctx)
		if err != nil {
			return err
		}
		switch r {
		case protocol.ResponsePIRDetected:
			m.display.Show(TextPeopleEntering)
		case protocol.ResponsePIRNotDetected:
			return nil
		default:
			return unexpected(r)
		}
	}
}

func (m *Machine) changePassword(ctx context.Context) error {
	old, err := m.enter(ctx, TextEnterOldPass)
	if err != nil {
		return err
	}
	if err := m.link.SendCommand(ctx, protocol.CmdChangePassword); err != nil {
		return err
	}
	if err := m.link.SendCredential(ctx, old); err != nil {
		return err
	}

	accepted, err := m.verdict(ctx)
	if err != nil {
		return err
	}
	if !accepted {
		return m.rejected(ctx, TextWrongPass)
	}

	b, err := m.enter(ctx, TextEnterNewPass)
	if err != nil {
		return err
	}
	c, err := m.enter(ctx, TextConfirmNewPass)
	if err != nil {
		return err
	}
	if err := m.link.SendCredential(ctx, b); err != nil {
		return err
	}
	if err := m.link.SendCredential(ctx, c); err != nil {
		return err
	}

	r, err := m.link.ReceiveResponse(ctx)
	if err != nil {
		return err
	}
	switch r {
	case protocol.ResponseOK:
		m.logger.Info("credential changed")
		if err := m.notice(ctx, m.cfg.SavedPause, TextPassSaved); err != nil {
			return err
		}
		m.setState(StateMainMenu)
		return nil
	case protocol.ResponseError:
		return m.notice(ctx, m.cfg.RejectPause, TextNoMatch)
	default:
		return unexpected(r)
	}
}

func (m *Machine) locked(ctx context.Context) error {
	if err := m.link.SendCommand(ctx, protocol.CmdLockSystem); err != nil {
		return err
	}
	m.logger.Warn("locked out", "attempts", m.attempts.Count())
	if err := m.notice(ctx, m.cfg.LockoutTime, TextLocked); err != nil {
		return err
	}

	if m.cfg.Mode.ReportsCount() {
		r, err := m.link.ReceiveResponse(ctx)
		if err != nil {
			return err
		}
		if r != protocol.ResponseOK {
			return unexpected(r)
		}
		n, err := m.link.ReceiveCount(ctx)
		if err != nil {
			return err
		}
		m.attempts.Set(n)
	} else {
		m.attempts.Reset()
	}
	m.setState(StateMainMenu)
	return nil
}

// verdict reads the reply to a verification exchange and updates the attempt
// count: mirrored from the authority, or counted locally in legacy mode.
func (m *Machine) verdict(ctx context.Context) (bool, error) {
	r, err := m.link.ReceiveResponse(ctx)
	if err != nil {
		return false, err
	}
	if r != protocol.ResponseOK && r != protocol.ResponseError {
		return false, unexpected(r)
	}
	accepted := r == protocol.ResponseOK

	if m.cfg.Mode.ReportsCount() {
		n, err := m.link.ReceiveCount(ctx)
		if err != nil {
			return false, fmt.Errorf("receiving attempt count: %w", err)
		}
		m.attempts.Set(n)
	} else if !accepted {
		m.attempts.Fail()
	}
	return accepted, nil
}

// rejected shows text and moves to Locked once the attempts are used up.
// Otherwise the state is kept so the user retries.
func (m *Machine) rejected(ctx context.Context, text string) error {
	m.logger.Info("credential rejected", "attempts", m.attempts.Count(), "remaining", m.attempts.Remaining())
	if err := m.notice(ctx, m.cfg.RejectPause, text); err != nil {
		return err
	}
	if m.attempts.Exhausted() {
		m.setState(StateLocked)
	}
	return nil
}

// enter collects a credential: digits are masked as typed, other keys are
// ignored, and Enter is required after the last digit.
func (m *Machine) enter(ctx context.Context, prompt string) (protocol.Credential, error) {
	digits := make([]byte, 0, protocol.CredentialLength)
	m.display.Show(prompt, "")
	for len(digits) < protocol.CredentialLength {
		k, err := m.keypad.ReadKey(ctx)
		if err != nil {
			return protocol.Credential{}, err
		}
		d, ok := k.Digit()
		if !ok {
			continue
		}
		digits = append(digits, d)
		m.display.Show(prompt, strings.Repeat("*", len(digits)))
	}
	for {
		k, err := m.keypad.ReadKey(ctx)
		if err != nil {
			return protocol.Credential{}, err
		}
		if k == KeyEnter {
			break
		}
	}
	return protocol.NewCredential(digits...)
}

func (m *Machine) notice(ctx context.Context, d time.Duration, text string) error {
	m.display.Show(text)
	return m.clock.Sleep(ctx, d)
}

func (m *Machine) setState(s State) {
	if s != m.state {
		m.logger.Debug("state changed", "from", m.state.String(), "to", s.String())
	}
	m.state = s
}

func unexpected(r protocol.Response) error {
	return fmt.Errorf("%w: %s", ErrUnexpectedResponse, r)
}
