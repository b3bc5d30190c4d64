package link

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-doorlock/internal/protocol"
)

// rxBufferSize is the number of received bytes held between reads. The
// protocol never has more than a handful in flight.
const rxBufferSize = 64

// Logger is the logging surface the channel needs.
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

// Options configures a Channel.
type Options struct {
	// ReadTimeout bounds each blocking read inside an exchange. Reads made
	// with a WithoutTimeout context, and ReceiveCommand, are not bounded.
	// Zero waits forever.
	ReadTimeout time.Duration

	Logger Logger
}

// Stats holds channel counters.
type Stats struct {
	BytesTx      uint64
	BytesRx      uint64
	AcksTx       uint64
	AcksRx       uint64
	Discarded    uint64 // bytes dropped while waiting for NextDigit
	Timeouts     uint64
	LastActivity time.Time
}

// closeOnce guards a channel against double close.
type closeOnce struct {
	once sync.Once
	ch   chan struct{}
}

func newCloseOnce() *closeOnce { return &closeOnce{ch: make(chan struct{})} }

func (c *closeOnce) Close()                { c.once.Do(func() { close(c.ch) }) }
func (c *closeOnce) Done() <-chan struct{} { return c.ch }

// Channel is one end of the command link.
type Channel struct {
	rw     io.ReadWriteCloser
	opts   Options
	logger Logger

	rx      chan byte
	readErr error // set by the reader before rx is closed
	done    *closeOnce
	wmu     sync.Mutex

	bytesTx      atomic.Uint64
	bytesRx      atomic.Uint64
	acksTx       atomic.Uint64
	acksRx       atomic.Uint64
	discarded    atomic.Uint64
	timeouts     atomic.Uint64
	lastActivity atomic.Int64
}

// New starts a Channel over rw. The channel owns rw and closes it on Close.
func New(rw io.ReadWriteCloser, opts Options) *Channel {
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	c := &Channel{
		rw:     rw,
		opts:   opts,
		logger: opts.Logger,
		rx:     make(chan byte, rxBufferSize),
		done:   newCloseOnce(),
	}
	go c.receiveLoop()
	return c
}

// receiveLoop is the only sender on rx and closes it on exit.
func (c *Channel) receiveLoop() {
	defer close(c.rx)

	buf := make([]byte, rxBufferSize)
	for {
		n, err := c.rw.Read(buf)
		for _, b := range buf[:n] {
			select {
			case c.rx <- b:
				c.bytesRx.Add(1)
				c.touch()
			case <-c.done.Done():
				c.readErr = ErrClosed
				return
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				c.readErr = fmt.Errorf("%w: peer closed", ErrClosed)
			} else {
				c.readErr = fmt.Errorf("%w: %w", ErrClosed, err)
			}
			select {
			case <-c.done.Done():
			default:
				c.logger.Warn("link read failed", "error", err)
			}
			return
		}
	}
}

func (c *Channel) touch() { c.lastActivity.Store(time.Now().UnixNano()) }

// Close stops the reader and closes the transport. Safe to call repeatedly.
func (c *Channel) Close() error {
	select {
	case <-c.done.Done():
		return nil
	default:
	}
	c.done.Close()
	if err := c.rw.Close(); err != nil {
		return fmt.Errorf("closing link: %w", err)
	}
	return nil
}

// SendByte writes one byte.
func (c *Channel) SendByte(ctx context.Context, b byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-c.done.Done():
		return ErrClosed
	default:
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()
	if _, err := c.rw.Write([]byte{b}); err != nil {
		return fmt.Errorf("%w: write: %w", ErrClosed, err)
	}
	c.bytesTx.Add(1)
	c.touch()
	return nil
}

type unboundedKey struct{}

// WithoutTimeout marks ctx so reads made with it ignore Options.ReadTimeout.
// Use it where the peer is waiting on a person rather than on the link.
func WithoutTimeout(ctx context.Context) context.Context {
	return context.WithValue(ctx, unboundedKey{}, true)
}

func unbounded(ctx context.Context) bool {
	v, _ := ctx.Value(unboundedKey{}).(bool)
	return v
}

// ReceiveByte blocks for one byte, ctx cancellation or the read timeout.
func (c *Channel) ReceiveByte(ctx context.Context) (byte, error) {
	if c.opts.ReadTimeout > 0 && !unbounded(ctx) {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, c.opts.ReadTimeout, ErrTimeout)
		defer cancel()
	}

	select {
	case b, ok := <-c.rx:
		if !ok {
			return 0, c.readErr
		}
		return b, nil
	case <-ctx.Done():
		if errors.Is(context.Cause(ctx), ErrTimeout) {
			c.timeouts.Add(1)
			return 0, ErrTimeout
		}
		return 0, ctx.Err()
	}
}

// SendCommand writes a command byte. There is no acknowledgment.
func (c *Channel) SendCommand(ctx context.Context, cmd protocol.Command) error {
	return c.SendByte(ctx, byte(cmd))
}

// ReceiveCommand reads a command byte. The byte is returned as is; callers
// decide what to do with values that are not defined commands. The wait
// between exchanges is idle time, so the read timeout does not apply.
func (c *Channel) ReceiveCommand(ctx context.Context) (protocol.Command, error) {
	b, err := c.ReceiveByte(WithoutTimeout(ctx))
	return protocol.Command(b), err
}

// SendResponse writes a response byte.
func (c *Channel) SendResponse(ctx context.Context, r protocol.Response) error {
	return c.SendByte(ctx, byte(r))
}

// ReceiveResponse reads a response byte without validating it.
func (c *Channel) ReceiveResponse(ctx context.Context) (protocol.Response, error) {
	b, err := c.ReceiveByte(ctx)
	return protocol.Response(b), err
}

// SendFlag writes the CheckInit reply.
func (c *Channel) SendFlag(ctx context.Context, initialized bool) error {
	if initialized {
		return c.SendByte(ctx, protocol.FlagInitialized)
	}
	return c.SendByte(ctx, protocol.FlagUninitialized)
}

// ReceiveFlag reads the CheckInit reply.
func (c *Channel) ReceiveFlag(ctx context.Context) (bool, error) {
	b, err := c.ReceiveByte(ctx)
	if err != nil {
		return false, err
	}
	switch b {
	case protocol.FlagInitialized:
		return true, nil
	case protocol.FlagUninitialized:
		return false, nil
	default:
		return false, fmt.Errorf("%w: init flag 0x%02X", ErrUnexpectedByte, b)
	}
}

// SendCount writes an attempt count, saturating at 255.
func (c *Channel) SendCount(ctx context.Context, n int) error {
	switch {
	case n < 0:
		n = 0
	case n > 0xFF:
		n = 0xFF
	}
	return c.SendByte(ctx, byte(n))
}

// ReceiveCount reads an attempt count.
func (c *Channel) ReceiveCount(ctx context.Context) (int, error) {
	b, err := c.ReceiveByte(ctx)
	return int(b), err
}

// SendCredential writes each digit and waits for its NextDigit. Other bytes
// received while waiting are discarded.
func (c *Channel) SendCredential(ctx context.Context, cred protocol.Credential) error {
	for i, d := range cred {
		if err := c.SendByte(ctx, d); err != nil {
			return fmt.Errorf("sending digit %d: %w", i, err)
		}
		if err := c.awaitAck(ctx); err != nil {
			return fmt.Errorf("awaiting ack for digit %d: %w", i, err)
		}
	}
	return nil
}

func (c *Channel) awaitAck(ctx context.Context) error {
	for {
		b, err := c.ReceiveByte(ctx)
		if err != nil {
			return err
		}
		if protocol.Response(b) == protocol.ResponseNextDigit {
			c.acksRx.Add(1)
			return nil
		}
		c.discarded.Add(1)
		c.logger.Debug("discarding byte while awaiting ack", "byte", fmt.Sprintf("0x%02X", b))
	}
}

// ReceiveCredential reads each digit and acknowledges it with NextDigit.
func (c *Channel) ReceiveCredential(ctx context.Context) (protocol.Credential, error) {
	var cred protocol.Credential
	for i := range cred {
		b, err := c.ReceiveByte(ctx)
		if err != nil {
			return protocol.Credential{}, fmt.Errorf("receiving digit %d: %w", i, err)
		}
		cred[i] = b
		if err := c.SendResponse(ctx, protocol.ResponseNextDigit); err != nil {
			return protocol.Credential{}, fmt.Errorf("acking digit %d: %w", i, err)
		}
		c.acksTx.Add(1)
	}
	return cred, nil
}

// Stats returns a snapshot of the counters.
func (c *Channel) Stats() Stats {
	s := Stats{
		BytesTx:   c.bytesTx.Load(),
		BytesRx:   c.bytesRx.Load(),
		AcksTx:    c.acksTx.Load(),
		AcksRx:    c.acksRx.Load(),
		Discarded: c.discarded.Load(),
		Timeouts:  c.timeouts.Load(),
	}
	if ts := c.lastActivity.Load(); ts != 0 {
		s.LastActivity = time.Unix(0, ts)
	}
	return s
}
