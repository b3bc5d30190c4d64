package frontend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/chzyer/readline"
)

// lineReader is the part of readline.Instance the console reads from.
type lineReader interface {
	Readline() (string, error)
}

// Console is a terminal keypad and display. Each typed line is delivered as
// its characters followed by KeyEnter; the display is redrawn as a boxed
// 16-column panel.
type Console struct {
	rl  *readline.Instance
	out io.Writer

	keys chan Key
	done chan struct{}

	mu  sync.Mutex
	err error
}

// NewConsole opens a readline session on the process terminal. Typed input
// is masked so credentials are not echoed.
func NewConsole() (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "keypad> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		EnableMask:      true,
		MaskRune:        '*',
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	c := newConsole(rl, rl.Stdout())
	c.rl = rl
	return c, nil
}

func newConsole(in lineReader, out io.Writer) *Console {
	c := &Console{
		out:  out,
		keys: make(chan Key),
		done: make(chan struct{}),
	}
	go c.readLoop(in)
	return c
}

// Stderr returns a writer that does not corrupt the prompt, for logging.
func (c *Console) Stderr() io.Writer {
	if c.rl == nil {
		return io.Discard
	}
	return c.rl.Stderr()
}

func (c *Console) readLoop(in lineReader) {
	defer close(c.keys)
	for {
		line, err := in.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			c.mu.Lock()
			c.err = err
			c.mu.Unlock()
			return
		}
		for _, r := range strings.TrimSpace(line) {
			if !c.deliver(Key(r)) {
				return
			}
		}
		if !c.deliver(KeyEnter) {
			return
		}
	}
}

func (c *Console) deliver(k Key) bool {
	select {
	case c.keys <- k:
		return true
	case <-c.done:
		return false
	}
}

// ReadKey implements Keypad.
func (c *Console) ReadKey(ctx context.Context) (Key, error) {
	select {
	case k, ok := <-c.keys:
		if !ok {
			c.mu.Lock()
			err := c.err
			c.mu.Unlock()
			if err == nil {
				return 0, ErrConsoleClosed
			}
			return 0, fmt.Errorf("%w: %w", ErrConsoleClosed, err)
		}
		return k, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Show implements Display.
func (c *Console) Show(lines ...string) {
	fmt.Fprint(c.out, render(lines))
}

// Close stops reading and releases the terminal.
func (c *Console) Close() error {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
	if c.rl != nil {
		return c.rl.Close()
	}
	return nil
}

const panelWidth = 16

// render draws a two-row panel. Longer text is cut at the panel width, as
// on the LCD.
func render(lines []string) string {
	var b strings.Builder
	border := "+" + strings.Repeat("-", panelWidth) + "+\n"
	b.WriteString(border)
	for i := 0; i < 2; i++ {
		var text string
		if i < len(lines) {
			text = lines[i]
		}
		if len(text) > panelWidth {
			text = text[:panelWidth]
		}
		fmt.Fprintf(&b, "|%-*s|\n", panelWidth, text)
	}
	b.WriteString(border)
	return b.String()
}
