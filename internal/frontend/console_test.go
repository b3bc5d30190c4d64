package frontend

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chzyer/readline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lines struct {
	mu   sync.Mutex
	rest []string
}

func (l *lines) Readline() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.rest) == 0 {
		return "", io.EOF
	}
	s := l.rest[0]
	l.rest = l.rest[1:]
	if s == "^C" {
		return "", readline.ErrInterrupt
	}
	return s, nil
}

func TestConsole_LinesBecomeKeys(t *testing.T) {
	c := newConsole(&lines{rest: []string{" 12 ", "^C", "+"}}, io.Discard)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var got []Key
	for {
		k, err := c.ReadKey(ctx)
		if err != nil {
			require.ErrorIs(t, err, ErrConsoleClosed)
			assert.True(t, errors.Is(err, io.EOF))
			break
		}
		got = append(got, k)
	}
	assert.Equal(t, []Key{'1', '2', KeyEnter, KeyOpen, KeyEnter}, got)
}

func TestConsole_ReadKeyHonoursContext(t *testing.T) {
	c := newConsole(blockingLines{}, io.Discard)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.ReadKey(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

type blockingLines struct{}

func (blockingLines) Readline() (string, error) {
	select {}
}

func TestConsole_Show(t *testing.T) {
	var buf bytes.Buffer
	c := newConsole(&lines{}, &buf)
	defer c.Close()

	c.Show(TextConfirmPassword, "***")

	out := buf.String()
	assert.Contains(t, out, "|Confirm Password|")
	assert.Contains(t, out, "|***             |")
	assert.Equal(t, 4, strings.Count(out, "\n"))
}
