package lockout

import (
	"errors"
	"testing"
)

func TestCounterBoundary(t *testing.T) {
	c := NewCounter(3)

	if c.Fail() {
		t.Fatal("exhausted after 1 failure")
	}
	if c.Fail() {
		t.Fatal("exhausted after 2 failures")
	}
	if got := c.Remaining(); got != 1 {
		t.Errorf("Remaining() = %d, want 1", got)
	}
	if !c.Fail() {
		t.Fatal("not exhausted after 3 failures")
	}
	if !c.Exhausted() {
		t.Error("Exhausted() = false at max")
	}

	// Saturates.
	c.Fail()
	if got := c.Count(); got != 3 {
		t.Errorf("Count() = %d, want 3", got)
	}
}

func TestCounterResetOnlyExplicit(t *testing.T) {
	c := NewCounter(3)
	c.Fail()
	c.Fail()

	if got := c.Count(); got != 2 {
		t.Fatalf("Count() = %d, want 2", got)
	}
	c.Reset()
	if got := c.Count(); got != 0 {
		t.Errorf("Count() after Reset = %d, want 0", got)
	}
	if c.Exhausted() {
		t.Error("Exhausted() after Reset")
	}
}

func TestCounterSetClamps(t *testing.T) {
	tests := []struct {
		in        int
		want      int
		exhausted bool
	}{
		{in: -1, want: 0},
		{in: 0, want: 0},
		{in: 2, want: 2},
		{in: 3, want: 3, exhausted: true},
		{in: 200, want: 3, exhausted: true},
	}

	for _, tt := range tests {
		c := NewCounter(3)
		if got := c.Set(tt.in); got != tt.exhausted {
			t.Errorf("Set(%d) = %v, want %v", tt.in, got, tt.exhausted)
		}
		if got := c.Count(); got != tt.want {
			t.Errorf("Set(%d) Count() = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestNewCounterDefaultMax(t *testing.T) {
	if got := NewCounter(0).Max(); got != DefaultMaxAttempts {
		t.Errorf("Max() = %d, want %d", got, DefaultMaxAttempts)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "", want: ModeLegacy},
		{in: "authoritative", want: ModeAuthoritative},
		{in: " Legacy ", want: ModeLegacy},
		{in: "mirror", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidMode) {
				t.Errorf("ParseMode(%q) error = %v, want ErrInvalidMode", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMode(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if !ModeAuthoritative.ReportsCount() || ModeLegacy.ReportsCount() {
		t.Error("ReportsCount() mismatch")
	}
}
