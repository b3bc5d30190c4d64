package protocol

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWireValues(t *testing.T) {
	// Values are fixed by the deployed firmware on both units.
	assert.Equal(t, byte(0x01), byte(CmdCreatePassword))
	assert.Equal(t, byte(0x03), byte(CmdOpenDoor))
	assert.Equal(t, byte(0x04), byte(CmdChangePassword))
	assert.Equal(t, byte(0x06), byte(CmdLockSystem))
	assert.Equal(t, byte(0x07), byte(CmdCheckInit))

	assert.Equal(t, byte(0xAA), byte(ResponseOK))
	assert.Equal(t, byte(0xFF), byte(ResponseError))
	assert.Equal(t, byte(0x55), byte(ResponsePIRDetected))
	assert.Equal(t, byte(0x66), byte(ResponsePIRNotDetected))
	assert.Equal(t, byte(0xE3), byte(ResponseNextDigit))
}

func TestParseCommand(t *testing.T) {
	for _, c := range Commands() {
		got, err := ParseCommand(byte(c))
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	for _, b := range []byte{0x00, 0x02, 0x05, 0x08, 0xAA, 0xFF} {
		_, err := ParseCommand(b)
		assert.ErrorIs(t, err, ErrUnknownCommand, "byte 0x%02X", b)
	}
}

func TestParseResponse(t *testing.T) {
	_, err := ParseResponse(0x10)
	assert.ErrorIs(t, err, ErrUnknownResponse)

	r, err := ParseResponse(0xE3)
	require.NoError(t, err)
	assert.Equal(t, ResponseNextDigit, r)
	assert.Equal(t, "next_digit", r.String())
}

func TestVerdict(t *testing.T) {
	assert.Equal(t, ResponseOK, Verdict(true))
	assert.Equal(t, ResponseError, Verdict(false))
}

func TestParseCredential(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Credential
		wantErr bool
	}{
		{name: "valid", in: "12345", want: Credential{1, 2, 3, 4, 5}},
		{name: "zeros", in: "00000", want: Credential{}},
		{name: "too short", in: "1234", wantErr: true},
		{name: "too long", in: "123456", wantErr: true},
		{name: "letter", in: "12a45", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCredential(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCredential)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewCredentialRejectsNonDigits(t *testing.T) {
	_, err := NewCredential(1, 2, 3, 4, 10)
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = NewCredential(1, 2, 3)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestCredentialEqual(t *testing.T) {
	a := MustParseCredential("12345")
	assert.True(t, a.Equal(MustParseCredential("12345")))
	assert.False(t, a.Equal(MustParseCredential("12346")))
	assert.False(t, a.Equal(MustParseCredential("54321")))
}

func TestCredentialStringIsMasked(t *testing.T) {
	c := MustParseCredential("98765")
	assert.Equal(t, "*****", c.String())
}

type recordingHandler struct {
	calls []string
}

func (h *recordingHandler) CheckInit(context.Context) error {
	h.calls = append(h.calls, "check_init")
	return nil
}

func (h *recordingHandler) CreatePassword(context.Context) error {
	h.calls = append(h.calls, "create_password")
	return nil
}

func (h *recordingHandler) OpenDoor(context.Context) error {
	h.calls = append(h.calls, "open_door")
	return nil
}

func (h *recordingHandler) ChangePassword(context.Context) error {
	h.calls = append(h.calls, "change_password")
	return nil
}

func (h *recordingHandler) LockSystem(context.Context) error {
	h.calls = append(h.calls, "lock_system")
	return nil
}

func TestDispatch(t *testing.T) {
	ctx := context.Background()
	h := &recordingHandler{}

	for _, c := range Commands() {
		require.NoError(t, Dispatch(ctx, c, h))
	}
	assert.Equal(t, []string{"create_password", "open_door", "change_password", "lock_system", "check_init"}, h.calls)

	err := Dispatch(ctx, Command(0x42), h)
	assert.True(t, errors.Is(err, ErrUnknownCommand))
	assert.Len(t, h.calls, 5)
}
