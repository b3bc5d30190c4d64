package protocol

import (
	"context"
	"fmt"
)

// CommandHandler handles one full exchange per command.
//
// Each method runs the complete exchange for its command, including any
// credential transfer and the final response.
type CommandHandler interface {
	CheckInit(ctx context.Context) error
	CreatePassword(ctx context.Context) error
	OpenDoor(ctx context.Context) error
	ChangePassword(ctx context.Context) error
	LockSystem(ctx context.Context) error
}

// Dispatch routes cmd to the matching CommandHandler method.
// Bytes that are not a defined command return ErrUnknownCommand and leave the
// handler untouched.
func Dispatch(ctx context.Context, cmd Command, h CommandHandler) error {
	switch cmd {
	case CmdCheckInit:
		return h.CheckInit(ctx)
	case CmdCreatePassword:
		return h.CreatePassword(ctx)
	case CmdOpenDoor:
		return h.OpenDoor(ctx)
	case CmdChangePassword:
		return h.ChangePassword(ctx)
	case CmdLockSystem:
		return h.LockSystem(ctx)
	default:
		return fmt.Errorf("%w: 0x%02X", ErrUnknownCommand, byte(cmd))
	}
}
