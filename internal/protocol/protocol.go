package protocol

import "fmt"

// Command is a single command byte sent by the front end.
type Command byte

// Command values as they appear on the wire.
const (
	CmdCreatePassword Command = 0x01
	CmdOpenDoor       Command = 0x03
	CmdChangePassword Command = 0x04
	CmdLockSystem     Command = 0x06
	CmdCheckInit      Command = 0x07
)

// Response is a single response byte sent by the authority.
type Response byte

// Response values as they appear on the wire.
const (
	ResponseOK             Response = 0xAA
	ResponseError          Response = 0xFF
	ResponsePIRDetected    Response = 0x55
	ResponsePIRNotDetected Response = 0x66

	// ResponseNextDigit acknowledges one credential digit. Either side may
	// send it, depending on who is receiving the credential.
	ResponseNextDigit Response = 0xE3
)

// Initialization flag values sent in reply to CmdCheckInit.
const (
	FlagUninitialized byte = 0x00
	FlagInitialized   byte = 0x01
)

// Commands returns every defined command in wire order.
func Commands() []Command {
	return []Command{CmdCreatePassword, CmdOpenDoor, CmdChangePassword, CmdLockSystem, CmdCheckInit}
}

// ParseCommand validates a raw byte as a Command.
func ParseCommand(b byte) (Command, error) {
	c := Command(b)
	if !c.Valid() {
		return 0, fmt.Errorf("%w: 0x%02X", ErrUnknownCommand, b)
	}
	return c, nil
}

// Valid reports whether c is one of the defined commands.
func (c Command) Valid() bool {
	switch c {
	case CmdCreatePassword, CmdOpenDoor, CmdChangePassword, CmdLockSystem, CmdCheckInit:
		return true
	default:
		return false
	}
}

// String returns the command name used in logs and events.
func (c Command) String() string {
	switch c {
	case CmdCreatePassword:
		return "create_password"
	case CmdOpenDoor:
		return "open_door"
	case CmdChangePassword:
		return "change_password"
	case CmdLockSystem:
		return "lock_system"
	case CmdCheckInit:
		return "check_init"
	default:
		return fmt.Sprintf("unknown(0x%02X)", byte(c))
	}
}

// ParseResponse validates a raw byte as a Response.
func ParseResponse(b byte) (Response, error) {
	r := Response(b)
	if !r.Valid() {
		return 0, fmt.Errorf("%w: 0x%02X", ErrUnknownResponse, b)
	}
	return r, nil
}

// Valid reports whether r is one of the defined responses.
func (r Response) Valid() bool {
	switch r {
	case ResponseOK, ResponseError, ResponsePIRDetected, ResponsePIRNotDetected, ResponseNextDigit:
		return true
	default:
		return false
	}
}

// String returns the response name used in logs.
func (r Response) String() string {
	switch r {
	case ResponseOK:
		return "ok"
	case ResponseError:
		return "error"
	case ResponsePIRDetected:
		return "pir_detected"
	case ResponsePIRNotDetected:
		return "pir_not_detected"
	case ResponseNextDigit:
		return "next_digit"
	default:
		return fmt.Sprintf("unknown(0x%02X)", byte(r))
	}
}

// Verdict converts a boolean decision into ResponseOK or ResponseError.
func Verdict(ok bool) Response {
	if ok {
		return ResponseOK
	}
	return ResponseError
}
