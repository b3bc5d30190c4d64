// Package protocol defines the single-byte wire vocabulary shared by the
// door lock front end and the authority unit.
//
// Every user action on the front end becomes exactly one command byte on the
// link, followed by a fixed exchange whose shape depends on the command:
//
//	front end                         authority
//	---------                         ---------
//	CMD_OPEN_DOOR  ─────────────────►
//	digit[0]       ─────────────────►
//	               ◄───────────────── NEXT_DIGIT
//	...            (5 digits)
//	               ◄───────────────── RESPONSE_OK | RESPONSE_ERROR
//
// # Values
//
// Commands flow front end → authority:
//
//	CreatePassword 0x01, OpenDoor 0x03, ChangePassword 0x04,
//	LockSystem 0x06, CheckInit 0x07
//
// Responses flow authority → front end:
//
//	OK 0xAA, Error 0xFF, PIRDetected 0x55, PIRNotDetected 0x66
//
// NextDigit (0xE3) is the per-digit acknowledgment and may flow either way.
// CheckInit is answered with the raw initialization flag (0 or 1), not with
// one of the Response values.
//
// # Dispatch
//
// Dispatch maps a Command onto a CommandHandler. The handler interface has one
// method per command, so adding a command breaks every implementation until it
// handles the new case.
//
// # Credentials
//
// A Credential is a fixed array of CredentialLength digits. It is a value type:
// each exchange owns its copies and nothing is shared between exchanges.
package protocol
