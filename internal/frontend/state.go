package frontend

// State is the front end's interaction state.
type State int

const (
	StateCreatePassword State = iota
	StateMainMenu
	StateOpenDoor
	StateChangePassword
	StateLocked
)

func (s State) String() string {
	switch s {
	case StateCreatePassword:
		return "create_password"
	case StateMainMenu:
		return "main_menu"
	case StateOpenDoor:
		return "open_door"
	case StateChangePassword:
		return "change_password"
	case StateLocked:
		return "locked"
	default:
		return "unknown"
	}
}

// Key is one keypad press.
type Key rune

const (
	KeyEnter  Key = '\n'
	KeyOpen   Key = '+'
	KeyChange Key = '-'
)

// Digit returns the numeric value of a digit key.
func (k Key) Digit() (byte, bool) {
	if k < '0' || k > '9' {
		return 0, false
	}
	return byte(k - '0'), true
}

// Display texts. A 16x2 character LCD fits each line.
const (
	TextSystemReady     = "System Ready"
	TextEnterPassword   = "Enter Password:"
	TextConfirmPassword = "Confirm Password:"
	TextMismatchRetry   = "Mismatch! Retry"
	TextMenuOpen        = "+ : Open Door"
	TextMenuChange      = "- : Change Pass"
	TextEnterPass       = "Enter pass:"
	TextUnlocking       = "UNLOCKING..."
	TextPeopleEntering  = "People entering"
	TextLocking         = "LOCKING..."
	TextWrongPassOpen   = "wrong pass"
	TextEnterOldPass    = "Enter old pass"
	TextEnterNewPass    = "Enter new pass"
	TextConfirmNewPass  = "Confirm new pass"
	TextPassSaved       = "New pass saved"
	TextNoMatch         = "No match"
	TextWrongPass       = "Wrong pass"
	TextLocked          = "Locked"
)
