// Package authority implements the back-end unit: the only place where
// credentials are compared, stored and where the door is unlocked.
//
// Server.Serve reads one command byte at a time from the link and runs the
// full exchange for it before reading the next:
//
//	CheckInit       reply the init flag (1 or 0)
//	CreatePassword  receive A, receive B; A == B persists A, replies Ok
//	OpenDoor        receive A; A == stored replies Ok and runs the door cycle
//	ChangePassword  receive A; A == stored replies Ok, then receive B and C;
//	                B == C persists B, replies Ok
//	LockSystem      sound the alarm for the lockout interval, reset attempts
//
// Every rejected comparison increments the attempt counter. Only LockSystem
// resets it.
//
// In lockout.ModeAuthoritative the server additionally sends its attempt
// count after each verification verdict, acknowledges LockSystem with Ok and
// the reset count, and refuses verification without comparing while the
// count is at the maximum. In lockout.ModeLegacy, the default, none of these
// extra bytes are sent.
//
// Storage failures are answered with Error and logged; they do not count as
// failed attempts. Unknown command bytes are logged and skipped.
package authority
