// Package lockout implements the failed-attempt counter shared by the
// authority and the front end.
//
// A Counter increments on every rejected credential and reports when the
// maximum is reached. Only an explicit Reset, performed when a LockSystem
// exchange completes, returns it to zero. A successful verification does not.
package lockout
