// Package frontend implements the keypad and display unit of the door lock.
//
// Machine is the interaction state machine: it boots with CheckInit, then
// moves between credential creation, the main menu, door opening, credential
// change and lockout, driving one exchange with the authority per user
// action. The front end never compares credentials itself; it forwards
// what was typed and acts on the verdict.
//
// Keypad and Display are the hardware boundary. Console implements both on a
// terminal with chzyer/readline for bench use.
package frontend
