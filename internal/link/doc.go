// Package link implements the half-duplex command channel between the front
// end and the authority.
//
// A Channel moves single bytes over any io.ReadWriteCloser. On top of the
// byte primitives it provides the per-digit credential handshake: the sender
// writes one digit and waits for NextDigit before writing the next, the
// receiver acknowledges each digit as it stores it. There is no framing and
// no checksum; the transport is assumed not to corrupt or drop bytes.
//
// Reads block until a byte arrives. They honour context cancellation, and an
// optional Options.ReadTimeout bounds reads inside an exchange with
// ErrTimeout. Waiting for the next command, or for anything a person paces,
// is not bounded: ReceiveCommand skips the timeout and callers mark other
// such reads with WithoutTimeout. With no timeout and a context that is
// never cancelled, a silent peer blocks the caller forever.
//
// Transports are selected by URL:
//
//	serial:///dev/ttyUSB0?baud=9600   UART, 8N1
//	tcp://host:port                   dial a peer
//	tcp+listen://:port                accept one peer
//	unix:///run/doorlock.sock         dial a unix socket
//
// Pipe connects two in-process Channels for simulation and tests.
package link
