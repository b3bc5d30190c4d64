package link

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"

	"go.bug.st/serial"
)

// DefaultBaudRate is the UART speed of the lock controllers.
const DefaultBaudRate = 9600

// Open connects the transport described by rawURL and wraps it in a Channel.
// For tcp+listen, Open blocks until a peer connects or ctx is done.
func Open(ctx context.Context, rawURL string, opts Options) (*Channel, error) {
	rw, err := dial(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return New(rw, opts), nil
}

func dial(ctx context.Context, rawURL string) (io.ReadWriteCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid link URL: %w", err)
	}

	switch u.Scheme {
	case "serial":
		return openSerial(u)
	case "tcp":
		if u.Host == "" {
			return nil, fmt.Errorf("tcp link URL %q has no host", rawURL)
		}
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", u.Host)
		if err != nil {
			return nil, fmt.Errorf("dialing %s: %w", u.Host, err)
		}
		return conn, nil
	case "tcp+listen":
		return acceptOne(ctx, u.Host)
	case "unix":
		var d net.Dialer
		conn, err := d.DialContext(ctx, "unix", u.Path)
		if err != nil {
			return nil, fmt.Errorf("dialing %s: %w", u.Path, err)
		}
		return conn, nil
	default:
		return nil, fmt.Errorf("%w: %q (use serial, tcp, tcp+listen or unix)", ErrUnsupportedScheme, u.Scheme)
	}
}

// serialMode returns the 8N1 mode for the URL's baud query parameter.
func serialMode(u *url.URL) (*serial.Mode, error) {
	baud := DefaultBaudRate
	if s := u.Query().Get("baud"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid baud rate %q", s)
		}
		baud = n
	}
	return &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}, nil
}

func openSerial(u *url.URL) (io.ReadWriteCloser, error) {
	port := u.Path
	if port == "" {
		port = u.Opaque // serial:COM3
	}
	if port == "" {
		return nil, fmt.Errorf("serial link URL has no port")
	}
	mode, err := serialMode(u)
	if err != nil {
		return nil, err
	}
	p, err := serial.Open(port, mode)
	if err != nil {
		return nil, fmt.Errorf("opening serial port %s: %w", port, err)
	}
	return p, nil
}

// acceptOne listens on addr, accepts a single connection and closes the
// listener.
func acceptOne(ctx context.Context, addr string) (io.ReadWriteCloser, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}
	defer ln.Close()

	stop := context.AfterFunc(ctx, func() { ln.Close() }) //nolint:errcheck // unblocks Accept
	defer stop()

	conn, err := ln.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("accepting link peer on %s: %w", addr, err)
	}
	return conn, nil
}

// Pipe returns two connected in-process channels.
func Pipe(opts Options) (*Channel, *Channel) {
	a, b := net.Pipe()
	return New(a, opts), New(b, opts)
}
