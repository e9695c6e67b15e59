package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// A request line no server accepts. The server answers it with a 400 without
// reaching any handler.
var probeRequest = []byte("INVALID\n\n")

type dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

var _ dialer = (*net.Dialer)(nil)

// waitUntilAvailable returns once the HTTP server at addr has answered a
// probe, or when ctx is done.
func waitUntilAvailable(ctx context.Context, d dialer, addr string) error {
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return netErr(err, "dialing %q", addr)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return fmt.Errorf("setting deadline %v: %w", deadline, err)
		}
	}
	if _, err := conn.Write(probeRequest); err != nil {
		return netErr(err, "writing probe")
	}

	var b [1]byte
	if _, err := conn.Read(b[:]); err != nil {
		return netErr(err, "reading probe response")
	}
	return nil
}

// netErr wraps err, turning network timeouts into context.DeadlineExceeded.
func netErr(err error, format string, args ...interface{}) error {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return context.DeadlineExceeded
	}
	return fmt.Errorf("waiting for server: %s: %w", fmt.Sprintf(format, args...), err)
}
