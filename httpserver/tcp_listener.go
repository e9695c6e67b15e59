package httpserver

import (
	"net"
	"time"
)

// keepAliveListener enables TCP keep-alive on accepted connections so peers
// that vanish without closing are eventually dropped.
type keepAliveListener struct {
	*net.TCPListener
	period time.Duration
}

func (ln keepAliveListener) Accept() (net.Conn, error) {
	tc, err := ln.AcceptTCP()
	if err != nil {
		return nil, err
	}
	tc.SetKeepAlive(true)
	tc.SetKeepAlivePeriod(ln.period)
	return tc, nil
}
