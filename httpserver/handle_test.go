package httpserver

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"testing"
	"time"
)

func TestHandleStartShutdown(t *testing.T) {
	srv := &http.Server{
		Addr: "127.0.0.1:0",
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "hello")
		}),
	}
	h := NewHandle(srv, KeepAlivePeriod(time.Minute))
	if h.Addr() != nil {
		t.Fatal("Addr before Start should be nil")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := h.Start(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start = %v, want ErrAlreadyRunning", err)
	}

	res, err := http.Get("http://" + h.Addr().String() + "/")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	if string(body) != "hello" {
		t.Errorf("body = %q", body)
	}

	if err := h.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}
	if h.Addr() != nil {
		t.Error("Addr after Shutdown should be nil")
	}
}

func TestHandleListenError(t *testing.T) {
	listenErr := errors.New("no sockets today")
	h := NewHandle(&http.Server{}, ListenFunc(func(string, string) (net.Listener, error) {
		return nil, listenErr
	}))
	if err := h.Start(context.Background()); !errors.Is(err, listenErr) {
		t.Fatalf("Start = %v, want wrapped listen error", err)
	}
}

type failingDialer struct{ err error }

func (d failingDialer) DialContext(context.Context, string, string) (net.Conn, error) {
	return nil, d.err
}

func TestHandleProbeFailure(t *testing.T) {
	h := NewHandle(
		&http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()},
		dialerFunc(func() dialer { return failingDialer{err: errors.New("refused")} }),
	)
	if err := h.Start(context.Background()); err == nil {
		t.Fatal("Start succeeded although the server never answered")
	}
	if h.Addr() != nil {
		t.Error("failed Start left the handle running")
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestNetErrTimeout(t *testing.T) {
	if err := netErr(timeoutErr{}, "dialing"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("netErr(timeout) = %v", err)
	}
	base := errors.New("boom")
	if err := netErr(base, "dialing %q", "x"); !errors.Is(err, base) {
		t.Errorf("netErr lost the cause: %v", err)
	}
}
