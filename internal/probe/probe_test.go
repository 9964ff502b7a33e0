package probe

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingObserver) ObserveProbe(kind, outcome string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, kind+":"+outcome)
}

func listenLocal(t *testing.T) (net.Listener, uint16) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()
	return ln, uint16(ln.Addr().(*net.TCPAddr).Port)
}

func closedPort(t *testing.T) uint16 {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := uint16(ln.Addr().(*net.TCPAddr).Port)
	require.NoError(t, ln.Close())
	return port
}

func TestTCPConnector_Open(t *testing.T) {
	_, port := listenLocal(t)
	obs := &recordingObserver{}
	c := &TCPConnector{Timeout: time.Second, Observer: obs}

	out := c.Probe(context.Background(), TCPTarget{Host: "127.0.0.1", Port: port})
	assert.Equal(t, PortOpen, out.State)
	assert.Empty(t, out.Err)
	assert.Equal(t, []string{"tcp:open"}, obs.events)
}

func TestTCPConnector_Closed(t *testing.T) {
	port := closedPort(t)
	c := &TCPConnector{Timeout: time.Second}

	out := c.Probe(context.Background(), TCPTarget{Host: "127.0.0.1", Port: port})
	assert.Equal(t, PortClosed, out.State)
	assert.NotEmpty(t, out.Err)
}

func TestTCPConnector_InvalidTarget(t *testing.T) {
	c := &TCPConnector{}
	out := c.Probe(context.Background(), TCPTarget{Host: "", Port: 80})
	assert.Equal(t, PortError, out.State)

	out = c.Probe(context.Background(), TCPTarget{Host: "127.0.0.1", Port: 0})
	assert.Equal(t, PortError, out.State)
}

func TestTCPConnector_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := &TCPConnector{Timeout: time.Second}

	out := c.Probe(ctx, TCPTarget{Host: "127.0.0.1", Port: 9})
	assert.Equal(t, PortError, out.State)
	assert.Equal(t, "canceled", out.Err)
}

func TestTCPTarget_Address(t *testing.T) {
	assert.Equal(t, "127.0.0.1:80", TCPTarget{Host: "127.0.0.1", Port: 80}.Address())
	assert.Equal(t, "[::1]:443", TCPTarget{Host: "::1", Port: 443}.Address())
}

func TestHTTPConnector_Response(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Method", r.Method)
		w.Header().Set("X-Auth", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write(append([]byte("echo:"), body...))
	}))
	defer server.Close()

	obs := &recordingObserver{}
	c := &HTTPConnector{Timeout: time.Second, Observer: obs}
	target := HTTPTarget{URL: server.URL, Method: http.MethodPost, Body: []byte("hello")}.
		WithHeader("Authorization", "Bearer abc")

	out := c.Do(context.Background(), target)
	require.True(t, out.OK(), out.Err)
	assert.Equal(t, http.StatusCreated, out.Status())
	assert.Equal(t, "POST", out.Header("X-Method"))
	assert.Equal(t, "Bearer abc", out.Header("X-Auth"))
	assert.Equal(t, "echo:hello", string(out.Body))
	assert.Equal(t, []string{"http:2xx"}, obs.events)
}

func TestHTTPConnector_DoesNotFollowRedirects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/elsewhere", http.StatusFound)
	}))
	defer server.Close()

	out := NewHTTPConnector(time.Second).Do(context.Background(), HTTPTarget{URL: server.URL})
	require.True(t, out.OK())
	assert.Equal(t, http.StatusFound, out.StatusCode)
}

func TestHTTPConnector_SelfSignedTLS(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	out := NewHTTPConnector(time.Second).Do(context.Background(), HTTPTarget{URL: server.URL})
	require.True(t, out.OK(), out.Err)
	assert.Equal(t, http.StatusOK, out.StatusCode)
}

func TestHTTPConnector_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	out := NewHTTPConnector(50*time.Millisecond).Do(context.Background(), HTTPTarget{URL: server.URL})
	assert.False(t, out.OK())
	assert.Equal(t, "timeout", out.Err)
	assert.Equal(t, 0, out.Status())
}

func TestHTTPConnector_Unreachable(t *testing.T) {
	port := closedPort(t)
	out := NewHTTPConnector(time.Second).Do(context.Background(), HTTPTarget{
		URL: "http://" + TCPTarget{Host: "127.0.0.1", Port: port}.Address(),
	})
	assert.False(t, out.OK())
	assert.NotEmpty(t, out.Err)
}

func TestHTTPConnector_BadURL(t *testing.T) {
	out := NewHTTPConnector(time.Second).Do(context.Background(), HTTPTarget{URL: "://bad"})
	assert.False(t, out.OK())
	assert.Contains(t, out.Err, "create request")
}

func TestHTTPConnector_BodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer server.Close()

	c := &HTTPConnector{Timeout: time.Second, MaxBodyBytes: 4}
	out := c.Do(context.Background(), HTTPTarget{URL: server.URL})
	require.True(t, out.OK())
	assert.Equal(t, "0123", string(out.Body))
}

func TestSkippedOutcomes(t *testing.T) {
	p := SkippedPort(TCPTarget{Host: "h", Port: 1})
	assert.True(t, p.Skipped)
	assert.Equal(t, PortError, p.State)

	h := SkippedHTTP(HTTPTarget{URL: "http://h"})
	assert.True(t, h.Skipped)
	assert.False(t, h.OK())
}
