package dispatcher

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestDispatcher(t *testing.T, d *Dispatcher) (addr string, stop func()) {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr = listener.Addr().String()
	listener.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Serve(ctx, addr)
		close(done)
	}()

	// Give the listener a moment to bind.
	require.Eventually(t, func() bool {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 2*time.Second, 10*time.Millisecond)

	return addr, func() {
		cancel()
		<-done
	}
}

func doGet(t *testing.T, addr, path string) *http.Response {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	req, err := http.NewRequest(http.MethodGet, "http://"+addr+path, nil)
	require.NoError(t, err)
	require.NoError(t, req.Write(conn))

	resp, err := http.ReadResponse(bufio.NewReader(conn), req)
	require.NoError(t, err)
	return resp
}

func TestDispatcherRoutesLongestPrefixMatch(t *testing.T) {
	d := New(2, false)
	d.AddHandler(http.MethodGet, "/app", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte("short"))
	})
	d.AddHandler(http.MethodGet, "/app/specific", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("long"))
	})

	addr, stop := startTestDispatcher(t, d)
	defer stop()

	resp := doGet(t, addr, "/app/specific/thing")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDispatcherRespondsNotFoundWhenNoRouteMatches(t *testing.T) {
	d := New(2, false)
	addr, stop := startTestDispatcher(t, d)
	defer stop()

	resp := doGet(t, addr, "/nowhere")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDispatcherRecoversHandlerPanic(t *testing.T) {
	d := New(2, false)
	d.AddHandler(http.MethodGet, "/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	})
	addr, stop := startTestDispatcher(t, d)
	defer stop()

	resp := doGet(t, addr, "/boom")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestAddHandlerReplacesExistingRoute(t *testing.T) {
	d := New(1, false)
	d.AddHandler(http.MethodGet, "/x", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	d.AddHandler(http.MethodGet, "/x", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusAccepted) })

	addr, stop := startTestDispatcher(t, d)
	defer stop()

	resp := doGet(t, addr, "/x")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestRemoveHandlerDropsRoute(t *testing.T) {
	d := New(1, false)
	d.AddHandler(http.MethodGet, "/gone", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	d.RemoveHandler(http.MethodGet, "/gone")

	addr, stop := startTestDispatcher(t, d)
	defer stop()

	resp := doGet(t, addr, "/gone")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
