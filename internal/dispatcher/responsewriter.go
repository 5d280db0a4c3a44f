package dispatcher

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
)

// newConnReader wraps conn in a buffered reader sized for http.ReadRequest.
func newConnReader(conn net.Conn) *bufio.Reader {
	return bufio.NewReader(conn)
}

// writeStatus writes a minimal plain-text HTTP response directly to conn,
// used for the dispatcher's own 400/404/500 responses (parse failure, no
// route, handler panic) ahead of any handler-specific rendering.
func writeStatus(conn net.Conn, code int, body string) {
	fmt.Fprintf(conn, "HTTP/1.1 %d %s\r\nContent-Type: text/plain\r\nContent-Length: %d\r\nConnection: close\r\n\r\n%s",
		code, http.StatusText(code), len(body), body)
}

// responseWriter is a minimal http.ResponseWriter that serializes a
// status line, headers, and body directly to a net.Conn, since
// Dispatcher reads one request per connection and does not keep it open
// for further traffic.
type responseWriter struct {
	conn        net.Conn
	header      http.Header
	wroteHeader bool
	status      int
}

func newResponseWriter(conn net.Conn) *responseWriter {
	return &responseWriter{conn: conn, header: make(http.Header)}
}

func (w *responseWriter) Header() http.Header { return w.header }

func (w *responseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.status = status

	fmt.Fprintf(w.conn, "HTTP/1.1 %d %s\r\n", status, http.StatusText(status))
	if w.header.Get("Content-Type") == "" {
		w.header.Set("Content-Type", "application/json; charset=utf-8")
	}
	w.header.Set("Connection", "close")
	w.header.Write(w.conn)
	fmt.Fprint(w.conn, "\r\n")
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.conn.Write(b)
}
