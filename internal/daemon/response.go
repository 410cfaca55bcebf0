package daemon

import (
	"bytes"
	"io"
	"net"
	"net/http"
)

// responseRecorder buffers a handler's status, headers, and body so the
// daemon can write a single well-formed HTTP/1.1 response to the raw
// connection once the handler finishes, rather than reaching for
// net/http.Server's ResponseWriter (spec §5 rules out its default
// one-goroutine-per-connection concurrency model for this daemon).
type responseRecorder struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newResponseRecorder() *responseRecorder {
	return &responseRecorder{header: make(http.Header), status: http.StatusOK}
}

func (w *responseRecorder) Header() http.Header { return w.header }

func (w *responseRecorder) Write(b []byte) (int, error) {
	return w.body.Write(b)
}

func (w *responseRecorder) WriteHeader(status int) {
	w.status = status
}

// writeTo serializes the recorded response and writes it to conn.
func (w *responseRecorder) writeTo(conn net.Conn) error {
	resp := &http.Response{
		StatusCode:    w.status,
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        w.header,
		Body:          io.NopCloser(bytes.NewReader(w.body.Bytes())),
		ContentLength: int64(w.body.Len()),
	}
	return resp.Write(conn)
}
