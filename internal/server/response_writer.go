package server

import (
	"bufio"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
)

// responseWriter records the status and byte count of a response. Upgraded
// WebSocket connections are reported as 101.
type responseWriter struct {
	gin.ResponseWriter
	status int
	size   int
}

func newResponseWriter(w gin.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, status: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

func (rw *responseWriter) WriteString(s string) (int, error) {
	n, err := rw.ResponseWriter.WriteString(s)
	rw.size += n
	return n, err
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	conn, buf, err := rw.ResponseWriter.Hijack()
	if err == nil {
		rw.status = http.StatusSwitchingProtocols
	}
	return conn, buf, err
}

func (rw *responseWriter) Status() int {
	return rw.status
}

// Size returns the response body size in bytes
func (rw *responseWriter) Size() int {
	return rw.size
}
