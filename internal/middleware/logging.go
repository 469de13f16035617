package middleware

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"time"

	"objectsrecognition/internal/logger"
	"objectsrecognition/internal/metrics"
)

// responseWriter captures the status code and size of a response.
type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

// Hijack lets the viewer websocket upgrade through the wrapper.
func (w *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// RequestLogger logs each request with method, path, status, duration and size.
func RequestLogger(logger *logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrap := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrap, r)

			if wrap.status >= 500 {
				logger.Error("%s %s %d %dms %dB", r.Method, r.URL.Path, wrap.status, time.Since(start).Milliseconds(), wrap.size)
				return
			}
			logger.Info("%s %s %d %dms %dB", r.Method, r.URL.Path, wrap.status, time.Since(start).Milliseconds(), wrap.size)
		})
	}
}

// Metrics records request count and error count (status >= 400).
func Metrics(m *metrics.Metrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrap := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrap, r)
			m.IncRequests()
			if wrap.status >= 400 {
				m.IncErrors()
			}
		})
	}
}
