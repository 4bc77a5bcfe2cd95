package logging

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// ResponseWriter wraps http.ResponseWriter to capture status code
type ResponseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (rw *ResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *ResponseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// HTTPLoggingMiddleware logs HTTP requests in a structured format. Paths
// carry base64 credential blobs, so only the trailing route segments are
// logged, never the raw path.
func HTTPLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := NewResponseWriter(w)

		next.ServeHTTP(rw, r)

		duration := time.Since(start)

		event := log.Info()
		if rw.statusCode >= 400 && rw.statusCode < 500 {
			event = log.Warn()
		} else if rw.statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("client_ip", getClientIP(r)).
			Str("method", r.Method).
			Str("route", RedactPath(r.URL.Path)).
			Int("status", rw.statusCode).
			Int64("bytes", rw.written).
			Dur("duration", duration).
			Msgf("%s %s %d %dB %v", r.Method, RedactPath(r.URL.Path), rw.statusCode, rw.written, duration)
	})
}
