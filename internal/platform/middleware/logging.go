package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Bahjat/llm-readiness-checker/internal/identity"
	"github.com/Bahjat/llm-readiness-checker/internal/platform/metrics"
	"github.com/Bahjat/llm-readiness-checker/internal/platform/requestid"
)

// Logging returns middleware that logs one line per request and counts it in
// the HTTP request metric. Server errors are logged at ERROR, everything else
// at INFO. Mount it inside Identity so the user is known.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			metrics.HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(rw.status)).Inc()

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", rw.status,
				"bytes", rw.written,
				"duration", time.Since(start).String(),
				"remote_addr", r.RemoteAddr,
				requestid.Attr(r.Context()),
			}
			if userID, ok := identity.UserID(r.Context()); ok {
				attrs = append(attrs, "user_id", userID)
			}

			level := slog.LevelInfo
			if rw.status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.Log(r.Context(), level, "http request", attrs...)
		})
	}
}

// responseWriter records the status code and body size of a response.
type responseWriter struct {
	http.ResponseWriter
	status      int
	written     int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.written += n
	return n, err
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
