package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Bahjat/llm-readiness-checker/internal/platform/requestid"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLength bounds caller-supplied IDs before they reach the logs.
const maxRequestIDLength = 64

// RequestID tags each request with an ID, reusing a caller-supplied
// X-Request-ID when it is short enough and generating a UUID otherwise. The
// ID is echoed back on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		next.ServeHTTP(w, r.WithContext(requestid.NewContext(r.Context(), id)))
	})
}
