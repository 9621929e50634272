package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Bahjat/llm-readiness-checker/internal/identity"
	"github.com/Bahjat/llm-readiness-checker/internal/platform/requestid"
)

// SessionCookie is the cookie carrying the session token issued at login.
const SessionCookie = "session"

// SessionLookup resolves a session token to a user ID.
type SessionLookup interface {
	Lookup(ctx context.Context, token string) (userID int64, found bool, err error)
}

// Identity returns middleware that attaches the signed-in user, if any, to the
// request context. Requests without a valid session continue anonymously.
func Identity(sessions SessionLookup, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, found, err := sessions.Lookup(r.Context(), cookie.Value)
			if err != nil {
				logger.Warn("session lookup failed",
					"error", err,
					requestid.Attr(r.Context()),
				)
			}
			if err != nil || !found {
				next.ServeHTTP(w, r)
				return
			}

			ctx := identity.NewContext(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
