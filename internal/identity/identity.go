// Package identity carries the signed-in user, if any, through a request.
package identity

import "context"

type ctxKey struct{}

// NewContext returns a context that carries the given user ID.
func NewContext(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserID returns the user ID stored in ctx and whether one was present.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxKey{}).(int64)
	return id, ok
}
