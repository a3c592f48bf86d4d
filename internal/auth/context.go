package auth

import "context"

// userIDKey is the context key for the authenticated principal's ID.
type userIDKey struct{}

// WithUserID returns a context carrying the authenticated user (or operator) ID.
func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, userIDKey{}, id)
}

// UserID extracts the authenticated ID from the context. The second return
// value is false when the context carries no identity.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey{}).(int64)
	return id, ok
}
