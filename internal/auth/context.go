// ABOUTME: Request context helpers for the authenticated session
// ABOUTME: Provides WithSession/SessionFromContext for handlers behind the session gate

package auth

import (
	"context"

	"github.com/2389/salesboard/internal/store"
)

// sessionContextKey is the key type for storing the active session in context.Context.
type sessionContextKey struct{}

// WithSession returns a new context with the validated session attached.
func WithSession(ctx context.Context, session *store.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, session)
}

// SessionFromContext retrieves the session from the context, returning nil if not present.
func SessionFromContext(ctx context.Context) *store.Session {
	session, _ := ctx.Value(sessionContextKey{}).(*store.Session)
	return session
}
