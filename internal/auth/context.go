package auth

import "context"

type contextKeySession struct{}

// WithSession returns a copy of ctx carrying s
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKeySession{}, s)
}

// SessionFromContext retrieves the authenticated session from ctx
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(contextKeySession{}).(Session)
	return s, ok
}
