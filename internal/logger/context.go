package logger

import (
	"context"

	"go.uber.org/zap"
)

type scopeKey struct{}

// scope is the per-request logging state kept in a context.
type scope struct {
	log     *zap.Logger
	session string
}

func scopeFrom(ctx context.Context) scope {
	s, _ := ctx.Value(scopeKey{}).(scope)
	return s
}

// ContextWithLogger stores l as the request logger, keeping any session already bound.
func ContextWithLogger(ctx context.Context, l *zap.Logger) context.Context {
	s := scopeFrom(ctx)
	s.log = l
	return context.WithValue(ctx, scopeKey{}, s)
}

// FromContext returns the request logger, or the process-wide zap logger
// when the context carries none.
func FromContext(ctx context.Context) *zap.Logger {
	if s := scopeFrom(ctx); s.log != nil {
		return s.log
	}
	return zap.L()
}

// WithFields returns a context whose logger carries fields in addition to the current ones.
func WithFields(ctx context.Context, fields ...zap.Field) context.Context {
	return ContextWithLogger(ctx, FromContext(ctx).With(fields...))
}

// WithSession binds a suggestion session to ctx. Rebinding the same id is a no-op,
// so the session field appears once per entry.
func WithSession(ctx context.Context, id string) context.Context {
	if id == "" || scopeFrom(ctx).session == id {
		return ctx
	}
	ctx = WithFields(ctx, zap.String("session", id))
	s := scopeFrom(ctx)
	s.session = id
	return context.WithValue(ctx, scopeKey{}, s)
}

// SessionID reports the session bound by WithSession, if any.
func SessionID(ctx context.Context) string {
	return scopeFrom(ctx).session
}
