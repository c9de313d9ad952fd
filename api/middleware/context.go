package middleware

import (
	"context"

	"github.com/angelmondragon/gasdrop-backend/internal/sessions"
)

type contextKey string

const (
	ctxSession  contextKey = "session"
	ctxAccessID contextKey = "access_id"
)

// SessionFromContext returns the session seeded by Auth, or nil.
func SessionFromContext(ctx context.Context) *sessions.Session {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxSession).(*sessions.Session); ok {
		return v
	}
	return nil
}

// AccessIDFromContext returns the jti of the access token used on this request.
func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccessID).(string); ok {
		return v
	}
	return ""
}

func UserIDFromContext(ctx context.Context) string {
	if s := SessionFromContext(ctx); s != nil {
		return s.UID
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if s := SessionFromContext(ctx); s != nil {
		return string(s.Role)
	}
	return ""
}

// WithSession injects the session and its access id into the context.
func WithSession(ctx context.Context, s *sessions.Session, accessID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxSession, s)
	return context.WithValue(ctx, ctxAccessID, accessID)
}
