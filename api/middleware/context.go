package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/chocandle/cho-candle-backend/pkg/enums"
)

type contextKey string

const ctxSession contextKey = "session"

// Session is the authenticated caller for one request.
type Session struct {
	UserID uuid.UUID
	Email  string
	Role   enums.UserRole
}

// IsAdmin reports whether the caller passed the admin role check.
func (s Session) IsAdmin() bool {
	return s.Role == enums.UserRoleAdmin
}

// WithSession stores the session in the context.
func WithSession(ctx context.Context, session Session) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSession, session)
}

// SessionFromContext returns the request session, if any.
func SessionFromContext(ctx context.Context) (Session, bool) {
	if ctx == nil {
		return Session{}, false
	}
	session, ok := ctx.Value(ctxSession).(Session)
	if !ok || session.UserID == uuid.Nil {
		return Session{}, false
	}
	return session, true
}

// UserIDFromContext returns the caller id as a string, or "" when anonymous.
func UserIDFromContext(ctx context.Context) string {
	if session, ok := SessionFromContext(ctx); ok {
		return session.UserID.String()
	}
	return ""
}
