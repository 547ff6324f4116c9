package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/chocandle/cho-candle-backend/api/responses"
	"github.com/chocandle/cho-candle-backend/pkg/enums"
	pkgerrors "github.com/chocandle/cho-candle-backend/pkg/errors"
	"github.com/chocandle/cho-candle-backend/pkg/logger"
)

// RoleResolver reads the stored role for a user.
type RoleResolver interface {
	RoleOf(ctx context.Context, userID uuid.UUID) (enums.UserRole, error)
}

// RequireAdmin lets the request through only when the caller's profile role is admin.
func RequireAdmin(roles RoleResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := SessionFromContext(r.Context())
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
				return
			}
			role, err := roles.RoleOf(r.Context(), session.UserID)
			if err != nil {
				if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
					err = pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
				}
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if role != enums.UserRoleAdmin {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required"))
				return
			}
			session.Role = role
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}
