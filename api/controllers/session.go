package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/chocandle/cho-candle-backend/api/middleware"
	"github.com/chocandle/cho-candle-backend/api/validators"
	pkgerrors "github.com/chocandle/cho-candle-backend/pkg/errors"
)

func requireSession(r *http.Request) (middleware.Session, error) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		return middleware.Session{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return session, nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	return validators.ParseUUIDParam(chi.URLParam(r, name), name)
}
