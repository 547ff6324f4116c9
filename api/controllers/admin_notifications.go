package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/chocandle/cho-candle-backend/api/responses"
	"github.com/chocandle/cho-candle-backend/api/validators"
	"github.com/chocandle/cho-candle-backend/internal/notifications"
	"github.com/chocandle/cho-candle-backend/pkg/enums"
	pkgerrors "github.com/chocandle/cho-candle-backend/pkg/errors"
	"github.com/chocandle/cho-candle-backend/pkg/logger"
)

type createNotificationRequest struct {
	Title  string     `json:"title" validate:"required"`
	Body   string     `json:"body" validate:"required"`
	Type   string     `json:"type,omitempty"`
	UserID *uuid.UUID `json:"userId,omitempty"`
	Link   *string    `json:"link,omitempty" validate:"omitempty,max=2048"`
}

func AdminNotificationList(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			notificationsUnavailable(w, r, logg)
			return
		}
		filter := notifications.AdminFilter{Query: validators.SanitizeString(r.URL.Query().Get("q"), 100)}
		if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" && raw != "all" {
			kind, err := enums.ParseNotificationType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid type").
					WithDetails(map[string]any{"field": "type"}))
				return
			}
			filter.Type = &kind
		}
		list, err := svc.AdminList(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AdminNotificationCreate posts a notification; without userId it reaches everyone.
func AdminNotificationCreate(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			notificationsUnavailable(w, r, logg)
			return
		}
		session, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req createNotificationRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		created, err := svc.AdminCreate(r.Context(), session.UserID, notifications.CreateInput{
			Title:  req.Title,
			Body:   req.Body,
			Type:   enums.NotificationType(strings.TrimSpace(req.Type)),
			UserID: req.UserID,
			Link:   req.Link,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func AdminNotificationDelete(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			notificationsUnavailable(w, r, logg)
			return
		}
		id, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.AdminDelete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
