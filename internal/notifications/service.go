package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chocandle/cho-candle-backend/pkg/db"
	"github.com/chocandle/cho-candle-backend/pkg/db/models"
	"github.com/chocandle/cho-candle-backend/pkg/enums"
	pkgerrors "github.com/chocandle/cho-candle-backend/pkg/errors"
	"github.com/chocandle/cho-candle-backend/pkg/outbox"
	"github.com/chocandle/cho-candle-backend/pkg/outbox/payloads"
	"github.com/chocandle/cho-candle-backend/pkg/pagination"
)

const (
	// AdminListLimit caps the admin notification list.
	AdminListLimit = 50
	maxTitleLength = 200
	maxBodyLength  = 4000
)

// Service defines notification list/read operations and admin management.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	AdminList(ctx context.Context, filter AdminFilter) ([]NotificationDTO, error)
	AdminCreate(ctx context.Context, adminID uuid.UUID, input CreateInput) (*NotificationDTO, error)
	AdminDelete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo   Repository
	tx     db.TxRunner
	outbox outbox.Emitter
	now    func() time.Time
}

// ListParams configures pagination for notifications.
type ListParams struct {
	UserID uuid.UUID
	Limit  int
	Cursor string
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []NotificationDTO `json:"items"`
	Cursor string            `json:"cursor"`
}

// AdminFilter narrows the admin list; Query matches title or body.
type AdminFilter struct {
	Type  *enums.NotificationType
	Query string
}

// CreateInput is an admin-authored notification. A nil UserID broadcasts.
type CreateInput struct {
	Title  string
	Body   string
	Type   enums.NotificationType
	UserID *uuid.UUID
	Link   *string
}

// NewService wires notifications dependencies.
func NewService(repo Repository, tx db.TxRunner, emitter outbox.Emitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{repo: repo, tx: tx, outbox: emitter, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	query := listNotificationsParams{
		UserID: params.UserID,
		Limit:  params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	items := make([]NotificationDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, fromVisible(row))
	}
	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: items, Cursor: cursor}, nil
}

func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}
	return count, nil
}

func (s *service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	found, err := s.repo.MarkRead(ctx, userID, notificationID, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	count, err := s.repo.MarkAllRead(ctx, userID, s.now())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}

func (s *service) AdminList(ctx context.Context, filter AdminFilter) ([]NotificationDTO, error) {
	rows, err := s.repo.ListLatest(ctx, AdminListLimit, filter.Type)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	q := strings.ToLower(strings.TrimSpace(filter.Query))
	out := make([]NotificationDTO, 0, len(rows))
	for _, row := range rows {
		if q != "" && !strings.Contains(strings.ToLower(row.Title), q) && !strings.Contains(strings.ToLower(row.Body), q) {
			continue
		}
		out = append(out, fromModel(row))
	}
	return out, nil
}

func (s *service) AdminCreate(ctx context.Context, adminID uuid.UUID, input CreateInput) (*NotificationDTO, error) {
	notification, err := validateCreate(input)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, notification); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventNotificationPosted,
			AggregateType: enums.AggregateNotification,
			AggregateID:   notification.ID,
			Data: payloads.NotificationPostedEvent{
				NotificationID: notification.ID,
				Type:           notification.Type,
				IsGlobal:       notification.IsGlobal,
				UserID:         notification.UserID,
			},
		}
		if adminID != uuid.Nil {
			event.Actor = &outbox.ActorRef{UserID: adminID, Role: string(enums.UserRoleAdmin)}
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit notification posted")
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}
	dto := fromModel(*notification)
	return &dto, nil
}

func (s *service) AdminDelete(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Delete(ctx, id)
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete notification")
	}
	return nil
}

func validateCreate(input CreateInput) (*models.Notification, error) {
	title := strings.TrimSpace(input.Title)
	body := strings.TrimSpace(input.Body)
	details := map[string]string{}
	if title == "" || len(title) > maxTitleLength {
		details["title"] = fmt.Sprintf("required, at most %d characters", maxTitleLength)
	}
	if body == "" || len(body) > maxBodyLength {
		details["body"] = fmt.Sprintf("required, at most %d characters", maxBodyLength)
	}
	notificationType := input.Type
	if notificationType == "" {
		notificationType = enums.NotificationTypeInfo
	}
	if !notificationType.IsValid() {
		details["type"] = "must be promo, info, system or order"
	}
	if input.UserID != nil && *input.UserID == uuid.Nil {
		details["userId"] = "invalid"
	}
	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid notification").WithDetails(details)
	}

	notification := &models.Notification{
		Title:    title,
		Body:     body,
		Type:     notificationType,
		IsGlobal: input.UserID == nil,
		UserID:   input.UserID,
	}
	if input.Link != nil {
		if link := strings.TrimSpace(*input.Link); link != "" {
			notification.Link = &link
		}
	}
	return notification, nil
}
