package notifications

import (
	"time"

	"github.com/google/uuid"

	"github.com/chocandle/cho-candle-backend/pkg/db/models"
	"github.com/chocandle/cho-candle-backend/pkg/enums"
)

// NotificationDTO is what clients render.
type NotificationDTO struct {
	ID        uuid.UUID              `json:"id"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	Type      enums.NotificationType `json:"type"`
	IsGlobal  bool                   `json:"isGlobal"`
	UserID    *uuid.UUID             `json:"userId,omitempty"`
	Link      *string                `json:"link,omitempty"`
	IsRead    bool                   `json:"isRead"`
	ReadAt    *time.Time             `json:"readAt,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

func fromModel(n models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:        n.ID,
		Title:     n.Title,
		Body:      n.Body,
		Type:      n.Type,
		IsGlobal:  n.IsGlobal,
		UserID:    n.UserID,
		Link:      n.Link,
		CreatedAt: n.CreatedAt,
	}
}

func fromVisible(row visibleNotification) NotificationDTO {
	dto := fromModel(row.Notification)
	dto.ReadAt = row.ReadAt
	dto.IsRead = row.ReadAt != nil
	return dto
}
