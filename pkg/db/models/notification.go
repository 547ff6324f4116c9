package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chocandle/cho-candle-backend/pkg/enums"
)

// Notification is either broadcast (IsGlobal) or targeted at a single user.
type Notification struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	Title     string                 `gorm:"column:title;not null"`
	Body      string                 `gorm:"column:body;not null"`
	Type      enums.NotificationType `gorm:"column:type;type:text;not null"`
	IsGlobal  bool                   `gorm:"column:is_global;not null"`
	UserID    *uuid.UUID             `gorm:"column:user_id;type:uuid;index"`
	Link      *string                `gorm:"column:link"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}

func (Notification) TableName() string { return "notifications" }

func (n *Notification) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// NotificationRead is the per-recipient read receipt.
type NotificationRead struct {
	NotificationID uuid.UUID `gorm:"column:notification_id;type:uuid;primaryKey"`
	UserID         uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	ReadAt         time.Time `gorm:"column:read_at;not null"`
}

func (NotificationRead) TableName() string { return "notification_reads" }
