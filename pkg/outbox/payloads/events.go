package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/chocandle/cho-candle-backend/pkg/enums"
)

// OrderCreatedEvent is emitted once per committed checkout.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	UserID        uuid.UUID           `json:"user_id"`
	TotalAmount   int64               `json:"total_amount"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	ItemCount     int                 `json:"item_count"`
}

// OrderStatusChangedEvent records one lifecycle transition.
type OrderStatusChangedEvent struct {
	OrderID   uuid.UUID         `json:"order_id"`
	UserID    uuid.UUID         `json:"user_id"`
	From      enums.OrderStatus `json:"from"`
	To        enums.OrderStatus `json:"to"`
	Actor     string            `json:"actor"`
	ChangedAt time.Time         `json:"changed_at"`
}

// NotificationPostedEvent announces an admin-authored notification.
type NotificationPostedEvent struct {
	NotificationID uuid.UUID              `json:"notification_id"`
	Type           enums.NotificationType `json:"type"`
	IsGlobal       bool                   `json:"is_global"`
	UserID         *uuid.UUID             `json:"user_id,omitempty"`
}
