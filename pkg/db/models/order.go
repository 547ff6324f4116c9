package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chocandle/cho-candle-backend/pkg/enums"
)

// Order is the persisted header for one successful checkout.
type Order struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	UserID           uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	RequestID        *string             `gorm:"column:request_id"`
	FullName         string              `gorm:"column:full_name;not null"`
	Phone            string              `gorm:"column:phone;not null"`
	AddressLine1     string              `gorm:"column:address_line1;not null"`
	City             string              `gorm:"column:city;not null"`
	Province         string              `gorm:"column:province;not null"`
	PostalCode       string              `gorm:"column:postal_code;not null"`
	TotalAmount      int64               `gorm:"column:total_amount;not null"`
	Status           enums.OrderStatus   `gorm:"column:status;type:text;not null"`
	PaymentMethod    enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	PaymentProvider  *string             `gorm:"column:payment_provider"`
	PaymentSessionID *string             `gorm:"column:payment_session_id"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
	Items            []OrderItem         `gorm:"foreignKey:OrderID"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderItem snapshots one purchased line.
type OrderItem struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID   *uuid.UUID `gorm:"column:product_id;type:uuid"`
	ProductName string     `gorm:"column:product_name;not null"`
	UnitPrice   int64      `gorm:"column:unit_price;not null"`
	Quantity    int        `gorm:"column:quantity;not null"`
	LineTotal   int64      `gorm:"column:line_total;not null"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (OrderItem) TableName() string { return "order_items" }

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// OrderIssue records a customer report that a delivered order never arrived.
type OrderIssue struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	UserID      uuid.UUID `gorm:"column:user_id;type:uuid;not null"`
	Description string    `gorm:"column:description;not null"`
	PhotoURL    *string   `gorm:"column:photo_url"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (OrderIssue) TableName() string { return "order_issues" }

func (i *OrderIssue) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// RefundRequest records a customer refund claim on a delivered order.
type RefundRequest struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null"`
	Reason    string    `gorm:"column:reason;not null"`
	PhotoURL  *string   `gorm:"column:photo_url"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (RefundRequest) TableName() string { return "refund_requests" }

func (r *RefundRequest) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
