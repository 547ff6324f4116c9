package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/chocandle/cho-candle-backend/pkg/db/models"
	"github.com/chocandle/cho-candle-backend/pkg/enums"
)

// OrderItemDTO is one purchased line as returned to clients.
type OrderItemDTO struct {
	ID          uuid.UUID  `json:"id"`
	ProductID   *uuid.UUID `json:"productId,omitempty"`
	ProductName string     `json:"productName"`
	UnitPrice   int64      `json:"unitPrice"`
	Quantity    int        `json:"quantity"`
	LineTotal   int64      `json:"lineTotal"`
}

// OrderDTO is the order header plus its items.
type OrderDTO struct {
	ID              uuid.UUID           `json:"id"`
	UserID          uuid.UUID           `json:"userId"`
	RequestID       *string             `json:"requestId,omitempty"`
	FullName        string              `json:"fullName"`
	Phone           string              `json:"phone"`
	AddressLine1    string              `json:"addressLine1"`
	City            string              `json:"city"`
	Province        string              `json:"province"`
	PostalCode      string              `json:"postalCode"`
	TotalAmount     int64               `json:"totalAmount"`
	Status          enums.OrderStatus   `json:"status"`
	Group           Group               `json:"group"`
	PaymentMethod   enums.PaymentMethod `json:"paymentMethod"`
	PaymentProvider *string             `json:"paymentProvider,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
	Items           []OrderItemDTO      `json:"items"`
}

// IssueDTO is a non-receipt report.
type IssueDTO struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	PhotoURL    *string   `json:"photoUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// RefundDTO is a refund claim.
type RefundDTO struct {
	ID        uuid.UUID `json:"id"`
	Reason    string    `json:"reason"`
	PhotoURL  *string   `json:"photoUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// OrderDetailDTO extends OrderDTO with auxiliary records.
type OrderDetailDTO struct {
	OrderDTO
	Issues  []IssueDTO  `json:"issues"`
	Refunds []RefundDTO `json:"refunds"`
}

// Summary counts the caller's orders per group.
type Summary struct {
	Active   int64 `json:"active"`
	Finished int64 `json:"finished"`
	Total    int64 `json:"total"`
}

// NewOrderDTO maps a persisted order with preloaded items.
func NewOrderDTO(order models.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			LineTotal:   item.LineTotal,
		})
	}
	return OrderDTO{
		ID:              order.ID,
		UserID:          order.UserID,
		RequestID:       order.RequestID,
		FullName:        order.FullName,
		Phone:           order.Phone,
		AddressLine1:    order.AddressLine1,
		City:            order.City,
		Province:        order.Province,
		PostalCode:      order.PostalCode,
		TotalAmount:     order.TotalAmount,
		Status:          order.Status,
		Group:           GroupOf(order.Status),
		PaymentMethod:   order.PaymentMethod,
		PaymentProvider: order.PaymentProvider,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
		Items:           items,
	}
}

func newOrderDTOs(rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, NewOrderDTO(row))
	}
	return out
}

func newDetailDTO(order models.Order, issues []models.OrderIssue, refunds []models.RefundRequest) *OrderDetailDTO {
	detail := &OrderDetailDTO{
		OrderDTO: NewOrderDTO(order),
		Issues:   make([]IssueDTO, 0, len(issues)),
		Refunds:  make([]RefundDTO, 0, len(refunds)),
	}
	for _, issue := range issues {
		detail.Issues = append(detail.Issues, IssueDTO{
			ID:          issue.ID,
			Description: issue.Description,
			PhotoURL:    issue.PhotoURL,
			CreatedAt:   issue.CreatedAt,
		})
	}
	for _, refund := range refunds {
		detail.Refunds = append(detail.Refunds, RefundDTO{
			ID:        refund.ID,
			Reason:    refund.Reason,
			PhotoURL:  refund.PhotoURL,
			CreatedAt: refund.CreatedAt,
		})
	}
	return detail
}
