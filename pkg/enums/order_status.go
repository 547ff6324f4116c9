package enums

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// OrderStatus is the single lifecycle vocabulary shared by customers and admins.
type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "pending"
	OrderStatusPreparing       OrderStatus = "preparing"
	OrderStatusShipped         OrderStatus = "shipped"
	OrderStatusDelivered       OrderStatus = "delivered"
	OrderStatusWellReceived    OrderStatus = "well_received"
	OrderStatusLost            OrderStatus = "lost"
	OrderStatusRefundRequested OrderStatus = "refund_requested"
	OrderStatusCancelled       OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPreparing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusWellReceived,
	OrderStatusLost,
	OrderStatusRefundRequested,
	OrderStatusCancelled,
}

// legacyOrderStatuses maps strings written by older clients onto the canonical set.
var legacyOrderStatuses = map[string]OrderStatus{
	"delivering": OrderStatusShipped,
	"completed":  OrderStatusDelivered,
	"paid":       OrderStatusPending,
	"canceled":   OrderStatusCancelled,
	"received":   OrderStatusWellReceived,
}

// OrderStatuses returns the canonical statuses in lifecycle order.
func OrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(validOrderStatuses))
	copy(out, validOrderStatuses)
	return out
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a canonical OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusWellReceived, OrderStatusLost, OrderStatusRefundRequested, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// ParseOrderStatus converts raw input, including legacy vocabulary, into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validOrderStatuses {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	if mapped, ok := legacyOrderStatuses[normalized]; ok {
		return mapped, nil
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

// Scan normalizes stored values through the legacy mapping.
func (s *OrderStatus) Scan(value any) error {
	var raw string
	switch v := value.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case nil:
		return fmt.Errorf("order status is null")
	default:
		return fmt.Errorf("unsupported order status type %T", value)
	}
	parsed, err := ParseOrderStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value implements driver.Valuer.
func (s OrderStatus) Value() (driver.Value, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("invalid order status %q", string(s))
	}
	return string(s), nil
}

// LegacyOrderStatuses returns the older stored strings that normalize to s.
func LegacyOrderStatuses(s OrderStatus) []string {
	var out []string
	for raw, mapped := range legacyOrderStatuses {
		if mapped == s {
			out = append(out, raw)
		}
	}
	return out
}
