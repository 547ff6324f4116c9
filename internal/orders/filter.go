package orders

import (
	"strings"

	"github.com/chocandle/cho-candle-backend/pkg/db/models"
	"github.com/chocandle/cho-candle-backend/pkg/enums"
)

// AdminFilter narrows the admin order list.
type AdminFilter struct {
	Status *enums.OrderStatus
	Query  string
}

// matchQuery is a case-insensitive substring match over the fields the admin
// search box covers.
func matchQuery(order models.Order, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	fields := []string{
		order.ID.String(),
		order.FullName,
		order.City,
		order.Province,
		order.AddressLine1,
		string(order.PaymentMethod),
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func filterByQuery(rows []models.Order, query string) []models.Order {
	if strings.TrimSpace(query) == "" {
		return rows
	}
	out := make([]models.Order, 0, len(rows))
	for _, row := range rows {
		if matchQuery(row, query) {
			out = append(out, row)
		}
	}
	return out
}

func filterByGroup(rows []models.Order, group Group) []models.Order {
	if group == "" {
		return rows
	}
	out := make([]models.Order, 0, len(rows))
	for _, row := range rows {
		if GroupOf(row.Status) == group {
			out = append(out, row)
		}
	}
	return out
}
