package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/chocandle/cho-candle-backend/pkg/db/models"
	"github.com/chocandle/cho-candle-backend/pkg/enums"
)

type orderOpt func(*models.Order)

func withStatus(s enums.OrderStatus) orderOpt { return func(o *models.Order) { o.Status = s } }

func withMethod(m enums.PaymentMethod) orderOpt {
	return func(o *models.Order) { o.PaymentMethod = m }
}

func placedAt(ts time.Time) orderOpt { return func(o *models.Order) { o.CreatedAt = ts } }

func withCity(city string) orderOpt { return func(o *models.Order) { o.City = city } }

func withItem(productID *uuid.UUID, name string, price int64, qty int) orderOpt {
	return func(o *models.Order) {
		o.Items = append(o.Items, models.OrderItem{
			ProductID:   productID,
			ProductName: name,
			UnitPrice:   price,
			Quantity:    qty,
			LineTotal:   price * int64(qty),
		})
		o.TotalAmount += price * int64(qty)
	}
}

func mustInsertOrder(t *testing.T, conn *gorm.DB, userID uuid.UUID, opts ...orderOpt) *models.Order {
	t.Helper()
	order := &models.Order{
		UserID:        userID,
		FullName:      "Somchai Jaidee",
		Phone:         "0812345678",
		AddressLine1:  "99 Sukhumvit Rd",
		City:          "Bangkok",
		Province:      "Bangkok",
		PostalCode:    "10110",
		Status:        enums.OrderStatusPending,
		PaymentMethod: enums.PaymentMethodCashOnDelivery,
	}
	for _, opt := range opts {
		opt(order)
	}
	require.NoError(t, NewRepository(conn).Create(context.Background(), order))
	return order
}

func mustInsertProduct(t *testing.T, conn *gorm.DB, slugValue string, price int64, stock *int) *models.Product {
	t.Helper()
	p := &models.Product{Slug: slugValue, Name: slugValue, Price: price, Stock: stock, IsActive: true}
	require.NoError(t, conn.Create(p).Error)
	return p
}

func intPtr(v int) *int { return &v }
