package product

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/chocandle/cho-candle-backend/pkg/db/models"
)

type productOpt func(*models.Product)

func withStock(n int) productOpt { return func(p *models.Product) { p.Stock = &n } }

func withMood(m string) productOpt { return func(p *models.Product) { p.Mood = &m } }

func withSize(s string) productOpt { return func(p *models.Product) { p.Size = &s } }

func inactive() productOpt { return func(p *models.Product) { p.IsActive = false } }

func bestSeller() productOpt { return func(p *models.Product) { p.IsBestSeller = true } }

func createdAt(ts time.Time) productOpt { return func(p *models.Product) { p.CreatedAt = ts } }

func mustInsertProduct(t *testing.T, conn *gorm.DB, slugValue string, price int64, opts ...productOpt) *models.Product {
	t.Helper()
	p := &models.Product{
		Slug:     slugValue,
		Name:     slugValue,
		Price:    price,
		IsActive: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	require.NoError(t, conn.Create(p).Error)
	return p
}

func strPtr(v string) *string { return &v }
