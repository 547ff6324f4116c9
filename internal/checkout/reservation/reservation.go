// Package reservation decrements catalog stock for a priced order inside the
// caller's transaction.
package reservation

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	product "github.com/chocandle/cho-candle-backend/internal/products"
	pkgerrors "github.com/chocandle/cho-candle-backend/pkg/errors"
)

// Request is one product quantity to take out of stock.
type Request struct {
	ProductID uuid.UUID
	Qty       int
}

// StockDecrementer is satisfied by the product repository.
type StockDecrementer interface {
	DecrementStockTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, qty int) error
}

// Reserve decrements stock for every request. The first shortfall aborts with
// STATE_CONFLICT; the caller's rollback undoes earlier decrements.
func Reserve(ctx context.Context, tx *gorm.DB, stock StockDecrementer, requests []Request) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	for _, req := range requests {
		err := stock.DecrementStockTx(ctx, tx, req.ProductID, req.Qty)
		if err == nil {
			continue
		}
		if errors.Is(err, product.ErrInsufficientStock) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock").
				WithDetails(map[string]any{"productId": req.ProductID.String(), "requested": req.Qty})
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
	}
	return nil
}
