package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chocandle/cho-candle-backend/internal/checkout/helpers"
	"github.com/chocandle/cho-candle-backend/pkg/db/models"
	pkgerrors "github.com/chocandle/cho-candle-backend/pkg/errors"
	"github.com/chocandle/cho-candle-backend/pkg/money"
)

// Catalog loads active products for pricing.
type Catalog interface {
	FindActiveByIDsTx(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

// PricedLine is a request line snapshotted against the current catalog.
type PricedLine struct {
	ProductID uuid.UUID
	Name      string
	UnitPrice int64
	Quantity  int
	LineTotal int64
}

// Quote is the authoritative price of a set of lines.
type Quote struct {
	Lines []PricedLine
	Total int64
}

// Pricer recomputes prices from the catalog. Client-side prices are ignored.
type Pricer struct {
	catalog Catalog
}

// NewPricer binds a pricer to the catalog.
func NewPricer(catalog Catalog) (*Pricer, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	return &Pricer{catalog: catalog}, nil
}

// Price merges duplicate lines, loads every product in one read on tx and
// fails with the full list of unknown or inactive ids.
func (p *Pricer) Price(ctx context.Context, tx *gorm.DB, lines []helpers.Line) (*Quote, error) {
	merged, err := helpers.MergeLines(lines)
	if err != nil {
		return nil, err
	}
	products, err := p.catalog.FindActiveByIDsTx(ctx, tx, helpers.ProductIDs(merged))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}

	var unknown []string
	for _, line := range merged {
		if _, ok := products[line.ProductID]; !ok {
			unknown = append(unknown, line.ProductID.String())
		}
	}
	if len(unknown) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown or inactive products").
			WithDetails(map[string]any{"unknownProductIds": unknown})
	}

	quote := &Quote{Lines: make([]PricedLine, 0, len(merged))}
	for _, line := range merged {
		product := products[line.ProductID]
		if product.Stock != nil && *product.Stock < line.Quantity {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock").
				WithDetails(map[string]any{
					"productId": line.ProductID.String(),
					"requested": line.Quantity,
					"available": *product.Stock,
				})
		}
		total, err := money.LineTotal(product.Price, line.Quantity)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "line total out of range")
		}
		quote.Total, err = money.AddTotals(quote.Total, total)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "order total out of range")
		}
		quote.Lines = append(quote.Lines, PricedLine{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  line.Quantity,
			LineTotal: total,
		})
	}
	return quote, nil
}
