package helpers

import (
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/chocandle/cho-candle-backend/pkg/errors"
)

// MaxLineQuantity caps one product's quantity after duplicates are folded.
const MaxLineQuantity = 99

// Line is one requested product and quantity. Client prices never travel here.
type Line struct {
	ProductID uuid.UUID
	Quantity  int
}

// MergeLines folds duplicate product ids into one line, keeping first-seen
// order, and rejects empty input, non-positive quantities and merged
// quantities above MaxLineQuantity.
func MergeLines(lines []Line) ([]Line, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	index := make(map[uuid.UUID]int, len(lines))
	out := make([]Line, 0, len(lines))
	for _, line := range lines {
		if line.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
		}
		if line.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
				WithDetails(map[string]string{"productId": line.ProductID.String()})
		}
		if i, ok := index[line.ProductID]; ok {
			out[i].Quantity += line.Quantity
		} else {
			index[line.ProductID] = len(out)
			out = append(out, line)
		}
	}
	for _, line := range out {
		if line.Quantity > MaxLineQuantity {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be at most %d", MaxLineQuantity)).
				WithDetails(map[string]string{"productId": line.ProductID.String()})
		}
	}
	return out, nil
}

// ProductIDs lists the distinct ids in line order.
func ProductIDs(lines []Line) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	return ids
}
