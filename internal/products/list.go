package product

import (
	"sort"
	"strings"

	"github.com/chocandle/cho-candle-backend/pkg/db/models"
)

// Filter is the in-memory catalog predicate used by the storefront and admin lists.
type Filter struct {
	Query          string
	Mood           string
	Size           string
	InStockOnly    bool
	BestSellerOnly bool
	// StockLast moves out-of-stock products behind in-stock ones.
	StockLast bool
}

// Apply filters rows and orders them newest first, honoring StockLast.
// The input slice is not modified.
func (f Filter) Apply(rows []models.Product) []models.Product {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	mood := strings.TrimSpace(f.Mood)
	size := strings.TrimSpace(f.Size)

	out := make([]models.Product, 0, len(rows))
	for _, p := range rows {
		if mood != "" && !strings.EqualFold(deref(p.Mood), mood) {
			continue
		}
		if size != "" && !strings.EqualFold(deref(p.Size), size) {
			continue
		}
		if f.InStockOnly && !p.InStock() {
			continue
		}
		if f.BestSellerOnly && !p.IsBestSeller {
			continue
		}
		if query != "" && !matchesQuery(p, query) {
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if f.StockLast {
			ii, jj := out[i].InStock(), out[j].InStock()
			if ii != jj {
				return ii
			}
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func matchesQuery(p models.Product, query string) bool {
	for _, field := range []string{p.Name, deref(p.Description), deref(p.Mood), deref(p.Size)} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
