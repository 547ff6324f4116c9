package product

import (
	"time"

	"github.com/google/uuid"

	"github.com/chocandle/cho-candle-backend/pkg/db/models"
)

// ProductDTO represents the product payload returned to clients.
type ProductDTO struct {
	ID           uuid.UUID `json:"id"`
	Slug         string    `json:"slug"`
	Name         string    `json:"name"`
	Description  *string   `json:"description,omitempty"`
	Mood         *string   `json:"mood,omitempty"`
	Size         *string   `json:"size,omitempty"`
	Price        int64     `json:"price"`
	Stock        *int      `json:"stock"`
	InStock      bool      `json:"inStock"`
	IsBestSeller bool      `json:"isBestSeller"`
	ImageURL     *string   `json:"imageUrl,omitempty"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewProductDTO builds a DTO from the persisted model.
func NewProductDTO(p models.Product) ProductDTO {
	return ProductDTO{
		ID:           p.ID,
		Slug:         p.Slug,
		Name:         p.Name,
		Description:  p.Description,
		Mood:         p.Mood,
		Size:         p.Size,
		Price:        p.Price,
		Stock:        p.Stock,
		InStock:      p.InStock(),
		IsBestSeller: p.IsBestSeller,
		ImageURL:     p.ImageURL,
		IsActive:     p.IsActive,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func newProductDTOs(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, NewProductDTO(row))
	}
	return out
}
