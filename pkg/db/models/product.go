package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a catalog entry. Orders snapshot name and price, so edits never rewrite history.
type Product struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Slug         string    `gorm:"column:slug;not null;uniqueIndex"`
	Name         string    `gorm:"column:name;not null"`
	Description  *string   `gorm:"column:description"`
	Mood         *string   `gorm:"column:mood"`
	Size         *string   `gorm:"column:size"`
	Price        int64     `gorm:"column:price;not null"`
	Stock        *int      `gorm:"column:stock"`
	IsBestSeller bool      `gorm:"column:is_best_seller;not null"`
	ImageURL     *string   `gorm:"column:image_url"`
	IsActive     bool      `gorm:"column:is_active;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// InStock reports whether at least one unit can be sold. A nil stock is unlimited.
func (p Product) InStock() bool {
	return p.Stock == nil || *p.Stock > 0
}
