package profiles

import (
	"time"

	"github.com/google/uuid"

	"github.com/chocandle/cho-candle-backend/pkg/db/models"
	"github.com/chocandle/cho-candle-backend/pkg/enums"
)

// ProfileDTO is the transport shape of a profile.
type ProfileDTO struct {
	ID           uuid.UUID      `json:"id"`
	Email        *string        `json:"email,omitempty"`
	Username     *string        `json:"username,omitempty"`
	Phone        *string        `json:"phone,omitempty"`
	AddressLine1 *string        `json:"addressLine1,omitempty"`
	City         *string        `json:"city,omitempty"`
	Province     *string        `json:"province,omitempty"`
	PostalCode   *string        `json:"postalCode,omitempty"`
	Country      string         `json:"country"`
	Role         enums.UserRole `json:"role"`
	Locked       bool           `json:"locked"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// UpdateInput carries the editable fields. Nil leaves a field unchanged and an
// empty string clears it.
type UpdateInput struct {
	Username     *string
	Phone        *string
	AddressLine1 *string
	City         *string
	Province     *string
	PostalCode   *string
	Country      *string
}

// FromModel maps a profile row.
func FromModel(p *models.Profile, locked bool) *ProfileDTO {
	if p == nil {
		return nil
	}
	return &ProfileDTO{
		ID:           p.ID,
		Email:        p.Email,
		Username:     p.Username,
		Phone:        p.Phone,
		AddressLine1: p.AddressLine1,
		City:         p.City,
		Province:     p.Province,
		PostalCode:   p.PostalCode,
		Country:      p.Country,
		Role:         p.Role,
		Locked:       locked,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
