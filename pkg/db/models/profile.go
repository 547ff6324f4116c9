package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/chocandle/cho-candle-backend/pkg/enums"
)

const DefaultCountry = "Thailand"

// Profile is one-to-one with an identity from the hosted auth platform; ID is the user id.
type Profile struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Email        *string        `gorm:"column:email"`
	Username     *string        `gorm:"column:username"`
	Phone        *string        `gorm:"column:phone"`
	AddressLine1 *string        `gorm:"column:address_line1"`
	City         *string        `gorm:"column:city"`
	Province     *string        `gorm:"column:province"`
	PostalCode   *string        `gorm:"column:postal_code"`
	Country      string         `gorm:"column:country;not null"`
	Role         enums.UserRole `gorm:"column:role;type:text;not null"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (Profile) TableName() string { return "profiles" }
