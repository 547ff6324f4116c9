package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chocandle/cho-candle-backend/pkg/db/models"
	"github.com/chocandle/cho-candle-backend/pkg/enums"
	pkgerrors "github.com/chocandle/cho-candle-backend/pkg/errors"
)

const maxFieldLength = 255

// orderLookup reports whether the user has an order in a given status.
type orderLookup interface {
	UserHasStatus(ctx context.Context, userID uuid.UUID, status enums.OrderStatus) (bool, error)
}

// Service manages the signed-in user's profile.
type Service interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID, email string) (*ProfileDTO, error)
	Update(ctx context.Context, userID uuid.UUID, email string, input UpdateInput) (*ProfileDTO, error)
	RoleOf(ctx context.Context, userID uuid.UUID) (enums.UserRole, error)
}

type service struct {
	repo   *Repository
	orders orderLookup
}

// NewService builds the profile service.
func NewService(repo *Repository, orders orderLookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("profiles repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order lookup required")
	}
	return &service{repo: repo, orders: orders}, nil
}

func (s *service) GetOrCreate(ctx context.Context, userID uuid.UUID, email string) (*ProfileDTO, error) {
	profile, err := s.ensure(ctx, userID, email)
	if err != nil {
		return nil, err
	}
	locked, err := s.locked(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FromModel(profile, locked), nil
}

// Update is rejected while any of the user's orders is shipped.
func (s *service) Update(ctx context.Context, userID uuid.UUID, email string, input UpdateInput) (*ProfileDTO, error) {
	fields, err := validateUpdate(input)
	if err != nil {
		return nil, err
	}
	if _, err := s.ensure(ctx, userID, email); err != nil {
		return nil, err
	}
	locked, err := s.locked(ctx, userID)
	if err != nil {
		return nil, err
	}
	if locked {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "profile is locked while an order is being delivered")
	}

	if len(fields) > 0 {
		if err := s.repo.UpdateContact(ctx, userID, fields); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
		}
	}
	profile, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload profile")
	}
	return FromModel(profile, false), nil
}

// RoleOf returns the stored role; users without a profile are customers.
func (s *service) RoleOf(ctx context.Context, userID uuid.UUID) (enums.UserRole, error) {
	profile, err := s.repo.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return enums.UserRoleCustomer, nil
	}
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile role")
	}
	return profile.Role, nil
}

func (s *service) ensure(ctx context.Context, userID uuid.UUID, email string) (*models.Profile, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	profile, err := s.repo.FindByID(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}

	created := &models.Profile{
		ID:      userID,
		Country: models.DefaultCountry,
		Role:    enums.UserRoleCustomer,
	}
	if trimmed := strings.TrimSpace(email); trimmed != "" {
		created.Email = &trimmed
	}
	if err := s.repo.CreateIfAbsent(ctx, created); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create profile")
	}
	profile, err = s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	return profile, nil
}

func (s *service) locked(ctx context.Context, userID uuid.UUID) (bool, error) {
	locked, err := s.orders.UserHasStatus(ctx, userID, enums.OrderStatusShipped)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check delivery lock")
	}
	return locked, nil
}

func validateUpdate(input UpdateInput) (map[string]any, error) {
	columns := []struct {
		column string
		field  string
		value  *string
	}{
		{"username", "username", input.Username},
		{"phone", "phone", input.Phone},
		{"address_line1", "addressLine1", input.AddressLine1},
		{"city", "city", input.City},
		{"province", "province", input.Province},
		{"postal_code", "postalCode", input.PostalCode},
	}
	fields := map[string]any{}
	details := map[string]string{}
	for _, c := range columns {
		if c.value == nil {
			continue
		}
		trimmed := strings.TrimSpace(*c.value)
		if len(trimmed) > maxFieldLength {
			details[c.field] = "too long"
			continue
		}
		if trimmed == "" {
			fields[c.column] = nil
		} else {
			fields[c.column] = trimmed
		}
	}
	if input.Country != nil {
		country := strings.TrimSpace(*input.Country)
		switch {
		case country == "":
			details["country"] = "required"
		case len(country) > maxFieldLength:
			details["country"] = "too long"
		default:
			fields["country"] = country
		}
	}
	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid profile").WithDetails(details)
	}
	return fields, nil
}
