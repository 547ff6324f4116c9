package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"github.com/chocandle/cho-candle-backend/pkg/db"
	"github.com/chocandle/cho-candle-backend/pkg/db/models"
	pkgerrors "github.com/chocandle/cho-candle-backend/pkg/errors"
)

const (
	slugConstraint       = "products_slug_key"
	sqliteSlugConstraint = "products.slug"
	maxNameLength        = 200
)

// Service exposes catalog reads and admin product management.
type Service interface {
	ListActive(ctx context.Context) ([]ProductDTO, error)
	Catalog(ctx context.Context, filter Filter) ([]ProductDTO, error)
	GetBySlug(ctx context.Context, slug string) (*ProductDTO, error)
	FindActive(ctx context.Context, id uuid.UUID) (*models.Product, error)
	AdminList(ctx context.Context, filter Filter) ([]ProductDTO, error)
	Create(ctx context.Context, input ProductInput) (*ProductDTO, error)
	Update(ctx context.Context, id uuid.UUID, input ProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProductInput is the full admin payload for create and replace.
type ProductInput struct {
	Name         string
	Slug         *string
	Description  *string
	Mood         *string
	Size         *string
	Price        int64
	Stock        *int
	IsBestSeller bool
	ImageURL     *string
	IsActive     *bool
}

type service struct {
	repo *Repository
}

// NewService constructs a product service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListActive(ctx context.Context) ([]ProductDTO, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return newProductDTOs(rows), nil
}

func (s *service) Catalog(ctx context.Context, filter Filter) ([]ProductDTO, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	filter.StockLast = true
	return newProductDTOs(filter.Apply(rows)), nil
}

func (s *service) GetBySlug(ctx context.Context, value string) (*ProductDTO, error) {
	row, err := s.repo.FindActiveBySlug(ctx, strings.TrimSpace(value))
	if err != nil {
		return nil, mapLookupError(err)
	}
	dto := NewProductDTO(*row)
	return &dto, nil
}

func (s *service) FindActive(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err)
	}
	if !row.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return row, nil
}

func (s *service) AdminList(ctx context.Context, filter Filter) ([]ProductDTO, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	filter.StockLast = false
	return newProductDTOs(filter.Apply(rows)), nil
}

func (s *service) Create(ctx context.Context, input ProductInput) (*ProductDTO, error) {
	product := &models.Product{IsActive: true}
	if err := applyInput(product, input); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, mapWriteError(err, "create product")
	}
	dto := NewProductDTO(*product)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input ProductInput) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err)
	}
	if err := applyInput(product, input); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, mapWriteError(err, "update product")
	}
	dto := NewProductDTO(*product)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapLookupError(err)
	}
	return nil
}

func applyInput(product *models.Product, input ProductInput) error {
	name := strings.TrimSpace(input.Name)
	details := map[string]string{}
	if name == "" {
		details["name"] = "required"
	} else if len(name) > maxNameLength {
		details["name"] = fmt.Sprintf("must be at most %d characters", maxNameLength)
	}
	if input.Price < 0 {
		details["price"] = "must be >= 0"
	}
	if input.Stock != nil && *input.Stock < 0 {
		details["stock"] = "must be >= 0 or null"
	}

	source := name
	if input.Slug != nil && strings.TrimSpace(*input.Slug) != "" {
		source = *input.Slug
	}
	productSlug := slug.Make(source)
	if productSlug == "" && name != "" {
		details["slug"] = "cannot be derived from name"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid product").WithDetails(details)
	}

	product.Name = name
	product.Slug = productSlug
	product.Description = trimmedOrNil(input.Description)
	product.Mood = trimmedOrNil(input.Mood)
	product.Size = trimmedOrNil(input.Size)
	product.Price = input.Price
	product.Stock = input.Stock
	product.IsBestSeller = input.IsBestSeller
	product.ImageURL = trimmedOrNil(input.ImageURL)
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	return nil
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func mapLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
}

func mapWriteError(err error, action string) error {
	if db.IsUniqueViolation(err, slugConstraint) || db.IsUniqueViolation(err, sqliteSlugConstraint) {
		return pkgerrors.New(pkgerrors.CodeConflict, "product slug already exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
