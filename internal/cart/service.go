package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/chocandle/cho-candle-backend/pkg/db/models"
	pkgerrors "github.com/chocandle/cho-candle-backend/pkg/errors"
)

type productLookup interface {
	FindActive(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes the per-user server cart.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*View, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) (*View, error)
	UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, qty int) (*View, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*View, error)
	Clear(ctx context.Context, userID uuid.UUID) error
	Lines(ctx context.Context, userID uuid.UUID) ([]Line, error)
}

// View is the cart payload returned to clients.
type View struct {
	Version   int    `json:"version"`
	Lines     []Line `json:"lines"`
	Total     int64  `json:"total"`
	ItemCount int    `json:"itemCount"`
}

func newView(c *Cart) *View {
	lines := c.Lines()
	count := 0
	for _, line := range lines {
		count += line.Quantity
	}
	return &View{
		Version:   SchemaVersion,
		Lines:     lines,
		Total:     c.Total(),
		ItemCount: count,
	}
}

type service struct {
	store    *Store
	products productLookup
}

// NewService builds a cart service backed by the provided store and catalog.
func NewService(store *Store, products productLookup) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	return &service{store: store, products: products}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*View, error) {
	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return newView(c), nil
}

func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) (*View, error) {
	if qty < 1 {
		return nil, mapCartError(ErrInvalidQuantity)
	}
	product, err := s.products.FindActive(ctx, productID)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, func(c *Cart) error {
		return c.AddItem(product.ID, product.Name, product.Price, qty)
	})
}

func (s *service) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, qty int) (*View, error) {
	return s.mutate(ctx, userID, func(c *Cart) error {
		return c.UpdateQuantity(productID, qty)
	})
}

func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*View, error) {
	return s.mutate(ctx, userID, func(c *Cart) error {
		c.RemoveItem(productID)
		return nil
	})
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.store.Clear(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) Lines(ctx context.Context, userID uuid.UUID) ([]Line, error) {
	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return c.Lines(), nil
}

func (s *service) mutate(ctx context.Context, userID uuid.UUID, fn func(*Cart) error) (*View, error) {
	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, mapCartError(err)
	}
	if err := s.store.Save(ctx, userID, c); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return newView(c), nil
}

func (s *service) load(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	c, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return c, nil
}

func mapCartError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidQuantity):
		return pkgerrors.New(pkgerrors.CodeValidation, err.Error()).
			WithDetails(map[string]string{"quantity": "must be at least 1"})
	case errors.Is(err, ErrQuantityTooLarge):
		return pkgerrors.New(pkgerrors.CodeValidation, err.Error()).
			WithDetails(map[string]string{"quantity": fmt.Sprintf("must be at most %d", MaxQuantity)})
	case errors.Is(err, ErrLineNotFound):
		return pkgerrors.New(pkgerrors.CodeNotFound, err.Error())
	default:
		return err
	}
}
