package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/chocandle/cho-candle-backend/pkg/db/models"
	pkgerrors "github.com/chocandle/cho-candle-backend/pkg/errors"
)

type stubCatalog struct {
	products map[uuid.UUID]models.Product
}

func (s stubCatalog) FindActive(_ context.Context, id uuid.UUID) (*models.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return &p, nil
}

func newTestCartService(t *testing.T, products ...models.Product) (Service, *memoryStorage) {
	t.Helper()
	catalog := stubCatalog{products: map[uuid.UUID]models.Product{}}
	for _, p := range products {
		catalog.products[p.ID] = p
	}
	storage := newMemoryStorage()
	store, err := NewStore(storage)
	require.NoError(t, err)
	svc, err := NewService(store, catalog)
	require.NoError(t, err)
	return svc, storage
}

func TestServiceAddCapturesCatalogPrice(t *testing.T) {
	lavender := models.Product{ID: uuid.New(), Name: "Lavender", Price: 420}
	svc, storage := newTestCartService(t, lavender)
	ctx := context.Background()
	userID := uuid.New()

	view, err := svc.AddItem(ctx, userID, lavender.ID, 2)
	require.NoError(t, err)
	require.Equal(t, int64(840), view.Total)
	require.Equal(t, 2, view.ItemCount)
	require.Equal(t, "Lavender", view.Lines[0].Name)
	require.Contains(t, storage.data, userID.String())

	view, err = svc.UpdateQuantity(ctx, userID, lavender.ID, 1)
	require.NoError(t, err)
	require.Equal(t, int64(420), view.Total)

	lines, err := svc.Lines(ctx, userID)
	require.NoError(t, err)
	require.Len(t, lines, 1)

	view, err = svc.RemoveItem(ctx, userID, lavender.ID)
	require.NoError(t, err)
	require.Empty(t, view.Lines)
}

func TestServiceRejectsInvalidQuantityWithoutWriting(t *testing.T) {
	lavender := models.Product{ID: uuid.New(), Name: "Lavender", Price: 420}
	svc, storage := newTestCartService(t, lavender)
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.AddItem(ctx, userID, lavender.ID, 0)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	require.Empty(t, storage.data)

	_, err = svc.AddItem(ctx, userID, lavender.ID, 3)
	require.NoError(t, err)
	before := string(storage.data[userID.String()])

	_, err = svc.UpdateQuantity(ctx, userID, lavender.ID, 0)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	require.Equal(t, before, string(storage.data[userID.String()]))

	_, err = svc.UpdateQuantity(ctx, userID, uuid.New(), 2)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestServiceUnknownProduct(t *testing.T) {
	svc, _ := newTestCartService(t)
	_, err := svc.AddItem(context.Background(), uuid.New(), uuid.New(), 1)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestServiceClear(t *testing.T) {
	p := models.Product{ID: uuid.New(), Name: "Amber", Price: 100}
	svc, storage := newTestCartService(t, p)
	userID := uuid.New()

	_, err := svc.AddItem(context.Background(), userID, p.ID, 1)
	require.NoError(t, err)
	require.NoError(t, svc.Clear(context.Background(), userID))
	require.Empty(t, storage.data)

	view, err := svc.Get(context.Background(), userID)
	require.NoError(t, err)
	require.Empty(t, view.Lines)
}
