package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/chocandle/cho-candle-backend/internal/cart"
	"github.com/chocandle/cho-candle-backend/internal/checkout/helpers"
	"github.com/chocandle/cho-candle-backend/internal/orders"
	product "github.com/chocandle/cho-candle-backend/internal/products"
	"github.com/chocandle/cho-candle-backend/pkg/db"
	"github.com/chocandle/cho-candle-backend/pkg/db/dbtest"
	"github.com/chocandle/cho-candle-backend/pkg/db/models"
	"github.com/chocandle/cho-candle-backend/pkg/enums"
	pkgerrors "github.com/chocandle/cho-candle-backend/pkg/errors"
	"github.com/chocandle/cho-candle-backend/pkg/logger"
	"github.com/chocandle/cho-candle-backend/pkg/outbox"
)

type stubCart struct {
	lines    []cart.Line
	cleared  int
	clearErr error
}

func (s *stubCart) Lines(context.Context, uuid.UUID) ([]cart.Line, error) {
	return s.lines, nil
}

func (s *stubCart) Clear(context.Context, uuid.UUID) error {
	s.cleared++
	return s.clearErr
}

type fixture struct {
	conn   *gorm.DB
	svc    Service
	writer *Writer
	cart   *stubCart
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.Open(t)
	products := product.NewRepository(conn)
	pricer, err := NewPricer(products)
	require.NoError(t, err)
	repo := orders.NewRepository(conn)
	writer, err := NewWriter(pricer, repo, products, outbox.NewService(outbox.NewRepository(conn), logger.Nop()))
	require.NoError(t, err)
	carts := &stubCart{}
	svc, err := NewService(db.Wrap(conn), writer, repo, carts, logger.Nop())
	require.NoError(t, err)
	return &fixture{conn: conn, svc: svc, writer: writer, cart: carts}
}

func (f *fixture) product(t *testing.T, name string, price int64, stock *int) models.Product {
	t.Helper()
	p := models.Product{Slug: name, Name: name, Price: price, Stock: stock, IsActive: true}
	require.NoError(t, f.conn.Create(&p).Error)
	return p
}

func (f *fixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.conn.Model(model).Count(&n).Error)
	return n
}

func validDelivery() helpers.Delivery {
	return helpers.Delivery{
		FullName:     "Nok Srisuk",
		Phone:        "0899999999",
		AddressLine1: "12 Nimman Rd",
		City:         "Chiang Mai",
		Province:     "Chiang Mai",
		PostalCode:   "50200",
	}
}

func intPtr(v int) *int { return &v }

func TestPlaceOrderSnapshotsCatalogPrices(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "lavender", 420, intPtr(10))
	b := f.product(t, "cedar", 420, nil)

	res, err := f.svc.PlaceOrder(context.Background(), uuid.New(), PlaceOrderInput{
		Items:         []helpers.Line{{ProductID: a.ID, Quantity: 1}, {ProductID: b.ID, Quantity: 1}},
		Delivery:      validDelivery(),
		PaymentMethod: enums.PaymentMethodCashOnDelivery,
	})
	require.NoError(t, err)
	assert.False(t, res.Replayed)
	assert.Equal(t, int64(840), res.Order.TotalAmount)
	assert.Equal(t, enums.OrderStatusPending, res.Order.Status)
	require.Len(t, res.Order.Items, 2)

	var sum int64
	for _, item := range res.Order.Items {
		sum += item.LineTotal
	}
	assert.Equal(t, int64(840), sum)

	assert.Equal(t, int64(1), f.count(t, &models.Order{}))
	assert.Equal(t, int64(2), f.count(t, &models.OrderItem{}))
	assert.Equal(t, int64(1), f.count(t, &models.OutboxEvent{}))
	assert.Equal(t, 1, f.cart.cleared)

	var reloaded models.Product
	require.NoError(t, f.conn.First(&reloaded, "id = ?", a.ID).Error)
	assert.Equal(t, 9, *reloaded.Stock)
}

func TestPlaceOrderFallsBackToStoredCart(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "amber", 350, nil)
	// Stale display price in the cart must not reach the order.
	f.cart.lines = []cart.Line{{ProductID: p.ID, Name: p.Name, Price: 1, Quantity: 3}}

	res, err := f.svc.PlaceOrder(context.Background(), uuid.New(), PlaceOrderInput{
		Delivery:      validDelivery(),
		PaymentMethod: enums.PaymentMethodBankTransfer,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1050), res.Order.TotalAmount)
	assert.Equal(t, enums.PaymentMethodBankTransfer, res.Order.PaymentMethod)
}

func TestPlaceOrderEmptyCartRejected(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.PlaceOrder(context.Background(), uuid.New(), PlaceOrderInput{
		Delivery:      validDelivery(),
		PaymentMethod: enums.PaymentMethodCashOnDelivery,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Zero(t, f.cart.cleared)
}

func TestPlaceOrderUnknownProductsListed(t *testing.T) {
	f := newFixture(t)
	known := f.product(t, "known", 100, nil)
	retired := models.Product{Slug: "retired", Name: "retired", Price: 100}
	require.NoError(t, f.conn.Create(&retired).Error)
	missing := uuid.New()

	_, err := f.svc.PlaceOrder(context.Background(), uuid.New(), PlaceOrderInput{
		Items: []helpers.Line{
			{ProductID: known.ID, Quantity: 1},
			{ProductID: retired.ID, Quantity: 1},
			{ProductID: missing, Quantity: 1},
		},
		Delivery:      validDelivery(),
		PaymentMethod: enums.PaymentMethodCashOnDelivery,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{retired.ID.String(), missing.String()}, details["unknownProductIds"])
	assert.Zero(t, f.count(t, &models.Order{}))
}

func TestPlaceOrderInsufficientStockWritesNothing(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "scarce", 200, intPtr(1))

	_, err := f.svc.PlaceOrder(context.Background(), uuid.New(), PlaceOrderInput{
		Items:         []helpers.Line{{ProductID: p.ID, Quantity: 2}},
		Delivery:      validDelivery(),
		PaymentMethod: enums.PaymentMethodCashOnDelivery,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Zero(t, f.count(t, &models.Order{}))
	assert.Zero(t, f.count(t, &models.OutboxEvent{}))
}

func TestPlaceOrderReplaysRequestID(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "replay", 100, intPtr(5))
	userID := uuid.New()
	requestID := "checkout-7f3a"
	input := PlaceOrderInput{
		RequestID:     &requestID,
		Items:         []helpers.Line{{ProductID: p.ID, Quantity: 2}},
		Delivery:      validDelivery(),
		PaymentMethod: enums.PaymentMethodCashOnDelivery,
	}

	first, err := f.svc.PlaceOrder(context.Background(), userID, input)
	require.NoError(t, err)
	second, err := f.svc.PlaceOrder(context.Background(), userID, input)
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.Equal(t, first.Order.ID, second.Order.ID)
	assert.Equal(t, int64(1), f.count(t, &models.Order{}))

	var reloaded models.Product
	require.NoError(t, f.conn.First(&reloaded, "id = ?", p.ID).Error)
	assert.Equal(t, 3, *reloaded.Stock)
}

func TestPlaceOrderValidatesForm(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "form", 100, nil)
	items := []helpers.Line{{ProductID: p.ID, Quantity: 1}}

	delivery := validDelivery()
	delivery.City = ""
	_, err := f.svc.PlaceOrder(context.Background(), uuid.New(), PlaceOrderInput{Items: items, Delivery: delivery, PaymentMethod: enums.PaymentMethodCashOnDelivery})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.PlaceOrder(context.Background(), uuid.New(), PlaceOrderInput{Items: items, Delivery: validDelivery(), PaymentMethod: enums.PaymentMethodCard})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestPlaceOrderSurvivesCartClearFailure(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "clear", 100, nil)
	f.cart.clearErr = errors.New("redis down")

	res, err := f.svc.PlaceOrder(context.Background(), uuid.New(), PlaceOrderInput{
		Items:         []helpers.Line{{ProductID: p.ID, Quantity: 1}},
		Delivery:      validDelivery(),
		PaymentMethod: enums.PaymentMethodCashOnDelivery,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, res.Order.ID)
}
