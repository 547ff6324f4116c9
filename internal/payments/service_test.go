package payments

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/chocandle/cho-candle-backend/internal/checkout"
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

type fakeGateway struct {
	created   []SessionRequest
	sessions  map[string]*Session
	createErr error
	retrieved int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{sessions: map[string]*Session{}}
}

func (g *fakeGateway) CreateSession(_ context.Context, req SessionRequest) (*Session, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.created = append(g.created, req)
	id := "cs_test_" + uuid.NewString()
	sess := &Session{ID: id, URL: "https://checkout.stripe.test/" + id, PaymentStatus: "unpaid", Metadata: req.Metadata}
	g.sessions[id] = sess
	return sess, nil
}

func (g *fakeGateway) RetrieveSession(_ context.Context, id string) (*Session, error) {
	g.retrieved++
	sess, ok := g.sessions[id]
	if !ok {
		return nil, errors.New("no such checkout session")
	}
	return sess, nil
}

type fixture struct {
	conn    *gorm.DB
	gateway *fakeGateway
	svc     Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.Open(t)
	products := product.NewRepository(conn)
	pricer, err := checkout.NewPricer(products)
	require.NoError(t, err)
	repo := orders.NewRepository(conn)
	writer, err := checkout.NewWriter(pricer, repo, products, outbox.NewService(outbox.NewRepository(conn), logger.Nop()))
	require.NoError(t, err)
	gateway := newFakeGateway()
	svc, err := NewService(db.Wrap(conn), gateway, pricer, writer, repo, Config{FrontendURL: "https://cho.example/", Currency: "thb"}, logger.Nop())
	require.NoError(t, err)
	return &fixture{conn: conn, gateway: gateway, svc: svc}
}

func (f *fixture) product(t *testing.T, name string, price int64) models.Product {
	t.Helper()
	p := models.Product{Slug: name, Name: name, Price: price, IsActive: true}
	require.NoError(t, f.conn.Create(&p).Error)
	return p
}

func (f *fixture) orderCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.conn.Model(&models.Order{}).Count(&n).Error)
	return n
}

func TestCreateCheckoutSessionUsesCatalogPricesInSatang(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Lavender Calm", 420)
	userID := uuid.New()

	url, err := f.svc.CreateCheckoutSession(context.Background(), userID, SessionInput{
		Items: []helpers.Line{{ProductID: p.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://checkout.stripe.test/"))

	require.Len(t, f.gateway.created, 1)
	req := f.gateway.created[0]
	assert.Equal(t, "thb", req.Currency)
	require.Len(t, req.Lines, 1)
	assert.Equal(t, int64(42000), req.Lines[0].UnitAmount)
	assert.Equal(t, int64(2), req.Lines[0].Quantity)
	assert.Equal(t, "https://cho.example/checkout-success?session_id={CHECKOUT_SESSION_ID}", req.SuccessURL)
	assert.Equal(t, "https://cho.example/cart", req.CancelURL)
	assert.Equal(t, userID.String(), req.Metadata["user_id"])
	assert.Equal(t, p.ID.String()+":2", req.Metadata["items_0"])
}

func TestCreateCheckoutSessionUnknownProduct(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateCheckoutSession(context.Background(), uuid.New(), SessionInput{
		Items: []helpers.Line{{ProductID: uuid.New(), Quantity: 1}},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Empty(t, f.gateway.created)
}

func TestCreateCheckoutSessionGatewayFailure(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "cedar", 300)
	f.gateway.createErr = errors.New("stripe unavailable")

	_, err := f.svc.CreateCheckoutSession(context.Background(), uuid.New(), SessionInput{
		Items: []helpers.Line{{ProductID: p.ID, Quantity: 1}},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestConfirmOrderUnpaidCreatesNothing(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "amber", 500)
	userID := uuid.New()
	_, err := f.svc.CreateCheckoutSession(context.Background(), userID, SessionInput{Items: []helpers.Line{{ProductID: p.ID, Quantity: 1}}})
	require.NoError(t, err)
	var sessionID string
	for id := range f.gateway.sessions {
		sessionID = id
	}

	_, err = f.svc.ConfirmOrder(context.Background(), userID, ConfirmInput{SessionID: sessionID})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodePaymentRequired, typed.Code())
	assert.Zero(t, f.orderCount(t))
}

func TestConfirmOrderPaidMaterializesOnce(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "vanilla", 390)
	userID := uuid.New()
	f.gateway.sessions["cs_paid"] = &Session{
		ID:            "cs_paid",
		PaymentStatus: "paid",
		AmountTotal:   78000,
		Metadata: map[string]string{
			"user_id": userID.String(),
			"items_0": p.ID.String() + ":2",
		},
	}
	input := ConfirmInput{
		SessionID: "cs_paid",
		Items:     []helpers.Line{{ProductID: p.ID, Quantity: 2}},
		Delivery:  helpers.Delivery{FullName: "Guest", City: "Bangkok", PostalCode: "10200"},
	}

	first, err := f.svc.ConfirmOrder(context.Background(), userID, input)
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	second, err := f.svc.ConfirmOrder(context.Background(), userID, input)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.OrderID, second.OrderID)
	assert.Equal(t, 1, f.gateway.retrieved)
	assert.Equal(t, int64(1), f.orderCount(t))

	var order models.Order
	require.NoError(t, f.conn.Preload("Items").First(&order, "id = ?", first.OrderID).Error)
	assert.Equal(t, int64(780), order.TotalAmount)
	assert.Equal(t, enums.PaymentMethodCard, order.PaymentMethod)
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	require.NotNil(t, order.PaymentProvider)
	assert.Equal(t, "stripe", *order.PaymentProvider)
	require.Len(t, order.Items, 1)
}

func TestConfirmOrderReadsLegacyItemsKey(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "rose", 250)
	userID := uuid.New()
	f.gateway.sessions["cs_meta"] = &Session{
		ID:            "cs_meta",
		PaymentStatus: "paid",
		Metadata: map[string]string{
			"user_id": userID.String(),
			"items":   p.ID.String() + ":3",
		},
	}

	res, err := f.svc.ConfirmOrder(context.Background(), userID, ConfirmInput{SessionID: "cs_meta"})
	require.NoError(t, err)

	var order models.Order
	require.NoError(t, f.conn.First(&order, "id = ?", res.OrderID).Error)
	assert.Equal(t, int64(750), order.TotalAmount)
}

func TestConfirmOrderRejectsOtherUsersSession(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "mint", 100)
	owner := uuid.New()
	f.gateway.sessions["cs_owned"] = &Session{
		ID:            "cs_owned",
		PaymentStatus: "paid",
		Metadata: map[string]string{
			"user_id": owner.String(),
			"items_0": p.ID.String() + ":1",
		},
	}
	input := ConfirmInput{SessionID: "cs_owned", Items: []helpers.Line{{ProductID: p.ID, Quantity: 1}}}

	_, err := f.svc.ConfirmOrder(context.Background(), uuid.New(), input)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.ConfirmOrder(context.Background(), owner, input)
	require.NoError(t, err)

	_, err = f.svc.ConfirmOrder(context.Background(), uuid.New(), input)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

// paySession marks the only session created by the fixture as paid.
func (f *fixture) paySession(t *testing.T) string {
	t.Helper()
	require.Len(t, f.gateway.sessions, 1)
	for id, sess := range f.gateway.sessions {
		sess.PaymentStatus = "paid"
		return id
	}
	return ""
}

func TestConfirmOrderIgnoresInflatedClientItems(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "amber", 500)
	userID := uuid.New()
	_, err := f.svc.CreateCheckoutSession(context.Background(), userID, SessionInput{
		Items: []helpers.Line{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	sessionID := f.paySession(t)

	_, err = f.svc.ConfirmOrder(context.Background(), userID, ConfirmInput{
		SessionID: sessionID,
		Items:     []helpers.Line{{ProductID: p.ID, Quantity: 50}},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
	assert.Zero(t, f.orderCount(t))

	_, err = f.svc.ConfirmOrder(context.Background(), userID, ConfirmInput{
		SessionID: sessionID,
		Items:     []helpers.Line{{ProductID: f.product(t, "rose", 250).ID, Quantity: 1}},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
	assert.Zero(t, f.orderCount(t))

	res, err := f.svc.ConfirmOrder(context.Background(), userID, ConfirmInput{SessionID: sessionID})
	require.NoError(t, err)

	var order models.Order
	require.NoError(t, f.conn.Preload("Items").First(&order, "id = ?", res.OrderID).Error)
	assert.Equal(t, int64(500), order.TotalAmount)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 1, order.Items[0].Quantity)
}

func TestConfirmOrderLargeCartUsesSessionRecord(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	var items []helpers.Line
	for i := 0; i < 15; i++ {
		p := f.product(t, "scent-"+strconv.Itoa(i), 100)
		items = append(items, helpers.Line{ProductID: p.ID, Quantity: 2})
	}

	_, err := f.svc.CreateCheckoutSession(context.Background(), userID, SessionInput{Items: items})
	require.NoError(t, err)
	require.Len(t, f.gateway.created, 1)
	metadata := f.gateway.created[0].Metadata
	assert.Contains(t, metadata, "items_1", "15 lines need more than one metadata value")
	for key, value := range metadata {
		assert.LessOrEqual(t, len(value), 500, key)
	}
	sessionID := f.paySession(t)

	res, err := f.svc.ConfirmOrder(context.Background(), userID, ConfirmInput{SessionID: sessionID, Items: items})
	require.NoError(t, err)

	var order models.Order
	require.NoError(t, f.conn.Preload("Items").First(&order, "id = ?", res.OrderID).Error)
	assert.Equal(t, int64(3000), order.TotalAmount)
	assert.Len(t, order.Items, 15)
}

func TestConfirmOrderSessionWithoutItems(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.gateway.sessions["cs_bare"] = &Session{
		ID:            "cs_bare",
		PaymentStatus: "paid",
		Metadata:      map[string]string{"user_id": userID.String()},
	}

	_, err := f.svc.ConfirmOrder(context.Background(), userID, ConfirmInput{SessionID: "cs_bare"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Zero(t, f.orderCount(t))
}

func TestConfirmOrderRequiresSessionID(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ConfirmOrder(context.Background(), uuid.New(), ConfirmInput{SessionID: "  "})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestEncodeDecodeLines(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	encoded, err := encodeLines([]helpers.Line{{ProductID: a, Quantity: 1}, {ProductID: b, Quantity: 4}})
	require.NoError(t, err)
	require.Len(t, encoded, 1)
	decoded, err := decodeSessionLines(encoded)
	require.NoError(t, err)
	assert.Equal(t, []helpers.Line{{ProductID: a, Quantity: 1}, {ProductID: b, Quantity: 4}}, decoded)

	_, err = decodeLines("not-a-line")
	assert.Error(t, err)

	many := make([]helpers.Line, 40)
	for i := range many {
		many[i] = helpers.Line{ProductID: uuid.New(), Quantity: 99}
	}
	chunked, err := encodeLines(many)
	require.NoError(t, err)
	assert.Greater(t, len(chunked), 1)
	roundTrip, err := decodeSessionLines(chunked)
	require.NoError(t, err)
	assert.Equal(t, many, roundTrip)

	tooMany := make([]helpers.Line, 15*maxMetadataKeys)
	for i := range tooMany {
		tooMany[i] = helpers.Line{ProductID: uuid.New(), Quantity: 1}
	}
	_, err = encodeLines(tooMany)
	assert.Error(t, err)
}
