package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chocandle/cho-candle-backend/internal/cart"
	"github.com/chocandle/cho-candle-backend/internal/checkout/helpers"
	"github.com/chocandle/cho-candle-backend/internal/checkout/reservation"
	"github.com/chocandle/cho-candle-backend/internal/orders"
	"github.com/chocandle/cho-candle-backend/pkg/db"
	"github.com/chocandle/cho-candle-backend/pkg/db/models"
	"github.com/chocandle/cho-candle-backend/pkg/enums"
	pkgerrors "github.com/chocandle/cho-candle-backend/pkg/errors"
	"github.com/chocandle/cho-candle-backend/pkg/logger"
	"github.com/chocandle/cho-candle-backend/pkg/outbox"
	"github.com/chocandle/cho-candle-backend/pkg/outbox/payloads"
)

const (
	requestConstraint       = "orders_user_request_key"
	sqliteRequestConstraint = "orders.request_id"
	maxRequestIDLength      = 128
)

type cartReader interface {
	Lines(ctx context.Context, userID uuid.UUID) ([]cart.Line, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

// Service places orders from the checkout form.
type Service interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*Result, error)
}

// PlaceOrderInput is the checkout form. When Items is empty the stored cart is used.
type PlaceOrderInput struct {
	RequestID     *string
	Items         []helpers.Line
	Delivery      helpers.Delivery
	PaymentMethod enums.PaymentMethod
}

// Result carries the order and whether it was replayed for a known request id.
type Result struct {
	Order    orders.OrderDTO
	Replayed bool
}

// Draft is everything needed to persist one order.
type Draft struct {
	UserID           uuid.UUID
	RequestID        *string
	Lines            []helpers.Line
	Delivery         helpers.Delivery
	PaymentMethod    enums.PaymentMethod
	PaymentProvider  *string
	PaymentSessionID *string
}

// Writer turns a draft into an order with its items, stock decrements and an
// order.created event, all on the caller's transaction.
type Writer struct {
	pricer *Pricer
	orders orders.Repository
	stock  reservation.StockDecrementer
	outbox outbox.Emitter
}

// NewWriter wires the order persistence step shared by both checkout paths.
func NewWriter(pricer *Pricer, repo orders.Repository, stock reservation.StockDecrementer, emitter outbox.Emitter) (*Writer, error) {
	if pricer == nil {
		return nil, fmt.Errorf("pricer required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock decrementer required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &Writer{pricer: pricer, orders: repo, stock: stock, outbox: emitter}, nil
}

// Commit prices, reserves and inserts the order on tx.
func (w *Writer) Commit(ctx context.Context, tx *gorm.DB, draft Draft) (*models.Order, error) {
	quote, err := w.pricer.Price(ctx, tx, draft.Lines)
	if err != nil {
		return nil, err
	}

	requests := make([]reservation.Request, 0, len(quote.Lines))
	items := make([]models.OrderItem, 0, len(quote.Lines))
	for _, line := range quote.Lines {
		productID := line.ProductID
		requests = append(requests, reservation.Request{ProductID: productID, Qty: line.Quantity})
		items = append(items, models.OrderItem{
			ProductID:   &productID,
			ProductName: line.Name,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
			LineTotal:   line.LineTotal,
		})
	}
	if err := reservation.Reserve(ctx, tx, w.stock, requests); err != nil {
		return nil, err
	}

	delivery := draft.Delivery.Normalize()
	order := &models.Order{
		UserID:           draft.UserID,
		RequestID:        draft.RequestID,
		FullName:         delivery.FullName,
		Phone:            delivery.Phone,
		AddressLine1:     delivery.AddressLine1,
		City:             delivery.City,
		Province:         delivery.Province,
		PostalCode:       delivery.PostalCode,
		TotalAmount:      quote.Total,
		Status:           enums.OrderStatusPending,
		PaymentMethod:    draft.PaymentMethod,
		PaymentProvider:  draft.PaymentProvider,
		PaymentSessionID: draft.PaymentSessionID,
		Items:            items,
	}
	if err := w.orders.WithTx(tx).Create(ctx, order); err != nil {
		return nil, err
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{UserID: draft.UserID, Role: string(enums.UserRoleCustomer)},
		Data: payloads.OrderCreatedEvent{
			OrderID:       order.ID,
			UserID:        order.UserID,
			TotalAmount:   order.TotalAmount,
			PaymentMethod: order.PaymentMethod,
			ItemCount:     len(items),
		},
	}
	if err := w.outbox.Emit(ctx, tx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order created")
	}
	return order, nil
}

type service struct {
	tx     db.TxRunner
	writer *Writer
	orders orders.Repository
	carts  cartReader
	logg   *logger.Logger
}

// NewService builds the checkout service.
func NewService(tx db.TxRunner, writer *Writer, repo orders.Repository, carts cartReader, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if writer == nil {
		return nil, fmt.Errorf("order writer required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	return &service{tx: tx, writer: writer, orders: repo, carts: carts, logg: logg}, nil
}

func (s *service) PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*Result, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	if err := helpers.ValidateDelivery(input.Delivery); err != nil {
		return nil, err
	}
	if err := helpers.ValidateFormPaymentMethod(input.PaymentMethod); err != nil {
		return nil, err
	}
	requestID, err := normalizeRequestID(input.RequestID)
	if err != nil {
		return nil, err
	}

	if requestID != nil {
		existing, err := s.orders.FindByUserRequest(ctx, userID, *requestID)
		if err == nil {
			return &Result{Order: orders.NewOrderDTO(*existing), Replayed: true}, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup order request")
		}
	}

	lines := input.Items
	fromCart := len(lines) == 0
	if fromCart {
		cartLines, err := s.carts.Lines(ctx, userID)
		if err != nil {
			return nil, err
		}
		lines = make([]helpers.Line, 0, len(cartLines))
		for _, line := range cartLines {
			lines = append(lines, helpers.Line{ProductID: line.ProductID, Quantity: line.Quantity})
		}
	}

	var created *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.writer.Commit(ctx, tx, Draft{
			UserID:        userID,
			RequestID:     requestID,
			Lines:         lines,
			Delivery:      input.Delivery,
			PaymentMethod: input.PaymentMethod,
		})
		if err != nil {
			return err
		}
		created = order
		return nil
	})
	if err != nil {
		if requestID != nil && isRequestConflict(err) {
			existing, lookupErr := s.orders.FindByUserRequest(ctx, userID, *requestID)
			if lookupErr == nil {
				return &Result{Order: orders.NewOrderDTO(*existing), Replayed: true}, nil
			}
		}
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "place order")
	}

	// Order is committed; a failed clear only leaves a stale cart behind.
	if err := s.carts.Clear(ctx, userID); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "order_id", created.ID.String()), "cart clear after checkout failed")
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id":  created.ID.String(),
			"total":     created.TotalAmount,
			"from_cart": fromCart,
		})
		s.logg.Info(logCtx, "order placed")
	}
	return &Result{Order: orders.NewOrderDTO(*created)}, nil
}

func normalizeRequestID(value *string) (*string, error) {
	if value == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil, nil
	}
	if len(trimmed) > maxRequestIDLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id too long").
			WithDetails(map[string]string{"requestId": fmt.Sprintf("at most %d characters", maxRequestIDLength)})
	}
	return &trimmed, nil
}

func isRequestConflict(err error) bool {
	return db.IsUniqueViolation(err, requestConstraint) || db.IsUniqueViolation(err, sqliteRequestConstraint)
}
