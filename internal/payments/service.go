package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chocandle/cho-candle-backend/internal/checkout"
	"github.com/chocandle/cho-candle-backend/internal/checkout/helpers"
	"github.com/chocandle/cho-candle-backend/internal/orders"
	"github.com/chocandle/cho-candle-backend/pkg/db"
	"github.com/chocandle/cho-candle-backend/pkg/db/models"
	"github.com/chocandle/cho-candle-backend/pkg/enums"
	pkgerrors "github.com/chocandle/cho-candle-backend/pkg/errors"
	"github.com/chocandle/cho-candle-backend/pkg/logger"
	"github.com/chocandle/cho-candle-backend/pkg/money"
)

const (
	sessionConstraint       = "orders_payment_session_id_key"
	sqliteSessionConstraint = "orders.payment_session_id"
)

// Service runs the hosted-payment checkout path.
type Service interface {
	CreateCheckoutSession(ctx context.Context, userID uuid.UUID, input SessionInput) (string, error)
	ConfirmOrder(ctx context.Context, userID uuid.UUID, input ConfirmInput) (*ConfirmResult, error)
}

// SessionInput is the create-checkout-session body.
type SessionInput struct {
	Items []helpers.Line
}

// ConfirmInput is the confirm-order body. Delivery comes from the client's
// user block and is snapshotted as sent. Items are only checked against the
// lines recorded on the session; the session decides what is ordered.
type ConfirmInput struct {
	SessionID string
	Items     []helpers.Line
	Delivery  helpers.Delivery
}

// ConfirmResult names the materialized order.
type ConfirmResult struct {
	OrderID  uuid.UUID
	Replayed bool
}

// Config holds the redirect targets.
type Config struct {
	FrontendURL string
	Currency    string
}

type service struct {
	tx      db.TxRunner
	gateway Gateway
	pricer  *checkout.Pricer
	writer  *checkout.Writer
	orders  orders.Repository
	cfg     Config
	logg    *logger.Logger
}

// NewService wires the payment confirmation workflow.
func NewService(tx db.TxRunner, gateway Gateway, pricer *checkout.Pricer, writer *checkout.Writer, repo orders.Repository, cfg Config, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if pricer == nil || writer == nil {
		return nil, fmt.Errorf("checkout pricer and writer required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	cfg.FrontendURL = strings.TrimRight(strings.TrimSpace(cfg.FrontendURL), "/")
	if cfg.FrontendURL == "" {
		return nil, fmt.Errorf("frontend url required")
	}
	return &service{tx: tx, gateway: gateway, pricer: pricer, writer: writer, orders: repo, cfg: cfg, logg: logg}, nil
}

func (s *service) CreateCheckoutSession(ctx context.Context, userID uuid.UUID, input SessionInput) (string, error) {
	if userID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}

	var quote *checkout.Quote
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		quote, err = s.pricer.Price(ctx, tx, input.Items)
		return err
	})
	if err != nil {
		return "", asServiceError(err, "price checkout session")
	}

	lines := make([]LineItem, 0, len(quote.Lines))
	priced := make([]helpers.Line, 0, len(quote.Lines))
	for _, line := range quote.Lines {
		lines = append(lines, LineItem{
			Name:       line.Name,
			UnitAmount: money.ToSatang(line.UnitPrice),
			Quantity:   int64(line.Quantity),
		})
		priced = append(priced, helpers.Line{ProductID: line.ProductID, Quantity: line.Quantity})
	}

	metadata, err := encodeLines(priced)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "too many items for one checkout").
			WithDetails(map[string]any{"items": len(priced)})
	}
	metadata[metadataUserID] = userID.String()

	sess, err := s.gateway.CreateSession(ctx, SessionRequest{
		Currency:   s.cfg.Currency,
		Lines:      lines,
		SuccessURL: s.cfg.FrontendURL + "/checkout-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.cfg.FrontendURL + "/cart",
		Metadata:   metadata,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session")
	}
	if sess == nil || sess.URL == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "checkout session has no url")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"session_id": sess.ID,
			"total":      quote.Total,
		})
		s.logg.Info(logCtx, "checkout session created")
	}
	return sess.URL, nil
}

func (s *service) ConfirmOrder(ctx context.Context, userID uuid.UUID, input ConfirmInput) (*ConfirmResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	sessionID := strings.TrimSpace(input.SessionID)
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required").
			WithDetails(map[string]string{"sessionId": "required"})
	}

	if existing, err := s.findBySession(ctx, userID, sessionID); err != nil || existing != nil {
		return existing, err
	}

	sess, err := s.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retrieve checkout session")
	}
	if sess == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found")
	}
	if owner := sess.Metadata[metadataUserID]; owner != "" && owner != userID.String() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "checkout session belongs to another user")
	}
	if sess.PaymentStatus != PaymentStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodePaymentRequired, "payment not completed").
			WithDetails(map[string]string{"paymentStatus": sess.PaymentStatus})
	}

	lines, err := sessionLines(sess, input.Items)
	if err != nil {
		return nil, err
	}

	provider := ProviderStripe
	var created *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.writer.Commit(ctx, tx, checkout.Draft{
			UserID:           userID,
			Lines:            lines,
			Delivery:         input.Delivery,
			PaymentMethod:    enums.PaymentMethodCard,
			PaymentProvider:  &provider,
			PaymentSessionID: &sessionID,
		})
		if err != nil {
			return err
		}
		created = order
		return nil
	})
	if err != nil {
		if isSessionConflict(err) {
			if existing, lookupErr := s.findBySession(ctx, userID, sessionID); lookupErr == nil && existing != nil {
				return existing, nil
			}
		}
		return nil, asServiceError(err, "confirm order")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id":   created.ID.String(),
			"session_id": sessionID,
		})
		if charged := sess.AmountTotal; charged > 0 && charged != money.ToSatang(created.TotalAmount) {
			logCtx = s.logg.WithFields(logCtx, map[string]any{
				"charged_satang": charged,
				"order_total":    created.TotalAmount,
			})
			s.logg.Warn(logCtx, "catalog price moved between payment and confirmation")
		}
		s.logg.Info(logCtx, "hosted checkout order confirmed")
	}
	return &ConfirmResult{OrderID: created.ID}, nil
}

// sessionLines returns the lines recorded on the paid session. Client items,
// when sent, must describe the same selection.
func sessionLines(sess *Session, hint []helpers.Line) ([]helpers.Line, error) {
	recorded, err := decodeSessionLines(sess.Metadata)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "checkout session items unreadable")
	}
	if len(recorded) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout session carries no items").
			WithDetails(map[string]string{"sessionId": sess.ID})
	}
	merged, err := helpers.MergeLines(recorded)
	if err != nil {
		return nil, err
	}
	if len(hint) == 0 {
		return merged, nil
	}
	claimed, err := helpers.MergeLines(hint)
	if err != nil {
		return nil, err
	}
	if !sameLines(merged, claimed) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "items do not match the paid checkout session").
			WithDetails(map[string]string{"items": "mismatch"})
	}
	return merged, nil
}

// findBySession returns the order already materialized for the session, if any.
func (s *service) findBySession(ctx context.Context, userID uuid.UUID, sessionID string) (*ConfirmResult, error) {
	existing, err := s.orders.FindByPaymentSession(ctx, sessionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup order by session")
	}
	if existing.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "checkout session belongs to another user")
	}
	return &ConfirmResult{OrderID: existing.ID, Replayed: true}, nil
}

func isSessionConflict(err error) bool {
	return db.IsUniqueViolation(err, sessionConstraint) || db.IsUniqueViolation(err, sqliteSessionConstraint)
}

func asServiceError(err error, action string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
