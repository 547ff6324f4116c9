package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chocandle/cho-candle-backend/pkg/db"
	"github.com/chocandle/cho-candle-backend/pkg/db/models"
	"github.com/chocandle/cho-candle-backend/pkg/enums"
	pkgerrors "github.com/chocandle/cho-candle-backend/pkg/errors"
	"github.com/chocandle/cho-candle-backend/pkg/logger"
	"github.com/chocandle/cho-candle-backend/pkg/outbox"
	"github.com/chocandle/cho-candle-backend/pkg/outbox/payloads"
)

const maxNoteLength = 2000

// Inventory restores stock when an order is cancelled.
type Inventory interface {
	RestoreStockTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}

// Service exposes order reads and lifecycle transitions.
type Service interface {
	List(ctx context.Context, userID uuid.UUID, group Group) ([]OrderDTO, error)
	Summary(ctx context.Context, userID uuid.UUID) (Summary, error)
	Detail(ctx context.Context, userID, orderID uuid.UUID) (*OrderDetailDTO, error)
	Cancel(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	ConfirmReceipt(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	ReportIssue(ctx context.Context, userID, orderID uuid.UUID, input IssueInput) (*OrderDTO, error)
	RequestRefund(ctx context.Context, userID, orderID uuid.UUID, input RefundInput) (*OrderDTO, error)
	AdminList(ctx context.Context, filter AdminFilter) ([]OrderDTO, error)
	AdminGet(ctx context.Context, orderID uuid.UUID) (*OrderDetailDTO, error)
	AdminUpdateStatus(ctx context.Context, adminID, orderID uuid.UUID, to enums.OrderStatus) (*OrderDTO, error)
	ListExpirable(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
	Expire(ctx context.Context, orderID uuid.UUID) error
}

// IssueInput reports that a delivered order never arrived.
type IssueInput struct {
	Description string
	PhotoURL    *string
}

// RefundInput claims a refund on a delivered order.
type RefundInput struct {
	Reason   string
	PhotoURL *string
}

type service struct {
	repo      Repository
	tx        db.TxRunner
	inventory Inventory
	outbox    outbox.Emitter
	logg      *logger.Logger
	now       func() time.Time
}

// NewService constructs the order service.
func NewService(repo Repository, tx db.TxRunner, inventory Inventory, emitter outbox.Emitter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if inventory == nil {
		return nil, fmt.Errorf("inventory required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		inventory: inventory,
		outbox:    emitter,
		logg:      logg,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, group Group) ([]OrderDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return newOrderDTOs(filterByGroup(rows, group)), nil
}

func (s *service) Summary(ctx context.Context, userID uuid.UUID) (Summary, error) {
	counts, err := s.repo.CountByStatus(ctx, userID)
	if err != nil {
		return Summary{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders")
	}
	var out Summary
	for status, n := range counts {
		if GroupOf(status) == GroupFinished {
			out.Finished += n
		} else {
			out.Active += n
		}
		out.Total += n
	}
	return out, nil
}

func (s *service) Detail(ctx context.Context, userID, orderID uuid.UUID) (*OrderDetailDTO, error) {
	order, err := s.loadOwned(ctx, s.repo, userID, orderID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, *order)
}

func (s *service) AdminGet(ctx context.Context, orderID uuid.UUID) (*OrderDetailDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, mapLookupError(err)
	}
	return s.detail(ctx, *order)
}

func (s *service) detail(ctx context.Context, order models.Order) (*OrderDetailDTO, error) {
	issues, err := s.repo.ListIssues(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order issues")
	}
	refunds, err := s.repo.ListRefunds(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list refund requests")
	}
	return newDetailDTO(order, issues, refunds), nil
}

func (s *service) AdminList(ctx context.Context, filter AdminFilter) ([]OrderDTO, error) {
	rows, err := s.repo.ListAll(ctx, filter.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return newOrderDTOs(filterByQuery(rows, filter.Query)), nil
}

func (s *service) Cancel(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	return s.transition(ctx, transitionRequest{
		orderID: orderID,
		owner:   &userID,
		to:      enums.OrderStatusCancelled,
		actor:   ActorCustomer,
		actorID: userID,
		before:  s.restoreStock,
	})
}

func (s *service) ConfirmReceipt(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	return s.transition(ctx, transitionRequest{
		orderID: orderID,
		owner:   &userID,
		to:      enums.OrderStatusWellReceived,
		actor:   ActorCustomer,
		actorID: userID,
	})
}

func (s *service) ReportIssue(ctx context.Context, userID, orderID uuid.UUID, input IssueInput) (*OrderDTO, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" || len(description) > maxNoteLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid issue report").
			WithDetails(map[string]string{"description": fmt.Sprintf("required, at most %d characters", maxNoteLength)})
	}
	return s.transition(ctx, transitionRequest{
		orderID: orderID,
		owner:   &userID,
		to:      enums.OrderStatusLost,
		actor:   ActorCustomer,
		actorID: userID,
		before: func(ctx context.Context, tx *gorm.DB, order *models.Order) error {
			return s.repo.WithTx(tx).CreateIssue(ctx, &models.OrderIssue{
				OrderID:     order.ID,
				UserID:      userID,
				Description: description,
				PhotoURL:    trimOptional(input.PhotoURL),
			})
		},
	})
}

func (s *service) RequestRefund(ctx context.Context, userID, orderID uuid.UUID, input RefundInput) (*OrderDTO, error) {
	reason := strings.TrimSpace(input.Reason)
	if reason == "" || len(reason) > maxNoteLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid refund request").
			WithDetails(map[string]string{"reason": fmt.Sprintf("required, at most %d characters", maxNoteLength)})
	}
	return s.transition(ctx, transitionRequest{
		orderID: orderID,
		owner:   &userID,
		to:      enums.OrderStatusRefundRequested,
		actor:   ActorCustomer,
		actorID: userID,
		before: func(ctx context.Context, tx *gorm.DB, order *models.Order) error {
			return s.repo.WithTx(tx).CreateRefund(ctx, &models.RefundRequest{
				OrderID:  order.ID,
				UserID:   userID,
				Reason:   reason,
				PhotoURL: trimOptional(input.PhotoURL),
			})
		},
	})
}

func (s *service) AdminUpdateStatus(ctx context.Context, adminID, orderID uuid.UUID, to enums.OrderStatus) (*OrderDTO, error) {
	if !to.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status").
			WithDetails(map[string]string{"status": "unknown status"})
	}
	return s.transition(ctx, transitionRequest{
		orderID: orderID,
		to:      to,
		actor:   ActorAdmin,
		actorID: adminID,
	})
}

// ListExpirable returns pending bank-transfer orders created before cutoff.
func (s *service) ListExpirable(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	rows, err := s.repo.ListPendingBefore(ctx, enums.PaymentMethodBankTransfer, cutoff)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list expirable orders")
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

// Expire cancels an unpaid order on behalf of the scheduler.
func (s *service) Expire(ctx context.Context, orderID uuid.UUID) error {
	_, err := s.transition(ctx, transitionRequest{
		orderID: orderID,
		to:      enums.OrderStatusCancelled,
		actor:   ActorSystem,
		before:  s.restoreStock,
	})
	return err
}

type transitionRequest struct {
	orderID uuid.UUID
	owner   *uuid.UUID
	to      enums.OrderStatus
	actor   Actor
	actorID uuid.UUID
	before  func(ctx context.Context, tx *gorm.DB, order *models.Order) error
}

// transition applies one lifecycle step. The auxiliary write, the guarded
// status update and the outbox event commit together.
func (s *service) transition(ctx context.Context, req transitionRequest) (*OrderDTO, error) {
	var result models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		var (
			order *models.Order
			err   error
		)
		if req.owner != nil {
			order, err = s.loadOwned(ctx, repo, *req.owner, req.orderID)
		} else {
			order, err = repo.FindByID(ctx, req.orderID)
			err = mapLookupError(err)
		}
		if err != nil {
			return err
		}

		from := order.Status
		if !CanTransition(from, req.to, req.actor) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status transition not allowed").
				WithDetails(map[string]string{"from": string(from), "to": string(req.to)})
		}

		if req.before != nil {
			if err := req.before(ctx, tx, order); err != nil {
				return err
			}
		}

		if err := repo.UpdateStatus(ctx, order.ID, from, req.to); err != nil {
			if errors.Is(err, ErrStatusChanged) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed, reload and retry")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}

		changedAt := s.now()
		event := outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			OccurredAt:    changedAt,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:   order.ID,
				UserID:    order.UserID,
				From:      from,
				To:        req.to,
				Actor:     string(req.actor),
				ChangedAt: changedAt,
			},
		}
		if req.actorID != uuid.Nil {
			event.Actor = &outbox.ActorRef{UserID: req.actorID, Role: string(req.actor)}
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order status event")
		}

		order.Status = req.to
		order.UpdatedAt = changedAt
		result = *order
		return nil
	})
	if err != nil {
		return nil, asServiceError(err, "order transition")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id": result.ID.String(),
			"status":   string(result.Status),
			"actor":    string(req.actor),
		})
		s.logg.Info(logCtx, "order status changed")
	}

	dto := NewOrderDTO(result)
	return &dto, nil
}

func (s *service) restoreStock(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	for _, item := range order.Items {
		if item.ProductID == nil {
			continue
		}
		if err := s.inventory.RestoreStockTx(ctx, tx, *item.ProductID, item.Quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
		}
	}
	return nil
}

func (s *service) loadOwned(ctx context.Context, repo Repository, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, mapLookupError(err)
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}
	return order, nil
}

func mapLookupError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}

func asServiceError(err error, action string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
