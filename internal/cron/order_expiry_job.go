package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/chocandle/cho-candle-backend/pkg/logger"
)

const pendingOrderAgeDays = 7

// OrderExpiryJobParams configure the stale bank-transfer sweep.
type OrderExpiryJobParams struct {
	Logger *logger.Logger
	Orders orderExpirer
	MaxAge int
}

type orderExpirer interface {
	ListExpirable(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
	Expire(ctx context.Context, orderID uuid.UUID) error
}

// NewOrderExpiryJob cancels pending bank-transfer orders that were never paid.
// Each order is expired in its own transaction; one failure does not stop the rest.
func NewOrderExpiryJob(params OrderExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	maxAge := params.MaxAge
	if maxAge <= 0 {
		maxAge = pendingOrderAgeDays
	}
	return &orderExpiryJob{
		logg:   params.Logger,
		orders: params.Orders,
		maxAge: maxAge,
		now:    time.Now,
	}, nil
}

type orderExpiryJob struct {
	logg   *logger.Logger
	orders orderExpirer
	maxAge int
	now    func() time.Time
}

func (j *orderExpiryJob) Name() string { return "order-expiry" }

func (j *orderExpiryJob) Run(ctx context.Context) (int64, error) {
	cutoff := j.now().UTC().Add(-time.Duration(j.maxAge) * 24 * time.Hour)
	ids, err := j.orders.ListExpirable(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list expirable orders: %w", err)
	}

	var (
		expired int64
		errs    error
	)
	for _, id := range ids {
		orderCtx := j.logg.WithOrderID(ctx, id.String())
		if err := j.orders.Expire(orderCtx, id); err != nil {
			j.logg.Error(orderCtx, "order expiry failed", err)
			errs = multierr.Append(errs, fmt.Errorf("expire order %s: %w", id, err))
			continue
		}
		expired++
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":     cutoff,
		"candidates": len(ids),
		"expired":    expired,
	}), "pending order sweep complete")
	return expired, errs
}
