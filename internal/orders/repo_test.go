package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chocandle/cho-candle-backend/pkg/db/dbtest"
	"github.com/chocandle/cho-candle-backend/pkg/db/models"
	"github.com/chocandle/cho-candle-backend/pkg/enums"
)

func TestRepositoryCreateWritesItemsAndTotal(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	userID := uuid.New()

	order := mustInsertOrder(t, conn, userID,
		withItem(nil, "Lavender Calm", 420, 1),
		withItem(nil, "Cedar Focus", 420, 1),
	)

	got, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(840), got.TotalAmount)
	require.Len(t, got.Items, 2)

	var sum int64
	for _, item := range got.Items {
		assert.Equal(t, order.ID, item.OrderID)
		sum += item.LineTotal
	}
	assert.Equal(t, got.TotalAmount, sum)
}

func TestRepositoryListByUserNewestFirst(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	userID := uuid.New()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	older := mustInsertOrder(t, conn, userID, placedAt(base))
	newer := mustInsertOrder(t, conn, userID, placedAt(base.Add(time.Hour)))
	mustInsertOrder(t, conn, uuid.New(), placedAt(base.Add(2*time.Hour)))

	rows, err := repo.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, newer.ID, rows[0].ID)
	assert.Equal(t, older.ID, rows[1].ID)
}

func TestRepositoryLegacyStatusesNormalizeOnLoad(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	userID := uuid.New()
	order := mustInsertOrder(t, conn, userID)

	require.NoError(t, conn.Exec("UPDATE orders SET status = 'delivering' WHERE id = ?", order.ID).Error)

	got, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, got.Status)

	locked, err := repo.UserHasStatus(context.Background(), userID, enums.OrderStatusShipped)
	require.NoError(t, err)
	assert.True(t, locked)

	counts, err := repo.CountByStatus(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[enums.OrderStatusShipped])
}

func TestRepositoryUpdateStatusGuardsFrom(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	order := mustInsertOrder(t, conn, uuid.New())

	err := repo.UpdateStatus(context.Background(), order.ID, enums.OrderStatusPreparing, enums.OrderStatusShipped)
	require.ErrorIs(t, err, ErrStatusChanged)

	require.NoError(t, repo.UpdateStatus(context.Background(), order.ID, enums.OrderStatusPending, enums.OrderStatusPreparing))
	got, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPreparing, got.Status)
}

func TestRepositoryFindByUserRequestAndSession(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	userID := uuid.New()
	requestID := "req-1"
	sessionID := "cs_test_123"

	order := mustInsertOrder(t, conn, userID, func(o *models.Order) {
		o.RequestID = &requestID
		o.PaymentSessionID = &sessionID
	})

	byRequest, err := repo.FindByUserRequest(context.Background(), userID, requestID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, byRequest.ID)

	bySession, err := repo.FindByPaymentSession(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, bySession.ID)

	_, err = repo.FindByUserRequest(context.Background(), uuid.New(), requestID)
	require.Error(t, err)
}

func TestRepositoryListPendingBefore(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	cutoff := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	stale := mustInsertOrder(t, conn, uuid.New(), withMethod(enums.PaymentMethodBankTransfer), placedAt(cutoff.Add(-48*time.Hour)))
	mustInsertOrder(t, conn, uuid.New(), withMethod(enums.PaymentMethodBankTransfer), placedAt(cutoff.Add(time.Hour)))
	mustInsertOrder(t, conn, uuid.New(), withMethod(enums.PaymentMethodCashOnDelivery), placedAt(cutoff.Add(-48*time.Hour)))
	mustInsertOrder(t, conn, uuid.New(), withMethod(enums.PaymentMethodBankTransfer), withStatus(enums.OrderStatusPreparing), placedAt(cutoff.Add(-48*time.Hour)))

	rows, err := repo.ListPendingBefore(context.Background(), enums.PaymentMethodBankTransfer, cutoff)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, stale.ID, rows[0].ID)
}
