package orders

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	product "github.com/chocandle/cho-candle-backend/internal/products"
	"github.com/chocandle/cho-candle-backend/pkg/db"
	"github.com/chocandle/cho-candle-backend/pkg/db/dbtest"
	"github.com/chocandle/cho-candle-backend/pkg/db/models"
	"github.com/chocandle/cho-candle-backend/pkg/enums"
	pkgerrors "github.com/chocandle/cho-candle-backend/pkg/errors"
	"github.com/chocandle/cho-candle-backend/pkg/logger"
	"github.com/chocandle/cho-candle-backend/pkg/outbox"
	"github.com/chocandle/cho-candle-backend/pkg/outbox/payloads"
)

func newTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(
		NewRepository(conn),
		db.Wrap(conn),
		product.NewRepository(conn),
		outbox.NewService(outbox.NewRepository(conn), logger.Nop()),
		logger.Nop(),
	)
	require.NoError(t, err)
	return svc
}

func outboxEvents(t *testing.T, conn *gorm.DB) []models.OutboxEvent {
	t.Helper()
	var rows []models.OutboxEvent
	require.NoError(t, conn.Order("created_at ASC").Find(&rows).Error)
	return rows
}

func statusOf(t *testing.T, conn *gorm.DB, id uuid.UUID) enums.OrderStatus {
	t.Helper()
	got, err := NewRepository(conn).FindByID(context.Background(), id)
	require.NoError(t, err)
	return got.Status
}

func TestCancelRestoresStockAndEmits(t *testing.T) {
	conn := dbtest.Open(t)
	svc := newTestService(t, conn)
	userID := uuid.New()

	limited := mustInsertProduct(t, conn, "lavender", 420, intPtr(3))
	unlimited := mustInsertProduct(t, conn, "cedar", 300, nil)
	order := mustInsertOrder(t, conn, userID,
		withItem(&limited.ID, limited.Name, 420, 2),
		withItem(&unlimited.ID, unlimited.Name, 300, 1),
	)

	dto, err := svc.Cancel(context.Background(), userID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, dto.Status)
	assert.Equal(t, GroupFinished, dto.Group)

	var reloaded models.Product
	require.NoError(t, conn.First(&reloaded, "id = ?", limited.ID).Error)
	require.NotNil(t, reloaded.Stock)
	assert.Equal(t, 5, *reloaded.Stock)

	require.NoError(t, conn.First(&reloaded, "id = ?", unlimited.ID).Error)
	assert.Nil(t, reloaded.Stock)

	events := outboxEvents(t, conn)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventOrderStatusChanged, events[0].EventType)

	var env outbox.PayloadEnvelope
	require.NoError(t, json.Unmarshal(events[0].Payload, &env))
	var data payloads.OrderStatusChangedEvent
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, enums.OrderStatusPending, data.From)
	assert.Equal(t, enums.OrderStatusCancelled, data.To)
	assert.Equal(t, string(ActorCustomer), data.Actor)
}

func TestCancelRejectedOnceShipped(t *testing.T) {
	conn := dbtest.Open(t)
	svc := newTestService(t, conn)
	userID := uuid.New()
	order := mustInsertOrder(t, conn, userID, withStatus(enums.OrderStatusShipped))

	_, err := svc.Cancel(context.Background(), userID, order.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Equal(t, enums.OrderStatusShipped, statusOf(t, conn, order.ID))
	assert.Empty(t, outboxEvents(t, conn))
}

func TestCustomerCannotTouchOtherUsersOrder(t *testing.T) {
	conn := dbtest.Open(t)
	svc := newTestService(t, conn)
	order := mustInsertOrder(t, conn, uuid.New())

	_, err := svc.Cancel(context.Background(), uuid.New(), order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = svc.Detail(context.Background(), uuid.New(), order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = svc.Detail(context.Background(), uuid.New(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestReportIssueWritesRecordAndFlipsStatus(t *testing.T) {
	conn := dbtest.Open(t)
	svc := newTestService(t, conn)
	userID := uuid.New()
	order := mustInsertOrder(t, conn, userID, withStatus(enums.OrderStatusDelivered))
	photo := "  https://img.example/box.jpg "

	dto, err := svc.ReportIssue(context.Background(), userID, order.ID, IssueInput{Description: "Box never arrived", PhotoURL: &photo})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusLost, dto.Status)

	detail, err := svc.Detail(context.Background(), userID, order.ID)
	require.NoError(t, err)
	require.Len(t, detail.Issues, 1)
	assert.Equal(t, "Box never arrived", detail.Issues[0].Description)
	require.NotNil(t, detail.Issues[0].PhotoURL)
	assert.Equal(t, "https://img.example/box.jpg", *detail.Issues[0].PhotoURL)

	_, err = svc.RequestRefund(context.Background(), userID, order.ID, RefundInput{Reason: "too late"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestReportIssueOnUndeliveredOrderLeavesNoRecord(t *testing.T) {
	conn := dbtest.Open(t)
	svc := newTestService(t, conn)
	userID := uuid.New()
	order := mustInsertOrder(t, conn, userID, withStatus(enums.OrderStatusPreparing))

	_, err := svc.ReportIssue(context.Background(), userID, order.ID, IssueInput{Description: "where is it"})
	require.Error(t, err)

	var count int64
	require.NoError(t, conn.Model(&models.OrderIssue{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRequestRefundValidatesReason(t *testing.T) {
	conn := dbtest.Open(t)
	svc := newTestService(t, conn)
	userID := uuid.New()
	order := mustInsertOrder(t, conn, userID, withStatus(enums.OrderStatusDelivered))

	_, err := svc.RequestRefund(context.Background(), userID, order.ID, RefundInput{Reason: "   "})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	dto, err := svc.RequestRefund(context.Background(), userID, order.ID, RefundInput{Reason: "Wax cracked"})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusRefundRequested, dto.Status)

	detail, err := svc.Detail(context.Background(), userID, order.ID)
	require.NoError(t, err)
	require.Len(t, detail.Refunds, 1)
	assert.Nil(t, detail.Refunds[0].PhotoURL)
}

func TestConfirmReceipt(t *testing.T) {
	conn := dbtest.Open(t)
	svc := newTestService(t, conn)
	userID := uuid.New()
	order := mustInsertOrder(t, conn, userID, withStatus(enums.OrderStatusDelivered))

	dto, err := svc.ConfirmReceipt(context.Background(), userID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusWellReceived, dto.Status)

	_, err = svc.ConfirmReceipt(context.Background(), userID, order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestAdminUpdateStatusFollowsAdminRows(t *testing.T) {
	conn := dbtest.Open(t)
	svc := newTestService(t, conn)
	adminID := uuid.New()
	order := mustInsertOrder(t, conn, uuid.New())

	_, err := svc.AdminUpdateStatus(context.Background(), adminID, order.ID, enums.OrderStatusShipped)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	for _, next := range []enums.OrderStatus{enums.OrderStatusPreparing, enums.OrderStatusShipped, enums.OrderStatusDelivered} {
		dto, err := svc.AdminUpdateStatus(context.Background(), adminID, order.ID, next)
		require.NoError(t, err)
		assert.Equal(t, next, dto.Status)
	}

	_, err = svc.AdminUpdateStatus(context.Background(), adminID, order.ID, enums.OrderStatusWellReceived)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = svc.AdminUpdateStatus(context.Background(), adminID, order.ID, enums.OrderStatus("archived"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	assert.Len(t, outboxEvents(t, conn), 3)
}

func TestListGroupsAndSummary(t *testing.T) {
	conn := dbtest.Open(t)
	svc := newTestService(t, conn)
	userID := uuid.New()
	mustInsertOrder(t, conn, userID)
	mustInsertOrder(t, conn, userID, withStatus(enums.OrderStatusShipped))
	mustInsertOrder(t, conn, userID, withStatus(enums.OrderStatusCancelled))
	mustInsertOrder(t, conn, uuid.New())

	all, err := svc.List(context.Background(), userID, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	finished, err := svc.List(context.Background(), userID, GroupFinished)
	require.NoError(t, err)
	require.Len(t, finished, 1)
	assert.Equal(t, enums.OrderStatusCancelled, finished[0].Status)

	summary, err := svc.Summary(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, Summary{Active: 2, Finished: 1, Total: 3}, summary)
}

func TestAdminListFiltersInMemory(t *testing.T) {
	conn := dbtest.Open(t)
	svc := newTestService(t, conn)
	chiangMai := mustInsertOrder(t, conn, uuid.New(), withCity("Chiang Mai"))
	mustInsertOrder(t, conn, uuid.New(), withCity("Phuket"), withMethod(enums.PaymentMethodBankTransfer))
	mustInsertOrder(t, conn, uuid.New(), withStatus(enums.OrderStatusShipped))

	rows, err := svc.AdminList(context.Background(), AdminFilter{Query: "chiang"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, chiangMai.ID, rows[0].ID)

	rows, err = svc.AdminList(context.Background(), AdminFilter{Query: "BANK"})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	shipped := enums.OrderStatusShipped
	rows, err = svc.AdminList(context.Background(), AdminFilter{Status: &shipped})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = svc.AdminList(context.Background(), AdminFilter{Query: chiangMai.ID.String()[:8]})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestExpireCancelsStaleBankTransfers(t *testing.T) {
	conn := dbtest.Open(t)
	svc := newTestService(t, conn)
	p := mustInsertProduct(t, conn, "amber", 500, intPtr(0))
	old := time.Now().UTC().Add(-8 * 24 * time.Hour)
	stale := mustInsertOrder(t, conn, uuid.New(),
		withMethod(enums.PaymentMethodBankTransfer),
		placedAt(old),
		withItem(&p.ID, p.Name, 500, 2),
	)

	ids, err := svc.ListExpirable(context.Background(), time.Now().UTC().Add(-7*24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{stale.ID}, ids)

	require.NoError(t, svc.Expire(context.Background(), stale.ID))
	assert.Equal(t, enums.OrderStatusCancelled, statusOf(t, conn, stale.ID))

	var reloaded models.Product
	require.NoError(t, conn.First(&reloaded, "id = ?", p.ID).Error)
	assert.Equal(t, 2, *reloaded.Stock)

	events := outboxEvents(t, conn)
	require.Len(t, events, 1)
	var env outbox.PayloadEnvelope
	require.NoError(t, json.Unmarshal(events[0].Payload, &env))
	assert.Nil(t, env.Actor)
}
