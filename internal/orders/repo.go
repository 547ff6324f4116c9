package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chocandle/cho-candle-backend/pkg/db/models"
	"github.com/chocandle/cho-candle-backend/pkg/enums"
)

// ErrStatusChanged means the guarded status update matched no row.
var ErrStatusChanged = errors.New("order status changed concurrently")

// Repository defines persistence operations for orders and their records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByUserRequest(ctx context.Context, userID uuid.UUID, requestID string) (*models.Order, error)
	FindByPaymentSession(ctx context.Context, sessionID string) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListAll(ctx context.Context, status *enums.OrderStatus) ([]models.Order, error)
	ListIssues(ctx context.Context, orderID uuid.UUID) ([]models.OrderIssue, error)
	ListRefunds(ctx context.Context, orderID uuid.UUID) ([]models.RefundRequest, error)
	CountByStatus(ctx context.Context, userID uuid.UUID) (map[enums.OrderStatus]int64, error)
	UserHasStatus(ctx context.Context, userID uuid.UUID, status enums.OrderStatus) (bool, error)
	ListPendingBefore(ctx context.Context, method enums.PaymentMethod, cutoff time.Time) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) error
	CreateIssue(ctx context.Context, issue *models.OrderIssue) error
	CreateRefund(ctx context.Context, refund *models.RefundRequest) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the header and its items as separate statements so the
// caller's transaction owns both writes.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	items := order.Items
	if err := r.db.WithContext(ctx).Omit("Items").Create(order).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if len(items) > 0 {
		if err := r.db.WithContext(ctx).Create(&items).Error; err != nil {
			return err
		}
	}
	order.Items = items
	return nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.withItems(ctx).First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByUserRequest(ctx context.Context, userID uuid.UUID, requestID string) (*models.Order, error) {
	var order models.Order
	err := r.withItems(ctx).
		Where("user_id = ? AND request_id = ?", userID, requestID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByPaymentSession(ctx context.Context, sessionID string) (*models.Order, error) {
	var order models.Order
	err := r.withItems(ctx).
		Where("payment_session_id = ?", sessionID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	err := r.withItems(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListAll(ctx context.Context, status *enums.OrderStatus) ([]models.Order, error) {
	q := r.withItems(ctx)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var rows []models.Order
	err := q.Order("created_at DESC").Order("id DESC").Find(&rows).Error
	return rows, err
}

func (r *repository) ListIssues(ctx context.Context, orderID uuid.UUID) ([]models.OrderIssue, error) {
	var rows []models.OrderIssue
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListRefunds(ctx context.Context, orderID uuid.UUID) ([]models.RefundRequest, error) {
	var rows []models.RefundRequest
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// CountByStatus groups the user's orders by raw stored status. Legacy values are
// normalized when scanned.
func (r *repository) CountByStatus(ctx context.Context, userID uuid.UUID) (map[enums.OrderStatus]int64, error) {
	type row struct {
		Status enums.OrderStatus
		Total  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS total").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[enums.OrderStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] += row.Total
	}
	return out, nil
}

func (r *repository) UserHasStatus(ctx context.Context, userID uuid.UUID, status enums.OrderStatus) (bool, error) {
	values := append([]string{string(status)}, enums.LegacyOrderStatuses(status)...)
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("user_id = ? AND status IN ?", userID, values).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) ListPendingBefore(ctx context.Context, method enums.PaymentMethod, cutoff time.Time) ([]models.Order, error) {
	var rows []models.Order
	err := r.withItems(ctx).
		Where("status = ? AND payment_method = ? AND created_at < ?", enums.OrderStatusPending, method, cutoff).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// UpdateStatus flips status only while the row still holds from.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStatusChanged
	}
	return nil
}

func (r *repository) CreateIssue(ctx context.Context, issue *models.OrderIssue) error {
	return r.db.WithContext(ctx).Create(issue).Error
}

func (r *repository) CreateRefund(ctx context.Context, refund *models.RefundRequest) error {
	return r.db.WithContext(ctx).Create(refund).Error
}

func (r *repository) withItems(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC").Order("id ASC")
	})
}
