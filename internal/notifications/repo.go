package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chocandle/cho-candle-backend/pkg/db/models"
	"github.com/chocandle/cho-candle-backend/pkg/enums"
	"github.com/chocandle/cho-candle-backend/pkg/pagination"
)

// Repository exposes persistence helpers for notifications.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, params listNotificationsParams) ([]visibleNotification, *pagination.Cursor, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID, now time.Time) (bool, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error)
	ListLatest(ctx context.Context, limit int, notificationType *enums.NotificationType) ([]models.Notification, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteTargetedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a notifications repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listNotificationsParams struct {
	UserID uuid.UUID
	Limit  int
	Cursor *pagination.Cursor
}

// visibleNotification is a notification joined with the caller's read receipt.
type visibleNotification struct {
	models.Notification `gorm:"embedded"`
	ReadAt              *time.Time `gorm:"column:read_at"`
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

// visibleTo scopes a notifications query to broadcasts plus rows targeted at userID.
func visibleTo(db *gorm.DB, userID uuid.UUID) *gorm.DB {
	return db.Where("(notifications.is_global = ? OR notifications.user_id = ?)", true, userID)
}

func (r *repositoryImpl) List(ctx context.Context, params listNotificationsParams) ([]visibleNotification, *pagination.Cursor, error) {
	query := visibleTo(r.db.WithContext(ctx).Model(&models.Notification{}), params.UserID).
		Select("notifications.*, notification_reads.read_at AS read_at").
		Joins("LEFT JOIN notification_reads ON notification_reads.notification_id = notifications.id AND notification_reads.user_id = ?", params.UserID)
	if params.Cursor != nil {
		query = query.Where("(notifications.created_at, notifications.id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []visibleNotification
	err := query.
		Order("notifications.created_at DESC").
		Order("notifications.id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Scan(&rows).Error
	if err != nil {
		return nil, nil, err
	}
	page, next := pagination.Page(rows, params.Limit, func(row visibleNotification) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})
	return page, next, nil
}

func (r *repositoryImpl) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := visibleTo(r.db.WithContext(ctx).Model(&models.Notification{}), userID).
		Where("NOT EXISTS (SELECT 1 FROM notification_reads WHERE notification_reads.notification_id = notifications.id AND notification_reads.user_id = ?)", userID).
		Count(&count).Error
	return count, err
}

// MarkRead records a receipt and reports whether the notification is visible
// to the user. Marking twice keeps the first timestamp.
func (r *repositoryImpl) MarkRead(ctx context.Context, userID, notificationID uuid.UUID, now time.Time) (bool, error) {
	var count int64
	if err := visibleTo(r.db.WithContext(ctx).Model(&models.Notification{}), userID).
		Where("notifications.id = ?", notificationID).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, nil
	}
	receipt := models.NotificationRead{NotificationID: notificationID, UserID: userID, ReadAt: now}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&receipt).Error
	return true, err
}

func (r *repositoryImpl) MarkAllRead(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Exec(`
		INSERT INTO notification_reads (notification_id, user_id, read_at)
		SELECT n.id, ?, ?
		FROM notifications n
		WHERE (n.is_global = ? OR n.user_id = ?)
		  AND NOT EXISTS (
		    SELECT 1 FROM notification_reads r
		    WHERE r.notification_id = n.id AND r.user_id = ?
		  )`,
		userID, now, true, userID, userID,
	)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repositoryImpl) ListLatest(ctx context.Context, limit int, notificationType *enums.NotificationType) ([]models.Notification, error) {
	query := r.db.WithContext(ctx).Model(&models.Notification{})
	if notificationType != nil {
		query = query.Where("type = ?", *notificationType)
	}
	var rows []models.Notification
	err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

// Delete removes the notification and its receipts.
func (r *repositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("notification_id = ?", id).
		Delete(&models.NotificationRead{}).Error; err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteTargetedBefore purges targeted notifications created before cutoff,
// receipts first. Broadcasts are kept.
func (r *repositoryImpl) DeleteTargetedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	stale := r.db.Model(&models.Notification{}).
		Select("id").
		Where("is_global = ? AND created_at < ?", false, cutoff)
	if err := r.db.WithContext(ctx).
		Where("notification_id IN (?)", stale).
		Delete(&models.NotificationRead{}).Error; err != nil {
		return 0, err
	}
	res := r.db.WithContext(ctx).
		Where("is_global = ? AND created_at < ?", false, cutoff).
		Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}
