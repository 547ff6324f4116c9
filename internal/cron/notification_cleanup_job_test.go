package cron

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chocandle/cho-candle-backend/internal/notifications"
	"github.com/chocandle/cho-candle-backend/pkg/db"
	"github.com/chocandle/cho-candle-backend/pkg/db/dbtest"
	"github.com/chocandle/cho-candle-backend/pkg/db/models"
	"github.com/chocandle/cho-candle-backend/pkg/enums"
	"github.com/chocandle/cho-candle-backend/pkg/logger"
)

func TestNotificationCleanupJobPurgesOldTargeted(t *testing.T) {
	conn := dbtest.Open(t)
	now := time.Now().UTC()
	owner := uuid.New()
	rows := []models.Notification{
		{Title: "old targeted", Body: "x", Type: enums.NotificationTypeOrder, UserID: &owner, CreatedAt: now.Add(-120 * 24 * time.Hour)},
		{Title: "old broadcast", Body: "x", Type: enums.NotificationTypePromo, IsGlobal: true, CreatedAt: now.Add(-120 * 24 * time.Hour)},
		{Title: "recent targeted", Body: "x", Type: enums.NotificationTypeOrder, UserID: &owner, CreatedAt: now.Add(-time.Hour)},
	}
	for i := range rows {
		require.NoError(t, conn.Create(&rows[i]).Error)
	}

	job, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger:     logger.Nop(),
		DB:         db.Wrap(conn),
		Repository: notifications.NewRepository(conn),
	})
	require.NoError(t, err)
	assert.Equal(t, "notification-cleanup", job.Name())

	affected, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	var remaining int64
	require.NoError(t, conn.Model(&models.Notification{}).Count(&remaining).Error)
	assert.Equal(t, int64(2), remaining)
}

func TestNotificationCleanupJobRequiresDependencies(t *testing.T) {
	_, err := NewNotificationCleanupJob(NotificationCleanupJobParams{Logger: logger.Nop()})
	require.Error(t, err)
}
