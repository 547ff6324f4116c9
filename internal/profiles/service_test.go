package profiles

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/chocandle/cho-candle-backend/internal/orders"
	"github.com/chocandle/cho-candle-backend/pkg/db/dbtest"
	"github.com/chocandle/cho-candle-backend/pkg/db/models"
	"github.com/chocandle/cho-candle-backend/pkg/enums"
	pkgerrors "github.com/chocandle/cho-candle-backend/pkg/errors"
)

func newService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), orders.NewRepository(conn))
	require.NoError(t, err)
	return svc, conn
}

func insertOrder(t *testing.T, conn *gorm.DB, userID uuid.UUID, status string) {
	t.Helper()
	require.NoError(t, conn.Exec(
		`INSERT INTO orders (id, user_id, full_name, phone, address_line1, city, province, postal_code, total_amount, status, payment_method)
		 VALUES (?, ?, 'n', 'p', 'a', 'c', 'pr', 'z', 100, ?, 'cod')`,
		uuid.New(), userID, status,
	).Error)
}

func strPtr(v string) *string { return &v }

func TestGetOrCreateIsLazyAndStable(t *testing.T) {
	svc, conn := newService(t)
	userID := uuid.New()

	first, err := svc.GetOrCreate(context.Background(), userID, " nok@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "Thailand", first.Country)
	assert.Equal(t, enums.UserRoleCustomer, first.Role)
	require.NotNil(t, first.Email)
	assert.Equal(t, "nok@example.com", *first.Email)
	assert.False(t, first.Locked)

	second, err := svc.GetOrCreate(context.Background(), userID, "other@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "nok@example.com", *second.Email)

	var count int64
	require.NoError(t, conn.Model(&models.Profile{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUpdateWritesAndClearsFields(t *testing.T) {
	svc, _ := newService(t)
	userID := uuid.New()

	updated, err := svc.Update(context.Background(), userID, "", UpdateInput{
		Username: strPtr("  nok  "),
		City:     strPtr("Chiang Mai"),
		Country:  strPtr("Laos"),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Username)
	assert.Equal(t, "nok", *updated.Username)
	assert.Equal(t, "Laos", updated.Country)

	updated, err = svc.Update(context.Background(), userID, "", UpdateInput{City: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, updated.City)
	assert.Equal(t, "nok", *updated.Username)
}

func TestUpdateLockedWhileShipped(t *testing.T) {
	svc, conn := newService(t)
	userID := uuid.New()
	insertOrder(t, conn, userID, "delivering")

	profile, err := svc.GetOrCreate(context.Background(), userID, "")
	require.NoError(t, err)
	assert.True(t, profile.Locked)

	_, err = svc.Update(context.Background(), userID, "", UpdateInput{Phone: strPtr("0800000000")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestUpdateNotLockedByOtherStatuses(t *testing.T) {
	svc, conn := newService(t)
	userID := uuid.New()
	insertOrder(t, conn, userID, "pending")
	insertOrder(t, conn, userID, "delivered")

	_, err := svc.Update(context.Background(), userID, "", UpdateInput{Phone: strPtr("0800000000")})
	require.NoError(t, err)
}

func TestUpdateValidation(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Update(context.Background(), uuid.New(), "", UpdateInput{Country: strPtr("  ")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestRoleOf(t *testing.T) {
	svc, conn := newService(t)
	unknown := uuid.New()
	role, err := svc.RoleOf(context.Background(), unknown)
	require.NoError(t, err)
	assert.Equal(t, enums.UserRoleCustomer, role)

	adminID := uuid.New()
	require.NoError(t, conn.Create(&models.Profile{ID: adminID, Country: "Thailand", Role: enums.UserRoleAdmin}).Error)
	role, err = svc.RoleOf(context.Background(), adminID)
	require.NoError(t, err)
	assert.Equal(t, enums.UserRoleAdmin, role)
}
