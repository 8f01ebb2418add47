package order

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fathurrizqi/tokolaptop/internal/apperrors"
	"github.com/fathurrizqi/tokolaptop/internal/auth"
	"github.com/fathurrizqi/tokolaptop/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
	))
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, userID uint, shipping string) models.Order {
	t.Helper()
	order := models.Order{
		UserID:         userID,
		Status:         models.OrderStatusPlaced,
		ShippingStatus: shipping,
		PaymentStatus:  models.PaymentCompleted,
		TotalPrice:     1500000,
	}
	require.NoError(t, db.Create(&order).Error)
	return order
}

var (
	ownerCaller = auth.Caller{ID: 1, Role: models.RoleUser}
	otherCaller = auth.Caller{ID: 2, Role: models.RoleUser}
	adminCaller = auth.Caller{ID: 9, Role: models.RoleAdmin}
)

func TestAdminShipsPackedOrder(t *testing.T) {
	db := newTestDB(t)
	svc := &Service{DB: db}
	order := seedOrder(t, db, ownerCaller.ID, models.ShippingPacked)

	updated, err := svc.UpdateShipping(context.Background(), adminCaller, order.ID, models.ShippingShipped, "JNE-12345")
	require.NoError(t, err)
	require.Equal(t, models.ShippingShipped, updated.ShippingStatus)
	require.NotNil(t, updated.TrackingNumber)
	require.Equal(t, "JNE-12345", *updated.TrackingNumber)
}

func TestAdminShipRequiresTrackingNumber(t *testing.T) {
	db := newTestDB(t)
	svc := &Service{DB: db}
	order := seedOrder(t, db, ownerCaller.ID, models.ShippingPacked)

	_, err := svc.UpdateShipping(context.Background(), adminCaller, order.ID, models.ShippingShipped, "   ")
	require.ErrorIs(t, err, apperrors.ErrValidation)

	var unchanged models.Order
	require.NoError(t, db.First(&unchanged, order.ID).Error)
	require.Equal(t, models.ShippingPacked, unchanged.ShippingStatus)
	require.Nil(t, unchanged.TrackingNumber)
}

func TestAdminTransitionLegality(t *testing.T) {
	db := newTestDB(t)
	svc := &Service{DB: db}

	// admin may only move DIKEMAS -> DIKIRIM
	packed := seedOrder(t, db, ownerCaller.ID, models.ShippingPacked)
	_, err := svc.UpdateShipping(context.Background(), adminCaller, packed.ID, models.ShippingCompleted, "JNE-1")
	require.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	shipped := seedOrder(t, db, ownerCaller.ID, models.ShippingShipped)
	_, err = svc.UpdateShipping(context.Background(), adminCaller, shipped.ID, models.ShippingShipped, "JNE-2")
	require.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	done := seedOrder(t, db, ownerCaller.ID, models.ShippingCompleted)
	_, err = svc.UpdateShipping(context.Background(), adminCaller, done.ID, models.ShippingShipped, "JNE-3")
	require.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestUserCompletesShippedOrder(t *testing.T) {
	db := newTestDB(t)
	svc := &Service{DB: db}
	order := seedOrder(t, db, ownerCaller.ID, models.ShippingShipped)

	updated, err := svc.UpdateShipping(context.Background(), ownerCaller, order.ID, models.ShippingCompleted, "")
	require.NoError(t, err)
	require.Equal(t, models.ShippingCompleted, updated.ShippingStatus)
}

func TestUserTransitionLegality(t *testing.T) {
	db := newTestDB(t)
	svc := &Service{DB: db}

	// user may only move DIKIRIM -> SELESAI, on their own order
	packed := seedOrder(t, db, ownerCaller.ID, models.ShippingPacked)
	_, err := svc.UpdateShipping(context.Background(), ownerCaller, packed.ID, models.ShippingCompleted, "")
	require.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	shipped := seedOrder(t, db, ownerCaller.ID, models.ShippingShipped)
	_, err = svc.UpdateShipping(context.Background(), ownerCaller, shipped.ID, models.ShippingShipped, "JNE-1")
	require.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	_, err = svc.UpdateShipping(context.Background(), otherCaller, shipped.ID, models.ShippingCompleted, "")
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = svc.UpdateShipping(context.Background(), ownerCaller, 999, models.ShippingCompleted, "")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListScopingAndHistory(t *testing.T) {
	db := newTestDB(t)
	svc := &Service{DB: db}

	owner := models.User{Name: "budi", Email: "budi@example.com", PasswordHash: "x", Role: models.RoleUser, Address: "Jl. Sudirman 1"}
	require.NoError(t, db.Create(&owner).Error)

	stock := 3
	product := models.Product{Name: "Thinkpad X1", Price: "1500000", Stock: &stock, Category: models.CategoryLaptop}
	require.NoError(t, db.Create(&product).Error)

	order := seedOrder(t, db, owner.ID, models.ShippingPacked)
	// paid lines are logically deleted but must stay visible as history
	line := models.OrderItem{OrderID: order.ID, ProductID: product.ID, Quantity: 2, Price: 1500000, IsDeleted: true}
	require.NoError(t, db.Create(&line).Error)

	seedOrder(t, db, otherCaller.ID, models.ShippingPacked)

	own, err := svc.List(context.Background(), auth.Caller{ID: owner.ID, Role: owner.Role})
	require.NoError(t, err)
	require.Len(t, own, 1)
	require.Equal(t, "budi", own[0].CustomerName)
	require.Equal(t, "Jl. Sudirman 1", own[0].Address)
	require.Len(t, own[0].Items, 1)
	require.True(t, own[0].Items[0].IsDeleted)
	require.Equal(t, "Thinkpad X1", own[0].Items[0].ProductName)

	all, err := svc.List(context.Background(), adminCaller)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestGetOwnership(t *testing.T) {
	db := newTestDB(t)
	svc := &Service{DB: db}
	order := seedOrder(t, db, ownerCaller.ID, models.ShippingPacked)

	_, err := svc.Get(context.Background(), otherCaller, order.ID)
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	got, err := svc.Get(context.Background(), adminCaller, order.ID)
	require.NoError(t, err)
	require.Equal(t, order.ID, got.ID)

	_, err = svc.Get(context.Background(), ownerCaller, 999)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}
