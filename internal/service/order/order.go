package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/fathurrizqi/tokolaptop/internal/apperrors"
	"github.com/fathurrizqi/tokolaptop/internal/auth"
	"github.com/fathurrizqi/tokolaptop/internal/models"
)

// Service covers order history and the shipping state machine
// DIKEMAS -> DIKIRIM (admin, tracking number required)
// DIKIRIM -> SELESAI (owning user only).
type Service struct {
	DB *gorm.DB
}

type ItemView struct {
	models.OrderItem
	ProductName  string `json:"product_name"`
	ProductImage string `json:"product_image"`
}

type OrderView struct {
	models.Order
	CustomerName string     `json:"customer_name"`
	Address      string     `json:"address"`
	Items        []ItemView `json:"items"`
}

// List returns the caller's orders newest first, admins see everyone's.
// Logically deleted lines stay visible here: they are the order history.
func (s *Service) List(ctx context.Context, caller auth.Caller) ([]OrderView, error) {
	db := s.DB.WithContext(ctx)

	var orders []models.Order
	q := db.Order("created_at DESC")
	if !caller.IsAdmin() {
		q = q.Where("user_id = ?", caller.ID)
	}
	if err := q.Find(&orders).Error; err != nil {
		return nil, err
	}

	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		view := OrderView{Order: o, Items: []ItemView{}}

		var user models.User
		if err := db.First(&user, o.UserID).Error; err == nil {
			view.CustomerName = user.Name
			view.Address = user.Address
		}

		var items []models.OrderItem
		if err := db.Where("order_id = ?", o.ID).Order("id ASC").Find(&items).Error; err != nil {
			return nil, err
		}
		for _, it := range items {
			iv := ItemView{OrderItem: it}
			var product models.Product
			if err := db.First(&product, it.ProductID).Error; err == nil {
				iv.ProductName = product.Name
				iv.ProductImage = product.Image
			}
			view.Items = append(view.Items, iv)
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *Service) Get(ctx context.Context, caller auth.Caller, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := s.DB.WithContext(ctx).First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", apperrors.ErrNotFound, orderID)
		}
		return nil, err
	}
	if order.UserID != caller.ID && !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: order %d", apperrors.ErrForbidden, orderID)
	}
	return &order, nil
}

// UpdateShipping applies one transition of the shipping state machine.
// Everything outside the two legal edges fails before any write.
func (s *Service) UpdateShipping(ctx context.Context, caller auth.Caller, orderID uint, status, trackingNumber string) (*models.Order, error) {
	var order models.Order
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %d", apperrors.ErrNotFound, orderID)
			}
			return err
		}

		if caller.IsAdmin() {
			if status != models.ShippingShipped {
				return fmt.Errorf("%w: admin may only mark orders as %s", apperrors.ErrInvalidTransition, models.ShippingShipped)
			}
			if order.ShippingStatus != models.ShippingPacked {
				return fmt.Errorf("%w: order must be %s before it can be shipped", apperrors.ErrInvalidTransition, models.ShippingPacked)
			}
			if strings.TrimSpace(trackingNumber) == "" {
				return fmt.Errorf("%w: tracking number is required", apperrors.ErrValidation)
			}
			order.ShippingStatus = models.ShippingShipped
			order.TrackingNumber = &trackingNumber
			return tx.Save(&order).Error
		}

		if order.UserID != caller.ID {
			return fmt.Errorf("%w: order %d", apperrors.ErrForbidden, orderID)
		}
		if status != models.ShippingCompleted {
			return fmt.Errorf("%w: users may only mark orders as %s", apperrors.ErrInvalidTransition, models.ShippingCompleted)
		}
		if order.ShippingStatus != models.ShippingShipped {
			return fmt.Errorf("%w: order must be %s before it can be completed", apperrors.ErrInvalidTransition, models.ShippingShipped)
		}
		order.ShippingStatus = models.ShippingCompleted
		return tx.Save(&order).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}
