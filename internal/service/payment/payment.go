package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"gorm.io/gorm"

	"github.com/fathurrizqi/tokolaptop/internal/apperrors"
	"github.com/fathurrizqi/tokolaptop/internal/auth"
	"github.com/fathurrizqi/tokolaptop/internal/models"
	gateway "github.com/fathurrizqi/tokolaptop/internal/payment"
)

// Service is the bridge to the hosted checkout: it turns an order into a
// payment-session request and reconciles the success callback back into
// order state. An upstream failure leaves the order untouched.
type Service struct {
	DB          *gorm.DB
	Snap        gateway.SessionCreator
	CallbackURL string
}

type Session struct {
	Token       string `json:"token"`
	OrderRef    string `json:"order_ref"`
	GrossAmount int64  `json:"gross_amount"`
	Status      string `json:"payment_status"`
	Customer    string `json:"customer_name"`
}

func (s *Service) CreateSession(ctx context.Context, caller auth.Caller, orderID uint) (*Session, error) {
	db := s.DB.WithContext(ctx)

	var order models.Order
	if err := db.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", apperrors.ErrNotFound, orderID)
		}
		return nil, err
	}
	if order.UserID != caller.ID {
		return nil, fmt.Errorf("%w: order %d", apperrors.ErrForbidden, orderID)
	}

	var items []models.OrderItem
	if err := db.Where("order_id = ? AND is_deleted = ?", orderID, false).
		Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: order %d has no items to pay", apperrors.ErrValidation, orderID)
	}

	var user models.User
	if err := db.First(&user, order.UserID).Error; err != nil {
		return nil, err
	}

	var (
		gross   int64
		details []midtrans.ItemDetails
	)
	for _, it := range items {
		price := int64(math.Round(it.Price))
		gross += price * int64(it.Quantity)

		name := fmt.Sprintf("product %d", it.ProductID)
		var product models.Product
		if err := db.First(&product, it.ProductID).Error; err == nil {
			name = product.Name
		}
		details = append(details, midtrans.ItemDetails{
			ID:    fmt.Sprint(it.ProductID),
			Name:  name,
			Price: price,
			Qty:   int32(it.Quantity),
		})
	}

	ref := fmt.Sprintf("order-%d-%d", order.ID, time.Now().UnixMilli())
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  ref,
			GrossAmt: gross,
		},
		Items: &details,
		CustomerDetail: &midtrans.CustomerDetails{
			FName: user.Name,
			Email: user.Email,
			Phone: user.PhoneNumber,
			ShipAddr: &midtrans.CustomerAddress{
				FName:   user.Name,
				Phone:   user.PhoneNumber,
				Address: user.Address,
			},
		},
	}
	if s.CallbackURL != "" {
		req.Callbacks = &snap.Callbacks{Finish: s.CallbackURL}
	}

	token, err := s.Snap.CreateSession(req)
	if err != nil {
		return nil, fmt.Errorf("%w: create payment session: %v", apperrors.ErrUpstream, err)
	}

	return &Session{
		Token:       token,
		OrderRef:    ref,
		GrossAmount: gross,
		Status:      order.PaymentStatus,
		Customer:    user.Name,
	}, nil
}

// Confirm marks the order as paid and logically deletes its lines so they
// disappear from cart views while staying in order history.
func (s *Service) Confirm(ctx context.Context, caller auth.Caller, orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %d", apperrors.ErrNotFound, orderID)
			}
			return err
		}
		if order.UserID != caller.ID && !caller.IsAdmin() {
			return fmt.Errorf("%w: order %d", apperrors.ErrForbidden, orderID)
		}

		order.PaymentStatus = models.PaymentCompleted
		order.Status = models.OrderStatusPlaced
		if err := tx.Save(&order).Error; err != nil {
			return err
		}

		return tx.Model(&models.OrderItem{}).
			Where("order_id = ?", orderID).
			Update("is_deleted", true).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}
