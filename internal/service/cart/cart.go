package cart

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/fathurrizqi/tokolaptop/internal/apperrors"
	"github.com/fathurrizqi/tokolaptop/internal/auth"
	"github.com/fathurrizqi/tokolaptop/internal/models"
)

// Service owns the single DRAFT order per user and keeps product stock and
// the order total consistent with the set of order items. Every mutation
// runs inside one transaction; stock arithmetic always compares against
// "stock available for this line" (current stock plus what the line already
// holds), never against global stock naively.
type Service struct {
	DB *gorm.DB
}

type ItemView struct {
	models.OrderItem
	ProductName  string `json:"product_name"`
	ProductImage string `json:"product_image"`
	Negotiated   bool   `json:"negotiated"`
}

type CartView struct {
	OrderID    uint       `json:"order_id"`
	UserID     uint       `json:"user_id"`
	UserName   string     `json:"user_name"`
	TotalPrice float64    `json:"total_price"`
	Items      []ItemView `json:"items"`
}

func (s *Service) AddItem(ctx context.Context, caller auth.Caller, productID uint, quantity int) (*models.OrderItem, float64, error) {
	if quantity < 1 {
		quantity = 1
	}

	var (
		item  models.OrderItem
		total float64
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: product %d", apperrors.ErrNotFound, productID)
			}
			return err
		}
		if product.Stock == nil {
			return fmt.Errorf("%w: product %d is not available for purchase", apperrors.ErrNotFound, productID)
		}

		price, err := resolvePrice(tx, caller.ID, &product)
		if err != nil {
			return err
		}

		order, err := openOrder(tx, caller.ID)
		if err != nil {
			return err
		}

		var existing models.OrderItem
		found := true
		if err := tx.Where("order_id = ? AND product_id = ? AND is_deleted = ?", order.ID, productID, false).
			First(&existing).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			found = false
		}

		if found {
			available := *product.Stock + existing.Quantity
			if existing.Quantity+quantity > available {
				return fmt.Errorf("%w: only %d items available", apperrors.ErrInsufficientStock, available)
			}
		} else if quantity > *product.Stock {
			return fmt.Errorf("%w: only %d items available", apperrors.ErrInsufficientStock, *product.Stock)
		}

		if err := takeStock(tx, productID, quantity); err != nil {
			return err
		}

		if found {
			// the captured price of an existing line is immutable
			existing.Quantity += quantity
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			item = existing
		} else {
			item = models.OrderItem{
				OrderID:   order.ID,
				ProductID: productID,
				Quantity:  quantity,
				Price:     price,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		}

		total, err = recomputeTotal(tx, order.ID)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return &item, total, nil
}

func (s *Service) RemoveItem(ctx context.Context, caller auth.Caller, itemID uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, order, err := loadOwnedItem(tx, caller, itemID)
		if err != nil {
			return err
		}
		return removeItem(tx, item, order)
	})
}

// UpdateQuantity sets the line to newQuantity; zero removes the line.
// Returns the updated item (nil when removed) and the new order total.
func (s *Service) UpdateQuantity(ctx context.Context, caller auth.Caller, itemID uint, newQuantity int) (*models.OrderItem, float64, error) {
	if newQuantity < 0 {
		return nil, 0, fmt.Errorf("%w: quantity must be >= 0", apperrors.ErrValidation)
	}

	var (
		item    *models.OrderItem
		total   float64
		removed bool
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var (
			order *models.Order
			err   error
		)
		item, order, err = loadOwnedItem(tx, caller, itemID)
		if err != nil {
			return err
		}

		var product models.Product
		if err := tx.First(&product, item.ProductID).Error; err != nil {
			return err
		}
		stock := 0
		if product.Stock != nil {
			stock = *product.Stock
		}

		available := stock + item.Quantity
		if newQuantity > available {
			return fmt.Errorf("%w: only %d items available", apperrors.ErrInsufficientStock, available)
		}

		if newQuantity == 0 {
			removed = true
			return removeItem(tx, item, order)
		}

		delta := newQuantity - item.Quantity
		if delta > 0 {
			if err := takeStock(tx, item.ProductID, delta); err != nil {
				return err
			}
		} else if delta < 0 {
			if err := restoreStock(tx, item.ProductID, -delta); err != nil {
				return err
			}
		}

		item.Quantity = newQuantity
		if err := tx.Save(item).Error; err != nil {
			return err
		}

		total, err = recomputeTotal(tx, order.ID)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	if removed {
		return nil, 0, nil
	}
	return item, total, nil
}

// ListCart returns the caller's open cart; admins see every user's open cart.
func (s *Service) ListCart(ctx context.Context, caller auth.Caller) ([]CartView, error) {
	db := s.DB.WithContext(ctx)

	var orders []models.Order
	q := db.Where("status = ?", models.OrderStatusDraft)
	if !caller.IsAdmin() {
		q = q.Where("user_id = ?", caller.ID)
	}
	if err := q.Order("id ASC").Find(&orders).Error; err != nil {
		return nil, err
	}

	views := make([]CartView, 0, len(orders))
	for _, order := range orders {
		view, err := cartView(db, order)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func cartView(db *gorm.DB, order models.Order) (CartView, error) {
	view := CartView{
		OrderID:    order.ID,
		UserID:     order.UserID,
		TotalPrice: order.TotalPrice,
		Items:      []ItemView{},
	}

	var user models.User
	if err := db.First(&user, order.UserID).Error; err == nil {
		view.UserName = user.Name
	}

	var items []models.OrderItem
	if err := db.Where("order_id = ? AND is_deleted = ?", order.ID, false).
		Order("id ASC").Find(&items).Error; err != nil {
		return view, err
	}

	for _, it := range items {
		iv := ItemView{OrderItem: it}

		var product models.Product
		if err := db.First(&product, it.ProductID).Error; err == nil {
			iv.ProductName = product.Name
			iv.ProductImage = product.Image
		}

		var negotiated int64
		if err := db.Model(&models.Negotiation{}).
			Where("user_id = ? AND product_id = ? AND status = ? AND offer_price = ?",
				order.UserID, it.ProductID, models.NegotiationAccepted, it.Price).
			Count(&negotiated).Error; err != nil {
			return view, err
		}
		iv.Negotiated = negotiated > 0

		view.Items = append(view.Items, iv)
	}
	return view, nil
}

// resolvePrice picks the most recent accepted negotiation for (user, product)
// or falls back to the catalog price. This is a point-in-time price lock: the
// value is captured onto the line and never revisited.
func resolvePrice(tx *gorm.DB, userID uint, product *models.Product) (float64, error) {
	var nego models.Negotiation
	err := tx.Where("user_id = ? AND product_id = ? AND status = ?", userID, product.ID, models.NegotiationAccepted).
		Order("created_at DESC").
		First(&nego).Error
	if err == nil {
		if nego.OfferPrice < 0 {
			return 0, fmt.Errorf("%w: invalid negotiated price", apperrors.ErrValidation)
		}
		return nego.OfferPrice, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	price, perr := strconv.ParseFloat(product.Price, 64)
	if perr != nil || price < 0 {
		return 0, fmt.Errorf("%w: invalid product price %q", apperrors.ErrValidation, product.Price)
	}
	return price, nil
}

func openOrder(tx *gorm.DB, userID uint) (*models.Order, error) {
	var order models.Order
	err := tx.Where("user_id = ? AND status = ?", userID, models.OrderStatusDraft).First(&order).Error
	if err == nil {
		return &order, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	order = models.Order{
		UserID:         userID,
		Status:         models.OrderStatusDraft,
		ShippingStatus: models.ShippingPacked,
		PaymentStatus:  models.PaymentPending,
	}
	if err := tx.Create(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func loadOwnedItem(tx *gorm.DB, caller auth.Caller, itemID uint) (*models.OrderItem, *models.Order, error) {
	var item models.OrderItem
	if err := tx.Where("id = ? AND is_deleted = ?", itemID, false).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: order item %d", apperrors.ErrNotFound, itemID)
		}
		return nil, nil, err
	}

	var order models.Order
	if err := tx.First(&order, item.OrderID).Error; err != nil {
		return nil, nil, err
	}
	if order.UserID != caller.ID && !caller.IsAdmin() {
		return nil, nil, fmt.Errorf("%w: order item %d", apperrors.ErrForbidden, itemID)
	}
	return &item, &order, nil
}

// removeItem deletes the line, hands its quantity back to the product and
// either recomputes the total or drops the order when it was the last line.
func removeItem(tx *gorm.DB, item *models.OrderItem, order *models.Order) error {
	if err := tx.Delete(item).Error; err != nil {
		return err
	}
	if err := restoreStock(tx, item.ProductID, item.Quantity); err != nil {
		return err
	}

	var remaining int64
	if err := tx.Model(&models.OrderItem{}).
		Where("order_id = ? AND is_deleted = ?", order.ID, false).
		Count(&remaining).Error; err != nil {
		return err
	}
	if remaining == 0 {
		return tx.Delete(&models.Order{}, order.ID).Error
	}

	_, err := recomputeTotal(tx, order.ID)
	return err
}

// takeStock is the atomic conditional decrement: zero rows affected means a
// concurrent request took the stock first, which is reported as out of stock.
func takeStock(tx *gorm.DB, productID uint, qty int) error {
	res := tx.Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: not enough stock for product %d", apperrors.ErrInsufficientStock, productID)
	}
	return nil
}

func restoreStock(tx *gorm.DB, productID uint, qty int) error {
	return tx.Model(&models.Product{}).
		Where("id = ? AND stock IS NOT NULL", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty)).Error
}

func recomputeTotal(tx *gorm.DB, orderID uint) (float64, error) {
	var total float64
	if err := tx.Model(&models.OrderItem{}).
		Where("order_id = ? AND is_deleted = ?", orderID, false).
		Select("COALESCE(SUM(price * quantity), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	if err := tx.Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("total_price", total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
