package nego

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/fathurrizqi/tokolaptop/internal/apperrors"
	"github.com/fathurrizqi/tokolaptop/internal/auth"
	"github.com/fathurrizqi/tokolaptop/internal/models"
)

// Service is the negotiation ledger. A user files PENDING offers; only an
// admin moves one to ACCEPTED or REJECTED, and both are terminal.
type Service struct {
	DB *gorm.DB
}

func (s *Service) Create(ctx context.Context, caller auth.Caller, productID uint, offerPrice float64) (*models.Negotiation, error) {
	if offerPrice <= 0 {
		return nil, fmt.Errorf("%w: offer price must be positive", apperrors.ErrValidation)
	}

	var product models.Product
	if err := s.DB.WithContext(ctx).First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", apperrors.ErrNotFound, productID)
		}
		return nil, err
	}

	negotiation := models.Negotiation{
		ProductID:  productID,
		UserID:     caller.ID,
		OfferPrice: offerPrice,
		Status:     models.NegotiationPending,
	}
	if err := s.DB.WithContext(ctx).Create(&negotiation).Error; err != nil {
		return nil, err
	}
	return &negotiation, nil
}

// List returns the caller's own offers, newest first; with productID set it
// narrows to one product. Admins without a product filter see every offer.
func (s *Service) List(ctx context.Context, caller auth.Caller, productID uint) ([]models.Negotiation, error) {
	q := s.DB.WithContext(ctx).Model(&models.Negotiation{}).Order("created_at DESC")

	switch {
	case productID != 0:
		q = q.Where("user_id = ? AND product_id = ?", caller.ID, productID)
	case caller.IsAdmin():
		// all offers
	default:
		q = q.Where("user_id = ?", caller.ID)
	}

	var negotiations []models.Negotiation
	if err := q.Find(&negotiations).Error; err != nil {
		return nil, err
	}
	return negotiations, nil
}

func (s *Service) Get(ctx context.Context, caller auth.Caller, id uint) (*models.Negotiation, error) {
	var negotiation models.Negotiation
	if err := s.DB.WithContext(ctx).First(&negotiation, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: negotiation %d", apperrors.ErrNotFound, id)
		}
		return nil, err
	}
	if negotiation.UserID != caller.ID && !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: negotiation %d", apperrors.ErrForbidden, id)
	}
	return &negotiation, nil
}

// Decide moves a PENDING offer to ACCEPTED or REJECTED. Already-decided
// offers stay as they are; the captured price of any existing order line is
// never touched here.
func (s *Service) Decide(ctx context.Context, caller auth.Caller, id uint, status string) (*models.Negotiation, error) {
	if !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: admin role required", apperrors.ErrForbidden)
	}
	if status != models.NegotiationAccepted && status != models.NegotiationRejected {
		return nil, fmt.Errorf("%w: status must be ACCEPTED or REJECTED", apperrors.ErrValidation)
	}

	var negotiation models.Negotiation
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&negotiation, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: negotiation %d", apperrors.ErrNotFound, id)
			}
			return err
		}
		if negotiation.Status != models.NegotiationPending {
			return fmt.Errorf("%w: negotiation %d is already %s", apperrors.ErrInvalidTransition, id, negotiation.Status)
		}

		negotiation.Status = status
		return tx.Save(&negotiation).Error
	})
	if err != nil {
		return nil, err
	}
	return &negotiation, nil
}
