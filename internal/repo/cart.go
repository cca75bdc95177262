package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/miapp/shop/internal/models"
)

// CartByOwner returns the owner's cart document, or
// gorm.ErrRecordNotFound when none exists.
func (r *GormRepo) CartByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := r.DB.WithContext(ctx).Where("owner_id = ?", ownerID).First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// MutateCart runs the read-modify-write of one cart document inside a
// transaction. mutate receives nil when no cart exists yet and returns
// the document to write back, or nil to delete the row.
func (r *GormRepo) MutateCart(ctx context.Context, ownerID uuid.UUID, mutate func(*models.Cart) (*models.Cart, error)) (*models.Cart, error) {
	var out *models.Cart
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart models.Cart
		existing := true
		if err := tx.Where("owner_id = ?", ownerID).First(&cart).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			existing = false
		}

		var in *models.Cart
		if existing {
			in = &cart
		}
		next, err := mutate(in)
		if err != nil {
			return err
		}

		switch {
		case next == nil && !existing:
			// nothing to do
		case next == nil:
			if err := tx.Where("owner_id = ?", ownerID).Delete(&models.Cart{}).Error; err != nil {
				return err
			}
		case !existing:
			if err := tx.Create(next).Error; err != nil {
				return err
			}
		default:
			if err := tx.Save(next).Error; err != nil {
				return err
			}
		}
		out = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
