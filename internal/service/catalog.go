package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/miapp/shop/internal/models"
	"github.com/miapp/shop/internal/repo"
)

// CatalogService is a read-only accessor; the catalog itself is owned
// by an external management process.
type CatalogService struct {
	Repo *repo.GormRepo
}

func (s *CatalogService) Product(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.Repo.ProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product not found: %w", ErrNotFound)
		}
		return nil, err
	}
	return product, nil
}

func (s *CatalogService) Products(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.Products(ctx, offset, limit)
}
