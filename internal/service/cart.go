package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/miapp/shop/internal/logging"
	"github.com/miapp/shop/internal/models"
	"github.com/miapp/shop/internal/repo"
)

// CartService owns the per-user cart document. Every mutation is a
// full-document read-modify-write; the per-owner lock serializes
// concurrent writers so no increment is lost.
type CartService struct {
	Repo   *repo.GormRepo
	Events Publisher

	mu         sync.Mutex
	ownerLocks map[uuid.UUID]*sync.Mutex
}

func (s *CartService) ownerLock(ownerID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ownerLocks == nil {
		s.ownerLocks = make(map[uuid.UUID]*sync.Mutex)
	}
	l, ok := s.ownerLocks[ownerID]
	if !ok {
		l = &sync.Mutex{}
		s.ownerLocks[ownerID] = l
	}
	return l
}

// GetCart never errors on absence: a missing cart and an empty cart are
// the same thing to callers.
func (s *CartService) GetCart(ctx context.Context, ownerID uuid.UUID) (*models.Cart, error) {
	cart, err := s.Repo.CartByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.Cart{OwnerID: ownerID, Items: models.CartLines{}}, nil
		}
		return nil, err
	}
	return cart, nil
}

// AddItem merges into an existing line for the product by incrementing
// its quantity; the line's product snapshot is kept as taken at the
// first add, even if the catalog price has changed since. A product not
// yet in the cart gets a fresh snapshot appended.
func (s *CartService) AddItem(ctx context.Context, ownerID, productID uuid.UUID, quantity uint) (*models.Cart, error) {
	l := logging.FromContext(ctx).With("svc", "cart.add")

	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1: %w", ErrValidation)
	}
	if productID == uuid.Nil {
		return nil, fmt.Errorf("product id is required: %w", ErrValidation)
	}

	product, err := s.Repo.ProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product not found: %w", ErrNotFound)
		}
		l.Error("add_item_error", "error", err)
		return nil, err
	}

	lock := s.ownerLock(ownerID)
	lock.Lock()
	defer lock.Unlock()

	cart, err := s.Repo.MutateCart(ctx, ownerID, func(cart *models.Cart) (*models.Cart, error) {
		if cart == nil {
			cart = &models.Cart{OwnerID: ownerID, Items: models.CartLines{}}
		}
		merged := false
		for i := range cart.Items {
			if cart.Items[i].Product.ID == productID {
				cart.Items[i].Quantity += quantity
				merged = true
				break
			}
		}
		if !merged {
			cart.Items = append(cart.Items, models.CartLine{
				Product:  models.SnapshotOf(product),
				Quantity: quantity,
			})
		}
		cart.UpdatedAt = time.Now().UTC()
		return cart, nil
	})
	if err != nil {
		l.Error("add_item_error", "error", err)
		return nil, err
	}

	s.publish(ctx, ownerID, map[string]any{
		"type":       "cart_item_added",
		"owner_id":   ownerID,
		"product_id": productID,
		"quantity":   quantity,
	})

	return cart, nil
}

func (s *CartService) UpdateQuantity(ctx context.Context, ownerID, productID uuid.UUID, quantity uint) (*models.Cart, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1: %w", ErrValidation)
	}

	lock := s.ownerLock(ownerID)
	lock.Lock()
	defer lock.Unlock()

	cart, err := s.Repo.MutateCart(ctx, ownerID, func(cart *models.Cart) (*models.Cart, error) {
		if cart == nil {
			return nil, fmt.Errorf("cart is empty: %w", ErrNotFound)
		}
		for i := range cart.Items {
			if cart.Items[i].Product.ID == productID {
				cart.Items[i].Quantity = quantity
				cart.UpdatedAt = time.Now().UTC()
				return cart, nil
			}
		}
		return nil, fmt.Errorf("product not in cart: %w", ErrNotFound)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, ownerID, map[string]any{
		"type":       "cart_quantity_updated",
		"owner_id":   ownerID,
		"product_id": productID,
		"quantity":   quantity,
	})

	return cart, nil
}

// RemoveItem drops the line. Removing the last line deletes the cart
// document itself, so a later GetCart sees the same empty view a user
// without any cart gets.
func (s *CartService) RemoveItem(ctx context.Context, ownerID, productID uuid.UUID) error {
	lock := s.ownerLock(ownerID)
	lock.Lock()
	defer lock.Unlock()

	_, err := s.Repo.MutateCart(ctx, ownerID, func(cart *models.Cart) (*models.Cart, error) {
		if cart == nil {
			return nil, fmt.Errorf("cart is empty: %w", ErrNotFound)
		}
		for i := range cart.Items {
			if cart.Items[i].Product.ID == productID {
				cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
				if len(cart.Items) == 0 {
					return nil, nil
				}
				cart.UpdatedAt = time.Now().UTC()
				return cart, nil
			}
		}
		return nil, fmt.Errorf("product not in cart: %w", ErrNotFound)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, ownerID, map[string]any{
		"type":       "cart_item_removed",
		"owner_id":   ownerID,
		"product_id": productID,
	})

	return nil
}

func (s *CartService) publish(ctx context.Context, ownerID uuid.UUID, event map[string]any) {
	if s.Events == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Events.PublishEvent(pubCtx, "cart_events", ownerID.String(), event); err != nil {
		logging.FromContext(ctx).Error("event_publish_error", "topic", "cart_events", "error", err)
	}
}

// Derived read-only computations over an in-memory cart value.

func TotalItems(cart *models.Cart) uint {
	var total uint
	for _, line := range cart.Items {
		total += line.Quantity
	}
	return total
}

// TotalPrice sums snapshot prices, not live catalog prices.
func TotalPrice(cart *models.Cart) float64 {
	var total float64
	for _, line := range cart.Items {
		total += line.Product.Price * float64(line.Quantity)
	}
	return total
}

func Contains(cart *models.Cart, productID uuid.UUID) bool {
	return QuantityOf(cart, productID) > 0
}

func QuantityOf(cart *models.Cart, productID uuid.UUID) uint {
	for _, line := range cart.Items {
		if line.Product.ID == productID {
			return line.Quantity
		}
	}
	return 0
}
