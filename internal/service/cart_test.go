package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/miapp/shop/internal/models"
	"github.com/miapp/shop/internal/repo"
)

func newCartService(t *testing.T) (*CartService, *repo.GormRepo) {
	t.Helper()
	r := newTestRepo(t)
	return &CartService{Repo: r, Events: NopPublisher{}}, r
}

func TestGetCartAbsentIsEmpty(t *testing.T) {
	svc, _ := newCartService(t)

	cart, err := svc.GetCart(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Empty(t, cart.Items)
}

func TestAddItemMergesByIncrement(t *testing.T) {
	svc, r := newCartService(t)
	ctx := context.Background()
	owner := uuid.New()
	product := seedProduct(t, r, "teclado", 25)

	_, err := svc.AddItem(ctx, owner, product.ID, 2)
	require.NoError(t, err)

	cart, err := svc.AddItem(ctx, owner, product.ID, 3)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	require.Equal(t, uint(5), cart.Items[0].Quantity)
}

func TestAddItemValidation(t *testing.T) {
	svc, r := newCartService(t)
	ctx := context.Background()
	owner := uuid.New()
	product := seedProduct(t, r, "mouse", 10)

	_, err := svc.AddItem(ctx, owner, product.ID, 0)
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.AddItem(ctx, owner, uuid.Nil, 1)
	require.ErrorIs(t, err, ErrValidation)
}

func TestAddItemUnknownProduct(t *testing.T) {
	svc, _ := newCartService(t)

	_, err := svc.AddItem(context.Background(), uuid.New(), uuid.New(), 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSnapshotFrozenAtAddTime(t *testing.T) {
	svc, r := newCartService(t)
	ctx := context.Background()
	owner := uuid.New()
	product := seedProduct(t, r, "monitor", 100)

	_, err := svc.AddItem(ctx, owner, product.ID, 1)
	require.NoError(t, err)

	// Catalog price changes after the add.
	require.NoError(t, r.DB.Model(product).Update("price", 150).Error)

	cart, err := svc.AddItem(ctx, owner, product.ID, 1)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	require.Equal(t, float64(100), cart.Items[0].Product.Price)
	require.Equal(t, float64(200), TotalPrice(cart))
}

func TestUpdateQuantity(t *testing.T) {
	svc, r := newCartService(t)
	ctx := context.Background()
	owner := uuid.New()
	product := seedProduct(t, r, "cable", 5)

	_, err := svc.AddItem(ctx, owner, product.ID, 2)
	require.NoError(t, err)

	cart, err := svc.UpdateQuantity(ctx, owner, product.ID, 7)
	require.NoError(t, err)
	require.Equal(t, uint(7), QuantityOf(cart, product.ID))
}

func TestUpdateQuantityZeroRejectedUnchanged(t *testing.T) {
	svc, r := newCartService(t)
	ctx := context.Background()
	owner := uuid.New()
	product := seedProduct(t, r, "cable", 5)

	_, err := svc.AddItem(ctx, owner, product.ID, 2)
	require.NoError(t, err)

	_, err = svc.UpdateQuantity(ctx, owner, product.ID, 0)
	require.ErrorIs(t, err, ErrValidation)

	cart, err := svc.GetCart(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, uint(2), QuantityOf(cart, product.ID))
}

func TestUpdateQuantityNotInCart(t *testing.T) {
	svc, r := newCartService(t)
	ctx := context.Background()
	owner := uuid.New()
	product := seedProduct(t, r, "cable", 5)

	// no cart at all
	_, err := svc.UpdateQuantity(ctx, owner, product.ID, 1)
	require.ErrorIs(t, err, ErrNotFound)

	// cart exists, different product
	_, err = svc.AddItem(ctx, owner, product.ID, 1)
	require.NoError(t, err)
	_, err = svc.UpdateQuantity(ctx, owner, uuid.New(), 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveLastItemDeletesCartDocument(t *testing.T) {
	svc, r := newCartService(t)
	ctx := context.Background()
	owner := uuid.New()
	product := seedProduct(t, r, "silla", 60)

	_, err := svc.AddItem(ctx, owner, product.ID, 1)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveItem(ctx, owner, product.ID))

	// The row itself is gone, not left as an empty shell.
	_, err = r.CartByOwner(ctx, owner)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// Callers see the same empty view as a cart that never existed.
	cart, err := svc.GetCart(ctx, owner)
	require.NoError(t, err)
	require.Empty(t, cart.Items)
}

func TestRemoveItemKeepsOtherLines(t *testing.T) {
	svc, r := newCartService(t)
	ctx := context.Background()
	owner := uuid.New()
	first := seedProduct(t, r, "uno", 10)
	second := seedProduct(t, r, "dos", 20)

	_, err := svc.AddItem(ctx, owner, first.ID, 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, owner, second.ID, 1)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveItem(ctx, owner, first.ID))

	cart, err := svc.GetCart(ctx, owner)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	require.True(t, Contains(cart, second.ID))
	require.False(t, Contains(cart, first.ID))
}

func TestRemoveItemNotInCart(t *testing.T) {
	svc, _ := newCartService(t)

	err := svc.RemoveItem(context.Background(), uuid.New(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

// Two adds fired concurrently against a fresh cart must both land: the
// per-owner lock serializes the read-modify-write, so no increment is
// lost to the full-document overwrite.
func TestConcurrentAddsLoseNoUpdate(t *testing.T) {
	svc, r := newCartService(t)
	ctx := context.Background()
	owner := uuid.New()
	product := seedProduct(t, r, "libro", 15)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.AddItem(ctx, owner, product.ID, 1)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	cart, err := svc.GetCart(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, uint(2), QuantityOf(cart, product.ID))
}

func TestDerivedComputations(t *testing.T) {
	cart := &models.Cart{
		Items: models.CartLines{
			{Product: models.ProductSnapshot{ID: uuid.New(), Price: 10}, Quantity: 2},
			{Product: models.ProductSnapshot{ID: uuid.New(), Price: 5}, Quantity: 1},
		},
	}

	require.Equal(t, uint(3), TotalItems(cart))
	require.Equal(t, float64(25), TotalPrice(cart))
	require.True(t, Contains(cart, cart.Items[0].Product.ID))
	require.Equal(t, uint(2), QuantityOf(cart, cart.Items[0].Product.ID))
	require.False(t, Contains(cart, uuid.New()))
	require.Equal(t, uint(0), QuantityOf(cart, uuid.New()))
}
