package service

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/miapp/shop/internal/models"
	"github.com/miapp/shop/internal/repo"
)

var testJWTSecret = []byte("test-secret")

func newTestRepo(t *testing.T) *repo.GormRepo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection, so every session sees the same in-memory database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Product{}, &models.Cart{}))

	return &repo.GormRepo{DB: db}
}

func seedProduct(t *testing.T, r *repo.GormRepo, name string, price float64) *models.Product {
	t.Helper()

	product := &models.Product{
		Name:        name,
		Price:       price,
		Image:       "/uploads/" + name + ".jpg",
		Description: "test product",
	}
	require.NoError(t, r.DB.Create(product).Error)
	return product
}
