package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID `gorm:"primaryKey"           json:"id"`
	Name         string    `gorm:"not null"             json:"name"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null"             json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (User) TableName() string { return "users" }

type Product struct {
	ID          uuid.UUID `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null"   json:"name"`
	Price       float64   `gorm:"not null"   json:"price"`
	Image       string    `json:"image"`
	Description string    `json:"description"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (Product) TableName() string { return "products" }

// ProductSnapshot is the copy of a product frozen into a cart line at
// add time. It is never refreshed from the catalog afterwards, so a
// cart may show a price that has since changed.
type ProductSnapshot struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	Image       string    `json:"image"`
	Description string    `json:"description"`
}

func SnapshotOf(p *Product) ProductSnapshot {
	return ProductSnapshot{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Image:       p.Image,
		Description: p.Description,
	}
}

type CartLine struct {
	Product  ProductSnapshot `json:"product"`
	Quantity uint            `json:"quantity"`
}

// CartLines is stored as one JSON document column, so a cart mutation
// is a full-document read-modify-write keyed by owner.
type CartLines []CartLine

func (l CartLines) Value() (driver.Value, error) {
	if l == nil {
		l = CartLines{}
	}
	return json.Marshal(l)
}

func (l *CartLines) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	case nil:
		*l = CartLines{}
		return nil
	default:
		return errors.New("cart lines: unsupported column type")
	}
}

type Cart struct {
	ID        uuid.UUID `gorm:"primaryKey"           json:"-"`
	OwnerID   uuid.UUID `gorm:"uniqueIndex;not null" json:"owner_id"`
	Items     CartLines `gorm:"type:text;not null"   json:"items"`
	UpdatedAt time.Time `json:"last_updated"`
}

func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (Cart) TableName() string { return "carts" }
