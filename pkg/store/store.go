// Package store persists customers, products and orders. Every operation is a
// single independent database call; nothing here spans collections in a
// transaction.
package store

import (
	"context"
	"errors"

	"gitlab.connectwisedev.com/pos-service/models"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// ProductQuery selects a page of products. Search is a literal,
// case-insensitive substring matched against name and description.
type ProductQuery struct {
	Offset int64
	Limit  int64
	Search string
}

type CustomerStore interface {
	CreateCustomer(ctx context.Context, c *models.Customer) error
	FindCustomerByID(ctx context.Context, id string) (*models.Customer, error)
	FindCustomerByEmail(ctx context.Context, email string) (*models.Customer, error)
	FindCustomersByIDs(ctx context.Context, ids []string) ([]models.Customer, error)
	ListCustomers(ctx context.Context, offset, limit int64) ([]models.Customer, int64, error)
}

type ProductStore interface {
	CreateProduct(ctx context.Context, p *models.Product) error
	FindProductByID(ctx context.Context, id string) (*models.Product, error)
	FindProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error)
	ListProducts(ctx context.Context, q ProductQuery) ([]models.Product, int64, error)
	DeleteProduct(ctx context.Context, id string) error
}

type OrderStore interface {
	CreateOrder(ctx context.Context, o *models.Order) error
	ListOrders(ctx context.Context, offset, limit int64) ([]models.Order, int64, error)
}

// Store is a complete storage backend.
type Store interface {
	CustomerStore
	ProductStore
	OrderStore
}
