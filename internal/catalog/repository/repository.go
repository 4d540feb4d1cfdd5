package repository

import (
	"context"

	"github.com/govind-sing/farmBridge-backend/internal/domain"
)

var ErrProductNotFound = domain.NewNotFoundError("product")

// ProductRepository is the product inventory store. Quantity is the
// authoritative stock counter; every decrement is conditional on enough stock
// being present at the moment of the write.
type ProductRepository interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	// GetProducts returns the products that exist among ids, keyed by id.
	GetProducts(ctx context.Context, ids []string) (map[string]*domain.Product, error)
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	ListProductsBySeller(ctx context.Context, sellerID string) ([]*domain.Product, error)
	CreateProduct(ctx context.Context, p *domain.Product) error
	UpdateProduct(ctx context.Context, id string, upd domain.ProductUpdate) (*domain.Product, error)

	DecrementStock(ctx context.Context, productID string, quantity int) error
	// DecrementStockBatch applies every change or none of them.
	DecrementStockBatch(ctx context.Context, changes []domain.StockChange) error
	IncrementStock(ctx context.Context, productID string, quantity int) error

	Ping(ctx context.Context) error
	Close() error
}
