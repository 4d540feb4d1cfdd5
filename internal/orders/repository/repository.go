package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/govind-sing/farmBridge-backend/internal/domain"
)

var (
	ErrOrderNotFound = domain.NewNotFoundError("order")
	// ErrStatusConflict means the order exists but was not in the expected
	// status when the transition was attempted.
	ErrStatusConflict = errors.New("order status changed concurrently")
	ErrDuplicateOrder = errors.New("order already exists")
)

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	// CreateOrders inserts every order in one transaction.
	CreateOrders(ctx context.Context, orders []*domain.Order) error
	DeleteOrders(ctx context.Context, ids []uuid.UUID) error
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	// ListOrdersByBuyer returns newest first.
	ListOrdersByBuyer(ctx context.Context, buyerID string) ([]*domain.Order, error)
	// ListOrdersBySeller returns oldest first.
	ListOrdersBySeller(ctx context.Context, sellerID string) ([]*domain.Order, error)
	// UpdateStatus moves the order from one status to another and returns
	// the updated row. It fails with ErrStatusConflict when the order is not
	// in status from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus) (*domain.Order, error)
	Ping(ctx context.Context) error
	Close() error
}
