package repository

import (
	"context"

	"github.com/govind-sing/farmBridge-backend/internal/domain"
)

var (
	ErrCartNotFound = domain.NewNotFoundError("cart")
	ErrItemNotFound = domain.NewNotFoundError("product in cart")
)

// CartRepository defines the interface for cart data operations
// Consumers define this interface, not the MongoDB implementation
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	// AddItem sets the line for item.ProductID to item.Quantity, creating the
	// cart and the line when they do not exist yet.
	AddItem(ctx context.Context, userID string, item domain.CartItem) error
	UpdateItemQuantity(ctx context.Context, userID string, productID string, quantity int) error
	RemoveItem(ctx context.Context, userID string, productID string) error
	// ReplaceItems overwrites all lines; an empty slice clears the cart
	// without deleting it.
	ReplaceItems(ctx context.Context, userID string, items []domain.CartItem) error
}
