package cache

import (
	"context"
	"errors"

	"github.com/govind-sing/farmBridge-backend/internal/domain"
)

type CartCache interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Set(ctx context.Context, userID string, cart *domain.Cart) error
	// Version returns the user's invalidation counter. Delete bumps it.
	Version(ctx context.Context, userID string) (int64, error)
	// SetIfUnchanged stores cart only if no Delete happened since Version
	// returned version. It reports whether the cart was stored.
	SetIfUnchanged(ctx context.Context, userID string, cart *domain.Cart, version int64) (bool, error)
	Delete(ctx context.Context, userID string) error
}

var ErrCacheMiss = errors.New("cache miss")
