package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/govind-sing/farmBridge-backend/internal/cart/cache"
	"github.com/govind-sing/farmBridge-backend/internal/cart/repository"
	"github.com/govind-sing/farmBridge-backend/internal/domain"
	"github.com/govind-sing/farmBridge-backend/internal/keylock"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// ProductReader is the slice of the catalog the cart needs for stock checks
// and for rendering lines.
type ProductReader interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetProducts(ctx context.Context, ids []string) (map[string]*domain.Product, error)
}

type CartService struct {
	repo     repository.CartRepository
	cache    cache.CartCache
	products ProductReader
	locks    *keylock.Locker
	log      *slog.Logger
	sfg      singleflight.Group // Prevents cache stampede
}

func NewCartService(repo repository.CartRepository, cache cache.CartCache, products ProductReader, locks *keylock.Locker, log *slog.Logger) *CartService {
	return &CartService{
		repo:     repo,
		cache:    cache,
		products: products,
		locks:    locks,
		log:      log.With("component", "cart"),
	}
}

func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.WarnContext(ctx, "cache get failed", "user_id", userID, "error", err)
		}

		// Read the version before the repo so a fill can never overwrite a
		// later invalidation.
		version, verr := s.cache.Version(ctx, userID)

		cart, err = s.repo.GetCart(ctx, userID)
		if errors.Is(err, repository.ErrCartNotFound) {
			now := time.Now().UTC()
			return &domain.Cart{UserID: userID, Items: []domain.CartItem{}, CreatedAt: now, UpdatedAt: now}, nil
		}
		if err != nil {
			return nil, err
		}
		if verr != nil {
			s.log.WarnContext(ctx, "cache version failed", "user_id", userID, "error", verr)
			return cart, nil
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			stored, err := s.cache.SetIfUnchanged(ctx, userID, cart, version)
			if err != nil {
				s.log.Warn("cache set failed", "user_id", userID, "error", err)
				return
			}
			if !stored {
				s.log.Debug("stale cache fill dropped", "user_id", userID)
			}
		}()

		return cart, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// View returns the cart with every line's product resolved. Lines whose
// product has since been removed from the catalog are left out.
func (s *CartService) View(ctx context.Context, userID string) (*domain.CartView, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &domain.CartView{UserID: userID, Lines: []domain.CartLine{}, Total: decimal.Zero}
	if cart.IsEmpty() {
		return view, nil
	}

	ids := make([]string, 0, len(cart.Items))
	for _, it := range cart.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.products.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, it := range cart.Items {
		p, ok := products[it.ProductID]
		if !ok {
			continue
		}
		subtotal := p.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		view.Lines = append(view.Lines, domain.CartLine{Product: p, Quantity: it.Quantity, Subtotal: subtotal})
		view.Total = view.Total.Add(subtotal)
	}
	return view, nil
}

// AddItem adds quantity to the buyer's line for productID, creating the cart
// and line as needed. The resulting line may not exceed the product's stock.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int) error {
	if err := validateQuantity(productID, quantity); err != nil {
		return err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return err
	}

	cart, err := s.repo.GetCart(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		return err
	}
	existing, _ := cart.Item(productID)
	total := existing.Quantity + quantity
	if total > product.Quantity {
		return &domain.StockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Available:   product.Quantity,
			Requested:   total,
		}
	}

	if err := s.repo.AddItem(ctx, userID, domain.CartItem{ProductID: productID, Quantity: total}); err != nil {
		s.log.ErrorContext(ctx, "repo add item failed", "user_id", userID, "product_id", productID, "error", err)
		return err
	}

	s.invalidateCache(userID)
	return nil
}

// UpdateQuantity sets an existing line to quantity.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID string, quantity int) error {
	if err := validateQuantity(productID, quantity); err != nil {
		return err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return err
	}

	cart, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		return err
	}
	if _, ok := cart.Item(productID); !ok {
		return repository.ErrItemNotFound.WithID(productID)
	}
	if quantity > product.Quantity {
		return &domain.StockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Available:   product.Quantity,
			Requested:   quantity,
		}
	}

	if err := s.repo.UpdateItemQuantity(ctx, userID, productID, quantity); err != nil {
		s.log.ErrorContext(ctx, "repo update item quantity failed", "user_id", userID, "product_id", productID, "error", err)
		return err
	}

	s.invalidateCache(userID)
	return nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	if err := s.repo.RemoveItem(ctx, userID, productID); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.ErrorContext(ctx, "repo remove item failed", "user_id", userID, "product_id", productID, "error", err)
		}
		return err
	}

	s.invalidateCache(userID)
	return nil
}

func validateQuantity(productID string, quantity int) error {
	if productID == "" {
		return domain.NewValidationError("Product ID and quantity are required")
	}
	if quantity <= 0 {
		return domain.NewValidationError("Quantity must be greater than 0")
	}
	return nil
}

func (s *CartService) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.log.Warn("cache invalidate failed", "user_id", userID, "error", err)
	}
}
