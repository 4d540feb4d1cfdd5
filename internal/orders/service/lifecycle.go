package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/govind-sing/farmBridge-backend/internal/domain"
	"github.com/govind-sing/farmBridge-backend/internal/events"
	"github.com/govind-sing/farmBridge-backend/internal/orders/repository"
)

type CompletionRecorder interface {
	ObserveCompleted()
}

// UserDirectory resolves the display names shown next to listed orders.
type UserDirectory interface {
	GetUsers(ctx context.Context, ids []string) (map[string]*domain.User, error)
}

// LifecycleService exposes orders to their buyer and seller and moves them
// from pending to completed.
type LifecycleService struct {
	repo      repository.OrderRepository
	users     UserDirectory
	publisher events.Publisher
	recorder  CompletionRecorder
	log       *slog.Logger
}

func NewLifecycleService(repo repository.OrderRepository, users UserDirectory, publisher events.Publisher, recorder CompletionRecorder, log *slog.Logger) *LifecycleService {
	return &LifecycleService{
		repo:      repo,
		users:     users,
		publisher: publisher,
		recorder:  recorder,
		log:       log.With("component", "orders"),
	}
}

// ListForBuyer returns the buyer's orders, newest first, each carrying its
// seller's name.
func (s *LifecycleService) ListForBuyer(ctx context.Context, buyerID string) ([]*domain.Order, error) {
	orders, err := s.repo.ListOrdersByBuyer(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	s.attachNames(ctx, orders,
		func(o *domain.Order) string { return o.SellerID },
		func(o *domain.Order, name string) { o.SellerName = name })
	return orders, nil
}

// ListForSeller returns the seller's orders, oldest first, each carrying its
// buyer's name.
func (s *LifecycleService) ListForSeller(ctx context.Context, sellerID string) ([]*domain.Order, error) {
	orders, err := s.repo.ListOrdersBySeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	s.attachNames(ctx, orders,
		func(o *domain.Order) string { return o.BuyerID },
		func(o *domain.Order, name string) { o.BuyerName = name })
	return orders, nil
}

// attachNames looks up every distinct counterparty once. Unknown users keep an
// empty name, and a failed lookup leaves the listing without names.
func (s *LifecycleService) attachNames(ctx context.Context, orders []*domain.Order, id func(*domain.Order) string, set func(*domain.Order, string)) {
	if s.users == nil || len(orders) == 0 {
		return
	}

	seen := make(map[string]struct{}, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		if _, ok := seen[id(o)]; !ok {
			seen[id(o)] = struct{}{}
			ids = append(ids, id(o))
		}
	}

	users, err := s.users.GetUsers(ctx, ids)
	if err != nil {
		s.log.WarnContext(ctx, "resolve order counterparties failed", "users", len(ids), "error", err)
		return
	}
	for _, o := range orders {
		if u, ok := users[id(o)]; ok {
			set(o, u.Name)
		}
	}
}

// Get returns the order if callerID is its buyer or its seller.
func (s *LifecycleService) Get(ctx context.Context, orderID, callerID string) (*domain.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != callerID && order.SellerID != callerID {
		return nil, domain.NewAuthorizationError("Not authorized to view this order")
	}
	return order, nil
}

// MarkDone completes a pending order. Only the order's seller may do this,
// and a completed order cannot be completed again.
func (s *LifecycleService) MarkDone(ctx context.Context, orderID, callerID string) (*domain.Order, error) {
	return s.complete(ctx, orderID, callerID, false)
}

// EnsureDone is MarkDone that treats an already completed order as success.
func (s *LifecycleService) EnsureDone(ctx context.Context, orderID, callerID string) (*domain.Order, error) {
	return s.complete(ctx, orderID, callerID, true)
}

func (s *LifecycleService) complete(ctx context.Context, orderID, callerID string, idempotent bool) (*domain.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.SellerID != callerID {
		return nil, domain.NewAuthorizationError("Not authorized to mark this order as done")
	}
	if order.Status == domain.OrderStatusCompleted {
		if idempotent {
			return order, nil
		}
		return nil, domain.ErrAlreadyCompleted
	}

	updated, err := s.repo.UpdateStatus(ctx, order.ID, domain.OrderStatusPending, domain.OrderStatusCompleted)
	if errors.Is(err, repository.ErrStatusConflict) {
		// Lost the race to a concurrent completion.
		if idempotent {
			return s.repo.GetOrder(ctx, order.ID)
		}
		return nil, domain.ErrAlreadyCompleted
	}
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "order completed", "order_id", updated.ID, "seller_id", callerID)
	if s.recorder != nil {
		s.recorder.ObserveCompleted()
	}
	if err := s.publisher.Publish(ctx, events.OrderCompleted, updated); err != nil {
		s.log.WarnContext(ctx, "publish order completed failed", "order_id", updated.ID, "error", err)
	}
	return updated, nil
}

// load resolves orderID; ids that are not UUIDs cannot name an order.
func (s *LifecycleService) load(ctx context.Context, orderID string) (*domain.Order, error) {
	id, err := uuid.Parse(orderID)
	if err != nil {
		return nil, repository.ErrOrderNotFound.WithID(orderID)
	}
	return s.repo.GetOrder(ctx, id)
}
