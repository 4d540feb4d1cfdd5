// Package checkout converts a buyer's cart into one pending order per seller
// and commits the matching stock decrements.
package checkout

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/govind-sing/farmBridge-backend/internal/config"
	"github.com/govind-sing/farmBridge-backend/internal/domain"
	"github.com/govind-sing/farmBridge-backend/internal/events"
	"github.com/govind-sing/farmBridge-backend/internal/keylock"
	"github.com/shopspring/decimal"
)

const (
	compensationTimeout = 10 * time.Second
	publishTimeout      = 5 * time.Second
)

type CartStore interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	ReplaceItems(ctx context.Context, userID string, items []domain.CartItem) error
}

type CartCache interface {
	Delete(ctx context.Context, userID string) error
}

type UserStore interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

// ProductStore is the inventory. DecrementStock must only succeed when the
// product still holds at least quantity units.
type ProductStore interface {
	GetProducts(ctx context.Context, ids []string) (map[string]*domain.Product, error)
	DecrementStock(ctx context.Context, productID string, quantity int) error
	IncrementStock(ctx context.Context, productID string, quantity int) error
}

// batchDecrementer is implemented by stores that can apply a set of
// decrements atomically.
type batchDecrementer interface {
	DecrementStockBatch(ctx context.Context, changes []domain.StockChange) error
}

type OrderStore interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	DeleteOrders(ctx context.Context, ids []uuid.UUID) error
}

type batchOrderCreator interface {
	CreateOrders(ctx context.Context, orders []*domain.Order) error
}

type Recorder interface {
	ObserveCheckout(outcome string, ordersCreated int)
}

type Dependencies struct {
	Carts     CartStore
	CartCache CartCache
	Users     UserStore
	Products  ProductStore
	Orders    OrderStore
	Results   ResultStore
	Publisher events.Publisher
	Recorder  Recorder
	Locks     *keylock.Locker
	Logger    *slog.Logger
}

type Service struct {
	carts     CartStore
	cartCache CartCache
	users     UserStore
	products  ProductStore
	orders    OrderStore
	results   ResultStore
	publisher events.Publisher
	recorder  Recorder
	locks     *keylock.Locker
	log       *slog.Logger
	policy    config.MissingProductPolicy

	publishing sync.WaitGroup
}

func NewService(deps Dependencies, policy config.MissingProductPolicy) *Service {
	s := &Service{
		carts:     deps.Carts,
		cartCache: deps.CartCache,
		users:     deps.Users,
		products:  deps.Products,
		orders:    deps.Orders,
		results:   deps.Results,
		publisher: deps.Publisher,
		recorder:  deps.Recorder,
		locks:     deps.Locks,
		log:       deps.Logger.With("component", "checkout"),
		policy:    policy,
	}
	if s.publisher == nil {
		s.publisher = events.NopPublisher{}
	}
	if s.locks == nil {
		s.locks = keylock.New()
	}
	if s.policy == "" {
		s.policy = config.MissingProductSkip
	}
	return s
}

type Request struct {
	BuyerID        string
	PaymentMethod  string
	IdempotencyKey string
}

type Result struct {
	Orders      []*domain.Order   `json:"orders"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	Transfers   []domain.Transfer `json:"transfers"`
}

// line is a cart item with the product it resolved to.
type line struct {
	product  *domain.Product
	quantity int
}

func (s *Service) Checkout(ctx context.Context, req Request) (*Result, error) {
	paymentMethod := strings.TrimSpace(req.PaymentMethod)
	if paymentMethod == "" {
		return nil, domain.NewValidationError("Payment method is required")
	}

	res, replayed, err := s.checkoutLocked(ctx, req, paymentMethod)
	if err != nil {
		return nil, err
	}
	if !replayed {
		s.publishPlaced(ctx, res.Orders)
	}
	return res, nil
}

// checkoutLocked runs the checkout while holding the buyer's lock.
func (s *Service) checkoutLocked(ctx context.Context, req Request, paymentMethod string) (*Result, bool, error) {
	unlock := s.locks.Lock(req.BuyerID)
	defer unlock()

	if req.IdempotencyKey != "" && s.results != nil {
		res, err := s.results.Get(ctx, req.BuyerID, req.IdempotencyKey)
		if err == nil {
			s.log.InfoContext(ctx, "checkout replayed", "buyer_id", req.BuyerID, "idempotency_key", req.IdempotencyKey)
			return res, true, nil
		}
		if !errors.Is(err, ErrResultNotFound) {
			s.log.WarnContext(ctx, "idempotency lookup failed", "buyer_id", req.BuyerID, "error", err)
		}
	}

	res, err := s.checkout(ctx, req.BuyerID, paymentMethod)
	s.observe(res, err)
	if err != nil {
		return nil, false, err
	}

	if req.IdempotencyKey != "" && s.results != nil {
		if err := s.results.Save(ctx, req.BuyerID, req.IdempotencyKey, res); err != nil {
			s.log.WarnContext(ctx, "idempotency save failed", "buyer_id", req.BuyerID, "error", err)
		}
	}
	return res, false, nil
}

// publishPlaced announces new orders in the background, outside the buyer's
// lock and the request deadline.
func (s *Service) publishPlaced(ctx context.Context, orders []*domain.Order) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	s.publishing.Add(1)
	go func() {
		defer s.publishing.Done()
		defer cancel()
		for _, o := range orders {
			if err := s.publisher.Publish(ctx, events.OrderPlaced, o); err != nil {
				s.log.WarnContext(ctx, "publish order placed failed", "order_id", o.ID, "error", err)
			}
		}
	}()
}

// Wait blocks until background event publishing has finished.
func (s *Service) Wait() {
	s.publishing.Wait()
}

func (s *Service) checkout(ctx context.Context, buyerID, paymentMethod string) (*Result, error) {
	cart, err := s.carts.GetCart(ctx, buyerID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, domain.NewValidationError("Cart is empty")
	}

	buyer, err := s.users.GetUser(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	lines, err := s.resolveLines(ctx, cart)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, domain.NewValidationError("Cart is empty")
	}

	address := strings.TrimSpace(buyer.Address)
	if address == "" {
		address = domain.AddressNotProvided
	}

	orders := partitionBySeller(buyerID, paymentMethod, address, lines)
	if err := s.createOrders(ctx, orders); err != nil {
		return nil, err
	}

	changes := stockChanges(lines)
	if err := s.validateStock(ctx, changes); err != nil {
		s.deleteOrders(ctx, orders)
		return nil, err
	}
	if err := s.commitStock(ctx, changes); err != nil {
		s.deleteOrders(ctx, orders)
		return nil, err
	}

	s.clearCart(ctx, buyerID)

	res := &Result{Orders: orders, TotalAmount: decimal.Zero, Transfers: make([]domain.Transfer, 0, len(orders))}
	for _, o := range orders {
		res.TotalAmount = res.TotalAmount.Add(o.TotalAmount)
		res.Transfers = append(res.Transfers, domain.Transfer{SellerID: o.SellerID, Amount: o.TotalAmount})
	}

	s.log.InfoContext(ctx, "checkout completed",
		"buyer_id", buyerID,
		"orders", len(orders),
		"total_amount", res.TotalAmount.StringFixed(2))
	return res, nil
}

// resolveLines pairs every cart item with its current product, applying the
// missing product policy to items whose product is gone.
func (s *Service) resolveLines(ctx context.Context, cart *domain.Cart) ([]line, error) {
	ids := make([]string, 0, len(cart.Items))
	for _, it := range cart.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.products.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	lines := make([]line, 0, len(cart.Items))
	for _, it := range cart.Items {
		if it.Quantity <= 0 {
			continue
		}
		p, ok := products[it.ProductID]
		if !ok {
			if s.policy == config.MissingProductFail {
				return nil, domain.NewNotFoundError("product").WithID(it.ProductID)
			}
			s.log.WarnContext(ctx, "skipping cart line for missing product", "buyer_id", cart.UserID, "product_id", it.ProductID)
			continue
		}
		lines = append(lines, line{product: p, quantity: it.Quantity})
	}
	return lines, nil
}

// partitionBySeller builds one pending order per seller, in the order each
// seller first appears in the cart.
func partitionBySeller(buyerID, paymentMethod, address string, lines []line) []*domain.Order {
	var orders []*domain.Order
	bySeller := map[string]*domain.Order{}

	for _, l := range lines {
		o, ok := bySeller[l.product.SellerID]
		if !ok {
			o = &domain.Order{
				ID:            uuid.New(),
				BuyerID:       buyerID,
				SellerID:      l.product.SellerID,
				TotalAmount:   decimal.Zero,
				PaymentMethod: paymentMethod,
				Status:        domain.OrderStatusPending,
				BuyerAddress:  address,
			}
			bySeller[l.product.SellerID] = o
			orders = append(orders, o)
		}
		o.Items = append(o.Items, domain.OrderItem{
			ProductID:   l.product.ID,
			ProductName: l.product.Name,
			UnitPrice:   l.product.Price,
			Quantity:    l.quantity,
		})
		o.TotalAmount = o.TotalAmount.Add(l.product.Price.Mul(decimal.NewFromInt(int64(l.quantity))))
	}
	return orders
}

// stockChanges sums requested quantities per product, keeping first-seen order.
func stockChanges(lines []line) []domain.StockChange {
	var changes []domain.StockChange
	index := map[string]int{}
	for _, l := range lines {
		if i, ok := index[l.product.ID]; ok {
			changes[i].Quantity += l.quantity
			continue
		}
		index[l.product.ID] = len(changes)
		changes = append(changes, domain.StockChange{ProductID: l.product.ID, Quantity: l.quantity})
	}
	return changes
}

func (s *Service) createOrders(ctx context.Context, orders []*domain.Order) error {
	if b, ok := s.orders.(batchOrderCreator); ok {
		return b.CreateOrders(ctx, orders)
	}

	for i, o := range orders {
		if err := s.orders.CreateOrder(ctx, o); err != nil {
			s.deleteOrders(ctx, orders[:i])
			return err
		}
	}
	return nil
}

// validateStock re-reads stock for every change without mutating anything.
func (s *Service) validateStock(ctx context.Context, changes []domain.StockChange) error {
	ids := make([]string, 0, len(changes))
	for _, c := range changes {
		ids = append(ids, c.ProductID)
	}
	current, err := s.products.GetProducts(ctx, ids)
	if err != nil {
		return err
	}

	for _, c := range changes {
		p, ok := current[c.ProductID]
		if !ok {
			return domain.NewNotFoundError("product").WithID(c.ProductID)
		}
		if p.Quantity < c.Quantity {
			return &domain.StockError{
				ProductID:   p.ID,
				ProductName: p.Name,
				Available:   p.Quantity,
				Requested:   c.Quantity,
			}
		}
	}
	return nil
}

func (s *Service) commitStock(ctx context.Context, changes []domain.StockChange) error {
	if b, ok := s.products.(batchDecrementer); ok {
		return b.DecrementStockBatch(ctx, changes)
	}

	for i, c := range changes {
		if err := s.products.DecrementStock(ctx, c.ProductID, c.Quantity); err != nil {
			s.restoreStock(ctx, changes[:i])
			return err
		}
	}
	return nil
}

func (s *Service) restoreStock(ctx context.Context, applied []domain.StockChange) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	for _, c := range applied {
		if err := s.products.IncrementStock(ctx, c.ProductID, c.Quantity); err != nil {
			s.log.ErrorContext(ctx, "stock compensation failed",
				"product_id", c.ProductID,
				"quantity", c.Quantity,
				"error", err)
		}
	}
}

func (s *Service) deleteOrders(ctx context.Context, orders []*domain.Order) {
	if len(orders) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	ids := make([]uuid.UUID, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	if err := s.orders.DeleteOrders(ctx, ids); err != nil {
		s.log.ErrorContext(ctx, "order compensation failed", "order_ids", ids, "error", err)
	}
}

// clearCart empties the cart once orders and stock are committed. Failures
// are logged only; the checkout has already happened.
func (s *Service) clearCart(ctx context.Context, buyerID string) {
	if err := s.carts.ReplaceItems(ctx, buyerID, nil); err != nil {
		s.log.ErrorContext(ctx, "clear cart after checkout failed", "buyer_id", buyerID, "error", err)
	}
	if s.cartCache == nil {
		return
	}
	if err := s.cartCache.Delete(ctx, buyerID); err != nil {
		s.log.WarnContext(ctx, "cart cache invalidate failed", "buyer_id", buyerID, "error", err)
	}
}

func (s *Service) observe(res *Result, err error) {
	if s.recorder == nil {
		return
	}
	switch {
	case err == nil:
		s.recorder.ObserveCheckout("ok", len(res.Orders))
	case errors.Is(err, domain.ErrInsufficientStock):
		s.recorder.ObserveCheckout("insufficient_stock", 0)
	case errors.Is(err, domain.ErrValidation):
		s.recorder.ObserveCheckout("validation", 0)
	case errors.Is(err, domain.ErrNotFound):
		s.recorder.ObserveCheckout("not_found", 0)
	default:
		s.recorder.ObserveCheckout("error", 0)
	}
}
