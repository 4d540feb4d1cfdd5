package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/govind-sing/farmBridge-backend/internal/domain"
)

type OrderService interface {
	ListForBuyer(ctx context.Context, buyerID string) ([]*domain.Order, error)
	ListForSeller(ctx context.Context, sellerID string) ([]*domain.Order, error)
	Get(ctx context.Context, orderID, callerID string) (*domain.Order, error)
	MarkDone(ctx context.Context, orderID, callerID string) (*domain.Order, error)
	EnsureDone(ctx context.Context, orderID, callerID string) (*domain.Order, error)
}

type OrdersHandler struct {
	orders  OrderService
	timeout time.Duration
	log     *slog.Logger
}

func NewOrdersHandler(orders OrderService, timeout time.Duration, log *slog.Logger) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
		log:     log,
	}
}

func (h *OrdersHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.orders.ListForBuyer)
}

func (h *OrdersHandler) ListSeller(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.orders.ListForSeller)
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request, fetch func(context.Context, string) ([]*domain.Order, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, ok := principalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, codeUnauthorized, "missing user authentication")
		return
	}

	orders, err := fetch(ctx, p.ID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.single(w, r, h.orders.Get)
}

func (h *OrdersHandler) MarkDone(w http.ResponseWriter, r *http.Request) {
	h.single(w, r, h.orders.MarkDone)
}

func (h *OrdersHandler) EnsureDone(w http.ResponseWriter, r *http.Request) {
	h.single(w, r, h.orders.EnsureDone)
}

func (h *OrdersHandler) single(w http.ResponseWriter, r *http.Request, op func(context.Context, string, string) (*domain.Order, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, ok := principalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, codeUnauthorized, "missing user authentication")
		return
	}

	order, err := op(ctx, chi.URLParam(r, "order_id"), p.ID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}
