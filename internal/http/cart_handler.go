package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/govind-sing/farmBridge-backend/internal/domain"
)

type CartService interface {
	View(ctx context.Context, userID string) (*domain.CartView, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) error
	UpdateQuantity(ctx context.Context, userID, productID string, quantity int) error
	RemoveItem(ctx context.Context, userID, productID string) error
}

type CartHandler struct {
	carts   CartService
	timeout time.Duration
	log     *slog.Logger
}

func NewCartHandler(carts CartService, timeout time.Duration, log *slog.Logger) *CartHandler {
	return &CartHandler{
		carts:   carts,
		timeout: timeout,
		log:     log,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, ok := principalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, codeUnauthorized, "missing user authentication")
		return
	}

	view, err := h.carts.View(ctx, p.ID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, ok := principalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, codeUnauthorized, "missing user authentication")
		return
	}

	var req AddItemRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, "invalid JSON body")
		return
	}
	if req.ProductID == "" || req.Quantity == 0 {
		respondError(w, http.StatusBadRequest, codeValidation, "Product ID and quantity are required")
		return
	}

	if err := h.carts.AddItem(ctx, p.ID, req.ProductID, req.Quantity); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	h.respondCart(ctx, w, r, p.ID, http.StatusCreated)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, ok := principalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, codeUnauthorized, "missing user authentication")
		return
	}

	productID := chi.URLParam(r, "product_id")
	var req UpdateQuantityRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, "invalid JSON body")
		return
	}
	if productID == "" || req.Quantity == 0 {
		respondError(w, http.StatusBadRequest, codeValidation, "Product ID and quantity are required")
		return
	}

	if err := h.carts.UpdateQuantity(ctx, p.ID, productID, req.Quantity); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	h.respondCart(ctx, w, r, p.ID, http.StatusOK)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, ok := principalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, codeUnauthorized, "missing user authentication")
		return
	}

	if err := h.carts.RemoveItem(ctx, p.ID, chi.URLParam(r, "product_id")); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	h.respondCart(ctx, w, r, p.ID, http.StatusOK)
}

// respondCart renders the cart after a successful mutation.
func (h *CartHandler) respondCart(ctx context.Context, w http.ResponseWriter, r *http.Request, userID string, status int) {
	view, err := h.carts.View(ctx, userID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	respondJSON(w, status, view)
}
