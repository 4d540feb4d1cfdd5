package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/govind-sing/farmBridge-backend/internal/domain"
)

type ProfileStore interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
	UpsertProfile(ctx context.Context, u *domain.User) (*domain.User, error)
}

type ProfileHandler struct {
	users   ProfileStore
	timeout time.Duration
	log     *slog.Logger
}

func NewProfileHandler(users ProfileStore, timeout time.Duration, log *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		users:   users,
		timeout: timeout,
		log:     log,
	}
}

type ProfileRequestDTO struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, ok := principalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, codeUnauthorized, "missing user authentication")
		return
	}

	user, err := h.users.GetUser(ctx, p.ID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// Put records the caller's profile. The role always comes from the token.
func (h *ProfileHandler) Put(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, ok := principalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, codeUnauthorized, "missing user authentication")
		return
	}

	var req ProfileRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, codeValidation, "Name is required")
		return
	}

	role := p.Role
	if !role.Valid() {
		role = domain.RoleBuyer
	}
	user, err := h.users.UpsertProfile(ctx, &domain.User{
		ID:      p.ID,
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Role:    role,
		Address: strings.TrimSpace(req.Address),
	})
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}
