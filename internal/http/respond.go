package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/govind-sing/farmBridge-backend/internal/domain"
)

type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details string      `json:"details,omitempty"`
	Stock   *StockError `json:"stock,omitempty"`
}

type StockError struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Available   int    `json:"available"`
	Requested   int    `json:"requested"`
}

const (
	codeValidation        = "validation"
	codeNotFound          = "not-found"
	codeForbidden         = "forbidden"
	codeAlreadyCompleted  = "already-completed"
	codeInsufficientStock = "insufficient-stock"
	codeUnauthorized      = "unauthorized"
	codeInternal          = "internal"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// writeServiceError maps domain errors to HTTP responses. Anything it does
// not recognise is logged and reported as an opaque internal error.
func writeServiceError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var (
		stockErr *domain.StockError
		authErr  *domain.AuthorizationError
	)

	switch {
	case errors.As(err, &stockErr):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: stockErr.Error(),
			Code:  codeInsufficientStock,
			Stock: &StockError{
				ProductID:   stockErr.ProductID,
				ProductName: stockErr.ProductName,
				Available:   stockErr.Available,
				Requested:   stockErr.Requested,
			},
		})
	case errors.Is(err, domain.ErrValidation):
		respondError(w, http.StatusBadRequest, codeValidation, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, codeNotFound, notFoundMessage(err))
	case errors.As(err, &authErr):
		respondError(w, http.StatusForbidden, codeForbidden, authErr.Message)
	case errors.Is(err, domain.ErrAlreadyCompleted):
		respondError(w, http.StatusBadRequest, codeAlreadyCompleted, "Order is already marked as done")
	default:
		log.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		respondError(w, http.StatusInternalServerError, codeInternal, "internal server error")
	}
}

// notFoundMessage renders "Product not found" style messages.
func notFoundMessage(err error) string {
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) || nf.Resource == "" {
		return "Not found"
	}
	msg := nf.Error()
	return strings.ToUpper(msg[:1]) + msg[1:]
}

func decodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
