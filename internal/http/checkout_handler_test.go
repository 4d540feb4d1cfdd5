package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/govind-sing/farmBridge-backend/internal/checkout"
	"github.com/govind-sing/farmBridge-backend/internal/domain"
	"github.com/govind-sing/farmBridge-backend/internal/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkoutServiceMock struct {
	res  *checkout.Result
	err  error
	last checkout.Request
}

func (m *checkoutServiceMock) Checkout(_ context.Context, req checkout.Request) (*checkout.Result, error) {
	m.last = req
	return m.res, m.err
}

func TestCheckout_Success(t *testing.T) {
	orderID := uuid.New()
	svc := &checkoutServiceMock{res: &checkout.Result{
		Orders:      []*domain.Order{{ID: orderID, SellerID: "s1", TotalAmount: decimal.NewFromInt(20), Status: domain.OrderStatusPending}},
		TotalAmount: decimal.NewFromInt(20),
		Transfers:   []domain.Transfer{{SellerID: "s1", Amount: decimal.NewFromInt(20)}},
	}}
	handler := NewCheckoutHandler(svc, 5*time.Second, logger.Discard())

	request := httptest.NewRequest("POST", "/api/v1/checkout", bytes.NewReader([]byte(`{"payment_method":"cash"}`)))
	request.Header.Set("Idempotency-Key", "abc")
	request = withUser(request, "buyer-1")
	recorder := httptest.NewRecorder()

	handler.Checkout(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, checkout.Request{BuyerID: "buyer-1", PaymentMethod: "cash", IdempotencyKey: "abc"}, svc.last)

	var body struct {
		Orders      []map[string]any `json:"orders"`
		TotalAmount string           `json:"total_amount"`
		Transfers   []map[string]any `json:"transfers"`
	}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
	require.Len(t, body.Orders, 1)
	assert.Equal(t, orderID.String(), body.Orders[0]["id"])
	assert.Equal(t, "20", body.TotalAmount)
	assert.Len(t, body.Transfers, 1)
}

func TestCheckout_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{name: "empty cart", err: domain.NewValidationError("Cart is empty"), wantCode: http.StatusBadRequest, wantBody: "validation"},
		{name: "unknown buyer", err: domain.NewNotFoundError("user").WithID("buyer-1"), wantCode: http.StatusNotFound, wantBody: "not-found"},
		{name: "stock", err: &domain.StockError{ProductID: "B", ProductName: "Onions", Available: 2, Requested: 3}, wantCode: http.StatusBadRequest, wantBody: "insufficient-stock"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewCheckoutHandler(&checkoutServiceMock{err: tt.err}, 5*time.Second, logger.Discard())
			request := withUser(httptest.NewRequest("POST", "/api/v1/checkout", bytes.NewReader([]byte(`{"payment_method":"cash"}`))), "buyer-1")
			recorder := httptest.NewRecorder()

			handler.Checkout(recorder, request)

			assert.Equal(t, tt.wantCode, recorder.Code)
			assert.Equal(t, tt.wantBody, decodeError(t, recorder).Code)
		})
	}
}
