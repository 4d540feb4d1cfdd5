package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/govind-sing/farmBridge-backend/internal/domain"
	"github.com/govind-sing/farmBridge-backend/internal/logger"
	"github.com/shopspring/decimal"
)

type cartServiceMock struct {
	view      *domain.CartView
	err       error
	viewErr   error
	lastUser  string
	lastID    string
	lastQty   int
	addCalled bool
}

func (m *cartServiceMock) View(_ context.Context, userID string) (*domain.CartView, error) {
	if m.viewErr != nil {
		return nil, m.viewErr
	}
	return m.view, nil
}

func (m *cartServiceMock) AddItem(_ context.Context, userID, productID string, quantity int) error {
	m.addCalled = true
	m.lastUser, m.lastID, m.lastQty = userID, productID, quantity
	return m.err
}

func (m *cartServiceMock) UpdateQuantity(_ context.Context, userID, productID string, quantity int) error {
	m.lastUser, m.lastID, m.lastQty = userID, productID, quantity
	return m.err
}

func (m *cartServiceMock) RemoveItem(_ context.Context, userID, productID string) error {
	m.lastUser, m.lastID = userID, productID
	return m.err
}

func sampleView() *domain.CartView {
	return &domain.CartView{
		UserID: "buyer-1",
		Lines: []domain.CartLine{{
			Product:  &domain.Product{ID: "p1", Name: "Tomatoes", Price: decimal.RequireFromString("2.5")},
			Quantity: 2,
			Subtotal: decimal.RequireFromString("5"),
		}},
		Total: decimal.RequireFromString("5"),
	}
}

func TestGetCart_Success(t *testing.T) {
	handler := NewCartHandler(&cartServiceMock{view: sampleView()}, 5*time.Second, logger.Discard())
	recorder := httptest.NewRecorder()
	request := withUser(httptest.NewRequest("GET", "/api/v1/cart", nil), "buyer-1")

	handler.GetCart(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, recorder.Code)
	}
	var response domain.CartView
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(response.Lines) != 1 || !response.Total.Equal(decimal.NewFromInt(5)) {
		t.Errorf("Unexpected cart view: %+v", response)
	}
}

func TestGetCart_Unauthorized(t *testing.T) {
	handler := NewCartHandler(&cartServiceMock{}, 5*time.Second, logger.Discard())
	recorder := httptest.NewRecorder()

	handler.GetCart(recorder, httptest.NewRequest("GET", "/api/v1/cart", nil))

	if recorder.Code != http.StatusUnauthorized {
		t.Errorf("Expected status code %d, got %d", http.StatusUnauthorized, recorder.Code)
	}
	if resp := decodeError(t, recorder); resp.Code != "unauthorized" {
		t.Errorf("Expected error code 'unauthorized', got '%s'", resp.Code)
	}
}

func TestAddItem_Success(t *testing.T) {
	svc := &cartServiceMock{view: sampleView()}
	handler := NewCartHandler(svc, 5*time.Second, logger.Discard())

	body, _ := json.Marshal(AddItemRequestDTO{ProductID: "p1", Quantity: 2})
	recorder := httptest.NewRecorder()
	request := withUser(httptest.NewRequest("POST", "/api/v1/cart/items", bytes.NewReader(body)), "buyer-1")

	handler.AddItem(recorder, request)

	if recorder.Code != http.StatusCreated {
		t.Errorf("Expected status code %d, got %d", http.StatusCreated, recorder.Code)
	}
	if svc.lastUser != "buyer-1" || svc.lastID != "p1" || svc.lastQty != 2 {
		t.Errorf("Unexpected call: user=%s product=%s qty=%d", svc.lastUser, svc.lastID, svc.lastQty)
	}
}

func TestAddItem_MissingFields(t *testing.T) {
	svc := &cartServiceMock{}
	handler := NewCartHandler(svc, 5*time.Second, logger.Discard())

	recorder := httptest.NewRecorder()
	request := withUser(httptest.NewRequest("POST", "/api/v1/cart/items", bytes.NewReader([]byte(`{"product_id":"p1"}`))), "buyer-1")
	handler.AddItem(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, recorder.Code)
	}
	if resp := decodeError(t, recorder); resp.Error != "Product ID and quantity are required" {
		t.Errorf("Unexpected message %q", resp.Error)
	}
	if svc.addCalled {
		t.Error("service must not be called for an invalid request")
	}
}

func TestAddItem_InvalidJSON(t *testing.T) {
	handler := NewCartHandler(&cartServiceMock{}, 5*time.Second, logger.Discard())
	recorder := httptest.NewRecorder()
	request := withUser(httptest.NewRequest("POST", "/api/v1/cart/items", bytes.NewReader([]byte("invalid json"))), "buyer-1")

	handler.AddItem(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestAddItem_InsufficientStock(t *testing.T) {
	svc := &cartServiceMock{err: &domain.StockError{ProductID: "p1", ProductName: "Tomatoes", Available: 3, Requested: 5}}
	handler := NewCartHandler(svc, 5*time.Second, logger.Discard())

	body, _ := json.Marshal(AddItemRequestDTO{ProductID: "p1", Quantity: 5})
	recorder := httptest.NewRecorder()
	handler.AddItem(recorder, withUser(httptest.NewRequest("POST", "/api/v1/cart/items", bytes.NewReader(body)), "buyer-1"))

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, recorder.Code)
	}
	resp := decodeError(t, recorder)
	if resp.Code != "insufficient-stock" {
		t.Errorf("Expected code 'insufficient-stock', got '%s'", resp.Code)
	}
	if resp.Stock == nil || resp.Stock.Available != 3 || resp.Stock.ProductID != "p1" {
		t.Errorf("Unexpected stock detail: %+v", resp.Stock)
	}
	if resp.Error != "Insufficient stock for Tomatoes. Available: 3" {
		t.Errorf("Unexpected message %q", resp.Error)
	}
}

func TestUpdateQuantity_UsesPathParam(t *testing.T) {
	svc := &cartServiceMock{view: sampleView()}
	handler := NewCartHandler(svc, 5*time.Second, logger.Discard())

	request := httptest.NewRequest("PUT", "/api/v1/cart/items/p7", bytes.NewReader([]byte(`{"quantity":4}`)))
	request = withUser(withURLParam(request, "product_id", "p7"), "buyer-1")
	recorder := httptest.NewRecorder()

	handler.UpdateQuantity(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, recorder.Code)
	}
	if svc.lastID != "p7" || svc.lastQty != 4 {
		t.Errorf("Unexpected call: product=%s qty=%d", svc.lastID, svc.lastQty)
	}
}

func TestRemoveItem_NotInCart(t *testing.T) {
	svc := &cartServiceMock{err: domain.NewNotFoundError("product in cart")}
	handler := NewCartHandler(svc, 5*time.Second, logger.Discard())

	request := withUser(withURLParam(httptest.NewRequest("DELETE", "/api/v1/cart/items/p1", nil), "product_id", "p1"), "buyer-1")
	recorder := httptest.NewRecorder()
	handler.RemoveItem(recorder, request)

	if recorder.Code != http.StatusNotFound {
		t.Errorf("Expected status code %d, got %d", http.StatusNotFound, recorder.Code)
	}
	resp := decodeError(t, recorder)
	if resp.Code != "not-found" || resp.Error != "Product in cart not found" {
		t.Errorf("Unexpected error response: %+v", resp)
	}
}

func TestRemoveItem_InternalErrorIsOpaque(t *testing.T) {
	svc := &cartServiceMock{err: errors.New("mongo: connection refused 10.0.0.3")}
	handler := NewCartHandler(svc, 5*time.Second, logger.Discard())

	request := withUser(withURLParam(httptest.NewRequest("DELETE", "/api/v1/cart/items/p1", nil), "product_id", "p1"), "buyer-1")
	recorder := httptest.NewRecorder()
	handler.RemoveItem(recorder, request)

	if recorder.Code != http.StatusInternalServerError {
		t.Errorf("Expected status code %d, got %d", http.StatusInternalServerError, recorder.Code)
	}
	if resp := decodeError(t, recorder); resp.Error != "internal server error" || resp.Code != "internal" {
		t.Errorf("Unexpected error response: %+v", resp)
	}
}
