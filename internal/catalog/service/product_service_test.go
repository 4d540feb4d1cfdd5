package service

import (
	"context"
	"sync"
	"testing"

	"github.com/govind-sing/farmBridge-backend/internal/catalog/repository"
	"github.com/govind-sing/farmBridge-backend/internal/domain"
	"github.com/govind-sing/farmBridge-backend/internal/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRepository keeps products in memory; only the methods the service
// calls carry behaviour.
type mockRepository struct {
	repository.ProductRepository

	m        sync.Mutex
	products map[string]*domain.Product
	created  []*domain.Product
}

func newMockRepository(products ...*domain.Product) *mockRepository {
	m := &mockRepository{products: map[string]*domain.Product{}}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockRepository) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound.WithID(id)
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepository) CreateProduct(_ context.Context, p *domain.Product) error {
	m.m.Lock()
	defer m.m.Unlock()
	p.ID = "new-product"
	m.products[p.ID] = p
	m.created = append(m.created, p)
	return nil
}

func (m *mockRepository) UpdateProduct(_ context.Context, id string, upd domain.ProductUpdate) (*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	p := m.products[id]
	if upd.Price != nil {
		p.Price = *upd.Price
	}
	if upd.Quantity != nil {
		p.Quantity = *upd.Quantity
	}
	return p, nil
}

func (m *mockRepository) ListProductsBySeller(_ context.Context, sellerID string) ([]*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	var out []*domain.Product
	for _, p := range m.products {
		if p.SellerID == sellerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func TestCreate_Validation(t *testing.T) {
	svc := NewProductService(newMockRepository(), logger.Discard())
	ctx := context.Background()

	_, err := svc.Create(ctx, "s1", CreateProductInput{Name: "  ", Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Create(ctx, "s1", CreateProductInput{Name: "Rice", Price: decimal.NewFromInt(-1)})
	assert.EqualError(t, err, "Price must be a non-negative number")

	_, err = svc.Create(ctx, "s1", CreateProductInput{Name: "Rice", Price: decimal.NewFromInt(1), Quantity: -2})
	assert.EqualError(t, err, "Quantity must be a non-negative integer")
}

func TestCreate_AssignsSeller(t *testing.T) {
	repo := newMockRepository()
	svc := NewProductService(repo, logger.Discard())

	p, err := svc.Create(context.Background(), "s1", CreateProductInput{
		Name:     " Rice ",
		Price:    decimal.RequireFromString("2.25"),
		Quantity: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, "new-product", p.ID)
	assert.Equal(t, "Rice", p.Name)
	assert.Equal(t, "s1", p.SellerID)
	assert.Len(t, repo.created, 1)
}

func TestUpdate_OnlyOwner(t *testing.T) {
	repo := newMockRepository(&domain.Product{ID: "p1", Name: "Rice", SellerID: "s1", Quantity: 3})
	svc := NewProductService(repo, logger.Discard())
	qty := 9

	_, err := svc.Update(context.Background(), "s2", "p1", domain.ProductUpdate{Quantity: &qty})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	updated, err := svc.Update(context.Background(), "s1", "p1", domain.ProductUpdate{Quantity: &qty})
	require.NoError(t, err)
	assert.Equal(t, 9, updated.Quantity)
}

func TestUpdate_Validation(t *testing.T) {
	repo := newMockRepository(&domain.Product{ID: "p1", SellerID: "s1"})
	svc := NewProductService(repo, logger.Discard())
	neg := -1
	price := decimal.NewFromInt(-3)

	_, err := svc.Update(context.Background(), "s1", "p1", domain.ProductUpdate{})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.Update(context.Background(), "s1", "p1", domain.ProductUpdate{Quantity: &neg})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.Update(context.Background(), "s1", "p1", domain.ProductUpdate{Price: &price})
	assert.ErrorIs(t, err, domain.ErrValidation)

	qty := 1
	_, err = svc.Update(context.Background(), "s1", "missing", domain.ProductUpdate{Quantity: &qty})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListBySeller(t *testing.T) {
	repo := newMockRepository(
		&domain.Product{ID: "p1", SellerID: "s1"},
		&domain.Product{ID: "p2", SellerID: "s2"},
	)
	svc := NewProductService(repo, logger.Discard())

	got, err := svc.ListBySeller(context.Background(), "s2")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "p2", got[0].ID)
}

func TestPrice_WholeCentsOnly(t *testing.T) {
	repo := newMockRepository(&domain.Product{ID: "p1", SellerID: "s1", Price: decimal.NewFromInt(1)})
	svc := NewProductService(repo, logger.Discard())
	ctx := context.Background()

	_, err := svc.Create(ctx, "s1", CreateProductInput{Name: "Rice", Price: decimal.RequireFromString("0.333"), Quantity: 3})
	assert.EqualError(t, err, "Price must have at most 2 decimal places")
	assert.Empty(t, repo.created)

	fine := decimal.RequireFromString("0.330")
	_, err = svc.Create(ctx, "s1", CreateProductInput{Name: "Rice", Price: fine, Quantity: 3})
	assert.NoError(t, err, "trailing zeros are still whole cents")

	tooPrecise := decimal.RequireFromString("2.005")
	_, err = svc.Update(ctx, "s1", "p1", domain.ProductUpdate{Price: &tooPrecise})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.True(t, repo.products["p1"].Price.Equal(decimal.NewFromInt(1)))
}
