package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/govind-sing/farmBridge-backend/internal/catalog/repository"
	"github.com/govind-sing/farmBridge-backend/internal/domain"
	"github.com/shopspring/decimal"
)

type ProductService struct {
	repo repository.ProductRepository
	log  *slog.Logger
}

func NewProductService(repo repository.ProductRepository, log *slog.Logger) *ProductService {
	return &ProductService{repo: repo, log: log.With("component", "catalog")}
}

type CreateProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Quantity    int
	ImageURL    string
}

func (s *ProductService) List(ctx context.Context) ([]*domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *ProductService) ListBySeller(ctx context.Context, sellerID string) ([]*domain.Product, error) {
	return s.repo.ListProductsBySeller(ctx, sellerID)
}

func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *ProductService) Create(ctx context.Context, sellerID string, in CreateProductInput) (*domain.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.NewValidationError("Name, price, and quantity are required")
	}
	if err := validatePrice(in.Price); err != nil {
		return nil, err
	}
	if in.Quantity < 0 {
		return nil, domain.NewValidationError("Quantity must be a non-negative integer")
	}

	p := &domain.Product{
		Name:        name,
		Description: in.Description,
		Price:       in.Price,
		Quantity:    in.Quantity,
		SellerID:    sellerID,
		ImageURL:    in.ImageURL,
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "product listed", "product_id", p.ID, "seller_id", sellerID)
	return p, nil
}

// Update lets the owning seller change price, stock and descriptive fields.
func (s *ProductService) Update(ctx context.Context, callerID, productID string, upd domain.ProductUpdate) (*domain.Product, error) {
	if upd.Empty() {
		return nil, domain.NewValidationError("Nothing to update")
	}
	if upd.Price != nil {
		if err := validatePrice(*upd.Price); err != nil {
			return nil, err
		}
	}
	if upd.Quantity != nil && *upd.Quantity < 0 {
		return nil, domain.NewValidationError("Quantity must be a non-negative integer")
	}
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return nil, domain.NewValidationError("Name must not be empty")
	}

	current, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if current.SellerID != callerID {
		return nil, domain.NewAuthorizationError("Not authorized to update this product")
	}

	return s.repo.UpdateProduct(ctx, productID, upd)
}

// validatePrice keeps prices in whole cents so order totals are exact.
func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return domain.NewValidationError("Price must be a non-negative number")
	}
	if !price.Equal(price.Round(2)) {
		return domain.NewValidationError("Price must have at most 2 decimal places")
	}
	return nil
}
