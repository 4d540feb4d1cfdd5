package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/govind-sing/farmBridge-backend/internal/domain"
	"github.com/govind-sing/farmBridge-backend/internal/storage"
)

const productColumns = `id, name, description, price, quantity, seller_id, image_url, created_at, updated_at`

type Repository struct {
	db *sql.DB
}

var _ ProductRepository = (*Repository)(nil)

func NewRepository(ctx context.Context, dbPath string) (*Repository, error) {
	db, err := storage.OpenSQLite(ctx, dbPath)
	if err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(migrationsPath string) error {
	return storage.RunSQLiteMigrations(r.db, migrationsPath)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	p := &domain.Product{}
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.Quantity,
		&p.SellerID,
		&p.ImageURL,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return getProduct(ctx, r.db, id)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getProduct(ctx context.Context, q querier, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ?`

	p, err := scanProduct(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound.WithID(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product: %w", err)
	}
	return p, nil
}

func (r *Repository) GetProducts(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	result := make(map[string]*domain.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id IN (` + placeholders + `)`
	products, err := r.queryProducts(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		result[p.ID] = p
	}
	return result, nil
}

func (r *Repository) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at, id`
	return r.queryProducts(ctx, query)
}

func (r *Repository) ListProductsBySeller(ctx context.Context, sellerID string) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE seller_id = ? ORDER BY created_at, id`
	return r.queryProducts(ctx, query, sellerID)
}

func (r *Repository) queryProducts(ctx context.Context, query string, args ...any) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]*domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return products, nil
}

func (r *Repository) CreateProduct(ctx context.Context, p *domain.Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	query := `INSERT INTO products (` + productColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		p.Price,
		p.Quantity,
		p.SellerID,
		p.ImageURL,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// UpdateProduct applies the non-nil fields of upd. Quantity is set outright,
// so a seller's edit overwrites concurrent checkout decrements.
func (r *Repository) UpdateProduct(ctx context.Context, id string, upd domain.ProductUpdate) (*domain.Product, error) {
	var updated *domain.Product
	err := r.execTX(ctx, func(tx *sql.Tx) error {
		p, err := getProduct(ctx, tx, id)
		if err != nil {
			return err
		}
		if upd.Name != nil {
			p.Name = *upd.Name
		}
		if upd.Description != nil {
			p.Description = *upd.Description
		}
		if upd.Price != nil {
			p.Price = *upd.Price
		}
		if upd.Quantity != nil {
			p.Quantity = *upd.Quantity
		}
		p.UpdatedAt = time.Now().UTC()

		query := `UPDATE products SET name = ?, description = ?, price = ?, quantity = ?, updated_at = ? WHERE id = ?`
		if _, err := tx.ExecContext(ctx, query, p.Name, p.Description, p.Price, p.Quantity, p.UpdatedAt, p.ID); err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

type execer interface {
	querier
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// decrement takes quantity off the product only if that much is in stock.
// When nothing matched it re-reads the row to tell a missing product from a
// short one.
func decrement(ctx context.Context, q execer, productID string, quantity int) error {
	query := `UPDATE products SET quantity = quantity - ?, updated_at = ? WHERE id = ? AND quantity >= ?`
	res, err := q.ExecContext(ctx, query, quantity, time.Now().UTC(), productID, quantity)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if affected == 1 {
		return nil
	}

	p, err := getProduct(ctx, q, productID)
	if err != nil {
		return err
	}
	return &domain.StockError{
		ProductID:   p.ID,
		ProductName: p.Name,
		Available:   p.Quantity,
		Requested:   quantity,
	}
}

func (r *Repository) DecrementStock(ctx context.Context, productID string, quantity int) error {
	return decrement(ctx, r.db, productID, quantity)
}

func (r *Repository) DecrementStockBatch(ctx context.Context, changes []domain.StockChange) error {
	return r.execTX(ctx, func(tx *sql.Tx) error {
		for _, c := range changes {
			if err := decrement(ctx, tx, c.ProductID, c.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repository) IncrementStock(ctx context.Context, productID string, quantity int) error {
	query := `UPDATE products SET quantity = quantity + ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, quantity, time.Now().UTC(), productID)
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrProductNotFound.WithID(productID)
	}
	return nil
}

func (r *Repository) execTX(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Close() error {
	return r.db.Close()
}
