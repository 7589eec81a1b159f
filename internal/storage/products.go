package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/m3rciful/keyshop/internal/domain"
)

// ProductsByCategory lists products of one category.
func (s *Storage) ProductsByCategory(ctx context.Context, categoryID int64) ([]domain.Product, error) {
	var products []domain.Product
	err := s.db.SelectContext(ctx, &products,
		`SELECT * FROM products WHERE category_id = $1 ORDER BY name`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("select products of category %d: %w", categoryID, err)
	}
	return products, nil
}

// Product returns a single product by id.
func (s *Storage) Product(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := s.db.GetContext(ctx, &p, `SELECT * FROM products WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select product %d: %w", id, err)
	}
	return &p, nil
}

// CreateProduct inserts a product and returns its id.
func (s *Storage) CreateProduct(ctx context.Context, p *domain.Product) (int64, error) {
	var id int64
	err := s.db.GetContext(ctx, &id, `
		INSERT INTO products (category_id, name, description, price, image)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		p.CategoryID, p.Name, p.Description, p.Price, p.Image)
	if err != nil {
		return 0, fmt.Errorf("insert product: %w", err)
	}
	return id, nil
}

// UpdateProduct replaces the editable fields of a product.
func (s *Storage) UpdateProduct(ctx context.Context, p *domain.Product) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET category_id = $2, name = $3, description = $4, price = $5, image = $6, updated_at = now()
		WHERE id = $1`,
		p.ID, p.CategoryID, p.Name, p.Description, p.Price, p.Image)
	if err != nil {
		return fmt.Errorf("update product %d: %w", p.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteProduct removes a product. Keys and cart lines go with it via FK cascade.
func (s *Storage) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
