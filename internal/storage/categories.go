package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/m3rciful/keyshop/internal/domain"
)

// Categories lists all categories ordered by name.
func (s *Storage) Categories(ctx context.Context) ([]domain.Category, error) {
	var cats []domain.Category
	if err := s.db.SelectContext(ctx, &cats, `SELECT * FROM categories ORDER BY name`); err != nil {
		return nil, fmt.Errorf("select categories: %w", err)
	}
	return cats, nil
}

// CreateCategory inserts a category and returns its id. A name
// collision yields ErrDuplicateCategory.
func (s *Storage) CreateCategory(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.db.GetContext(ctx, &id, `
		INSERT INTO categories (name) VALUES ($1)
		ON CONFLICT (name) DO NOTHING
		RETURNING id`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrDuplicateCategory
	}
	if err != nil {
		return 0, fmt.Errorf("insert category: %w", err)
	}
	return id, nil
}

// Category returns a single category by id.
func (s *Storage) Category(ctx context.Context, id int64) (*domain.Category, error) {
	var cat domain.Category
	err := s.db.GetContext(ctx, &cat, `SELECT * FROM categories WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select category %d: %w", id, err)
	}
	return &cat, nil
}
