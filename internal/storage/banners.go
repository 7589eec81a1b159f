package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/m3rciful/keyshop/internal/domain"
)

// Banner returns the banner for a page name.
func (s *Storage) Banner(ctx context.Context, name string) (*domain.Banner, error) {
	var b domain.Banner
	err := s.db.GetContext(ctx, &b, `SELECT * FROM banners WHERE name = $1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select banner %q: %w", name, err)
	}
	return &b, nil
}

// UpsertBannerImage sets or replaces the image of a page banner.
func (s *Storage) UpsertBannerImage(ctx context.Context, name, image string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO banners (name, image)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET image = EXCLUDED.image, updated_at = now()`,
		name, image)
	if err != nil {
		return fmt.Errorf("upsert banner image %q: %w", name, err)
	}
	return nil
}

// UpsertBannerDescription sets or replaces the caption of a page banner.
func (s *Storage) UpsertBannerDescription(ctx context.Context, name, description string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO banners (name, description)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description, updated_at = now()`,
		name, description)
	if err != nil {
		return fmt.Errorf("upsert banner description %q: %w", name, err)
	}
	return nil
}

// BannerPages lists the known page names, for the banner picker.
func (s *Storage) BannerPages(ctx context.Context) ([]string, error) {
	var names []string
	if err := s.db.SelectContext(ctx, &names, `SELECT name FROM banners ORDER BY name`); err != nil {
		return nil, fmt.Errorf("select banner pages: %w", err)
	}
	return names, nil
}
