package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/m3rciful/keyshop/core/logger"
	"github.com/m3rciful/keyshop/internal/domain"
	"log/slog"
)

// CatalogStore is the persistence surface CatalogService needs.
type CatalogStore interface {
	Banner(ctx context.Context, name string) (*domain.Banner, error)
	UpsertBannerImage(ctx context.Context, name, image string) error
	UpsertBannerDescription(ctx context.Context, name, description string) error
	BannerPages(ctx context.Context) ([]string, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	Category(ctx context.Context, id int64) (*domain.Category, error)
	CreateCategory(ctx context.Context, name string) (int64, error)
	ProductsByCategory(ctx context.Context, categoryID int64) ([]domain.Product, error)
	Product(ctx context.Context, id int64) (*domain.Product, error)
	CreateProduct(ctx context.Context, p *domain.Product) (int64, error)
	UpdateProduct(ctx context.Context, p *domain.Product) error
	DeleteProduct(ctx context.Context, id int64) error
}

// CatalogService serves banners, categories and products.
type CatalogService struct {
	store CatalogStore
}

func NewCatalogService(store CatalogStore) *CatalogService {
	return &CatalogService{store: store}
}

func (s *CatalogService) Banner(ctx context.Context, page string) (*domain.Banner, error) {
	return s.store.Banner(ctx, page)
}

func (s *CatalogService) SetBannerImage(ctx context.Context, page, image string) error {
	if err := s.store.UpsertBannerImage(ctx, page, image); err != nil {
		return err
	}
	logger.SVCCatalog.Info("banner.image_set", slog.String("page", page))
	return nil
}

func (s *CatalogService) SetBannerDescription(ctx context.Context, page, description string) error {
	if err := s.store.UpsertBannerDescription(ctx, page, description); err != nil {
		return err
	}
	logger.SVCCatalog.Info("banner.description_set", slog.String("page", page))
	return nil
}

func (s *CatalogService) BannerPages(ctx context.Context) ([]string, error) {
	return s.store.BannerPages(ctx)
}

func (s *CatalogService) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.store.Categories(ctx)
}

func (s *CatalogService) Category(ctx context.Context, id int64) (*domain.Category, error) {
	return s.store.Category(ctx, id)
}

// AddCategory creates a category. Without at least one category nothing
// else can be set up, so this is the first admin operation on a fresh
// install.
func (s *CatalogService) AddCategory(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("category name is required")
	}
	id, err := s.store.CreateCategory(ctx, name)
	if err != nil {
		return 0, err
	}
	logger.SVCCatalog.Info("category.created",
		slog.Int64("category_id", id),
		slog.String("name", logger.Sanitize(name)),
	)
	return id, nil
}

func (s *CatalogService) Products(ctx context.Context, categoryID int64) ([]domain.Product, error) {
	return s.store.ProductsByCategory(ctx, categoryID)
}

func (s *CatalogService) Product(ctx context.Context, id int64) (*domain.Product, error) {
	return s.store.Product(ctx, id)
}

// CreateProduct validates the category and inserts the product.
func (s *CatalogService) CreateProduct(ctx context.Context, p *domain.Product) (int64, error) {
	if _, err := s.store.Category(ctx, p.CategoryID); err != nil {
		return 0, err
	}
	id, err := s.store.CreateProduct(ctx, p)
	if err != nil {
		return 0, err
	}
	logger.SVCCatalog.Info("product.created",
		slog.Int64("product_id", id),
		slog.String("name", logger.Sanitize(p.Name)),
	)
	return id, nil
}

// UpdateProduct replaces the editable fields of an existing product.
func (s *CatalogService) UpdateProduct(ctx context.Context, p *domain.Product) error {
	if _, err := s.store.Category(ctx, p.CategoryID); err != nil {
		return err
	}
	if err := s.store.UpdateProduct(ctx, p); err != nil {
		return err
	}
	logger.SVCCatalog.Info("product.updated", slog.Int64("product_id", p.ID))
	return nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	logger.SVCCatalog.Info("product.deleted", slog.Int64("product_id", id))
	return nil
}
