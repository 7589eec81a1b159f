package service

import (
	"context"
	"errors"
	"testing"

	"github.com/m3rciful/keyshop/internal/domain"
)

func TestAddCategoryBootstrapsCatalog(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewCatalogService(store)

	// Fresh install: nothing to browse yet.
	cats, err := svc.Categories(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(cats) != 0 {
		t.Fatalf("fresh store has %d categories", len(cats))
	}

	id, err := svc.AddCategory(ctx, "  Games  ")
	if err != nil {
		t.Fatalf("AddCategory: %v", err)
	}
	if id == 0 {
		t.Fatal("AddCategory returned zero id")
	}

	cats, _ = svc.Categories(ctx)
	if len(cats) != 1 || cats[0].Name != "Games" {
		t.Fatalf("categories = %+v, want one trimmed entry", cats)
	}

	// The new category immediately accepts products.
	if _, err := svc.CreateProduct(ctx, &domain.Product{
		CategoryID:  id,
		Name:        "test game",
		Description: "desc",
		Price:       decimalFrom("9.99"),
	}); err != nil {
		t.Fatalf("CreateProduct into new category: %v", err)
	}
}

func TestAddCategoryRejectsDuplicateAndBlank(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewCatalogService(store)

	if _, err := svc.AddCategory(ctx, "Games"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddCategory(ctx, "Games"); !errors.Is(err, domain.ErrDuplicateCategory) {
		t.Fatalf("duplicate: err = %v, want ErrDuplicateCategory", err)
	}
	if _, err := svc.AddCategory(ctx, "   "); err == nil {
		t.Fatal("blank category name accepted")
	}
}
