package bot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cast"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/keyshop/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/keyshop/core/telegram/helpers"
	"github.com/m3rciful/keyshop/internal/dialog"
	"github.com/m3rciful/keyshop/internal/domain"
)

func (a *App) registerAdminCallbacks() {
	_ = a.reg.RegisterCallback(cbAdminAddCat, a.handleAddCategory)
	_ = a.reg.RegisterCallback(cbAdminAddProd, a.handleAddProduct)
	_ = a.reg.RegisterCallback(cbAdminListProd, a.handleListProducts)
	_ = a.reg.RegisterCallbackPrefix(cbProdDelete, a.handleDeleteProduct)
	_ = a.reg.RegisterCallbackPrefix(cbProdChange, a.handleChangeProduct)

	a.registerKeyCallbacks()
	a.registerBannerCallbacks()
	a.registerOrderCallbacks()
}

func (a *App) handleAdminMenu(c tele.Context) error {
	a.fsm.Clear(c.Sender().ID)
	return tghelpers.SendMD(c, txtAdminMenu, adminMenuMarkup())
}

// requireAdmin guards callback handlers; commands are already wrapped
// by the access middleware.
func (a *App) requireAdmin(c tele.Context) bool {
	return a.isAdmin(c.Sender().ID)
}

func (a *App) buildProductForm() *dialog.Form {
	return &dialog.Form{
		Name: "product",
		Steps: []dialog.Step{
			{
				ID:     StateProductName,
				Prompt: promptProductName,
				Field:  fieldName,
				Parse: func(in dialog.Input) (any, error) {
					return dialog.ValidateProductName(in.Text)
				},
			},
			{
				ID:     StateProductDescription,
				Prompt: promptProductDescription,
				Field:  fieldDescription,
				Parse: func(in dialog.Input) (any, error) {
					return dialog.ValidateDescription(in.Text)
				},
			},
			{
				ID:     StateProductCategory,
				Prompt: promptProductCategory,
				Field:  fieldCategoryID,
				Parse: func(in dialog.Input) (any, error) {
					return nil, fmt.Errorf("pick the category with the buttons")
				},
			},
			{
				ID:     StateProductPrice,
				Prompt: promptProductPrice,
				Field:  fieldPrice,
				Parse: func(in dialog.Input) (any, error) {
					d, err := dialog.ParsePrice(in.Text)
					if err != nil {
						return nil, err
					}
					return d.StringFixed(2), nil
				},
			},
			{
				ID:     StateProductImage,
				Prompt: promptProductImage,
				Field:  fieldImage,
				Parse: func(in dialog.Input) (any, error) {
					if in.PhotoID == "" {
						return nil, fmt.Errorf("send the product photo")
					}
					return in.PhotoID, nil
				},
			},
		},
		EditSource: a.productEditSource,
	}
}

// productEditSource backs the "." sentinel while editing a product.
func (a *App) productEditSource(ctx context.Context, editID int64, field string) (any, error) {
	p, err := a.catalog.Product(ctx, editID)
	if err != nil {
		return nil, err
	}
	switch field {
	case fieldName:
		return p.Name, nil
	case fieldDescription:
		return p.Description, nil
	case fieldCategoryID:
		return p.CategoryID, nil
	case fieldPrice:
		return p.Price.StringFixed(2), nil
	case fieldImage:
		return p.Image.String, nil
	}
	return nil, fmt.Errorf("unknown product field %q", field)
}

// handleAddCategory captures the next message as a new category name.
// Products and keys hang off categories, so this is the first step on a
// fresh install.
func (a *App) handleAddCategory(c tele.Context) error {
	if !a.requireAdmin(c) {
		return c.Respond(&tele.CallbackResponse{Text: txtAdminOnly})
	}
	userID := c.Sender().ID
	a.fsm.Clear(userID)
	a.fsm.SetStep(userID, StateCategoryName)
	return tghelpers.SendText(c, promptCategoryName)
}

func (a *App) handleCategoryName(c tele.Context) error {
	name := c.Text()
	if strings.TrimSpace(name) == "" {
		return tghelpers.SendText(c, promptCategoryName)
	}
	ctx := tghelpers.BuildContext(c)
	if _, err := a.catalog.AddCategory(ctx, name); err != nil {
		if errors.Is(err, domain.ErrDuplicateCategory) {
			return tghelpers.SendText(c, txtDuplicateCategory)
		}
		return err
	}
	a.fsm.Clear(c.Sender().ID)
	return tghelpers.SendMD(c, fmt.Sprintf(txtCategorySaved, strings.TrimSpace(name)), adminMenuMarkup())
}

func (a *App) handleAddProduct(c tele.Context) error {
	if !a.requireAdmin(c) {
		return c.Respond(&tele.CallbackResponse{Text: txtAdminOnly})
	}
	ctx := tghelpers.BuildContext(c)
	cats, err := a.catalog.Categories(ctx)
	if err != nil {
		return err
	}
	if len(cats) == 0 {
		return tghelpers.SendMD(c, txtNothingHere, adminMenuMarkup())
	}
	prompt, err := a.productForm.Start(c.Sender().ID)
	if err != nil {
		return err
	}
	return tghelpers.SendText(c, prompt+"\n\n"+txtFormHint)
}

func (a *App) handleChangeProduct(c tele.Context) error {
	if !a.requireAdmin(c) {
		return c.Respond(&tele.CallbackResponse{Text: txtAdminOnly})
	}
	id, err := callbacks.KeySuffixInt64(c, cbProdChange)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: txtUnknownAction})
	}
	ctx := tghelpers.BuildContext(c)
	if _, err := a.catalog.Product(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return tghelpers.SendMD(c, txtNothingHere, adminMenuMarkup())
		}
		return err
	}
	prompt, err := a.productForm.StartEdit(c.Sender().ID, id)
	if err != nil {
		return err
	}
	return tghelpers.SendText(c, prompt+"\n\nSend \".\" to keep the current value.\n"+txtFormHint)
}

// handleProductCategoryPick consumes a category button press while the
// product form waits at its category step.
func (a *App) handleProductCategoryPick(c tele.Context, categoryID int64) error {
	ctx := tghelpers.BuildContext(c)
	if _, err := a.catalog.Category(ctx, categoryID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Respond(&tele.CallbackResponse{Text: txtUnknownAction})
		}
		return err
	}
	userID := c.Sender().ID
	a.fsm.UpdateFields(userID, map[string]any{fieldCategoryID: categoryID})
	a.fsm.SetStep(userID, StateProductPrice)
	return tghelpers.SendText(c, promptProductPrice)
}

func (a *App) commitProduct(c tele.Context, fields map[string]any) error {
	ctx := tghelpers.BuildContext(c)

	p := &domain.Product{
		CategoryID:  cast.ToInt64(fields[fieldCategoryID]),
		Name:        cast.ToString(fields[fieldName]),
		Description: cast.ToString(fields[fieldDescription]),
	}
	price, err := dialog.ParsePrice(cast.ToString(fields[fieldPrice]))
	if err != nil {
		return tghelpers.SendMD(c, err.Error(), adminMenuMarkup())
	}
	p.Price = price
	if image := cast.ToString(fields[fieldImage]); image != "" {
		p.Image = sql.NullString{String: image, Valid: true}
	}

	if editID := cast.ToInt64(fields[dialog.EditIDField]); editID != 0 {
		p.ID = editID
		if err := a.catalog.UpdateProduct(ctx, p); err != nil {
			return err
		}
	} else {
		if _, err := a.catalog.CreateProduct(ctx, p); err != nil {
			return err
		}
	}
	return tghelpers.SendMD(c, fmt.Sprintf(txtProductSaved, p.Name), adminMenuMarkup())
}

// handleListProducts walks categories and prints their products with
// per-product edit/delete buttons.
func (a *App) handleListProducts(c tele.Context) error {
	if !a.requireAdmin(c) {
		return c.Respond(&tele.CallbackResponse{Text: txtAdminOnly})
	}
	ctx := tghelpers.BuildContext(c)
	cats, err := a.catalog.Categories(ctx)
	if err != nil {
		return err
	}
	shown := 0
	for _, cat := range cats {
		products, err := a.catalog.Products(ctx, cat.ID)
		if err != nil {
			return err
		}
		for _, p := range products {
			card := fmt.Sprintf("*%s* (%s)\nPrice: %s %s\nIn stock: %d",
				p.Name, cat.Name, p.Price.StringFixed(2), a.cfg.Shop.Currency, p.AvailableKeys)
			if err := tghelpers.SendMD(c, card, productAdminMarkup(p)); err != nil {
				return err
			}
			shown++
		}
	}
	if shown == 0 {
		return tghelpers.SendMD(c, txtNothingHere, adminMenuMarkup())
	}
	return nil
}

func (a *App) handleDeleteProduct(c tele.Context) error {
	if !a.requireAdmin(c) {
		return c.Respond(&tele.CallbackResponse{Text: txtAdminOnly})
	}
	id, err := callbacks.KeySuffixInt64(c, cbProdDelete)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: txtUnknownAction})
	}
	ctx := tghelpers.BuildContext(c)
	if err := a.catalog.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Respond(&tele.CallbackResponse{Text: txtNothingHere})
		}
		return err
	}
	return tghelpers.SendMD(c, txtProductDeleted, adminMenuMarkup())
}
