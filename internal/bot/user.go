package bot

import (
	"errors"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/keyshop/core/telegram/callbacks"
	"github.com/m3rciful/keyshop/core/telegram/commands"
	tghelpers "github.com/m3rciful/keyshop/core/telegram/helpers"
	"github.com/m3rciful/keyshop/internal/domain"
)

func (a *App) registerCommands() {
	a.reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "Open the shop",
	})
	a.reg.RegisterCommand("/admin", commands.Command{
		Handler:     a.handleAdminMenu,
		Description: "Admin menu",
		AdminOnly:   true,
	})
	a.reg.RegisterCommand("/add_key", commands.Command{
		Handler:     a.handleAddKeyPipe,
		Description: "Add a key in one message",
		AdminOnly:   true,
		Hidden:      true,
	})
	a.reg.RegisterCommand("/edit_payment", commands.Command{
		Handler:     a.handleEditPayment,
		Description: "Edit payment instructions",
		AdminOnly:   true,
		Hidden:      true,
	})

	a.reg.SetTextFallback(func(c tele.Context) error {
		return tghelpers.SendMD(c, txtUnknownInput, mainMenuMarkup())
	})
	a.reg.SetCallbackNotFound(func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{Text: txtUnknownAction})
	})
}

func (a *App) registerUserCallbacks() {
	_ = a.reg.RegisterCallback(cbCatalog, a.handleCatalog)
	_ = a.reg.RegisterCallback(cbCart, a.handleCart)
	_ = a.reg.RegisterCallback(cbAbout, a.handleAbout)
	_ = a.reg.RegisterCallback(cbOrder, a.handleOrder)
	_ = a.reg.RegisterCallback(cbPaid, a.handlePaid)
	_ = a.reg.RegisterCallback(cbCancel, a.handleCancel)
	_ = a.reg.RegisterCallbackPrefix(cbCategory, a.handleCategory)
	_ = a.reg.RegisterCallbackPrefix(cbProduct, a.handleProduct)
	_ = a.reg.RegisterCallbackPrefix(cbAddToCart, a.handleAddToCart)
}

// sendBanner shows a page banner with the given markup, falling back to
// plain text when the page has no image.
func (a *App) sendBanner(c tele.Context, page, fallback string, markup *tele.ReplyMarkup) error {
	ctx := tghelpers.BuildContext(c)
	banner, err := a.catalog.Banner(ctx, page)
	if err != nil {
		return tghelpers.SendMD(c, fallback, markup)
	}
	caption := fallback
	if banner.Description.Valid && banner.Description.String != "" {
		caption = banner.Description.String
	}
	if banner.Image.Valid && banner.Image.String != "" {
		photo := &tele.Photo{File: tele.File{FileID: banner.Image.String}, Caption: caption}
		return c.Send(photo, markup)
	}
	return tghelpers.SendMD(c, caption, markup)
}

func (a *App) handleStart(c tele.Context) error {
	a.fsm.Clear(c.Sender().ID)
	return a.sendBanner(c, domain.PageMain, txtWelcomeFallback, mainMenuMarkup())
}

func (a *App) handleAbout(c tele.Context) error {
	return a.sendBanner(c, domain.PageAbout, txtAboutFallback, mainMenuMarkup())
}

func (a *App) handleCatalog(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	cats, err := a.catalog.Categories(ctx)
	if err != nil {
		return err
	}
	if len(cats) == 0 {
		return tghelpers.SendMD(c, txtNothingHere, mainMenuMarkup())
	}
	return a.sendBanner(c, domain.PageCatalog, txtCatalogFallback, categoriesMarkup(cats, cbCategory))
}

// handleCategory serves both the storefront category browse and the
// category pick inside the admin product form.
func (a *App) handleCategory(c tele.Context) error {
	id, err := callbacks.KeySuffixInt64(c, cbCategory)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: txtUnknownAction})
	}
	userID := c.Sender().ID
	if a.isAdmin(userID) && a.fsm.Step(userID) == StateProductCategory {
		return a.handleProductCategoryPick(c, id)
	}

	ctx := tghelpers.BuildContext(c)
	products, err := a.catalog.Products(ctx, id)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		return tghelpers.SendMD(c, txtNothingHere, mainMenuMarkup())
	}
	return tghelpers.SendMD(c, txtPickProduct, productsMarkup(products, cbProduct))
}

func (a *App) handleProduct(c tele.Context) error {
	id, err := callbacks.KeySuffixInt64(c, cbProduct)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: txtUnknownAction})
	}
	ctx := tghelpers.BuildContext(c)
	p, err := a.catalog.Product(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return tghelpers.SendMD(c, txtNothingHere, mainMenuMarkup())
	}
	if err != nil {
		return err
	}
	card := fmt.Sprintf("*%s*\n\n%s\n\nPrice: %s %s\nIn stock: %d",
		p.Name, p.Description, p.Price.StringFixed(2), a.cfg.Shop.Currency, p.AvailableKeys)
	if p.Image.Valid && p.Image.String != "" {
		photo := &tele.Photo{File: tele.File{FileID: p.Image.String}, Caption: card}
		return c.Send(photo, productCardMarkup(*p))
	}
	return tghelpers.SendMD(c, card, productCardMarkup(*p))
}

func (a *App) handleAddToCart(c tele.Context) error {
	id, err := callbacks.KeySuffixInt64(c, cbAddToCart)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: txtUnknownAction})
	}
	ctx := tghelpers.BuildContext(c)
	if err := a.cart.Add(ctx, c.Sender().ID, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Respond(&tele.CallbackResponse{Text: txtNothingHere})
		}
		return err
	}
	return c.Respond(&tele.CallbackResponse{Text: txtAddedToCart})
}

func (a *App) handleCart(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	items, err := a.cart.Items(ctx, c.Sender().ID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return a.sendBanner(c, domain.PageCart, txtCartEmpty, mainMenuMarkup())
	}
	var b strings.Builder
	total, _ := a.cart.Total(ctx, c.Sender().ID)
	for _, it := range items {
		fmt.Fprintf(&b, "%s × %d = %s %s\n", it.Name, it.Quantity, it.Subtotal().StringFixed(2), a.cfg.Shop.Currency)
	}
	fmt.Fprintf(&b, "\nTotal: *%s %s*", total.StringFixed(2), a.cfg.Shop.Currency)
	return tghelpers.SendMD(c, b.String(), cartMarkup())
}

func (a *App) handleOrder(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	sender := c.Sender()
	o, _, err := a.orders.Checkout(ctx, sender.ID, sender.Username)
	if errors.Is(err, domain.ErrEmptyCart) {
		return tghelpers.SendMD(c, txtCartEmpty, mainMenuMarkup())
	}
	if err != nil {
		return err
	}

	a.notifyAdmins(c, fmt.Sprintf(txtNewOrderAlert,
		o.ID, sender.Username, sender.ID,
		o.Total.StringFixed(2), a.cfg.Shop.Currency, o.PaymentRef,
	), orderReviewMarkup(o.ID))

	placed := fmt.Sprintf(txtOrderPlaced, o.ID, o.Total.StringFixed(2), a.cfg.Shop.Currency)
	instructions := fmt.Sprintf(txtPaymentHint,
		o.Total.StringFixed(2), a.cfg.Shop.Currency, a.cfg.Shop.PaymentNetwork,
		a.cfg.Shop.PaymentWallet, o.PaymentRef,
	)
	if err := a.sendBanner(c, domain.PagePayment, placed, nil); err != nil {
		return err
	}
	return tghelpers.SendMD(c, instructions, paymentMarkup())
}

func (a *App) handlePaid(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	if _, err := a.orders.LatestPending(ctx, c.Sender().ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return tghelpers.SendMD(c, txtNoPendingOrder, mainMenuMarkup())
		}
		return err
	}
	a.fsm.SetStep(c.Sender().ID, StateAwaitScreenshot)
	return tghelpers.SendText(c, txtAwaitScreenshot)
}

func (a *App) handleCancel(c tele.Context) error {
	a.fsm.Clear(c.Sender().ID)
	return tghelpers.SendMD(c, txtDialogCancelled, mainMenuMarkup())
}

// handleScreenshot forwards the payment photo to all admins with
// confirm/reject buttons. The order itself does not move yet.
func (a *App) handleScreenshot(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	sender := c.Sender()

	if c.Message() == nil || c.Message().Photo == nil {
		return tghelpers.SendText(c, txtAwaitScreenshot)
	}

	o, err := a.orders.LatestPending(ctx, sender.ID)
	if errors.Is(err, domain.ErrNotFound) {
		a.fsm.Clear(sender.ID)
		return tghelpers.SendMD(c, txtNoPendingOrder, mainMenuMarkup())
	}
	if err != nil {
		return err
	}

	caption := fmt.Sprintf(txtScreenshotAlert,
		sender.Username, sender.ID, o.ID, o.Total.StringFixed(2), a.cfg.Shop.Currency)
	for _, adminID := range a.cfg.Core.Telegram.AdminIDs {
		_ = tghelpers.SendPhotoTo(c, adminID, c.Message().Photo.FileID, caption, screenshotReviewMarkup(sender.ID))
	}

	a.fsm.Clear(sender.ID)
	return tghelpers.SendText(c, txtScreenshotSent)
}

func (a *App) notifyAdmins(c tele.Context, text string, markup *tele.ReplyMarkup) {
	for _, adminID := range a.cfg.Core.Telegram.AdminIDs {
		_ = tghelpers.SendTextTo(c, adminID, text, markup)
	}
}
