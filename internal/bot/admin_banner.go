package bot

import (
	"fmt"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/keyshop/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/keyshop/core/telegram/helpers"
	"github.com/m3rciful/keyshop/internal/domain"
)

func (a *App) registerBannerCallbacks() {
	_ = a.reg.RegisterCallback(cbAdminBanner, a.handleChangeBanner)
	_ = a.reg.RegisterCallbackPrefix(cbBannerPage, a.handleBannerPagePick)
}

func (a *App) handleChangeBanner(c tele.Context) error {
	if !a.requireAdmin(c) {
		return c.Respond(&tele.CallbackResponse{Text: txtAdminOnly})
	}
	ctx := tghelpers.BuildContext(c)
	pages, err := a.catalog.BannerPages(ctx)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		pages = []string{
			domain.PageMain, domain.PageCatalog, domain.PageCart,
			domain.PagePayment, domain.PageAbout,
		}
	}
	return tghelpers.EditOrSendMD(c, txtBannerPickPage, bannerPagesMarkup(pages))
}

func (a *App) handleBannerPagePick(c tele.Context) error {
	if !a.requireAdmin(c) {
		return c.Respond(&tele.CallbackResponse{Text: txtAdminOnly})
	}
	page, ok := callbacks.KeySuffix(c, cbBannerPage)
	if !ok || page == "" {
		return c.Respond(&tele.CallbackResponse{Text: txtUnknownAction})
	}
	userID := c.Sender().ID
	a.fsm.Clear(userID)
	a.fsm.UpdateFields(userID, map[string]any{fieldBannerPage: page})
	a.fsm.SetStep(userID, StateBannerImage)
	return tghelpers.SendText(c, fmt.Sprintf(txtBannerPhotoPrompt, page))
}

// handleBannerImage stores the next photo as the picked page's banner.
func (a *App) handleBannerImage(c tele.Context) error {
	userID := c.Sender().ID
	page := a.fsm.FieldString(userID, fieldBannerPage)
	if page == "" {
		a.fsm.Clear(userID)
		return tghelpers.SendMD(c, txtUnknownAction, adminMenuMarkup())
	}
	m := c.Message()
	if m == nil || m.Photo == nil {
		return tghelpers.SendText(c, fmt.Sprintf(txtBannerPhotoPrompt, page))
	}
	ctx := tghelpers.BuildContext(c)
	if err := a.catalog.SetBannerImage(ctx, page, m.Photo.FileID); err != nil {
		return err
	}
	a.fsm.Clear(userID)
	return tghelpers.SendMD(c, fmt.Sprintf(txtBannerUpdated, page), adminMenuMarkup())
}

// handleEditPayment captures the next message as the payment page
// caption shown with payment instructions.
func (a *App) handleEditPayment(c tele.Context) error {
	a.fsm.Clear(c.Sender().ID)
	a.fsm.SetStep(c.Sender().ID, StatePaymentCaption)
	return tghelpers.SendText(c, txtPaymentEditPrompt)
}

func (a *App) handlePaymentCaption(c tele.Context) error {
	text := c.Text()
	if text == "" {
		return tghelpers.SendText(c, txtPaymentEditPrompt)
	}
	ctx := tghelpers.BuildContext(c)
	if err := a.catalog.SetBannerDescription(ctx, domain.PagePayment, text); err != nil {
		return err
	}
	a.fsm.Clear(c.Sender().ID)
	return tghelpers.SendMD(c, txtPaymentEditDone, adminMenuMarkup())
}
