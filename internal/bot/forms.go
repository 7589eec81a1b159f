package bot

import (
	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/m3rciful/keyshop/core/telegram/helpers"
	"github.com/m3rciful/keyshop/core/telegram/state"
	"github.com/m3rciful/keyshop/internal/dialog"
)

// inputFrom reduces a Telegram update to what dialog forms consume.
func inputFrom(c tele.Context) dialog.Input {
	in := dialog.Input{Text: c.Text()}
	if m := c.Message(); m != nil {
		if m.Photo != nil {
			in.PhotoID = m.Photo.FileID
		}
		if m.Document != nil {
			in.DocumentID = m.Document.FileID
		}
	}
	return in
}

// formHandler adapts a dialog engine step to the FSM dispatch: prompts
// flow back to the user, the final record goes to commit.
func (a *App) formHandler(eng *dialog.Engine, commit func(c tele.Context, fields map[string]any) error) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		res, err := eng.Handle(ctx, c.Sender().ID, inputFrom(c))
		if err != nil {
			return err
		}
		switch {
		case res.Cancelled:
			return tghelpers.SendMD(c, txtDialogCancelled, adminMenuMarkup())
		case res.Done:
			return commit(c, res.Fields)
		case res.Invalid:
			return tghelpers.SendText(c, res.ErrText+"\n\n"+res.Prompt)
		default:
			return tghelpers.SendText(c, res.Prompt)
		}
	}
}

func (a *App) registerFSMHandlers() {
	productStep := a.formHandler(a.productForm, a.commitProduct)
	for _, st := range []state.State{
		StateProductName, StateProductDescription, StateProductCategory,
		StateProductPrice, StateProductImage,
	} {
		state.RegisterHandler(st, productStep)
	}

	keyStep := a.formHandler(a.keyForm, a.commitKey)
	for _, st := range []state.State{
		StateKeyName, StateKeyType, StateKeyValue, StateKeyExpiry,
	} {
		state.RegisterHandler(st, keyStep)
	}

	state.RegisterHandler(StateCategoryName, a.handleCategoryName)
	state.RegisterHandler(StateKeyEditValue, a.handleKeyEditValue)
	state.RegisterHandler(StateBannerImage, a.handleBannerImage)
	state.RegisterHandler(StatePaymentCaption, a.handlePaymentCaption)
	state.RegisterHandler(StateAwaitScreenshot, a.handleScreenshot)
}
