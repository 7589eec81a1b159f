package bot

import (
	"errors"
	"fmt"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/keyshop/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/keyshop/core/telegram/helpers"
	"github.com/m3rciful/keyshop/internal/domain"
)

func (a *App) registerOrderCallbacks() {
	_ = a.reg.RegisterCallbackPrefix(cbConfirmUser, a.handleConfirmUser)
	_ = a.reg.RegisterCallbackPrefix(cbRejectUser, a.handleRejectUser)
	_ = a.reg.RegisterCallbackPrefix(cbOrderSuccess, a.handleOrderDeliver)
	_ = a.reg.RegisterCallbackPrefix(cbOrderReject, a.handleOrderReject)
}

// handleConfirmUser accepts a payment screenshot: the buyer's latest
// pending order moves to paid and the admin gets delivery buttons.
func (a *App) handleConfirmUser(c tele.Context) error {
	if !a.requireAdmin(c) {
		return c.Respond(&tele.CallbackResponse{Text: txtAdminOnly})
	}
	buyerID, err := callbacks.KeySuffixInt64(c, cbConfirmUser)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: txtUnknownAction})
	}
	ctx := tghelpers.BuildContext(c)
	o, err := a.orders.LatestPending(ctx, buyerID)
	if errors.Is(err, domain.ErrNotFound) {
		return c.Respond(&tele.CallbackResponse{Text: txtOrderSettled})
	}
	if err != nil {
		return err
	}
	if err := a.orders.ConfirmPayment(ctx, o.ID); err != nil {
		if errors.Is(err, domain.ErrOrderNotPending) {
			return c.Respond(&tele.CallbackResponse{Text: txtOrderSettled})
		}
		return err
	}
	_ = tghelpers.SendTextTo(c, buyerID, fmt.Sprintf(txtPaymentConfirmed, o.ID))
	return tghelpers.SendTextTo(c, c.Sender().ID,
		fmt.Sprintf("Payment for order #%d confirmed. Deliver the keys?", o.ID),
		orderReviewMarkup(o.ID))
}

// handleRejectUser declines the buyer's latest open order from the
// screenshot review.
func (a *App) handleRejectUser(c tele.Context) error {
	if !a.requireAdmin(c) {
		return c.Respond(&tele.CallbackResponse{Text: txtAdminOnly})
	}
	buyerID, err := callbacks.KeySuffixInt64(c, cbRejectUser)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: txtUnknownAction})
	}
	ctx := tghelpers.BuildContext(c)
	o, err := a.orders.LatestPending(ctx, buyerID)
	if errors.Is(err, domain.ErrNotFound) {
		return c.Respond(&tele.CallbackResponse{Text: txtOrderSettled})
	}
	if err != nil {
		return err
	}
	return a.rejectOrder(c, o.ID)
}

// handleOrderDeliver approves an order by id and sends the keys to the
// buyer.
func (a *App) handleOrderDeliver(c tele.Context) error {
	if !a.requireAdmin(c) {
		return c.Respond(&tele.CallbackResponse{Text: txtAdminOnly})
	}
	orderID, err := callbacks.KeySuffixInt64(c, cbOrderSuccess)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: txtUnknownAction})
	}
	ctx := tghelpers.BuildContext(c)

	o, keys, err := a.orders.Approve(ctx, orderID)
	if err != nil {
		var ise *domain.InsufficientStockError
		switch {
		case errors.Is(err, domain.ErrOrderNotPending):
			return c.Respond(&tele.CallbackResponse{Text: txtOrderSettled})
		case errors.Is(err, domain.ErrNotFound):
			return c.Respond(&tele.CallbackResponse{Text: txtNothingHere})
		case errors.As(err, &ise):
			return tghelpers.SendText(c, fmt.Sprintf(txtOrderShortfall, ise.ProductID, ise.Want, ise.Have))
		}
		return err
	}

	// Delivery failures after the transaction are logged by the send
	// helpers; the sale stands either way.
	for _, k := range keys {
		caption := fmt.Sprintf(txtKeyCaption, k.Name, o.ID)
		if k.IsFile() {
			_ = tghelpers.SendDocumentTo(c, o.UserID, k.File.String, caption)
		} else {
			_ = tghelpers.SendTextTo(c, o.UserID, fmt.Sprintf("%s:\n`%s`", caption, k.Value.String))
		}
	}
	_ = tghelpers.SendTextTo(c, o.UserID, fmt.Sprintf(txtOrderCompleted, o.ID))
	return tghelpers.SendText(c, fmt.Sprintf("Order #%d completed, %d key(s) delivered.", o.ID, len(keys)))
}

// handleOrderReject declines an order by id.
func (a *App) handleOrderReject(c tele.Context) error {
	if !a.requireAdmin(c) {
		return c.Respond(&tele.CallbackResponse{Text: txtAdminOnly})
	}
	orderID, err := callbacks.KeySuffixInt64(c, cbOrderReject)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: txtUnknownAction})
	}
	return a.rejectOrder(c, orderID)
}

func (a *App) rejectOrder(c tele.Context, orderID int64) error {
	ctx := tghelpers.BuildContext(c)
	o, err := a.orders.Reject(ctx, orderID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOrderNotPending):
			return c.Respond(&tele.CallbackResponse{Text: txtOrderSettled})
		case errors.Is(err, domain.ErrNotFound):
			return c.Respond(&tele.CallbackResponse{Text: txtNothingHere})
		}
		return err
	}
	_ = tghelpers.SendTextTo(c, o.UserID, fmt.Sprintf(txtOrderRejectedMsg, o.ID))
	return tghelpers.SendText(c, fmt.Sprintf("Order #%d declined.", o.ID))
}
