package bot

import (
	"fmt"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/keyshop/core/telegram/keyboard"
	"github.com/m3rciful/keyshop/internal/domain"
)

// Callback tokens. Suffix tokens carry their argument in the token
// itself and are registered as prefixes.
const (
	cbCatalog       = "catalog"
	cbCart          = "cart"
	cbAbout         = "about"
	cbOrder         = "order"
	cbPaid          = "paid"
	cbCancel        = "cancel"
	cbCategory      = "category_"
	cbProduct       = "product_"
	cbAddToCart     = "add_to_cart_"
	cbAdminAddCat   = "add_category"
	cbAdminAddProd  = "add_product"
	cbAdminListProd = "list_products"
	cbAdminBanner   = "change_banner"
	cbAdminAddKey   = "add_key"
	cbAdminDelKey   = "delete_key"
	cbAdminEditKey  = "edit_key"
	cbAdminListKeys = "list_keys"
	cbProdDelete    = "delete_"
	cbProdChange    = "change_"
	cbKeyCat        = "key_cat_"
	cbKeyProd       = "key_prod_"
	cbKeyDelete     = "del_key_"
	cbKeyEdit       = "edit_key_"
	cbKeyEditField  = "edit_field_"
	cbViewAllKeys   = "view_all_keys"
	cbViewFreeKeys  = "view_free_keys"
	cbViewExpired   = "view_expired_keys"
	cbOrderSuccess  = "order_success_"
	cbOrderReject   = "order_reject_"
	cbConfirmUser   = "confirm_"
	cbRejectUser    = "reject_"
	cbBannerPage    = "banner_"
)

func mainMenuMarkup() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: "🛒 Catalog", Data: cbCatalog}},
		[]keyboard.InlineBtn{{Text: "🧺 Cart", Data: cbCart}, {Text: "ℹ️ About", Data: cbAbout}},
	)
}

func categoriesMarkup(cats []domain.Category, prefix string) *tele.ReplyMarkup {
	btns := make([]keyboard.InlineBtn, 0, len(cats))
	for _, cat := range cats {
		btns = append(btns, keyboard.InlineBtn{Text: cat.Name, Data: prefix + fmt.Sprint(cat.ID)})
	}
	return keyboard.InlineButtonsNPerRow(btns, 2)
}

func productsMarkup(products []domain.Product, prefix string) *tele.ReplyMarkup {
	btns := make([]keyboard.InlineBtn, 0, len(products))
	for _, p := range products {
		label := fmt.Sprintf("%s — %s (%d in stock)", p.Name, p.Price.StringFixed(2), p.AvailableKeys)
		btns = append(btns, keyboard.InlineBtn{Text: label, Data: prefix + fmt.Sprint(p.ID)})
	}
	return keyboard.InlineButtonsNPerRow(btns, 1)
}

func productCardMarkup(p domain.Product) *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: "➕ Add to cart", Data: cbAddToCart + fmt.Sprint(p.ID)}},
		[]keyboard.InlineBtn{{Text: "⬅️ Back", Data: cbCategory + fmt.Sprint(p.CategoryID)}},
	)
}

func cartMarkup() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: "✅ Place order", Data: cbOrder}},
		[]keyboard.InlineBtn{{Text: "⬅️ Back", Data: cbCatalog}},
	)
}

func paymentMarkup() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: "💸 I paid", Data: cbPaid}},
		[]keyboard.InlineBtn{{Text: "❌ Cancel", Data: cbCancel}},
	)
}

func adminMenuMarkup() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: "📁 Add category", Data: cbAdminAddCat}},
		[]keyboard.InlineBtn{{Text: "➕ Add product", Data: cbAdminAddProd}, {Text: "📋 Products", Data: cbAdminListProd}},
		[]keyboard.InlineBtn{{Text: "🔑 Add key", Data: cbAdminAddKey}, {Text: "🗑 Delete key", Data: cbAdminDelKey}},
		[]keyboard.InlineBtn{{Text: "✏️ Edit key", Data: cbAdminEditKey}, {Text: "🔎 List keys", Data: cbAdminListKeys}},
		[]keyboard.InlineBtn{{Text: "🖼 Change banner", Data: cbAdminBanner}},
	)
}

func productAdminMarkup(p domain.Product) *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "✏️ Edit", Data: cbProdChange + fmt.Sprint(p.ID)},
			{Text: "🗑 Delete", Data: cbProdDelete + fmt.Sprint(p.ID)},
		},
	)
}

func keysMarkup(keys []domain.Key, prefix string) *tele.ReplyMarkup {
	btns := make([]keyboard.InlineBtn, 0, len(keys))
	for _, k := range keys {
		btns = append(btns, keyboard.InlineBtn{Text: k.Name, Data: prefix + fmt.Sprint(k.ID)})
	}
	return keyboard.InlineButtonsNPerRow(btns, 2)
}

func keyViewsMarkup() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "All", Data: cbViewAllKeys},
			{Text: "Free", Data: cbViewFreeKeys},
			{Text: "Expired", Data: cbViewExpired},
		},
	)
}

func keyEditFieldsMarkup(k domain.Key) *tele.ReplyMarkup {
	rows := [][]keyboard.InlineBtn{
		{{Text: "Name", Data: cbKeyEditField + "name"}},
	}
	if k.IsFile() {
		rows = append(rows, []keyboard.InlineBtn{{Text: "File", Data: cbKeyEditField + "keyfile"}})
	} else {
		rows = append(rows, []keyboard.InlineBtn{{Text: "Value", Data: cbKeyEditField + "keyvalue"}})
	}
	rows = append(rows, []keyboard.InlineBtn{{Text: "Validity period", Data: cbKeyEditField + "validityperiod"}})
	return keyboard.InlineButtonsRows(rows...)
}

func screenshotReviewMarkup(userID int64) *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "✅ Confirm", Data: cbConfirmUser + fmt.Sprint(userID)},
			{Text: "❌ Reject", Data: cbRejectUser + fmt.Sprint(userID)},
		},
	)
}

func orderReviewMarkup(orderID int64) *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "✅ Deliver keys", Data: cbOrderSuccess + fmt.Sprint(orderID)},
			{Text: "❌ Decline", Data: cbOrderReject + fmt.Sprint(orderID)},
		},
	)
}

func bannerPagesMarkup(pages []string) *tele.ReplyMarkup {
	btns := make([]keyboard.InlineBtn, 0, len(pages))
	for _, page := range pages {
		btns = append(btns, keyboard.InlineBtn{Text: page, Data: cbBannerPage + page})
	}
	return keyboard.InlineButtonsNPerRow(btns, 2)
}
