package bot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/keyshop/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/keyshop/core/telegram/helpers"
	"github.com/m3rciful/keyshop/internal/dialog"
	"github.com/m3rciful/keyshop/internal/domain"
	"github.com/m3rciful/keyshop/internal/service"
)

func (a *App) registerKeyCallbacks() {
	_ = a.reg.RegisterCallback(cbAdminAddKey, a.keyFlowEntry(keyFlowAdd))
	_ = a.reg.RegisterCallback(cbAdminDelKey, a.keyFlowEntry(keyFlowDelete))
	_ = a.reg.RegisterCallback(cbAdminEditKey, a.keyFlowEntry(keyFlowEdit))
	_ = a.reg.RegisterCallback(cbAdminListKeys, a.handleListKeysMenu)
	_ = a.reg.RegisterCallbackPrefix(cbKeyCat, a.handleKeyCategory)
	_ = a.reg.RegisterCallbackPrefix(cbKeyProd, a.handleKeyProduct)
	_ = a.reg.RegisterCallbackPrefix(cbKeyDelete, a.handleKeyDelete)
	_ = a.reg.RegisterCallbackPrefix(cbKeyEdit, a.handleKeyEditPick)
	_ = a.reg.RegisterCallbackPrefix(cbKeyEditField, a.handleKeyEditField)
	_ = a.reg.RegisterCallback(cbViewAllKeys, a.keyView("all"))
	_ = a.reg.RegisterCallback(cbViewFreeKeys, a.keyView("free"))
	_ = a.reg.RegisterCallback(cbViewExpired, a.keyView("expired"))
}

func (a *App) buildKeyForm() *dialog.Form {
	return &dialog.Form{
		Name: "key",
		Steps: []dialog.Step{
			{
				ID:     StateKeyName,
				Prompt: promptKeyName,
				Field:  fieldName,
				Parse: func(in dialog.Input) (any, error) {
					return dialog.ValidateKeyName(in.Text)
				},
			},
			{
				ID:     StateKeyType,
				Prompt: promptKeyType,
				Field:  fieldKeyType,
				Parse: func(in dialog.Input) (any, error) {
					kind := strings.ToLower(strings.TrimSpace(in.Text))
					if kind != "text" && kind != "file" {
						return nil, fmt.Errorf("reply \"text\" or \"file\"")
					}
					return kind, nil
				},
			},
			{
				ID:     StateKeyValue,
				Prompt: promptKeyValue,
				Field:  fieldKeyPayload,
				Parse: func(in dialog.Input) (any, error) {
					if in.DocumentID != "" {
						return map[string]any{"file": in.DocumentID}, nil
					}
					v, err := dialog.ValidateKeyValue(in.Text)
					if err != nil {
						return nil, err
					}
					return map[string]any{"text": v}, nil
				},
			},
			{
				ID:     StateKeyExpiry,
				Prompt: promptKeyExpiry,
				Field:  fieldKeyExpiry,
				Parse: func(in dialog.Input) (any, error) {
					return parseExpiryInput(in.Text, time.Now())
				},
			},
		},
	}
}

// parseExpiryInput turns an expiry answer into its canonical form: ""
// for no expiry, otherwise a YYYY-MM-DD date. Accepts a day count or an
// absolute date in the common formats.
func parseExpiryInput(text string, now time.Time) (string, error) {
	s := strings.TrimSpace(text)
	if s == "-" {
		return "", nil
	}
	if days, err := service.ParseExpiryDays(s); err == nil {
		return now.AddDate(0, 0, days).Format(time.DateOnly), nil
	}
	if t, ok := tghelpers.ParseFlexibleDate(s); ok {
		if !t.After(now) {
			return "", fmt.Errorf("the expiry date must be in the future")
		}
		return t.Format(time.DateOnly), nil
	}
	return "", fmt.Errorf("validity period must be a number of days, a date like 2026-12-31, or %q", "-")
}

// expiryFromCanonical maps the canonical expiry string back to a time.
func expiryFromCanonical(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return nil
	}
	return &t
}

// keyFlowEntry opens the shared category/product pick for one of the
// key management flows.
func (a *App) keyFlowEntry(flow string) tele.HandlerFunc {
	return func(c tele.Context) error {
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
		userID := c.Sender().ID
		a.fsm.Clear(userID)
		a.fsm.UpdateFields(userID, map[string]any{fieldKeyFlow: flow})
		return tghelpers.SendMD(c, txtPickCategory, categoriesMarkup(cats, cbKeyCat))
	}
}

func (a *App) handleKeyCategory(c tele.Context) error {
	if !a.requireAdmin(c) {
		return c.Respond(&tele.CallbackResponse{Text: txtAdminOnly})
	}
	id, err := callbacks.KeySuffixInt64(c, cbKeyCat)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: txtUnknownAction})
	}
	ctx := tghelpers.BuildContext(c)
	products, err := a.catalog.Products(ctx, id)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		return tghelpers.SendMD(c, txtNothingHere, adminMenuMarkup())
	}
	a.fsm.UpdateFields(c.Sender().ID, map[string]any{fieldCategoryID: id})
	return tghelpers.SendMD(c, txtPickProduct, productsMarkup(products, cbKeyProd))
}

func (a *App) handleKeyProduct(c tele.Context) error {
	if !a.requireAdmin(c) {
		return c.Respond(&tele.CallbackResponse{Text: txtAdminOnly})
	}
	productID, err := callbacks.KeySuffixInt64(c, cbKeyProd)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: txtUnknownAction})
	}
	ctx := tghelpers.BuildContext(c)
	userID := c.Sender().ID

	switch a.fsm.FieldString(userID, fieldKeyFlow) {
	case keyFlowAdd:
		a.fsm.UpdateFields(userID, map[string]any{fieldProductID: productID})
		a.fsm.SetStep(userID, StateKeyName)
		return tghelpers.SendText(c, promptKeyName+"\n\n"+txtFormHint)

	case keyFlowEdit:
		keys, err := a.keys.ByProduct(ctx, productID)
		if err != nil {
			return err
		}
		if len(keys) == 0 {
			return tghelpers.SendMD(c, txtNothingHere, adminMenuMarkup())
		}
		return tghelpers.SendMD(c, txtPickKey, keysMarkup(keys, cbKeyEdit))

	case keyFlowDelete:
		// Only unused keys are offered; sold keys stay for audit.
		keys, err := a.keys.Deletable(ctx, productID)
		if err != nil {
			return err
		}
		if len(keys) == 0 {
			return tghelpers.SendMD(c, txtNothingHere, adminMenuMarkup())
		}
		return tghelpers.SendMD(c, txtPickKey, keysMarkup(keys, cbKeyDelete))
	}
	return c.Respond(&tele.CallbackResponse{Text: txtUnknownAction})
}

func (a *App) commitKey(c tele.Context, fields map[string]any) error {
	ctx := tghelpers.BuildContext(c)

	payload := cast.ToStringMapString(fields[fieldKeyPayload])
	kind := cast.ToString(fields[fieldKeyType])
	in := service.AddKeyInput{
		ProductID: cast.ToInt64(fields[fieldProductID]),
		Name:      cast.ToString(fields[fieldName]),
		Value:     payload["text"],
		File:      payload["file"],
	}
	if kind == "file" && in.File == "" {
		return tghelpers.SendMD(c, "You chose a file key but sent text. Start over.", adminMenuMarkup())
	}
	if kind == "text" && in.Value == "" {
		return tghelpers.SendMD(c, "You chose a text key but sent a file. Start over.", adminMenuMarkup())
	}
	in.ExpiresAt = expiryFromCanonical(cast.ToString(fields[fieldKeyExpiry]))

	if _, err := a.keys.Add(ctx, in); err != nil {
		if errors.Is(err, domain.ErrDuplicateKeyName) {
			return tghelpers.SendMD(c, txtDuplicateKeyName, adminMenuMarkup())
		}
		return err
	}
	p, err := a.catalog.Product(ctx, in.ProductID)
	if err != nil {
		return err
	}
	return tghelpers.SendMD(c, fmt.Sprintf(txtKeySaved, in.Name, p.AvailableKeys), adminMenuMarkup())
}

// handleAddKeyPipe adds a key from one message:
// /add_key <product_id>|<name>|<value>|<days or ->
func (a *App) handleAddKeyPipe(c tele.Context) error {
	parts := strings.Split(c.Message().Payload, "|")
	if len(parts) != 4 {
		return tghelpers.SendText(c, txtAddKeyPipeFormat)
	}
	productID, err := cast.ToInt64E(strings.TrimSpace(parts[0]))
	if err != nil || productID <= 0 {
		return tghelpers.SendText(c, txtAddKeyPipeFormat)
	}
	in := service.AddKeyInput{
		ProductID: productID,
		Name:      strings.TrimSpace(parts[1]),
		Value:     strings.TrimSpace(parts[2]),
	}
	canon, err := parseExpiryInput(parts[3], time.Now())
	if err != nil {
		return tghelpers.SendText(c, err.Error())
	}
	in.ExpiresAt = expiryFromCanonical(canon)

	ctx := tghelpers.BuildContext(c)
	if _, err := a.keys.Add(ctx, in); err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateKeyName):
			return tghelpers.SendText(c, txtDuplicateKeyName)
		case errors.Is(err, domain.ErrNotFound):
			return tghelpers.SendText(c, txtNothingHere)
		case errors.Is(err, domain.ErrKeyPayloadMismatch):
			return tghelpers.SendText(c, txtAddKeyPipeFormat)
		}
		return err
	}
	p, err := a.catalog.Product(ctx, productID)
	if err != nil {
		return err
	}
	return tghelpers.SendMD(c, fmt.Sprintf(txtKeySaved, in.Name, p.AvailableKeys), adminMenuMarkup())
}

func (a *App) handleKeyDelete(c tele.Context) error {
	if !a.requireAdmin(c) {
		return c.Respond(&tele.CallbackResponse{Text: txtAdminOnly})
	}
	id, err := callbacks.KeySuffixInt64(c, cbKeyDelete)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: txtUnknownAction})
	}
	ctx := tghelpers.BuildContext(c)
	if err := a.keys.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Respond(&tele.CallbackResponse{Text: txtNothingHere})
		}
		return err
	}
	return tghelpers.SendMD(c, txtKeyDeleted, adminMenuMarkup())
}

func (a *App) handleKeyEditPick(c tele.Context) error {
	if !a.requireAdmin(c) {
		return c.Respond(&tele.CallbackResponse{Text: txtAdminOnly})
	}
	id, err := callbacks.KeySuffixInt64(c, cbKeyEdit)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: txtUnknownAction})
	}
	ctx := tghelpers.BuildContext(c)
	k, err := a.keys.Key(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Respond(&tele.CallbackResponse{Text: txtNothingHere})
		}
		return err
	}
	a.fsm.UpdateFields(c.Sender().ID, map[string]any{dialog.EditIDField: id})
	return tghelpers.SendMD(c, fmt.Sprintf("Editing key %q. What do you want to change?", k.Name), keyEditFieldsMarkup(*k))
}

// keyEditFields maps edit_field_* callback suffixes to service fields.
var keyEditFields = map[string]service.KeyField{
	"name":           service.KeyFieldName,
	"keyvalue":       service.KeyFieldValue,
	"keyfile":        service.KeyFieldFile,
	"validityperiod": service.KeyFieldExpiry,
}

var keyEditLabels = map[service.KeyField]string{
	service.KeyFieldName:   "name",
	service.KeyFieldValue:  "key value",
	service.KeyFieldFile:   "key file",
	service.KeyFieldExpiry: "validity period in days",
}

func (a *App) handleKeyEditField(c tele.Context) error {
	if !a.requireAdmin(c) {
		return c.Respond(&tele.CallbackResponse{Text: txtAdminOnly})
	}
	suffix, ok := callbacks.KeySuffix(c, cbKeyEditField)
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: txtUnknownAction})
	}
	field, ok := keyEditFields[suffix]
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: txtUnknownAction})
	}
	userID := c.Sender().ID
	if _, ok := a.fsm.FieldInt64(userID, dialog.EditIDField); !ok {
		return c.Respond(&tele.CallbackResponse{Text: txtUnknownAction})
	}
	a.fsm.UpdateFields(userID, map[string]any{fieldEditField: string(field)})
	a.fsm.SetStep(userID, StateKeyEditValue)
	return tghelpers.SendText(c, fmt.Sprintf(txtKeyEditPrompt, keyEditLabels[field]))
}

// handleKeyEditValue commits a single-field key edit from the next
// admin message.
func (a *App) handleKeyEditValue(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	userID := c.Sender().ID

	editID, ok := a.fsm.FieldInt64(userID, dialog.EditIDField)
	if !ok {
		a.fsm.Clear(userID)
		return tghelpers.SendMD(c, txtUnknownAction, adminMenuMarkup())
	}
	field := service.KeyField(a.fsm.FieldString(userID, fieldEditField))

	value := c.Text()
	switch field {
	case service.KeyFieldFile:
		if m := c.Message(); m != nil && m.Document != nil {
			value = m.Document.FileID
		}
	case service.KeyFieldExpiry:
		canon, err := parseExpiryInput(value, time.Now())
		if err != nil {
			return tghelpers.SendText(c, err.Error())
		}
		if canon == "" {
			value = "-"
		} else {
			value = canon
		}
	}

	if err := a.keys.Edit(ctx, editID, field, value); err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateKeyName):
			return tghelpers.SendText(c, txtDuplicateKeyName)
		case errors.Is(err, domain.ErrKeyPayloadMismatch):
			a.fsm.Clear(userID)
			return tghelpers.SendMD(c, txtKeyPayloadMismatch, adminMenuMarkup())
		case errors.Is(err, domain.ErrNotFound):
			a.fsm.Clear(userID)
			return tghelpers.SendMD(c, txtNothingHere, adminMenuMarkup())
		}
		// Validation problem: keep the state and let the admin retry.
		return tghelpers.SendText(c, err.Error())
	}
	a.fsm.Clear(userID)
	return tghelpers.SendMD(c, txtKeyEdited, adminMenuMarkup())
}

func (a *App) handleListKeysMenu(c tele.Context) error {
	if !a.requireAdmin(c) {
		return c.Respond(&tele.CallbackResponse{Text: txtAdminOnly})
	}
	// Swap the admin menu message in place instead of stacking a new one.
	return tghelpers.EditOrSendMD(c, "Which keys do you want to see?", keyViewsMarkup())
}

func (a *App) keyView(view string) tele.HandlerFunc {
	return func(c tele.Context) error {
		if !a.requireAdmin(c) {
			return c.Respond(&tele.CallbackResponse{Text: txtAdminOnly})
		}
		ctx := tghelpers.BuildContext(c)
		var (
			keys []domain.Key
			err  error
		)
		switch view {
		case "free":
			keys, err = a.keys.Free(ctx)
		case "expired":
			keys, err = a.keys.Expired(ctx)
		default:
			keys, err = a.keys.All(ctx)
		}
		if err != nil {
			return err
		}
		if len(keys) == 0 {
			return tghelpers.SendMD(c, txtNothingHere, adminMenuMarkup())
		}
		return tghelpers.SendText(c, formatKeyList(keys))
	}
}

func formatKeyList(keys []domain.Key) string {
	var b strings.Builder
	for _, k := range keys {
		status := "free"
		if k.Used {
			status = "sold"
		}
		fmt.Fprintf(&b, "#%d %s (product %d, %s", k.ID, k.Name, k.ProductID, status)
		if k.ExpiresAt.Valid {
			fmt.Fprintf(&b, ", expires %s", k.ExpiresAt.Time.Format(time.DateOnly))
		}
		b.WriteString(")\n")
	}
	return b.String()
}
