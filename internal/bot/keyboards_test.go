package bot

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/keyshop/internal/domain"
)

func buttonData(m *tele.ReplyMarkup) []string {
	var data []string
	for _, row := range m.InlineKeyboard {
		for _, btn := range row {
			data = append(data, btn.Data)
		}
	}
	return data
}

func TestKeyEditFieldsMarkupMatchesPayloadKind(t *testing.T) {
	textKey := domain.Key{Value: sql.NullString{String: "AAA-BBB", Valid: true}}
	fileKey := domain.Key{File: sql.NullString{String: "doc-id", Valid: true}}

	textData := strings.Join(buttonData(keyEditFieldsMarkup(textKey)), " ")
	if !strings.Contains(textData, cbKeyEditField+"keyvalue") {
		t.Errorf("text key markup missing value button: %s", textData)
	}
	if strings.Contains(textData, cbKeyEditField+"keyfile") {
		t.Errorf("text key markup offers a file button: %s", textData)
	}

	fileData := strings.Join(buttonData(keyEditFieldsMarkup(fileKey)), " ")
	if !strings.Contains(fileData, cbKeyEditField+"keyfile") {
		t.Errorf("file key markup missing file button: %s", fileData)
	}
	if strings.Contains(fileData, cbKeyEditField+"keyvalue") {
		t.Errorf("file key markup offers a value button: %s", fileData)
	}
}

func TestReviewMarkupTokens(t *testing.T) {
	shot := buttonData(screenshotReviewMarkup(42))
	if shot[0] != cbConfirmUser+"42" || shot[1] != cbRejectUser+"42" {
		t.Errorf("screenshot review tokens = %v", shot)
	}

	order := buttonData(orderReviewMarkup(7))
	if order[0] != cbOrderSuccess+"7" || order[1] != cbOrderReject+"7" {
		t.Errorf("order review tokens = %v", order)
	}
}

func TestEditFieldSuffixesRoundTrip(t *testing.T) {
	// Every suffix placed on an edit-field button must resolve to a
	// service field, or the button press dead-ends.
	for _, k := range []domain.Key{
		{Value: sql.NullString{String: "v", Valid: true}},
		{File: sql.NullString{String: "f", Valid: true}},
	} {
		for _, data := range buttonData(keyEditFieldsMarkup(k)) {
			suffix := strings.TrimPrefix(data, cbKeyEditField)
			if _, ok := keyEditFields[suffix]; !ok {
				t.Errorf("suffix %q has no field mapping", suffix)
			}
		}
	}
}

func TestFormatKeyList(t *testing.T) {
	exp := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	keys := []domain.Key{
		{ID: 1, ProductID: 2, Name: "alpha", Used: true,
			ExpiresAt: sql.NullTime{Time: exp, Valid: true}},
		{ID: 2, ProductID: 2, Name: "beta"},
	}
	out := formatKeyList(keys)
	if !strings.Contains(out, "#1 alpha (product 2, sold, expires 2026-03-01)") {
		t.Errorf("sold line wrong:\n%s", out)
	}
	if !strings.Contains(out, "#2 beta (product 2, free)") {
		t.Errorf("free line wrong:\n%s", out)
	}
}
