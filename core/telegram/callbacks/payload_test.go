package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	cases := []struct {
		data    string
		key     string
		payload string
	}{
		{"\fcategory_12|", "category_12", ""},
		{"\forder_success_3|extra", "order_success_3", "extra"},
		{"plain", "plain", ""},
		{"", "", ""},
	}
	for _, tc := range cases {
		key, payload := ParseCallbackData(&tele.Callback{Data: tc.data})
		if key != tc.key || payload != tc.payload {
			t.Fatalf("parse(%q) = %q, %q; want %q, %q", tc.data, key, payload, tc.key, tc.payload)
		}
	}
}

func TestParseCallbackDataNil(t *testing.T) {
	key, payload := ParseCallbackData(nil)
	if key != "" || payload != "" {
		t.Fatalf("nil callback parsed to %q, %q", key, payload)
	}
}
