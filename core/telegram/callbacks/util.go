package callbacks

import (
	"strconv"

	tele "gopkg.in/telebot.v4"
)

// PayloadInt64 parses callback payload as int64.
func PayloadInt64(c tele.Context) (int64, error) {
	return strconv.ParseInt(CallbackPayload(c), 10, 64)
}

// KeySuffixInt64 parses the key part after prefix as int64.
func KeySuffixInt64(c tele.Context, prefix string) (int64, error) {
	suffix, ok := KeySuffix(c, prefix)
	if !ok {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseInt(suffix, 10, 64)
}
