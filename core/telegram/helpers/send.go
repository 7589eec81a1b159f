package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/keyshop/core/logger"
	"github.com/m3rciful/keyshop/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func currentDispatcher() *sender.Dispatcher {
	return globalDispatcher.Load()
}

func sendAsync(c tele.Context, action, endpoint string, run func() error) error {
	disp := currentDispatcher()
	if disp == nil {
		return run()
	}

	ctx := BuildContext(c)
	if err := disp.Enqueue(ctx, action, endpoint, run); err != nil {
		if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
			logger.Warn(ctx, "tg.sender", "queue.fallback",
				slog.String("action", action),
				slog.String("endpoint", endpoint),
				slog.String("err", err.Error()),
			)
			return run()
		}
		return err
	}
	return nil
}

// SendText sends raw text (no parse mode) to the current recipient.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	var sendOpts *tele.SendOptions
	if len(opts) > 0 {
		sendOpts = opts[0]
	}
	return sendAsync(c, "send.text", "sendMessage", func() error {
		if sendOpts != nil {
			return c.Send(text, sendOpts)
		}
		return c.Send(text)
	})
}

// SendMD sends a message with Markdown parse mode and optional reply markup.
func SendMD(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	var rm *tele.ReplyMarkup
	if len(markup) > 0 {
		rm = markup[0]
	}
	opts := &tele.SendOptions{ParseMode: tele.ModeMarkdown, ReplyMarkup: rm}
	return SendText(c, text, opts)
}

// EditOrSendMD tries to edit the message (Markdown) or sends a new one if edit fails.
func EditOrSendMD(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	var rm *tele.ReplyMarkup
	if len(markup) > 0 {
		rm = markup[0]
	}
	return c.EditOrSend(text, &tele.SendOptions{ParseMode: tele.ModeMarkdown, ReplyMarkup: rm})
}

// SendTextTo delivers text to another chat (an admin or a buyer) via the dispatcher.
func SendTextTo(c tele.Context, userID int64, text string, markup ...*tele.ReplyMarkup) error {
	var rm *tele.ReplyMarkup
	if len(markup) > 0 {
		rm = markup[0]
	}
	bot := c.Bot()
	return sendAsync(c, "send.text_to", "sendMessage", func() error {
		if rm != nil {
			_, err := bot.Send(&tele.User{ID: userID}, text, rm)
			return err
		}
		_, err := bot.Send(&tele.User{ID: userID}, text)
		return err
	})
}

// SendPhotoTo delivers a photo by file id to another chat.
func SendPhotoTo(c tele.Context, userID int64, fileID, caption string, markup ...*tele.ReplyMarkup) error {
	var rm *tele.ReplyMarkup
	if len(markup) > 0 {
		rm = markup[0]
	}
	bot := c.Bot()
	photo := &tele.Photo{File: tele.File{FileID: fileID}, Caption: caption}
	return sendAsync(c, "send.photo_to", "sendPhoto", func() error {
		if rm != nil {
			_, err := bot.Send(&tele.User{ID: userID}, photo, rm)
			return err
		}
		_, err := bot.Send(&tele.User{ID: userID}, photo)
		return err
	})
}

// SendDocumentTo delivers a document by file id to another chat.
func SendDocumentTo(c tele.Context, userID int64, fileID, caption string) error {
	bot := c.Bot()
	doc := &tele.Document{File: tele.File{FileID: fileID}, Caption: caption}
	return sendAsync(c, "send.document_to", "sendDocument", func() error {
		_, err := bot.Send(&tele.User{ID: userID}, doc)
		return err
	})
}
