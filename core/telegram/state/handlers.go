package state

import (
	"log/slog"

	"github.com/m3rciful/keyshop/core/logger"
	tghelpers "github.com/m3rciful/keyshop/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

var fsmHandlers = map[State]tele.HandlerFunc{}

// RegisterHandler associates a step with its handler.
func RegisterHandler(st State, h tele.HandlerFunc) {
	if h == nil {
		return
	}
	fsmHandlers[st] = h
}

// dispatch executes the handler registered for the user's current step, if any.
func dispatch(m Manager, c tele.Context) error {
	userID := c.Sender().ID
	current := m.Step(userID)
	ctx := tghelpers.BuildContext(c)
	logger.Debug(ctx, "tg", "fsm.manager",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.String("step", string(current)),
	)

	if handler, ok := fsmHandlers[current]; ok {
		return handler(c)
	}
	return nil
}
