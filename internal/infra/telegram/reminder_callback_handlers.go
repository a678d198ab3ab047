// internal/infra/telegram/reminder_callback_handlers.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"subscription_reminder_bot/internal/app"

	"github.com/google/uuid"
	"gopkg.in/telebot.v3"
)

// RegisterReminderCallbacks handles the inline "Pause" button attached to reminders.
func RegisterReminderCallbacks(ctx context.Context, b *telebot.Bot, subService *app.SubscriptionService) {
	b.Handle(telebot.OnCallback, func(c telebot.Context) error {
		data := c.Callback().Data

		if !strings.HasPrefix(data, pauseCallbackPrefix) {
			c.Bot().OnError(fmt.Errorf("unhandled callback data: %s", data), c)
			return c.Respond(&telebot.CallbackResponse{Text: "Unknown action."})
		}

		id, err := parsePauseCallback(data)
		if err != nil {
			c.Bot().OnError(err, c)
			return c.Respond(&telebot.CallbackResponse{Text: "Invalid subscription reference."})
		}

		paused, err := subService.SetPaused(ctx, c.Sender().ID, id, true)
		switch {
		case errors.Is(err, app.ErrAlreadyPaused):
			return c.Respond(&telebot.CallbackResponse{Text: "Already paused."})
		case err != nil:
			c.Bot().OnError(fmt.Errorf("error pausing subscription %s from reminder: %w", id, err), c)
			return c.Respond(&telebot.CallbackResponse{Text: replyForError(err)})
		}
		return c.Respond(&telebot.CallbackResponse{Text: paused.DisplayTitle() + " paused."})
	})
}

func parsePauseCallback(data string) (uuid.UUID, error) {
	raw := strings.TrimPrefix(data, pauseCallbackPrefix)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid subscription ID '%s' in callback: %w", raw, err)
	}
	return id, nil
}
