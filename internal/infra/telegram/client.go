package telegram

import (
	"fmt"

	"gopkg.in/telebot.v3"
)

// TelebotAdapter is the domain telegram.Client backed by a running *telebot.Bot.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendMessage posts text to chatID. Subscription URLs in reminders are not expanded into previews.
func (a *TelebotAdapter) SendMessage(chatID int64, text string, options *telebot.SendOptions) error {
	if options == nil {
		options = &telebot.SendOptions{}
	}
	options.DisableWebPagePreview = true

	if _, err := a.bot.Send(telebot.ChatID(chatID), text, options); err != nil {
		return fmt.Errorf("sending to chat %d: %w", chatID, err)
	}
	return nil
}
