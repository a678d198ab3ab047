package telegram

import "gopkg.in/telebot.v3"

// Client defines an interface for sending messages via a Telegram bot.
// Reminder delivery depends on this rather than on *telebot.Bot directly.
type Client interface {
	SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error
}
