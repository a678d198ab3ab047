// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"fmt"
	"strings"

	"subscription_reminder_bot/internal/infra/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const unauthorizedText = "Sorry, this bot only answers its owner."

func RegisterBotCommands(
	b *telebot.Bot,
	cfg *config.AppConfig, // For OwnerTelegramID
	baseLogger *logrus.Entry, // For contextual logging
) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/start").WithField("sender_id", senderID)
		logCtx.Info("Processing /start command")

		if senderID != cfg.OwnerTelegramID {
			logCtx.Info("User is not the owner")
			return c.Send(unauthorizedText)
		}
		return c.Send(fmt.Sprintf("Hi %s! I keep track of your subscriptions and remind you before they are billed. Use /help for the list of commands.", c.Sender().FirstName))
	})

	b.Handle("/help", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/help").WithField("sender_id", senderID)
		logCtx.Info("Processing /help command")

		if senderID != cfg.OwnerTelegramID {
			return c.Send(unauthorizedText)
		}
		return c.Send(helpText())
	})
}

func helpText() string {
	var help strings.Builder
	help.WriteString("Subscriptions:\n")
	help.WriteString("/list [annual] - all subscriptions, the next bill first\n")
	help.WriteString("/add <title> | <amount> | <YYYY-MM-DD> [| monthly|yearly] [| lead] [| notes] [| url]\n")
	help.WriteString("   lead: none, same_day, 1d, 2d, 1w\n")
	help.WriteString("/edit <id> | field=value ... (title, amount, pattern, lead, notes, url)\n")
	help.WriteString("/show <id> - billing dates of one subscription\n")
	help.WriteString("/pause <id>, /resume <id>\n")
	help.WriteString("/pin <id>, /unpin <id>\n")
	help.WriteString("/remove <id>\n\n")
	help.WriteString("Settings:\n")
	help.WriteString("/notifications on|off\n")
	help.WriteString("/cost on|off - include the amount in reminders\n")
	help.WriteString("/limit <amount> - monthly budget, 0 to clear\n")
	help.WriteString("/scan - rebuild today's reminders\n\n")
	help.WriteString("IDs can be shortened to the first characters shown in /list.")
	return help.String()
}
