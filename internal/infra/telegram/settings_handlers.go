package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"subscription_reminder_bot/internal/app"
	"subscription_reminder_bot/internal/infra/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// RegisterSettingsHandlers registers the preference toggles and the manual rescan.
func RegisterSettingsHandlers(ctx context.Context, b *telebot.Bot, settings *app.SettingsService, cfg *config.AppConfig, baseLogger *logrus.Entry) {
	now := func() time.Time { return time.Now().In(cfg.Location) }

	b.Handle("/notifications", func(c telebot.Context) error {
		handlerLogger := commandLogger(baseLogger, "/notifications", c)
		if c.Sender().ID != cfg.OwnerTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(unauthorizedText)
		}

		if len(c.Args()) == 0 {
			prefs, err := settings.Preferences(ctx, c.Sender().ID)
			if err != nil {
				handlerLogger.WithError(err).Error("Failed to load preferences")
				return c.Send(replyForError(err))
			}
			return c.Send(fmt.Sprintf("Notifications are %s.", onOff(prefs.NotificationsEnabled)))
		}

		enabled, ok := parseToggle(c.Args())
		if !ok {
			return c.Send("Usage: /notifications on|off")
		}
		result, err := settings.SetNotificationsEnabled(ctx, c.Sender().ID, enabled, now())
		if err != nil {
			handlerLogger.WithError(err).Error("Failed to change notifications toggle")
			return c.Send(replyForError(err))
		}
		handlerLogger.WithField("enabled", enabled).Info("Notifications toggle changed")
		if result == nil {
			return c.Send("Notifications are off.")
		}
		return c.Send("Notifications are on. " + describeScan(*result))
	})

	b.Handle("/cost", func(c telebot.Context) error {
		handlerLogger := commandLogger(baseLogger, "/cost", c)
		include, ok := parseToggle(c.Args())
		if !ok {
			return c.Send("Usage: /cost on|off")
		}
		if err := settings.SetIncludeCost(ctx, c.Sender().ID, include); err != nil {
			handlerLogger.WithError(err).Warn("Failed to change cost toggle")
			return c.Send(replyForError(err))
		}
		if include {
			return c.Send("Reminders will include the amount.")
		}
		return c.Send("Reminders will not include the amount.")
	})

	b.Handle("/limit", func(c telebot.Context) error {
		handlerLogger := commandLogger(baseLogger, "/limit", c)
		args := c.Args()
		if len(args) != 1 {
			return c.Send("Usage: /limit <amount>, or /limit 0 to clear it")
		}
		limit, err := parseAmount(args[0])
		if err != nil {
			return c.Send(err.Error())
		}
		if err := settings.SetMonthlyLimit(ctx, c.Sender().ID, limit); err != nil {
			handlerLogger.WithError(err).Warn("Failed to store monthly limit")
			return c.Send(replyForError(err))
		}
		if limit.IsZero() {
			return c.Send("Monthly limit cleared.")
		}
		return c.Send("Monthly limit set to " + app.FormatAmount(limit, cfg.CurrencySymbol) + ".")
	})

	b.Handle("/scan", func(c telebot.Context) error {
		handlerLogger := commandLogger(baseLogger, "/scan", c)
		result, err := settings.Rescan(ctx, c.Sender().ID, now())
		if err != nil {
			handlerLogger.WithError(err).Error("Manual rescan failed")
			return c.Send(replyForError(err))
		}
		return c.Send(describeScan(result))
	})
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func describeScan(r app.ScanResult) string {
	if r.Skipped {
		return "Scan skipped: " + r.SkipReason + "."
	}
	var b strings.Builder
	switch r.Delivered {
	case 0:
		b.WriteString("No reminders are due today.")
	case 1:
		b.WriteString("1 reminder scheduled for today.")
	default:
		fmt.Fprintf(&b, "%d reminders scheduled for today.", r.Delivered)
	}
	if n := len(r.Failures); n > 0 {
		fmt.Fprintf(&b, " %d could not be delivered.", n)
	}
	return b.String()
}
