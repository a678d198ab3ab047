package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"subscription_reminder_bot/internal/app"
	"subscription_reminder_bot/internal/domain/subscription"
	"subscription_reminder_bot/internal/infra/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// RegisterSubscriptionHandlers registers the commands that manage subscriptions.
func RegisterSubscriptionHandlers(ctx context.Context, b *telebot.Bot, subService *app.SubscriptionService, cfg *config.AppConfig, baseLogger *logrus.Entry) {
	now := func() time.Time { return time.Now().In(cfg.Location) }

	b.Handle("/list", func(c telebot.Context) error {
		handlerLogger := commandLogger(baseLogger, "/list", c)
		if c.Sender().ID != cfg.OwnerTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(unauthorizedText)
		}

		annual := false
		if args := c.Args(); len(args) > 0 {
			switch strings.ToLower(args[0]) {
			case "annual", "yearly", "year":
				annual = true
			case "monthly", "month":
			default:
				return c.Send("Use /list or /list annual.")
			}
		}

		entries, err := subService.ListForDisplay(ctx, c.Sender().ID, now())
		if err != nil {
			handlerLogger.WithError(err).Error("Failed to list subscriptions")
			return c.Send(replyForError(err))
		}
		summary, err := subService.Summary(ctx, c.Sender().ID)
		if err != nil {
			handlerLogger.WithError(err).Error("Failed to build cost summary")
			return c.Send(replyForError(err))
		}

		handlerLogger.WithField("count", len(entries)).Info("Subscription list sent")
		return c.Send(formatList(entries, summary, annual, cfg.CurrencySymbol))
	})

	b.Handle("/add", func(c telebot.Context) error {
		handlerLogger := commandLogger(baseLogger, "/add", c)
		if c.Sender().ID != cfg.OwnerTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(unauthorizedText)
		}

		in, err := parseAddPayload(c.Message().Payload, cfg.Location)
		if err != nil {
			handlerLogger.WithError(err).Warn("Invalid command format")
			return c.Send(err.Error())
		}

		created, err := subService.AddSubscription(ctx, c.Sender().ID, in)
		if err != nil {
			handlerLogger.WithError(err).Warn("Failed to add subscription")
			return c.Send(replyForError(err))
		}

		handlerLogger.WithField("subscription_id", created.ID.String()).Info("Subscription added")
		details := app.DescribeSubscription(created, now())
		return c.Send("Added.\n\n" + formatDetails(details, cfg.CurrencySymbol))
	})

	b.Handle("/edit", func(c telebot.Context) error {
		handlerLogger := commandLogger(baseLogger, "/edit", c)
		if c.Sender().ID != cfg.OwnerTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(unauthorizedText)
		}

		ref, patch, err := parseEditPayload(c.Message().Payload)
		if err != nil {
			handlerLogger.WithError(err).Warn("Invalid command format")
			return c.Send(err.Error())
		}
		sub, err := subService.Resolve(ctx, c.Sender().ID, ref)
		if err != nil {
			handlerLogger.WithError(err).WithField("ref", ref).Warn("Could not resolve subscription")
			return c.Send(replyForError(err))
		}

		updated, err := subService.UpdateSubscription(ctx, c.Sender().ID, sub.ID, patch)
		if err != nil {
			handlerLogger.WithError(err).Warn("Failed to update subscription")
			return c.Send(replyForError(err))
		}

		handlerLogger.WithField("subscription_id", updated.ID.String()).Info("Subscription updated")
		details := app.DescribeSubscription(updated, now())
		return c.Send("Updated.\n\n" + formatDetails(details, cfg.CurrencySymbol))
	})

	b.Handle("/show", func(c telebot.Context) error {
		handlerLogger := commandLogger(baseLogger, "/show", c)
		sub, ok, err := resolveArg(ctx, c, subService, cfg.OwnerTelegramID, "/show", handlerLogger)
		if !ok {
			return err
		}
		details, err := subService.Details(ctx, c.Sender().ID, sub.ID, now())
		if err != nil {
			handlerLogger.WithError(err).Error("Failed to compute details")
			return c.Send(replyForError(err))
		}
		return c.Send(formatDetails(details, cfg.CurrencySymbol))
	})

	setPaused := func(command string, paused bool) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			handlerLogger := commandLogger(baseLogger, command, c)
			sub, ok, err := resolveArg(ctx, c, subService, cfg.OwnerTelegramID, command, handlerLogger)
			if !ok {
				return err
			}
			updated, err := subService.SetPaused(ctx, c.Sender().ID, sub.ID, paused)
			if err != nil {
				handlerLogger.WithError(err).Warn("Failed to change pause state")
				return c.Send(replyForError(err))
			}
			handlerLogger.WithField("subscription_id", updated.ID.String()).Info("Pause state changed")
			if paused {
				return c.Send(fmt.Sprintf("%s is paused. No reminders until you /resume it.", updated.DisplayTitle()))
			}
			return c.Send(fmt.Sprintf("%s is active again.", updated.DisplayTitle()))
		}
	}
	b.Handle("/pause", setPaused("/pause", true))
	b.Handle("/resume", setPaused("/resume", false))

	setPinned := func(command string, pinned bool) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			handlerLogger := commandLogger(baseLogger, command, c)
			sub, ok, err := resolveArg(ctx, c, subService, cfg.OwnerTelegramID, command, handlerLogger)
			if !ok {
				return err
			}
			updated, err := subService.SetPinned(ctx, c.Sender().ID, sub.ID, pinned)
			if err != nil {
				handlerLogger.WithError(err).Error("Failed to change pin state")
				return c.Send(replyForError(err))
			}
			if pinned {
				return c.Send(fmt.Sprintf("%s is pinned to the top.", updated.DisplayTitle()))
			}
			return c.Send(fmt.Sprintf("%s is unpinned.", updated.DisplayTitle()))
		}
	}
	b.Handle("/pin", setPinned("/pin", true))
	b.Handle("/unpin", setPinned("/unpin", false))

	b.Handle("/remove", func(c telebot.Context) error {
		handlerLogger := commandLogger(baseLogger, "/remove", c)
		sub, ok, err := resolveArg(ctx, c, subService, cfg.OwnerTelegramID, "/remove", handlerLogger)
		if !ok {
			return err
		}
		removed, err := subService.RemoveSubscription(ctx, c.Sender().ID, sub.ID)
		if err != nil {
			handlerLogger.WithError(err).Error("Failed to remove subscription")
			return c.Send(replyForError(err))
		}
		handlerLogger.WithField("subscription_id", removed.ID.String()).Info("Subscription removed")
		return c.Send(fmt.Sprintf("%s was removed.", removed.DisplayTitle()))
	})
}

func commandLogger(base *logrus.Entry, command string, c telebot.Context) *logrus.Entry {
	l := base.WithFields(logrus.Fields{
		"handler":   command,
		"sender_id": c.Sender().ID,
	})
	l.Info("Command received")
	return l
}

// resolveArg checks the owner and looks up the subscription named by the single argument.
// When ok is false the reply has already been sent and err is the result of sending it.
func resolveArg(ctx context.Context, c telebot.Context, subService *app.SubscriptionService, ownerID int64, command string, logger *logrus.Entry) (*subscription.Subscription, bool, error) {
	if c.Sender().ID != ownerID {
		logger.Warn("Unauthorized access attempt")
		return nil, false, c.Send(unauthorizedText)
	}
	args := c.Args()
	if len(args) != 1 {
		return nil, false, c.Send(fmt.Sprintf("Usage: %s <id>", command))
	}
	sub, err := subService.Resolve(ctx, c.Sender().ID, args[0])
	if err != nil {
		logger.WithError(err).WithField("ref", args[0]).Warn("Could not resolve subscription")
		return nil, false, c.Send(replyForError(err))
	}
	return sub, true, nil
}

// replyForError turns service errors into a short message for the chat.
func replyForError(err error) string {
	switch {
	case errors.Is(err, app.ErrNotOwner):
		return unauthorizedText
	case errors.Is(err, subscription.ErrNotFound):
		return "No subscription matches that ID."
	case errors.Is(err, app.ErrAmbiguousReference):
		return "That ID prefix matches several subscriptions, please type more characters."
	case errors.Is(err, app.ErrAlreadyPaused):
		return "That subscription is already paused."
	case errors.Is(err, app.ErrAlreadyActive):
		return "That subscription is already active."
	case errors.Is(err, app.ErrInvalidSubscription), errors.Is(err, app.ErrInvalidSetting):
		return "Invalid input: " + err.Error()
	case errors.Is(err, app.ErrStoreUnavailable):
		return "The subscription store is unavailable right now. Please try again later."
	default:
		return "Something went wrong. Please try again later."
	}
}
