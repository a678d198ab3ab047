package telegram

import (
	"context"
	"fmt"
	"sync"
	"time"

	"subscription_reminder_bot/internal/domain/notification"
	domaintelegram "subscription_reminder_bot/internal/domain/telegram"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const pauseCallbackPrefix = "sub_pause_"

// Notifier delivers reminders as Telegram messages to the owner.
// Requests whose fire time has already passed are sent right away; later ones wait on a timer.
type Notifier struct {
	client  domaintelegram.Client
	chatID  int64
	logger  *logrus.Entry
	now     func() time.Time
	mu      sync.Mutex
	pending map[uuid.UUID]*time.Timer
}

func NewNotifier(client domaintelegram.Client, chatID int64, logger *logrus.Entry) *Notifier {
	return &Notifier{
		client:  client,
		chatID:  chatID,
		logger:  logger,
		now:     time.Now,
		pending: make(map[uuid.UUID]*time.Timer),
	}
}

// Schedule implements notification.Scheduler.
func (n *Notifier) Schedule(ctx context.Context, req notification.Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	delay := req.FireAt.Sub(n.now())
	if delay <= 0 {
		return n.send(req)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if old, ok := n.pending[req.ID]; ok {
		old.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() { n.fire(req, &timer) })
	n.pending[req.ID] = timer
	n.logger.WithFields(logrus.Fields{
		"subscription_id": req.SubscriptionID.String(),
		"fire_at":         req.FireAt.Format(time.RFC3339),
	}).Debug("Reminder queued")
	return nil
}

// fire sends a queued reminder unless its timer was cancelled or replaced after it went off.
// Stop does not wait for a callback that has already started, so the check runs under the lock.
// timer is dereferenced there too: a short delay can fire before Schedule has stored it.
func (n *Notifier) fire(req notification.Request, timer **time.Timer) {
	n.mu.Lock()
	if n.pending[req.ID] != *timer {
		n.mu.Unlock()
		n.logger.WithField("subscription_id", req.SubscriptionID.String()).Debug("Cancelled reminder dropped")
		return
	}
	delete(n.pending, req.ID)
	n.mu.Unlock()

	if err := n.send(req); err != nil {
		n.logger.WithError(err).WithField("subscription_id", req.SubscriptionID.String()).Error("Delayed reminder could not be delivered")
	}
}

// CancelAll stops every reminder that has not fired yet.
func (n *Notifier) CancelAll(context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for id, timer := range n.pending {
		timer.Stop()
		delete(n.pending, id)
	}
	return nil
}

// Pending reports how many reminders are waiting for their fire time.
func (n *Notifier) Pending() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.pending)
}

func (n *Notifier) send(req notification.Request) error {
	text := fmt.Sprintf("🔔 %s\n%s", req.Title, req.Body)
	markup := &telebot.ReplyMarkup{}
	markup.InlineKeyboard = [][]telebot.InlineButton{{
		{Text: "⏸ Pause", Data: pauseCallbackPrefix + req.SubscriptionID.String()},
	}}

	if err := n.client.SendMessage(n.chatID, text, &telebot.SendOptions{ReplyMarkup: markup}); err != nil {
		return fmt.Errorf("%w: %w", notification.ErrDelivery, err)
	}
	n.logger.WithField("subscription_id", req.SubscriptionID.String()).Info("Reminder delivered")
	return nil
}
