// internal/app/reminder_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"subscription_reminder_bot/internal/domain/billing"
	"subscription_reminder_bot/internal/domain/notification"
	"subscription_reminder_bot/internal/domain/preference"
	"subscription_reminder_bot/internal/domain/subscription"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ErrStoreUnavailable means the active subscriptions could not be fetched; the day stays unprocessed.
var ErrStoreUnavailable = errors.New("subscription store unavailable")

const reminderTitle = "Reminder"

// Reasons reported in ScanResult.SkipReason.
const (
	SkipNotificationsDisabled = "notifications disabled"
	SkipAlreadyScannedToday   = "already scanned today"
)

// ScanConfig carries every setting a scan depends on. It is built by the caller
// from the preference store so the scan itself never reads global settings.
type ScanConfig struct {
	NotificationsEnabled bool
	IncludeCost          bool
	NotifyHour           int // Local hour at which reminders are delivered
	NotifyMinute         int
	CurrencySymbol       string
}

// NewScanConfig combines stored preferences with the delivery settings from AppConfig.
func NewScanConfig(p preference.Preferences, notifyHour, notifyMinute int, currencySymbol string) ScanConfig {
	return ScanConfig{
		NotificationsEnabled: p.NotificationsEnabled,
		IncludeCost:          p.IncludeCost,
		NotifyHour:           notifyHour,
		NotifyMinute:         notifyMinute,
		CurrencySymbol:       currencySymbol,
	}
}

// DeliveryFailure records a reminder the notification scheduler rejected.
type DeliveryFailure struct {
	SubscriptionID uuid.UUID
	Title          string
	Err            error
}

// ScanResult summarizes one invocation of the reminder scan.
type ScanResult struct {
	Evaluated  int  // Active subscriptions considered
	Attempted  int  // Due reminders handed to the notification scheduler
	Delivered  int  // Hand-offs the scheduler accepted
	Skipped    bool // Nothing was evaluated
	SkipReason string
	Failures   []DeliveryFailure
}

// ReminderService decides once per calendar day which reminders are due and hands them off.
type ReminderService struct {
	subRepo  subscription.Repository
	prefs    preference.Store
	notifier notification.Scheduler
	logger   *logrus.Entry

	// mu makes the read of the scan marker and its update one step per process.
	mu sync.Mutex
}

func NewReminderService(
	sr subscription.Repository,
	ps preference.Store,
	ns notification.Scheduler,
	logger *logrus.Entry,
) *ReminderService {
	return &ReminderService{
		subRepo:  sr,
		prefs:    ps,
		notifier: ns,
		logger:   logger,
	}
}

// RunDailyScan evaluates all active subscriptions unless a scan already completed today.
// Calling it several times on the same day delivers each reminder at most once.
func (s *ReminderService) RunDailyScan(ctx context.Context, now time.Time, cfg ScanConfig) (ScanResult, error) {
	return s.scan(ctx, now, cfg, false)
}

// ForceRescan runs the same evaluation while ignoring the daily marker.
// Pending reminders are cancelled first, so reminders that have not fired yet are not duplicated.
func (s *ReminderService) ForceRescan(ctx context.Context, now time.Time, cfg ScanConfig) (ScanResult, error) {
	return s.scan(ctx, now, cfg, true)
}

func (s *ReminderService) scan(ctx context.Context, now time.Time, cfg ScanConfig, force bool) (ScanResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	scanLogger := s.logger.WithFields(logrus.Fields{
		"scan_date": now.Format("2006-01-02"),
		"forced":    force,
	})

	if !cfg.NotificationsEnabled {
		scanLogger.Info("Notifications are disabled. Skipping reminder scan.")
		return ScanResult{Skipped: true, SkipReason: SkipNotificationsDisabled}, nil
	}

	if !force {
		lastScan, ok, err := s.prefs.LastScanDate(ctx)
		if err != nil {
			scanLogger.WithError(err).Error("Failed to read last scan date")
			return ScanResult{}, fmt.Errorf("failed to read last scan date: %w", err)
		}
		if ok && billing.SameDay(now, lastScan) {
			scanLogger.WithField("last_scan", lastScan.Format(time.RFC3339)).Info("Reminders were already scheduled today. Skipping.")
			return ScanResult{Skipped: true, SkipReason: SkipAlreadyScannedToday}, nil
		}
	}

	subs, err := s.subRepo.FetchActive(ctx)
	if err != nil {
		scanLogger.WithError(err).Error("Failed to fetch active subscriptions")
		return ScanResult{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	// A new scan replaces whatever is still pending from an earlier one.
	if err := s.notifier.CancelAll(ctx); err != nil {
		scanLogger.WithError(err).Warn("Failed to cancel pending reminders")
	}

	var result ScanResult
	for _, sub := range subs {
		if err := ctx.Err(); err != nil {
			scanLogger.WithError(err).WithFields(logrus.Fields{
				"attempted": result.Attempted,
				"delivered": result.Delivered,
			}).Warn("Reminder scan interrupted before completion")
			return result, fmt.Errorf("reminder scan interrupted: %w", err)
		}
		if !sub.WantsReminder() {
			continue
		}
		result.Evaluated++

		subLogger := scanLogger.WithFields(logrus.Fields{
			"subscription_id": sub.ID.String(),
			"title":           sub.Title,
		})

		req, due, err := PlanReminder(sub, now, cfg)
		if err != nil {
			subLogger.WithError(err).Warn("No upcoming bill for subscription, excluding it from reminders")
			continue
		}
		if !due {
			continue
		}

		result.Attempted++
		if err := s.notifier.Schedule(ctx, req); err != nil {
			subLogger.WithError(err).Error("Failed to hand off reminder")
			result.Failures = append(result.Failures, DeliveryFailure{
				SubscriptionID: sub.ID,
				Title:          sub.Title,
				Err:            err,
			})
			continue
		}
		result.Delivered++
		subLogger.WithField("fire_at", req.FireAt.Format(time.RFC3339)).Info("Reminder handed off")
	}

	if result.Attempted > 0 && result.Delivered == 0 {
		scanLogger.WithField("attempted", result.Attempted).Warn("Every reminder hand-off failed. Leaving the day open for a retry.")
		return result, nil
	}

	if err := s.prefs.MarkScanned(ctx, now); err != nil {
		scanLogger.WithError(err).Error("Failed to persist last scan date")
		return result, fmt.Errorf("failed to persist last scan date: %w", err)
	}

	scanLogger.WithFields(logrus.Fields{
		"evaluated": result.Evaluated,
		"attempted": result.Attempted,
		"delivered": result.Delivered,
		"failed":    len(result.Failures),
	}).Info("Reminder scan completed")
	return result, nil
}

// PlanReminder computes whether sub has a reminder due on now's calendar day and builds it.
// An error means the subscription has no upcoming bill or no reminder at all.
func PlanReminder(sub *subscription.Subscription, now time.Time, cfg ScanConfig) (notification.Request, bool, error) {
	// The whole calendar day is evaluated: a charge earlier today is still today's charge,
	// otherwise SAME_DAY reminders for charges at midnight could never fire.
	dayStart := billing.StartOfDay(now).Add(-time.Nanosecond)
	next, err := billing.NextBillingDate(sub.StartDate, sub.Pattern, dayStart)
	if err != nil {
		return notification.Request{}, false, err
	}
	trigger, err := billing.ReminderTriggerDate(next, sub.LeadTime)
	if err != nil {
		return notification.Request{}, false, err
	}
	if !billing.SameDay(now, trigger) {
		return notification.Request{}, false, nil
	}

	fireAt := time.Date(trigger.Year(), trigger.Month(), trigger.Day(), cfg.NotifyHour, cfg.NotifyMinute, 0, 0, trigger.Location())
	if fireAt.Before(now) {
		fireAt = now
	}

	return notification.Request{
		ID:             uuid.New(),
		SubscriptionID: sub.ID,
		FireAt:         fireAt,
		Title:          reminderTitle,
		Body:           ReminderBody(sub, cfg),
	}, true, nil
}

// ReminderBody is the notification text, with the amount only when the user opted in.
func ReminderBody(sub *subscription.Subscription, cfg ScanConfig) string {
	if cfg.IncludeCost {
		return fmt.Sprintf("Don't forget about %s, costing %s", sub.DisplayTitle(), FormatAmount(sub.Amount, cfg.CurrencySymbol))
	}
	return fmt.Sprintf("Don't forget about %s!", sub.DisplayTitle())
}

// FormatAmount renders an amount with two decimals and an optional currency symbol.
func FormatAmount(amount decimal.Decimal, currencySymbol string) string {
	formatted := amount.StringFixed(2)
	if symbol := strings.TrimSpace(currencySymbol); symbol != "" {
		formatted += " " + symbol
	}
	return formatted
}
