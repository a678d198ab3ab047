package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"subscription_reminder_bot/internal/domain/preference"

	"github.com/shopspring/decimal"
)

var ErrInvalidSetting = errors.New("invalid setting")

// DeliverySettings are the reminder settings that come from AppConfig rather than the user.
type DeliverySettings struct {
	NotifyHour     int
	NotifyMinute   int
	CurrencySymbol string
}

// SettingsService owns the user toggles and is the single entry point for running scans.
type SettingsService struct {
	prefs     preference.Store
	reminders *ReminderService
	delivery  DeliverySettings
	ownerID   int64
}

func NewSettingsService(ps preference.Store, rs *ReminderService, delivery DeliverySettings, ownerID int64) *SettingsService {
	return &SettingsService{
		prefs:     ps,
		reminders: rs,
		delivery:  delivery,
		ownerID:   ownerID,
	}
}

// ScanConfig reads the current preferences into the explicit scan configuration.
func (s *SettingsService) ScanConfig(ctx context.Context) (ScanConfig, error) {
	prefs, err := s.prefs.Load(ctx)
	if err != nil {
		return ScanConfig{}, fmt.Errorf("failed to load preferences: %w", err)
	}
	return NewScanConfig(prefs, s.delivery.NotifyHour, s.delivery.NotifyMinute, s.delivery.CurrencySymbol), nil
}

// RunScheduledScan is the background entry point; it respects the once-per-day guard.
func (s *SettingsService) RunScheduledScan(ctx context.Context, now time.Time) (ScanResult, error) {
	cfg, err := s.ScanConfig(ctx)
	if err != nil {
		return ScanResult{}, err
	}
	return s.reminders.RunDailyScan(ctx, now, cfg)
}

// Rescan lets the owner rebuild today's reminders on demand.
func (s *SettingsService) Rescan(ctx context.Context, performingUserID int64, now time.Time) (ScanResult, error) {
	if performingUserID != s.ownerID {
		return ScanResult{}, ErrNotOwner
	}
	cfg, err := s.ScanConfig(ctx)
	if err != nil {
		return ScanResult{}, err
	}
	return s.reminders.ForceRescan(ctx, now, cfg)
}

func (s *SettingsService) Preferences(ctx context.Context, performingUserID int64) (preference.Preferences, error) {
	if performingUserID != s.ownerID {
		return preference.Preferences{}, ErrNotOwner
	}
	return s.prefs.Load(ctx)
}

// SetNotificationsEnabled stores the toggle. Turning notifications on immediately
// rescans so reminders due today are not lost; the scan result is returned in that case.
func (s *SettingsService) SetNotificationsEnabled(ctx context.Context, performingUserID int64, enabled bool, now time.Time) (*ScanResult, error) {
	if performingUserID != s.ownerID {
		return nil, ErrNotOwner
	}
	if err := s.prefs.SetNotificationsEnabled(ctx, enabled); err != nil {
		return nil, fmt.Errorf("failed to store notifications toggle: %w", err)
	}
	if !enabled {
		return nil, nil
	}
	result, err := s.Rescan(ctx, performingUserID, now)
	if err != nil {
		return &result, fmt.Errorf("notifications enabled but rescan failed: %w", err)
	}
	return &result, nil
}

func (s *SettingsService) SetIncludeCost(ctx context.Context, performingUserID int64, include bool) error {
	if performingUserID != s.ownerID {
		return ErrNotOwner
	}
	if err := s.prefs.SetIncludeCost(ctx, include); err != nil {
		return fmt.Errorf("failed to store cost toggle: %w", err)
	}
	return nil
}

// SetMonthlyLimit stores the budget shown in the summary. Zero clears it.
func (s *SettingsService) SetMonthlyLimit(ctx context.Context, performingUserID int64, limit decimal.Decimal) error {
	if performingUserID != s.ownerID {
		return ErrNotOwner
	}
	if limit.IsNegative() {
		return fmt.Errorf("%w: monthly limit must not be negative", ErrInvalidSetting)
	}
	if err := s.prefs.SetMonthlyLimit(ctx, limit); err != nil {
		return fmt.Errorf("failed to store monthly limit: %w", err)
	}
	return nil
}
