package preference

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Keys used by the key-value backends.
const (
	KeyNotificationsEnabled = "notificationsEnabled"
	KeyIncludeCost          = "includeCostInNotifications"
	KeyMonthlyLimit         = "monthlyLimit"
	KeyLastScanDate         = "lastScanDate"
)

// Preferences are the user toggles read by the reminder scheduler and the overview.
type Preferences struct {
	NotificationsEnabled bool
	IncludeCost          bool
	MonthlyLimit         decimal.Decimal // Zero means no limit
}

// Defaults mirrors a freshly installed app: notifications on, amounts hidden, no limit.
func Defaults() Preferences {
	return Preferences{NotificationsEnabled: true}
}

// Store is a small key-value store for user preferences and the daily scan marker.
type Store interface {
	Load(ctx context.Context) (Preferences, error)
	SetNotificationsEnabled(ctx context.Context, enabled bool) error
	SetIncludeCost(ctx context.Context, include bool) error
	SetMonthlyLimit(ctx context.Context, limit decimal.Decimal) error

	// LastScanDate returns the moment of the last completed reminder scan; ok is false if none was recorded.
	LastScanDate(ctx context.Context) (at time.Time, ok bool, err error)
	MarkScanned(ctx context.Context, at time.Time) error
}

// Decode builds Preferences from the raw key-value pairs of a backend.
// Missing keys keep their defaults.
func Decode(values map[string]string) (Preferences, error) {
	p := Defaults()
	if raw, ok := values[KeyNotificationsEnabled]; ok {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return Preferences{}, fmt.Errorf("invalid %s value %q: %w", KeyNotificationsEnabled, raw, err)
		}
		p.NotificationsEnabled = v
	}
	if raw, ok := values[KeyIncludeCost]; ok {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return Preferences{}, fmt.Errorf("invalid %s value %q: %w", KeyIncludeCost, raw, err)
		}
		p.IncludeCost = v
	}
	if raw, ok := values[KeyMonthlyLimit]; ok {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return Preferences{}, fmt.Errorf("invalid %s value %q: %w", KeyMonthlyLimit, raw, err)
		}
		p.MonthlyLimit = v
	}
	return p, nil
}

func EncodeBool(v bool) string { return strconv.FormatBool(v) }

func EncodeDecimal(v decimal.Decimal) string { return v.String() }

// EncodeTime stores the marker as RFC 3339 with its zone offset.
func EncodeTime(t time.Time) string { return t.Format(time.RFC3339Nano) }

func DecodeTime(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s value %q: %w", KeyLastScanDate, raw, err)
	}
	return t, nil
}
