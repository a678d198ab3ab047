package subscription

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Subscription is a recurring payment recorded by the user.
type Subscription struct {
	ID        uuid.UUID
	Title     string
	Amount    decimal.Decimal   // Never negative
	StartDate time.Time         // First charge, immutable once created
	Pattern   RecurrencePattern // MONTHLY or YEARLY
	LeadTime  LeadTime          // How long before a charge the reminder fires
	IsPaused  bool              // Paused subscriptions get no reminders
	IsPinned  bool
	Notes     string
	URL       string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayTitle returns the title used in messages, falling back for untitled records.
func (s *Subscription) DisplayTitle() string {
	if s.Title == "" {
		return "your item"
	}
	return s.Title
}

// WantsReminder reports whether the scheduler should consider this subscription at all.
func (s *Subscription) WantsReminder() bool {
	return !s.IsPaused && s.LeadTime.Valid() && s.LeadTime != LeadTimeNone
}
