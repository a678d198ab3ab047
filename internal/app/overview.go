package app

import (
	"sort"
	"time"

	"subscription_reminder_bot/internal/domain/billing"
	"subscription_reminder_bot/internal/domain/subscription"

	"github.com/shopspring/decimal"
)

var twelve = decimal.NewFromInt(12)

// Entry is a subscription together with its billing position at a given moment.
type Entry struct {
	Subscription  *subscription.Subscription
	NextBilling   time.Time
	RemainingDays int
	HasNext       bool // False when the engine could not produce a next billing date
}

// BuildEntries computes the next billing date and countdown for every subscription.
func BuildEntries(subs []*subscription.Subscription, now time.Time) []Entry {
	entries := make([]Entry, 0, len(subs))
	for _, sub := range subs {
		entry := Entry{Subscription: sub}
		if next, err := billing.NextBillingDate(sub.StartDate, sub.Pattern, now); err == nil {
			entry.NextBilling = next
			entry.RemainingDays = billing.DaysBetween(now, next)
			entry.HasNext = true
		}
		entries = append(entries, entry)
	}
	return entries
}

// SortForDisplay orders entries pinned first, then active before paused, then by
// the fewest remaining days. Entries without a next billing date go last in their group.
func SortForDisplay(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Subscription.IsPinned != b.Subscription.IsPinned {
			return a.Subscription.IsPinned
		}
		if a.Subscription.IsPaused != b.Subscription.IsPaused {
			return !a.Subscription.IsPaused
		}
		if a.HasNext != b.HasNext {
			return a.HasNext
		}
		if a.RemainingDays != b.RemainingDays {
			return a.RemainingDays < b.RemainingDays
		}
		return a.Subscription.CreatedAt.Before(b.Subscription.CreatedAt)
	})
}

// Summary is the cost overview shown above the subscription list.
type Summary struct {
	Monthly      decimal.Decimal
	Annual       decimal.Decimal
	MonthlyLimit decimal.Decimal // Zero when no limit is configured
	OverLimit    bool
	Active       int
	Paused       int
}

// CostSummary totals the active subscriptions. The annual figure is summed exactly
// and the monthly one is derived from it, so yearly amounts are divided once.
func CostSummary(subs []*subscription.Subscription, monthlyLimit decimal.Decimal) Summary {
	summary := Summary{Annual: decimal.Zero, MonthlyLimit: monthlyLimit}
	for _, sub := range subs {
		if sub.IsPaused {
			summary.Paused++
			continue
		}
		summary.Active++
		switch sub.Pattern {
		case subscription.PatternMonthly:
			summary.Annual = summary.Annual.Add(sub.Amount.Mul(twelve))
		case subscription.PatternYearly:
			summary.Annual = summary.Annual.Add(sub.Amount)
		}
	}
	summary.Monthly = summary.Annual.Div(twelve)
	summary.OverLimit = monthlyLimit.IsPositive() && summary.Monthly.GreaterThan(monthlyLimit)
	return summary
}
