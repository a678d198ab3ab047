// Package billing computes charge dates for recurring subscriptions.
//
// Every function is pure and safe for concurrent use. An error return means the
// result is absent; callers treat the subscription as having no upcoming bill.
//
// Month-end policy: the k-th charge is derived from the start date directly and its
// day of month is clamped to the length of the target month. A subscription started on
// Jan 31 is charged on Feb 29 (leap year), Mar 31, Apr 30 and so on; it never drifts to
// the 29th. Yearly subscriptions started on Feb 29 are charged on Feb 28 in common years.
package billing

import (
	"errors"
	"time"

	"subscription_reminder_bot/internal/domain/subscription"
)

// MaxIterations bounds the advancement loops so pathological inputs fail instead of hanging.
const MaxIterations = 10000

// maxYear is the last year the engine will produce.
const maxYear = 9999

var (
	ErrMissingDate       = errors.New("billing: date is missing")
	ErrInvalidRecurrence = errors.New("billing: invalid recurrence pattern")
	ErrInvalidLeadTime   = errors.New("billing: invalid reminder lead time")
	ErrCalendarOverflow  = errors.New("billing: calendar arithmetic overflow")
	ErrNoPreviousBilling = errors.New("billing: no previous billing date")
	ErrNoReminder        = errors.New("billing: reminder disabled")
)

// AddUnits returns start advanced by k recurrence units, clamping the day of month.
// The time of day and location of start are preserved.
func AddUnits(start time.Time, pattern subscription.RecurrencePattern, k int) (time.Time, error) {
	months := pattern.Months()
	if months == 0 {
		return time.Time{}, ErrInvalidRecurrence
	}
	y, m, d := start.Date()
	hh, mm, ss := start.Clock()

	total := int(m) - 1 + months*k
	year := y + floorDiv(total, 12)
	month := time.Month(total-floorDiv(total, 12)*12 + 1)
	if year > maxYear || year < 1 {
		return time.Time{}, ErrCalendarOverflow
	}
	if last := daysIn(year, month); d > last {
		d = last
	}
	return time.Date(year, month, d, hh, mm, ss, start.Nanosecond(), start.Location()), nil
}

// NextBillingDate returns the first charge strictly after now.
// A start date that is still in the future is itself the next charge.
func NextBillingDate(start time.Time, pattern subscription.RecurrencePattern, now time.Time) (time.Time, error) {
	if start.IsZero() {
		return time.Time{}, ErrMissingDate
	}
	if !pattern.Valid() {
		return time.Time{}, ErrInvalidRecurrence
	}
	start = start.In(now.Location())
	if start.After(now) {
		return start, nil
	}

	for k := 1; k <= MaxIterations; k++ {
		candidate, err := AddUnits(start, pattern, k)
		if err != nil {
			return time.Time{}, err
		}
		if candidate.After(now) {
			return candidate, nil
		}
	}
	return time.Time{}, ErrCalendarOverflow
}

// PreviousBillingDate returns the latest charge strictly before now and strictly after start.
// ErrNoPreviousBilling means the first recurring charge has not happened yet.
func PreviousBillingDate(start time.Time, pattern subscription.RecurrencePattern, now time.Time) (time.Time, error) {
	if start.IsZero() {
		return time.Time{}, ErrMissingDate
	}
	if !pattern.Valid() {
		return time.Time{}, ErrInvalidRecurrence
	}
	start = start.In(now.Location())
	if !start.Before(now) {
		return time.Time{}, ErrNoPreviousBilling
	}

	var previous time.Time
	for k := 1; k <= MaxIterations; k++ {
		candidate, err := AddUnits(start, pattern, k)
		if err != nil {
			return time.Time{}, err
		}
		if !candidate.Before(now) {
			if previous.IsZero() {
				return time.Time{}, ErrNoPreviousBilling
			}
			return previous, nil
		}
		previous = candidate
	}
	return time.Time{}, ErrCalendarOverflow
}

// RemainingDays is the number of calendar days from now until the next charge.
// Time of day is ignored on both sides, so the result is always a whole, non-negative count.
func RemainingDays(start time.Time, pattern subscription.RecurrencePattern, now time.Time) (int, error) {
	next, err := NextBillingDate(start, pattern, now)
	if err != nil {
		return 0, err
	}
	return DaysBetween(now, next), nil
}

// ReminderTriggerDate is the start of the calendar day on which the reminder for next is due.
func ReminderTriggerDate(next time.Time, lead subscription.LeadTime) (time.Time, error) {
	if next.IsZero() {
		return time.Time{}, ErrMissingDate
	}
	if lead == subscription.LeadTimeNone {
		return time.Time{}, ErrNoReminder
	}
	days, ok := lead.OffsetDays()
	if !ok {
		return time.Time{}, ErrInvalidLeadTime
	}
	return StartOfDay(next).AddDate(0, 0, -days), nil
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day in a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DaysBetween counts calendar days from the day of `from` to the day of `to`,
// both read in from's location. DST transitions do not affect the count.
func DaysBetween(from, to time.Time) int {
	to = to.In(from.Location())
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC).Unix()
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC).Unix()
	return int((b - a) / 86400)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
