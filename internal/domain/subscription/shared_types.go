// internal/domain/subscription/shared_types.go
package subscription

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownPattern = errors.New("unknown recurrence pattern")
var ErrUnknownLeadTime = errors.New("unknown reminder lead time")

// RecurrencePattern is how often a subscription is charged.
// The zero value is deliberately invalid so a missing pattern never looks like MONTHLY.
type RecurrencePattern string

const (
	PatternUnknown RecurrencePattern = ""
	PatternMonthly RecurrencePattern = "MONTHLY"
	PatternYearly  RecurrencePattern = "YEARLY"
)

// Valid reports whether p is one of the known patterns.
func (p RecurrencePattern) Valid() bool {
	return p == PatternMonthly || p == PatternYearly
}

// Months is the length of one recurrence unit in months, or 0 for an invalid pattern.
func (p RecurrencePattern) Months() int {
	switch p {
	case PatternMonthly:
		return 1
	case PatternYearly:
		return 12
	default:
		return 0
	}
}

// ParseRecurrencePattern normalizes user or database input into a RecurrencePattern.
func ParseRecurrencePattern(raw string) (RecurrencePattern, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "MONTHLY", "MONTH", "M":
		return PatternMonthly, nil
	case "YEARLY", "ANNUAL", "YEAR", "Y":
		return PatternYearly, nil
	default:
		return PatternUnknown, fmt.Errorf("%w: %q", ErrUnknownPattern, raw)
	}
}

// LeadTime is how far ahead of a charge the reminder is delivered.
type LeadTime string

const (
	LeadTimeUnknown       LeadTime = ""
	LeadTimeNone          LeadTime = "NONE"
	LeadTimeSameDay       LeadTime = "SAME_DAY"
	LeadTimeOneDayBefore  LeadTime = "ONE_DAY_BEFORE"
	LeadTimeTwoDaysBefore LeadTime = "TWO_DAYS_BEFORE"
	LeadTimeOneWeekBefore LeadTime = "ONE_WEEK_BEFORE"
)

// Valid reports whether l is one of the known lead times, NONE included.
func (l LeadTime) Valid() bool {
	switch l {
	case LeadTimeNone, LeadTimeSameDay, LeadTimeOneDayBefore, LeadTimeTwoDaysBefore, LeadTimeOneWeekBefore:
		return true
	}
	return false
}

// OffsetDays is the number of calendar days between the reminder and the charge.
// ok is false for NONE and for unknown values.
func (l LeadTime) OffsetDays() (days int, ok bool) {
	switch l {
	case LeadTimeSameDay:
		return 0, true
	case LeadTimeOneDayBefore:
		return 1, true
	case LeadTimeTwoDaysBefore:
		return 2, true
	case LeadTimeOneWeekBefore:
		return 7, true
	default:
		return 0, false
	}
}

// ParseLeadTime accepts the canonical names in any case, with or without separators
// ("OneWeekBefore", "one_week_before"), and a few short aliases ("1w", "2d").
func ParseLeadTime(raw string) (LeadTime, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	normalized = strings.NewReplacer("_", "", "-", "", " ", "").Replace(normalized)
	switch normalized {
	case "NONE", "OFF":
		return LeadTimeNone, nil
	case "SAMEDAY", "0D":
		return LeadTimeSameDay, nil
	case "ONEDAYBEFORE", "1DAYBEFORE", "1D":
		return LeadTimeOneDayBefore, nil
	case "TWODAYSBEFORE", "2DAYSBEFORE", "2D":
		return LeadTimeTwoDaysBefore, nil
	case "ONEWEEKBEFORE", "1WEEKBEFORE", "1W", "7D":
		return LeadTimeOneWeekBefore, nil
	default:
		return LeadTimeUnknown, fmt.Errorf("%w: %q", ErrUnknownLeadTime, raw)
	}
}
