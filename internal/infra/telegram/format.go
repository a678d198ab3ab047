package telegram

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"subscription_reminder_bot/internal/app"
	"subscription_reminder_bot/internal/domain/subscription"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

var errAddUsage = errors.New("usage: /add <title> | <amount> | <YYYY-MM-DD> [| monthly|yearly] [| lead] [| notes] [| url]")

var twelve = decimal.NewFromInt(12)

// parseAddPayload reads the pipe-separated /add arguments. Dates are read in loc.
func parseAddPayload(payload string, loc *time.Location) (app.NewSubscription, error) {
	parts := strings.Split(payload, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 3 || len(parts) > 7 {
		return app.NewSubscription{}, errAddUsage
	}

	in := app.NewSubscription{
		Title:    parts[0],
		Pattern:  subscription.PatternMonthly,
		LeadTime: subscription.LeadTimeSameDay,
	}

	amount, err := parseAmount(parts[1])
	if err != nil {
		return app.NewSubscription{}, err
	}
	in.Amount = amount

	start, err := time.ParseInLocation(dateLayout, parts[2], loc)
	if err != nil {
		return app.NewSubscription{}, fmt.Errorf("invalid start date %q, expected YYYY-MM-DD", parts[2])
	}
	in.StartDate = start

	if len(parts) > 3 && parts[3] != "" {
		if in.Pattern, err = subscription.ParseRecurrencePattern(parts[3]); err != nil {
			return app.NewSubscription{}, err
		}
	}
	if len(parts) > 4 && parts[4] != "" {
		if in.LeadTime, err = subscription.ParseLeadTime(parts[4]); err != nil {
			return app.NewSubscription{}, err
		}
	}
	if len(parts) > 5 {
		in.Notes = parts[5]
	}
	if len(parts) > 6 {
		in.URL = parts[6]
	}
	return in, nil
}

var errEditUsage = errors.New("usage: /edit <id> | field=value [| field=value ...], fields: title, amount, pattern, lead, notes, url")

// parseEditPayload reads "/edit <id> | key=value | ...". Empty notes or url values clear the field.
func parseEditPayload(payload string) (string, app.SubscriptionPatch, error) {
	var patch app.SubscriptionPatch
	parts := strings.Split(payload, "|")
	ref := strings.TrimSpace(parts[0])
	if ref == "" || strings.ContainsAny(ref, " \t") || len(parts) < 2 {
		return "", patch, errEditUsage
	}

	for _, part := range parts[1:] {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return "", patch, errEditUsage
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "title":
			patch.Title = &value
		case "amount":
			amount, err := parseAmount(value)
			if err != nil {
				return "", patch, err
			}
			patch.Amount = &amount
		case "pattern":
			pattern, err := subscription.ParseRecurrencePattern(value)
			if err != nil {
				return "", patch, err
			}
			patch.Pattern = &pattern
		case "lead":
			lead, err := subscription.ParseLeadTime(value)
			if err != nil {
				return "", patch, err
			}
			patch.LeadTime = &lead
		case "notes":
			patch.Notes = &value
		case "url":
			patch.URL = &value
		case "start":
			return "", patch, errors.New("the start date cannot be changed, remove the subscription and add it again")
		default:
			return "", patch, fmt.Errorf("unknown field %q", key)
		}
	}
	return ref, patch, nil
}

// parseAmount accepts both "12.99" and "12,99".
func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(raw), ",", "."))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q", raw)
	}
	return amount, nil
}

func shortID(sub *subscription.Subscription) string {
	return sub.ID.String()[:8]
}

// periodAmount converts the amount to the period the list is shown in.
func periodAmount(sub *subscription.Subscription, annual bool) decimal.Decimal {
	switch {
	case annual && sub.Pattern == subscription.PatternMonthly:
		return sub.Amount.Mul(twelve)
	case !annual && sub.Pattern == subscription.PatternYearly:
		return sub.Amount.Div(twelve)
	default:
		return sub.Amount
	}
}

func formatEntry(e app.Entry, annual bool, currency string) string {
	var b strings.Builder
	sub := e.Subscription
	if sub.IsPinned {
		b.WriteString("📌 ")
	}
	if sub.IsPaused {
		b.WriteString("⏸ ")
	}
	fmt.Fprintf(&b, "%s [%s] %s", sub.DisplayTitle(), shortID(sub), app.FormatAmount(periodAmount(sub, annual), currency))

	switch {
	case sub.IsPaused:
		b.WriteString(" (paused)")
	case !e.HasNext:
		b.WriteString(" (no upcoming bill)")
	case e.RemainingDays == 0:
		b.WriteString(" (due today)")
	case e.RemainingDays == 1:
		b.WriteString(" (due tomorrow)")
	default:
		fmt.Fprintf(&b, " (in %d days)", e.RemainingDays)
	}
	return b.String()
}

func formatList(entries []app.Entry, summary app.Summary, annual bool, currency string) string {
	if len(entries) == 0 {
		return "You have no subscriptions yet. Add one with /add."
	}

	var b strings.Builder
	period := "month"
	total := summary.Monthly
	if annual {
		period = "year"
		total = summary.Annual
	}
	fmt.Fprintf(&b, "Total per %s: %s\n", period, app.FormatAmount(total, currency))
	if summary.MonthlyLimit.IsPositive() {
		fmt.Fprintf(&b, "Monthly limit: %s", app.FormatAmount(summary.MonthlyLimit, currency))
		if summary.OverLimit {
			b.WriteString(" ⚠️ exceeded")
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	for _, e := range entries {
		b.WriteString(formatEntry(e, annual, currency))
		b.WriteString("\n")
	}
	return b.String()
}

func formatDetails(d *app.Details, currency string) string {
	sub := d.Subscription
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", sub.DisplayTitle())
	fmt.Fprintf(&b, "ID: %s\n", sub.ID)
	fmt.Fprintf(&b, "Amount: %s %s\n", app.FormatAmount(sub.Amount, currency), strings.ToLower(string(sub.Pattern)))
	fmt.Fprintf(&b, "Started: %s\n", formatDate(sub.StartDate))
	fmt.Fprintf(&b, "Previous bill: %s\n", formatDate(d.PreviousBilling))
	fmt.Fprintf(&b, "Next bill: %s", formatDate(d.NextBilling))
	if !d.NextBilling.IsZero() {
		fmt.Fprintf(&b, " (in %d days)", d.RemainingDays)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Reminder: %s", describeLeadTime(sub.LeadTime))
	if !d.ReminderDate.IsZero() && !sub.IsPaused {
		fmt.Fprintf(&b, " on %s", formatDate(d.ReminderDate))
	}
	b.WriteString("\n")
	if sub.IsPaused {
		b.WriteString("Status: paused\n")
	}
	if sub.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", sub.Notes)
	}
	if sub.URL != "" {
		fmt.Fprintf(&b, "Link: %s\n", sub.URL)
	}
	return b.String()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(dateLayout)
}

func describeLeadTime(lt subscription.LeadTime) string {
	switch lt {
	case subscription.LeadTimeNone:
		return "off"
	case subscription.LeadTimeSameDay:
		return "on the billing day"
	case subscription.LeadTimeOneDayBefore:
		return "one day before"
	case subscription.LeadTimeTwoDaysBefore:
		return "two days before"
	case subscription.LeadTimeOneWeekBefore:
		return "one week before"
	default:
		return "unknown"
	}
}

// parseToggle reads on/off style arguments.
func parseToggle(args []string) (bool, bool) {
	if len(args) != 1 {
		return false, false
	}
	switch strings.ToLower(args[0]) {
	case "on", "true", "yes", "1":
		return true, true
	case "off", "false", "no", "0":
		return false, true
	}
	return false, false
}
