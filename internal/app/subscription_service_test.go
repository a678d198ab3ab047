package app

import (
	"context"
	"testing"
	"time"

	"subscription_reminder_bot/internal/domain/subscription"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ownerID int64 = 4242

func TestAddSubscription(t *testing.T) {
	repo := newMemRepo()
	svc := NewSubscriptionService(repo, newMemPrefs(), ownerID)

	created, err := svc.AddSubscription(context.Background(), ownerID, NewSubscription{
		Title:     "  Spotify ",
		Amount:    decimal.RequireFromString("10.99"),
		StartDate: time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC),
		Pattern:   subscription.PatternMonthly,
		LeadTime:  subscription.LeadTimeOneDayBefore,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "Spotify", created.Title)

	stored, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, stored.Amount.Equal(decimal.RequireFromString("10.99")))
}

func TestAddSubscriptionValidation(t *testing.T) {
	svc := NewSubscriptionService(newMemRepo(), newMemPrefs(), ownerID)
	valid := NewSubscription{
		Title:     "Spotify",
		Amount:    decimal.NewFromInt(10),
		StartDate: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Pattern:   subscription.PatternMonthly,
		LeadTime:  subscription.LeadTimeNone,
	}

	tests := []struct {
		name   string
		mutate func(*NewSubscription)
	}{
		{name: "empty title", mutate: func(n *NewSubscription) { n.Title = " " }},
		{name: "negative amount", mutate: func(n *NewSubscription) { n.Amount = decimal.NewFromInt(-1) }},
		{name: "missing start", mutate: func(n *NewSubscription) { n.StartDate = time.Time{} }},
		{name: "unknown pattern", mutate: func(n *NewSubscription) { n.Pattern = subscription.PatternUnknown }},
		{name: "unknown lead time", mutate: func(n *NewSubscription) { n.LeadTime = subscription.LeadTimeUnknown }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := svc.AddSubscription(context.Background(), ownerID, in)
			assert.ErrorIs(t, err, ErrInvalidSubscription)
		})
	}

	_, err := svc.AddSubscription(context.Background(), ownerID+1, valid)
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestSetPaused(t *testing.T) {
	sub := weeklyReminderSub("Netflix")
	repo := newMemRepo(sub)
	svc := NewSubscriptionService(repo, newMemPrefs(), ownerID)
	ctx := context.Background()

	paused, err := svc.SetPaused(ctx, ownerID, sub.ID, true)
	require.NoError(t, err)
	assert.True(t, paused.IsPaused)

	_, err = svc.SetPaused(ctx, ownerID, sub.ID, true)
	assert.ErrorIs(t, err, ErrAlreadyPaused)

	resumed, err := svc.SetPaused(ctx, ownerID, sub.ID, false)
	require.NoError(t, err)
	assert.False(t, resumed.IsPaused)

	_, err = svc.SetPaused(ctx, ownerID, uuid.New(), true)
	assert.ErrorIs(t, err, subscription.ErrNotFound)
}

func TestRemoveSubscription(t *testing.T) {
	sub := weeklyReminderSub("Netflix")
	repo := newMemRepo(sub)
	svc := NewSubscriptionService(repo, newMemPrefs(), ownerID)

	removed, err := svc.RemoveSubscription(context.Background(), ownerID, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "Netflix", removed.Title)

	_, err = repo.GetByID(context.Background(), sub.ID)
	assert.ErrorIs(t, err, subscription.ErrNotFound)
}

func TestListForDisplayOrder(t *testing.T) {
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	soon := &subscription.Subscription{Title: "soon", StartDate: time.Date(2024, time.January, 3, 0, 0, 0, 0, time.UTC), Pattern: subscription.PatternMonthly}
	later := &subscription.Subscription{Title: "later", StartDate: time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC), Pattern: subscription.PatternMonthly}
	pinned := &subscription.Subscription{Title: "pinned", StartDate: time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC), Pattern: subscription.PatternYearly, IsPinned: true}
	paused := &subscription.Subscription{Title: "paused", StartDate: time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC), Pattern: subscription.PatternMonthly, IsPaused: true}
	broken := &subscription.Subscription{Title: "broken", StartDate: time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)}

	svc := NewSubscriptionService(newMemRepo(later, paused, broken, soon, pinned), newMemPrefs(), ownerID)
	entries, err := svc.ListForDisplay(context.Background(), ownerID, now)
	require.NoError(t, err)

	titles := make([]string, 0, len(entries))
	for _, e := range entries {
		titles = append(titles, e.Subscription.Title)
	}
	assert.Equal(t, []string{"pinned", "soon", "later", "broken", "paused"}, titles)
	assert.Equal(t, 2, entries[1].RemainingDays)
	assert.False(t, entries[3].HasNext)
}

func TestCostSummary(t *testing.T) {
	subs := []*subscription.Subscription{
		{Amount: decimal.NewFromInt(10), Pattern: subscription.PatternMonthly},
		{Amount: decimal.NewFromInt(120), Pattern: subscription.PatternYearly},
		{Amount: decimal.NewFromInt(50), Pattern: subscription.PatternMonthly, IsPaused: true},
	}

	summary := CostSummary(subs, decimal.NewFromInt(15))
	assert.True(t, summary.Monthly.Equal(decimal.NewFromInt(20)), summary.Monthly.String())
	assert.True(t, summary.Annual.Equal(decimal.NewFromInt(240)), summary.Annual.String())
	assert.True(t, summary.OverLimit)
	assert.Equal(t, 2, summary.Active)
	assert.Equal(t, 1, summary.Paused)

	noLimit := CostSummary(subs, decimal.Zero)
	assert.False(t, noLimit.OverLimit)
}

func TestCostSummaryAnnualIsExact(t *testing.T) {
	subs := []*subscription.Subscription{
		{Amount: decimal.NewFromInt(100), Pattern: subscription.PatternYearly},
		{Amount: decimal.RequireFromString("9.99"), Pattern: subscription.PatternMonthly},
	}

	summary := CostSummary(subs, decimal.Zero)
	assert.Equal(t, "219.88", summary.Annual.String())
	assert.Equal(t, "18.32", summary.Monthly.StringFixed(2))

	yearlyOnly := CostSummary(subs[:1], decimal.Zero)
	assert.Equal(t, "100", yearlyOnly.Annual.String())
}

func TestDescribeSubscription(t *testing.T) {
	sub := &subscription.Subscription{
		StartDate: time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC),
		Pattern:   subscription.PatternMonthly,
		LeadTime:  subscription.LeadTimeTwoDaysBefore,
	}
	details := DescribeSubscription(sub, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC), details.NextBilling)
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), details.PreviousBilling)
	assert.Equal(t, 16, details.RemainingDays)
	assert.Equal(t, time.Date(2024, time.March, 29, 0, 0, 0, 0, time.UTC), details.ReminderDate)

	fresh := DescribeSubscription(sub, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC))
	assert.True(t, fresh.PreviousBilling.IsZero())
}

func TestSettingsServiceEnablingNotificationsRescans(t *testing.T) {
	f := newReminderFixture(weeklyReminderSub("Netflix"))
	f.prefs.prefs.NotificationsEnabled = false
	settings := NewSettingsService(f.prefs, f.svc, DeliverySettings{NotifyHour: 9, CurrencySymbol: "€"}, ownerID)
	now := time.Date(2024, time.March, 3, 12, 0, 0, 0, time.UTC)

	// Disabled: the scheduled scan does nothing.
	result, err := settings.RunScheduledScan(context.Background(), now)
	require.NoError(t, err)
	assert.True(t, result.Skipped)

	rescan, err := settings.SetNotificationsEnabled(context.Background(), ownerID, true, now)
	require.NoError(t, err)
	require.NotNil(t, rescan)
	assert.Equal(t, 1, rescan.Delivered)

	off, err := settings.SetNotificationsEnabled(context.Background(), ownerID, false, now)
	require.NoError(t, err)
	assert.Nil(t, off)
}

func TestSettingsServiceMonthlyLimit(t *testing.T) {
	prefs := newMemPrefs()
	settings := NewSettingsService(prefs, nil, DeliverySettings{}, ownerID)

	err := settings.SetMonthlyLimit(context.Background(), ownerID, decimal.NewFromInt(-5))
	assert.ErrorIs(t, err, ErrInvalidSetting)

	require.NoError(t, settings.SetMonthlyLimit(context.Background(), ownerID, decimal.NewFromInt(50)))
	assert.True(t, prefs.prefs.MonthlyLimit.Equal(decimal.NewFromInt(50)))

	assert.ErrorIs(t, settings.SetIncludeCost(context.Background(), 1, true), ErrNotOwner)
}

func TestResolveByPrefix(t *testing.T) {
	a := weeklyReminderSub("A")
	a.ID = uuid.MustParse("aaaa1111-0000-0000-0000-000000000001")
	b := weeklyReminderSub("B")
	b.ID = uuid.MustParse("aaaa2222-0000-0000-0000-000000000002")
	svc := NewSubscriptionService(newMemRepo(a, b), newMemPrefs(), ownerID)
	ctx := context.Background()

	got, err := svc.Resolve(ctx, ownerID, "AAAA1")
	require.NoError(t, err)
	assert.Equal(t, "A", got.Title)

	got, err = svc.Resolve(ctx, ownerID, b.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "B", got.Title)

	_, err = svc.Resolve(ctx, ownerID, "aaaa")
	assert.ErrorIs(t, err, ErrAmbiguousReference)

	_, err = svc.Resolve(ctx, ownerID, "aa")
	assert.ErrorIs(t, err, subscription.ErrNotFound)

	_, err = svc.Resolve(ctx, ownerID, "ffff")
	assert.ErrorIs(t, err, subscription.ErrNotFound)
}

func TestUpdateSubscriptionKeepsStateAndValidates(t *testing.T) {
	sub := weeklyReminderSub("Netflix")
	sub.IsPinned = true
	repo := newMemRepo(sub)
	svc := NewSubscriptionService(repo, newMemPrefs(), ownerID)
	ctx := context.Background()

	title := " Netflix Premium "
	amount := decimal.RequireFromString("17.99")
	updated, err := svc.UpdateSubscription(ctx, ownerID, sub.ID, SubscriptionPatch{Title: &title, Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, "Netflix Premium", updated.Title)
	assert.True(t, updated.IsPinned)
	assert.Equal(t, sub.StartDate, updated.StartDate)

	stored, err := repo.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.True(t, stored.Amount.Equal(amount))

	negative := decimal.NewFromInt(-1)
	_, err = svc.UpdateSubscription(ctx, ownerID, sub.ID, SubscriptionPatch{Amount: &negative})
	assert.ErrorIs(t, err, ErrInvalidSubscription)

	unknown := subscription.LeadTimeUnknown
	_, err = svc.UpdateSubscription(ctx, ownerID, sub.ID, SubscriptionPatch{LeadTime: &unknown})
	assert.ErrorIs(t, err, ErrInvalidSubscription)

	_, err = svc.UpdateSubscription(ctx, ownerID, sub.ID, SubscriptionPatch{})
	assert.ErrorIs(t, err, ErrInvalidSubscription)

	_, err = svc.UpdateSubscription(ctx, ownerID+1, sub.ID, SubscriptionPatch{Title: &title})
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = svc.UpdateSubscription(ctx, ownerID, uuid.New(), SubscriptionPatch{Title: &title})
	assert.ErrorIs(t, err, subscription.ErrNotFound)
}

func TestUpdatedLeadTimeIsUsedByNextScan(t *testing.T) {
	sub := weeklyReminderSub("Netflix") // Charge Mar 10, one week lead: due Mar 3
	f := newReminderFixture(sub)
	svc := NewSubscriptionService(f.repo, f.prefs, ownerID)
	ctx := context.Background()

	lead := subscription.LeadTimeOneDayBefore
	_, err := svc.UpdateSubscription(ctx, ownerID, sub.ID, SubscriptionPatch{LeadTime: &lead})
	require.NoError(t, err)

	result, err := f.svc.RunDailyScan(ctx, time.Date(2024, time.March, 3, 8, 0, 0, 0, time.UTC), defaultScanConfig())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Delivered)

	result, err = f.svc.RunDailyScan(ctx, time.Date(2024, time.March, 9, 8, 0, 0, 0, time.UTC), defaultScanConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Delivered)
	require.Len(t, f.notifier.requests(), 1)
	assert.Equal(t, sub.ID, f.notifier.requests()[0].SubscriptionID)
}
