package subscription

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecurrencePattern(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw  string
		want RecurrencePattern
	}{
		{raw: "monthly", want: PatternMonthly},
		{raw: " MONTHLY ", want: PatternMonthly},
		{raw: "yearly", want: PatternYearly},
		{raw: "annual", want: PatternYearly},
	}
	for _, tt := range tests {
		got, err := ParseRecurrencePattern(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}

	got, err := ParseRecurrencePattern("weekly")
	assert.ErrorIs(t, err, ErrUnknownPattern)
	assert.Equal(t, PatternUnknown, got)
	assert.False(t, got.Valid())
	assert.Zero(t, got.Months())
}

func TestParseLeadTime(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw  string
		want LeadTime
	}{
		{raw: "None", want: LeadTimeNone},
		{raw: "SameDay", want: LeadTimeSameDay},
		{raw: "one_day_before", want: LeadTimeOneDayBefore},
		{raw: "TwoDaysBefore", want: LeadTimeTwoDaysBefore},
		{raw: "1w", want: LeadTimeOneWeekBefore},
		{raw: "ONE_WEEK_BEFORE", want: LeadTimeOneWeekBefore},
		{raw: "1 Day Before", want: LeadTimeOneDayBefore},
		{raw: "2 days before", want: LeadTimeTwoDaysBefore},
	}
	for _, tt := range tests {
		got, err := ParseLeadTime(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}

	_, err := ParseLeadTime("fortnight")
	assert.ErrorIs(t, err, ErrUnknownLeadTime)
}

func TestLeadTimeOffsets(t *testing.T) {
	t.Parallel()
	days, ok := LeadTimeOneWeekBefore.OffsetDays()
	assert.True(t, ok)
	assert.Equal(t, 7, days)

	_, ok = LeadTimeNone.OffsetDays()
	assert.False(t, ok)
	assert.True(t, LeadTimeNone.Valid())
	assert.False(t, LeadTimeUnknown.Valid())
}

func TestWantsReminder(t *testing.T) {
	t.Parallel()
	sub := &Subscription{LeadTime: LeadTimeSameDay}
	assert.True(t, sub.WantsReminder())

	sub.IsPaused = true
	assert.False(t, sub.WantsReminder())

	sub = &Subscription{LeadTime: LeadTimeNone}
	assert.False(t, sub.WantsReminder())
	assert.Equal(t, "your item", sub.DisplayTitle())
}
