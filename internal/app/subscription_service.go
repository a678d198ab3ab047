package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"subscription_reminder_bot/internal/domain/billing"
	"subscription_reminder_bot/internal/domain/preference"
	"subscription_reminder_bot/internal/domain/subscription"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Application-level errors for the subscription service
var ErrNotOwner = errors.New("performing user is not the owner of this bot")
var ErrInvalidSubscription = errors.New("invalid subscription")
var ErrAlreadyPaused = errors.New("subscription is already paused")
var ErrAlreadyActive = errors.New("subscription is already active")
var ErrAmbiguousReference = errors.New("reference matches more than one subscription")

// minReferenceLength is the shortest ID prefix accepted by Resolve.
const minReferenceLength = 4

// NewSubscription is the input for AddSubscription. Pattern and LeadTime must already be parsed.
type NewSubscription struct {
	Title     string
	Amount    decimal.Decimal
	StartDate time.Time
	Pattern   subscription.RecurrencePattern
	LeadTime  subscription.LeadTime
	Notes     string
	URL       string
}

// Details is everything the detail view shows about one subscription.
// Optional dates are zero when the engine reports them absent.
type Details struct {
	Subscription    *subscription.Subscription
	NextBilling     time.Time
	PreviousBilling time.Time
	RemainingDays   int
	ReminderDate    time.Time
}

type SubscriptionService struct {
	subRepo subscription.Repository
	prefs   preference.Store
	ownerID int64
}

func NewSubscriptionService(sr subscription.Repository, ps preference.Store, ownerID int64) *SubscriptionService {
	return &SubscriptionService{
		subRepo: sr,
		prefs:   ps,
		ownerID: ownerID,
	}
}

func (s *SubscriptionService) authorize(performingUserID int64) error {
	if performingUserID != s.ownerID {
		return ErrNotOwner
	}
	return nil
}

// AddSubscription validates the input and stores a new subscription.
func (s *SubscriptionService) AddSubscription(ctx context.Context, performingUserID int64, in NewSubscription) (*subscription.Subscription, error) {
	if err := s.authorize(performingUserID); err != nil {
		return nil, err
	}

	newSub := &subscription.Subscription{
		ID:        uuid.New(),
		Title:     strings.TrimSpace(in.Title),
		Amount:    in.Amount,
		StartDate: in.StartDate,
		Pattern:   in.Pattern,
		LeadTime:  in.LeadTime,
		Notes:     in.Notes,
		URL:       in.URL,
	}
	if err := validate(newSub); err != nil {
		return nil, err
	}
	if err := s.subRepo.Create(ctx, newSub); err != nil {
		return nil, fmt.Errorf("failed to create subscription in repository: %w", err)
	}
	return newSub, nil
}

// SubscriptionPatch lists the fields UpdateSubscription changes. Nil fields are left as they are.
// The start date is not editable: every billing date is anchored on it.
type SubscriptionPatch struct {
	Title    *string
	Amount   *decimal.Decimal
	Pattern  *subscription.RecurrencePattern
	LeadTime *subscription.LeadTime
	Notes    *string
	URL      *string
}

func (p SubscriptionPatch) empty() bool {
	return p.Title == nil && p.Amount == nil && p.Pattern == nil && p.LeadTime == nil && p.Notes == nil && p.URL == nil
}

// UpdateSubscription applies patch to an existing subscription. Pause and pin state are kept.
func (s *SubscriptionService) UpdateSubscription(ctx context.Context, performingUserID int64, id uuid.UUID, patch SubscriptionPatch) (*subscription.Subscription, error) {
	if err := s.authorize(performingUserID); err != nil {
		return nil, err
	}
	if patch.empty() {
		return nil, fmt.Errorf("%w: nothing to change", ErrInvalidSubscription)
	}
	target, err := s.subRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		target.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Amount != nil {
		target.Amount = *patch.Amount
	}
	if patch.Pattern != nil {
		target.Pattern = *patch.Pattern
	}
	if patch.LeadTime != nil {
		target.LeadTime = *patch.LeadTime
	}
	if patch.Notes != nil {
		target.Notes = *patch.Notes
	}
	if patch.URL != nil {
		target.URL = *patch.URL
	}
	if err := validate(target); err != nil {
		return nil, err
	}

	if err := s.subRepo.Update(ctx, target); err != nil {
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}
	return target, nil
}

func validate(sub *subscription.Subscription) error {
	switch {
	case sub.Title == "":
		return fmt.Errorf("%w: title is empty", ErrInvalidSubscription)
	case sub.Amount.IsNegative():
		return fmt.Errorf("%w: amount must not be negative", ErrInvalidSubscription)
	case sub.StartDate.IsZero():
		return fmt.Errorf("%w: start date is missing", ErrInvalidSubscription)
	case !sub.Pattern.Valid():
		return fmt.Errorf("%w: %w", ErrInvalidSubscription, subscription.ErrUnknownPattern)
	case !sub.LeadTime.Valid():
		return fmt.Errorf("%w: %w", ErrInvalidSubscription, subscription.ErrUnknownLeadTime)
	}
	return nil
}

// RemoveSubscription deletes a subscription and returns the removed record.
func (s *SubscriptionService) RemoveSubscription(ctx context.Context, performingUserID int64, id uuid.UUID) (*subscription.Subscription, error) {
	if err := s.authorize(performingUserID); err != nil {
		return nil, err
	}
	target, err := s.subRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.subRepo.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to delete subscription: %w", err)
	}
	return target, nil
}

// SetPaused pauses or resumes a subscription. Paused subscriptions get no reminders.
func (s *SubscriptionService) SetPaused(ctx context.Context, performingUserID int64, id uuid.UUID, paused bool) (*subscription.Subscription, error) {
	if err := s.authorize(performingUserID); err != nil {
		return nil, err
	}
	target, err := s.subRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if target.IsPaused == paused {
		if paused {
			return target, ErrAlreadyPaused
		}
		return target, ErrAlreadyActive
	}

	target.IsPaused = paused
	if err := s.subRepo.Update(ctx, target); err != nil {
		return nil, fmt.Errorf("failed to update subscription pause state: %w", err)
	}
	return target, nil
}

// SetPinned pins a subscription to the top of the list, or unpins it.
func (s *SubscriptionService) SetPinned(ctx context.Context, performingUserID int64, id uuid.UUID, pinned bool) (*subscription.Subscription, error) {
	if err := s.authorize(performingUserID); err != nil {
		return nil, err
	}
	target, err := s.subRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if target.IsPinned == pinned {
		return target, nil
	}
	target.IsPinned = pinned
	if err := s.subRepo.Update(ctx, target); err != nil {
		return nil, fmt.Errorf("failed to update subscription pin state: %w", err)
	}
	return target, nil
}

// ListForDisplay returns all subscriptions in display order.
func (s *SubscriptionService) ListForDisplay(ctx context.Context, performingUserID int64, now time.Time) ([]Entry, error) {
	if err := s.authorize(performingUserID); err != nil {
		return nil, err
	}
	subs, err := s.subRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	entries := BuildEntries(subs, now)
	SortForDisplay(entries)
	return entries, nil
}

// Summary totals the monthly and annual cost against the configured limit.
func (s *SubscriptionService) Summary(ctx context.Context, performingUserID int64) (Summary, error) {
	if err := s.authorize(performingUserID); err != nil {
		return Summary{}, err
	}
	subs, err := s.subRepo.ListAll(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	prefs, err := s.prefs.Load(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to load preferences: %w", err)
	}
	return CostSummary(subs, prefs.MonthlyLimit), nil
}

// Resolve finds a subscription by its full ID or by an unambiguous prefix of it.
func (s *SubscriptionService) Resolve(ctx context.Context, performingUserID int64, ref string) (*subscription.Subscription, error) {
	if err := s.authorize(performingUserID); err != nil {
		return nil, err
	}
	ref = strings.ToLower(strings.TrimSpace(ref))
	if id, err := uuid.Parse(ref); err == nil {
		return s.subRepo.GetByID(ctx, id)
	}
	if len(ref) < minReferenceLength {
		return nil, subscription.ErrNotFound
	}

	subs, err := s.subRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	var found *subscription.Subscription
	for _, sub := range subs {
		if !strings.HasPrefix(sub.ID.String(), ref) {
			continue
		}
		if found != nil {
			return nil, ErrAmbiguousReference
		}
		found = sub
	}
	if found == nil {
		return nil, subscription.ErrNotFound
	}
	return found, nil
}

// Details computes next, previous and reminder dates for one subscription.
func (s *SubscriptionService) Details(ctx context.Context, performingUserID int64, id uuid.UUID, now time.Time) (*Details, error) {
	if err := s.authorize(performingUserID); err != nil {
		return nil, err
	}
	target, err := s.subRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return DescribeSubscription(target, now), nil
}

// DescribeSubscription fills Details from the billing engine. Absent results stay zero.
func DescribeSubscription(sub *subscription.Subscription, now time.Time) *Details {
	details := &Details{Subscription: sub}
	if next, err := billing.NextBillingDate(sub.StartDate, sub.Pattern, now); err == nil {
		details.NextBilling = next
		details.RemainingDays = billing.DaysBetween(now, next)
		if trigger, err := billing.ReminderTriggerDate(next, sub.LeadTime); err == nil {
			details.ReminderDate = trigger
		}
	}
	if prev, err := billing.PreviousBillingDate(sub.StartDate, sub.Pattern, now); err == nil {
		details.PreviousBilling = prev
	}
	return details
}
