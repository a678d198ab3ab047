package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"subscription_reminder_bot/internal/domain/notification"
	"subscription_reminder_bot/internal/domain/preference"
	"subscription_reminder_bot/internal/domain/subscription"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func discardLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type memRepo struct {
	mu       sync.Mutex
	subs     map[uuid.UUID]*subscription.Subscription
	fetchErr error
}

func newMemRepo(subs ...*subscription.Subscription) *memRepo {
	r := &memRepo{subs: map[uuid.UUID]*subscription.Subscription{}}
	for _, s := range subs {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		r.subs[s.ID] = s
	}
	return r
}

func (r *memRepo) Create(_ context.Context, sub *subscription.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub.CreatedAt = time.Now()
	sub.UpdatedAt = sub.CreatedAt
	r.subs[sub.ID] = sub
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID) (*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[id]
	if !ok {
		return nil, subscription.ErrNotFound
	}
	cp := *sub
	return &cp, nil
}

func (r *memRepo) Update(_ context.Context, sub *subscription.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[sub.ID]; !ok {
		return subscription.ErrNotFound
	}
	cp := *sub
	r.subs[sub.ID] = &cp
	return nil
}

func (r *memRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[id]; !ok {
		return subscription.ErrNotFound
	}
	delete(r.subs, id)
	return nil
}

func (r *memRepo) ListAll(_ context.Context) ([]*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(*subscription.Subscription) bool { return true }), nil
}

func (r *memRepo) FetchActive(_ context.Context) ([]*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}
	return r.sorted(func(s *subscription.Subscription) bool {
		return !s.IsPaused && s.LeadTime != subscription.LeadTimeNone
	}), nil
}

func (r *memRepo) sorted(keep func(*subscription.Subscription) bool) []*subscription.Subscription {
	out := make([]*subscription.Subscription, 0, len(r.subs))
	for _, s := range r.subs {
		if keep(s) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

type memPrefs struct {
	mu      sync.Mutex
	prefs   preference.Preferences
	last    time.Time
	hasLast bool
	marks   int
	loadErr error
}

func newMemPrefs() *memPrefs {
	return &memPrefs{prefs: preference.Defaults()}
}

func (p *memPrefs) Load(context.Context) (preference.Preferences, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loadErr != nil {
		return preference.Preferences{}, p.loadErr
	}
	return p.prefs, nil
}

func (p *memPrefs) SetNotificationsEnabled(_ context.Context, enabled bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prefs.NotificationsEnabled = enabled
	return nil
}

func (p *memPrefs) SetIncludeCost(_ context.Context, include bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prefs.IncludeCost = include
	return nil
}

func (p *memPrefs) SetMonthlyLimit(_ context.Context, limit decimal.Decimal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prefs.MonthlyLimit = limit
	return nil
}

func (p *memPrefs) LastScanDate(context.Context) (time.Time, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last, p.hasLast, nil
}

func (p *memPrefs) MarkScanned(_ context.Context, at time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = at
	p.hasLast = true
	p.marks++
	return nil
}

type recordingNotifier struct {
	mu          sync.Mutex
	scheduled   []notification.Request
	cancelCalls int
	failFor     map[uuid.UUID]bool
	onSchedule  func()
}

func (n *recordingNotifier) Schedule(_ context.Context, req notification.Request) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.onSchedule != nil {
		defer n.onSchedule()
	}
	if n.failFor[req.SubscriptionID] {
		return fmt.Errorf("%w: recipient blocked the bot", notification.ErrDelivery)
	}
	n.scheduled = append(n.scheduled, req)
	return nil
}

func (n *recordingNotifier) CancelAll(context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelCalls++
	n.scheduled = nil
	return nil
}

func (n *recordingNotifier) requests() []notification.Request {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification.Request(nil), n.scheduled...)
}

var errStoreDown = errors.New("connection refused")
