package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"subscription_reminder_bot/internal/domain/subscription"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

var ErrDuplicateSubscription = errors.New("subscription with this ID already exists")

const uniqueViolation = pq.ErrorCode("23505")

const subscriptionColumns = `id, title, amount, start_date, pattern, lead_time, is_paused, is_pinned, notes, url, created_at, updated_at`

type PostgresSubscriptionRepository struct {
	db     *sql.DB
	logger *logrus.Entry
}

func NewPostgresSubscriptionRepository(db *sql.DB, logger *logrus.Entry) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{db: db, logger: logger}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanSubscription reads one row. Pattern and lead time are normalised through the domain parsers,
// so rows written by older clients ("monthly", "OneDayBefore") load as their canonical values.
// A value the parsers reject becomes PatternUnknown or LeadTimeUnknown and is logged.
func (r *PostgresSubscriptionRepository) scanSubscription(row rowScanner) (*subscription.Subscription, error) {
	s := &subscription.Subscription{}
	var (
		startDate sql.NullTime
		pattern   string
		leadTime  string
	)
	err := row.Scan(&s.ID, &s.Title, &s.Amount, &startDate, &pattern, &leadTime,
		&s.IsPaused, &s.IsPinned, &s.Notes, &s.URL, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if startDate.Valid {
		s.StartDate = startDate.Time
	}

	if s.Pattern, err = subscription.ParseRecurrencePattern(pattern); err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"subscription_id": s.ID.String(),
			"pattern":         pattern,
		}).Warn("Stored recurrence pattern is not recognised")
	}
	if s.LeadTime, err = subscription.ParseLeadTime(leadTime); err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"subscription_id": s.ID.String(),
			"lead_time":       leadTime,
		}).Warn("Stored lead time is not recognised")
	}
	return s, nil
}

func nullableStart(s *subscription.Subscription) sql.NullTime {
	return sql.NullTime{Time: s.StartDate, Valid: !s.StartDate.IsZero()}
}

func (r *PostgresSubscriptionRepository) Create(ctx context.Context, s *subscription.Subscription) error {
	query := `INSERT INTO subscriptions (id, title, amount, start_date, pattern, lead_time, is_paused, is_pinned, notes, url)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
               RETURNING created_at, updated_at`

	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	err := r.db.QueryRowContext(ctx, query,
		s.ID, s.Title, s.Amount, nullableStart(s), string(s.Pattern), string(s.LeadTime),
		s.IsPaused, s.IsPinned, s.Notes, s.URL,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateSubscription
		}
		return fmt.Errorf("error creating subscription: %w", err)
	}
	return nil
}

func (r *PostgresSubscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`
	s, err := r.scanSubscription(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, subscription.ErrNotFound
		}
		return nil, fmt.Errorf("error getting subscription by ID: %w", err)
	}
	return s, nil
}

func (r *PostgresSubscriptionRepository) Update(ctx context.Context, s *subscription.Subscription) error {
	query := `UPDATE subscriptions
               SET title = $1, amount = $2, start_date = $3, pattern = $4, lead_time = $5,
                   is_paused = $6, is_pinned = $7, notes = $8, url = $9, updated_at = NOW()
               WHERE id = $10
               RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		s.Title, s.Amount, nullableStart(s), string(s.Pattern), string(s.LeadTime),
		s.IsPaused, s.IsPinned, s.Notes, s.URL, s.ID,
	).Scan(&s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return subscription.ErrNotFound
		}
		return fmt.Errorf("error updating subscription: %w", err)
	}
	return nil
}

func (r *PostgresSubscriptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting subscription: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading deleted rows: %w", err)
	}
	if affected == 0 {
		return subscription.ErrNotFound
	}
	return nil
}

func (r *PostgresSubscriptionRepository) ListAll(ctx context.Context) ([]*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions ORDER BY created_at`
	return r.list(ctx, "all", query)
}

// FetchActive returns subscriptions that are not paused and want a reminder.
// Rows whose lead time only normalises to NONE after loading are dropped here.
func (r *PostgresSubscriptionRepository) FetchActive(ctx context.Context) ([]*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions
               WHERE is_paused = FALSE AND UPPER(lead_time) <> $1
               ORDER BY title`
	subs, err := r.list(ctx, "active", query, string(subscription.LeadTimeNone))
	if err != nil {
		return nil, err
	}
	active := subs[:0]
	for _, s := range subs {
		if s.LeadTime != subscription.LeadTimeNone {
			active = append(active, s)
		}
	}
	return active, nil
}

func (r *PostgresSubscriptionRepository) list(ctx context.Context, kind, query string, args ...any) ([]*subscription.Subscription, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing %s subscriptions: %w", kind, err)
	}
	defer rows.Close()

	subs := make([]*subscription.Subscription, 0)
	for rows.Next() {
		s, err := r.scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning %s subscription: %w", kind, err)
		}
		subs = append(subs, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s subscriptions: %w", kind, err)
	}
	return subs, nil
}
