package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"subscription_reminder_bot/internal/domain/preference"

	"github.com/lib/pq" // For pq.Array
	"github.com/shopspring/decimal"
)

var preferenceKeys = []string{
	preference.KeyNotificationsEnabled,
	preference.KeyIncludeCost,
	preference.KeyMonthlyLimit,
}

// PostgresPreferenceStore keeps preferences and the scan marker in a key-value table.
type PostgresPreferenceStore struct {
	db *sql.DB
}

func NewPostgresPreferenceStore(db *sql.DB) *PostgresPreferenceStore {
	return &PostgresPreferenceStore{db: db}
}

func (s *PostgresPreferenceStore) Load(ctx context.Context) (preference.Preferences, error) {
	query := `SELECT key, value FROM preferences WHERE key = ANY($1)`
	rows, err := s.db.QueryContext(ctx, query, pq.Array(preferenceKeys))
	if err != nil {
		return preference.Preferences{}, fmt.Errorf("error loading preferences: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string, len(preferenceKeys))
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return preference.Preferences{}, fmt.Errorf("error scanning preference: %w", err)
		}
		values[key] = value
	}
	if err = rows.Err(); err != nil {
		return preference.Preferences{}, fmt.Errorf("error iterating preferences: %w", err)
	}
	return preference.Decode(values)
}

func (s *PostgresPreferenceStore) SetNotificationsEnabled(ctx context.Context, enabled bool) error {
	return s.set(ctx, preference.KeyNotificationsEnabled, preference.EncodeBool(enabled))
}

func (s *PostgresPreferenceStore) SetIncludeCost(ctx context.Context, include bool) error {
	return s.set(ctx, preference.KeyIncludeCost, preference.EncodeBool(include))
}

func (s *PostgresPreferenceStore) SetMonthlyLimit(ctx context.Context, limit decimal.Decimal) error {
	return s.set(ctx, preference.KeyMonthlyLimit, preference.EncodeDecimal(limit))
}

func (s *PostgresPreferenceStore) LastScanDate(ctx context.Context) (time.Time, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = $1`, preference.KeyLastScanDate).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("error reading last scan date: %w", err)
	}
	at, err := preference.DecodeTime(raw)
	if err != nil {
		return time.Time{}, false, err
	}
	return at, true, nil
}

func (s *PostgresPreferenceStore) MarkScanned(ctx context.Context, at time.Time) error {
	return s.set(ctx, preference.KeyLastScanDate, preference.EncodeTime(at))
}

func (s *PostgresPreferenceStore) set(ctx context.Context, key, value string) error {
	query := `INSERT INTO preferences (key, value, updated_at)
               VALUES ($1, $2, NOW())
               ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("error storing preference %s: %w", key, err)
	}
	return nil
}
