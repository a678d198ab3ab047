package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"subscription_reminder_bot/internal/domain/preference"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// DefaultHashKey is the Redis hash that holds every preference field.
const DefaultHashKey = "subscription_reminder:preferences"

// NewRedisClient parses the URL and checks the connection.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	return client, nil
}

// RedisPreferenceStore keeps preferences as fields of a single Redis hash.
type RedisPreferenceStore struct {
	client  *redis.Client
	hashKey string
}

func NewRedisPreferenceStore(client *redis.Client, hashKey string) *RedisPreferenceStore {
	if hashKey == "" {
		hashKey = DefaultHashKey
	}
	return &RedisPreferenceStore{client: client, hashKey: hashKey}
}

func (s *RedisPreferenceStore) Load(ctx context.Context) (preference.Preferences, error) {
	values, err := s.client.HGetAll(ctx, s.hashKey).Result()
	if err != nil {
		return preference.Preferences{}, fmt.Errorf("failed to load preferences: %w", err)
	}
	return preference.Decode(values)
}

func (s *RedisPreferenceStore) SetNotificationsEnabled(ctx context.Context, enabled bool) error {
	return s.set(ctx, preference.KeyNotificationsEnabled, preference.EncodeBool(enabled))
}

func (s *RedisPreferenceStore) SetIncludeCost(ctx context.Context, include bool) error {
	return s.set(ctx, preference.KeyIncludeCost, preference.EncodeBool(include))
}

func (s *RedisPreferenceStore) SetMonthlyLimit(ctx context.Context, limit decimal.Decimal) error {
	return s.set(ctx, preference.KeyMonthlyLimit, preference.EncodeDecimal(limit))
}

func (s *RedisPreferenceStore) LastScanDate(ctx context.Context) (time.Time, bool, error) {
	raw, err := s.client.HGet(ctx, s.hashKey, preference.KeyLastScanDate).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("failed to read last scan date: %w", err)
	}
	at, err := preference.DecodeTime(raw)
	if err != nil {
		return time.Time{}, false, err
	}
	return at, true, nil
}

func (s *RedisPreferenceStore) MarkScanned(ctx context.Context, at time.Time) error {
	return s.set(ctx, preference.KeyLastScanDate, preference.EncodeTime(at))
}

func (s *RedisPreferenceStore) set(ctx context.Context, field, value string) error {
	if err := s.client.HSet(ctx, s.hashKey, field, value).Err(); err != nil {
		return fmt.Errorf("failed to store preference %s: %w", field, err)
	}
	return nil
}
