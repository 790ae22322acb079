package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/orris-inc/cloudbilling/internal/shared/constants"
)

// ReminderStore remembers which renewal reminders were already sent.
// Keys expire after ttl so the store never grows unbounded.
type ReminderStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewReminderStore(client *redis.Client, ttl time.Duration) *ReminderStore {
	return &ReminderStore{client: client, ttl: ttl}
}

// Format: cloudbilling:reminder:{subscription_id}:{period_end_unix}
func (s *ReminderStore) buildKey(subscriptionID uint, periodEnd time.Time) string {
	return fmt.Sprintf("%s%d:%d", constants.RedisPrefixReminder, subscriptionID, periodEnd.Unix())
}

func (s *ReminderStore) WasSent(ctx context.Context, subscriptionID uint, periodEnd time.Time) (bool, error) {
	exists, err := s.client.Exists(ctx, s.buildKey(subscriptionID, periodEnd)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check reminder key: %w", err)
	}
	return exists > 0, nil
}

// MarkSent is idempotent. An existing mark keeps its original expiry.
func (s *ReminderStore) MarkSent(ctx context.Context, subscriptionID uint, periodEnd time.Time) error {
	if err := s.client.SetNX(ctx, s.buildKey(subscriptionID, periodEnd), "1", s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	return nil
}
