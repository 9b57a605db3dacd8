package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Lixing-Zhang/food-delivery/backend/internal/models"
)

const notificationKeyPrefix = "notifications:"

// RedisStore keeps a session's notifications as one JSON document per user. The key expires at
// the end of the calendar day, matching the retention rule.
type RedisStore struct {
	client *redis.Client
	key    string
	now    func() time.Time
}

// NewRedisStore creates a store for userID's notifications
func NewRedisStore(client *redis.Client, userID string) *RedisStore {
	return &RedisStore{
		client: client,
		key:    notificationKeyPrefix + userID,
		now:    time.Now,
	}
}

func (s *RedisStore) Load(ctx context.Context) ([]models.Notification, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load notifications: %w", err)
	}

	var notifications []models.Notification
	if err := json.Unmarshal(raw, &notifications); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	return notifications, nil
}

func (s *RedisStore) Save(ctx context.Context, notifications []models.Notification) error {
	if len(notifications) == 0 {
		if err := s.client.Del(ctx, s.key).Err(); err != nil {
			return fmt.Errorf("clear notifications: %w", err)
		}
		return nil
	}

	raw, err := json.Marshal(notifications)
	if err != nil {
		return fmt.Errorf("encode notifications: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key, raw, 0)
	pipe.ExpireAt(ctx, s.key, endOfDay(s.now()))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save notifications: %w", err)
	}
	return nil
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}
