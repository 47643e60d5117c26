package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// deliveredTTL outlives the claim lease and any retry window of a reminder
const deliveredTTL = 72 * time.Hour

// RedisSendGuard records delivered reminder ids in redis so a reminder whose
// post-send update was lost is not sent a second time
type RedisSendGuard struct {
	client *redis.Client
}

// NewRedisSendGuard connects to the redis instance at url
func NewRedisSendGuard(url string) (*RedisSendGuard, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	return &RedisSendGuard{client: redis.NewClient(opts)}, nil
}

func deliveredKey(reminderID string) string {
	return fmt.Sprintf("reminder:sent:%s", reminderID)
}

// Delivered reports whether reminderID was marked delivered
func (g *RedisSendGuard) Delivered(ctx context.Context, reminderID string) (bool, error) {
	n, err := g.client.Exists(ctx, deliveredKey(reminderID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkDelivered records reminderID as delivered
func (g *RedisSendGuard) MarkDelivered(ctx context.Context, reminderID string) error {
	return g.client.Set(ctx, deliveredKey(reminderID), "1", deliveredTTL).Err()
}

// Close releases the redis connection pool
func (g *RedisSendGuard) Close() error {
	return g.client.Close()
}
