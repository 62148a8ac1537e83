package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Webhook delivery keys:
// - webhook:delivery:{event}:{uid} - TTL window, one key per delivery

// Deduper guards against replayed webhook deliveries. The booking provider
// retries deliveries on slow acks, so the same booking uid can arrive more
// than once.
type Deduper struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewDeduper(client *goredis.Client, ttl time.Duration) *Deduper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Deduper{client: client, ttl: ttl}
}

// FirstDelivery reports whether this delivery key has not been seen inside
// the TTL window. The first caller for a key gets true, replays get false.
func (d *Deduper) FirstDelivery(ctx context.Context, key string) (bool, error) {
	ok, err := d.client.SetNX(ctx, fmt.Sprintf("webhook:delivery:%s", key), 1, d.ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}
