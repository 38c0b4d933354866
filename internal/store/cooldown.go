package store

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Cooldown allows one action per key per window
type Cooldown struct {
	client *goredis.Client
	window time.Duration
	prefix string
}

func NewCooldown(client *goredis.Client, window time.Duration) *Cooldown {
	return &Cooldown{
		client: client,
		window: window,
		prefix: "pin:cooldown:",
	}
}

// Allow claims the key for the window. When it's already claimed the
// remaining time is returned instead
func (c *Cooldown) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if c.client == nil {
		return false, 0, fmt.Errorf("redis client is nil")
	}
	if key == "" {
		return false, 0, fmt.Errorf("cooldown key is required")
	}

	k := c.prefix + key

	ok, err := c.client.SetNX(ctx, k, 1, c.window).Result()
	if err != nil {
		return false, 0, fmt.Errorf("claim cooldown key: %w", err)
	}
	if ok {
		return true, 0, nil
	}

	ttl, err := c.client.TTL(ctx, k).Result()
	if err != nil {
		return false, 0, fmt.Errorf("read cooldown ttl: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}

	return false, ttl, nil
}
