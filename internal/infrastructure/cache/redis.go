package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures the idempotency store connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// Timeout bounds dialing and the startup ping. Zero means 5s.
	Timeout time.Duration
}

// OpenRedis connects and pings. The client is closed when the ping fails.
func OpenRedis(ctx context.Context, o RedisOptions) (*redis.Client, error) {
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	r := redis.NewClient(&redis.Options{
		Addr:        o.Addr,
		Password:    o.Password,
		DB:          o.DB,
		DialTimeout: timeout,
	})
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := r.Ping(pctx).Err(); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("redis ping %s db %d: %w", o.Addr, o.DB, err)
	}
	return r, nil
}
