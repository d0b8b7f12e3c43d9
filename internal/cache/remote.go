package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// remoteTier wraps an optional Redis backend. Absence of a redis_url or any
// failure to reach the server disables the tier; it is never fatal.
type remoteTier struct {
	client *redis.Client
}

// newRemoteTier parses the redis URL and constructs a client. The connection
// is not verified here; connect verifies reachability.
func newRemoteTier(url string) (*remoteTier, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return &remoteTier{client: redis.NewClient(opts)}, nil
}

// connect pings the server with a short deadline
func (r *remoteTier) connect(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := r.client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *remoteTier) get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("remote cache lookup failed: %w", err)
	}
	return val, true, nil
}

func (r *remoteTier) set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	expiration := time.Duration(ttlSeconds) * time.Second // 0 = no expiry
	if err := r.client.Set(ctx, key, value, expiration).Err(); err != nil {
		return fmt.Errorf("remote cache write failed: %w", err)
	}
	return nil
}

func (r *remoteTier) delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("remote cache delete failed: %w", err)
	}
	return nil
}

func (r *remoteTier) close() error {
	return r.client.Close()
}
