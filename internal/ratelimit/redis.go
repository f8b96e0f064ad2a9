// Package ratelimit caps how often one account may spin.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keySpinRate = "ratelimit:%s:%s"

// Limiter reports whether an account may perform action now.
type Limiter interface {
	Allow(ctx context.Context, accountID, action string) (bool, error)
}

// Redis is a fixed-window counter kept in Redis.
type Redis struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewRedis(client *redis.Client, limit int, window time.Duration) *Redis {
	return &Redis{client: client, limit: limit, window: window}
}

// Dial connects and pings the server.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// INCR and PEXPIRE run as one script so a window always gets its expiry.
var incrScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

func (r *Redis) Allow(ctx context.Context, accountID, action string) (bool, error) {
	key := fmt.Sprintf(keySpinRate, accountID, action)
	n, err := incrScript.Run(ctx, r.client, []string{key}, r.window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}
	return n <= int64(r.limit), nil
}

// Reset clears the counter for accountID and action.
func (r *Redis) Reset(ctx context.Context, accountID, action string) error {
	return r.client.Del(ctx, fmt.Sprintf(keySpinRate, accountID, action)).Err()
}

// Unlimited allows everything.
type Unlimited struct{}

func (Unlimited) Allow(context.Context, string, string) (bool, error) { return true, nil }
