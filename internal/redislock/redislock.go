// Package redislock implements the reschedule in-flight guard on Redis so
// several calendars sharing one backend see each other's moves.
package redislock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/javiermolinar/clinica/internal/calendar"
)

// DefaultTTL bounds how long a crashed holder can block an appointment.
const DefaultTTL = 30 * time.Second

// NewClient connects to Redis and pings it.
func NewClient(addr, username, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Username:     username,
		Password:     password,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MinIdleConns: 1,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// Guard is a calendar.Guard holding one Redis key per appointment.
type Guard struct {
	client *redis.Client
	ttl    time.Duration
}

var _ calendar.Guard = (*Guard)(nil)

// New creates a Guard. A non-positive ttl selects DefaultTTL.
func New(client *redis.Client, ttl time.Duration) *Guard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Guard{client: client, ttl: ttl}
}

func key(id string) string {
	return "lock:reschedule:" + id
}

// Acquire sets the appointment's key if absent. It returns
// calendar.ErrInFlight when another holder owns it.
func (g *Guard) Acquire(ctx context.Context, id string) (func(), error) {
	k := key(id)
	token := uuid.NewString()

	ok, err := g.client.SetNX(ctx, k, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire reschedule lock: %w", err)
	}
	if !ok {
		return nil, calendar.ErrInFlight
	}

	return func() {
		// The caller's context may already be done; release on a fresh one.
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = g.release(rctx, k, token)
	}, nil
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (g *Guard) release(ctx context.Context, k, token string) error {
	_, err := unlockScript.Run(ctx, g.client, []string{k}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release reschedule lock: %w", err)
	}
	return nil
}
