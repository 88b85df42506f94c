package identity

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// redisThrottle backs the login throttle with a Redis sorted set per IP,
// scored by attempt time in milliseconds. Keys expire with the window so
// idle IPs clean up on their own.
type redisThrottle struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

// NewRedisThrottle creates a login throttle shared across instances.
func NewRedisThrottle(redisURL string, limit int, window time.Duration) (LoginThrottle, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisThrottleWithClient(client, limit, window), nil
}

// NewRedisThrottleWithClient creates a throttle from an existing Redis client.
func NewRedisThrottleWithClient(client *redis.Client, limit int, window time.Duration) LoginThrottle {
	return &redisThrottle{
		client: client,
		prefix: "login_attempts:",
		limit:  limit,
		window: window,
	}
}

// key generates the Redis key for a client IP
func (t *redisThrottle) key(ip string) string {
	return t.prefix + ip
}

func (t *redisThrottle) RecordFailure(ctx context.Context, ip string) (int, error) {
	key := t.key(ip)
	now := time.Now()

	pipe := t.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", t.cutoff(now))
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: uuid.NewString(),
	})
	card := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, t.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("record login failure: %w", err)
	}

	return int(card.Val()), nil
}

func (t *redisThrottle) IsBlocked(ctx context.Context, ip string) (bool, error) {
	key := t.key(ip)

	pipe := t.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", t.cutoff(time.Now()))
	card := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("check login throttle: %w", err)
	}

	return int(card.Val()) >= t.limit, nil
}

func (t *redisThrottle) Reset(ctx context.Context, ip string) error {
	if err := t.client.Del(ctx, t.key(ip)).Err(); err != nil {
		return fmt.Errorf("reset login throttle: %w", err)
	}
	return nil
}

// cutoff formats the oldest score still inside the window at time now.
// ZRemRangeByScore removes up to and including the boundary, so an attempt
// exactly window old no longer counts.
func (t *redisThrottle) cutoff(now time.Time) string {
	return strconv.FormatInt(now.Add(-t.window).UnixMilli(), 10)
}
