package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client is the read-model cache, keyed by user identity. Entries are
// written without a TTL: payment confirmation is admin-driven, so staleness
// is only resolved by explicit invalidation after a mutating call, never by
// time passing.
type Client struct {
	client *redis.Client
}

type Config struct {
	Addr     string
	Password string
}

func NewClient(cfg Config) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{client: rdb}, nil
}

func BookingsKey(userID string) string  { return "bookings:" + userID }
func RemindersKey(userID string) string { return "reminders:" + userID }

// Get reads a cached read model into out. A miss is reported as
// (false, nil), not an error.
func (c *Client) Get(ctx context.Context, key string, out any) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("cache lookup error: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("invalid cache entry %s: %w", key, err)
	}
	return true, nil
}

func (c *Client) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, 0).Err(); err != nil {
		return fmt.Errorf("cache write error: %w", err)
	}
	return nil
}

// InvalidateUser drops both read models for a user. Called after every
// create, extend and cancel.
func (c *Client) InvalidateUser(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, BookingsKey(userID), RemindersKey(userID)).Err(); err != nil {
		return fmt.Errorf("cache invalidation error: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
