package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/genre-tester/backend/internal/training"
	"github.com/genre-tester/backend/pkg/logger"
)

const DefaultHistoryKey = "trainingHistory"

// listClient is the subset of *redis.Client the history store needs.
type listClient interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
	LLen(ctx context.Context, key string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// Client stores training results as a redis list, newest at the head.
// LPUSH is atomic, so concurrent writers never drop each other's records.
type Client struct {
	client listClient
	key    string
}

func NewClient(host string, port int, password string, db int, key string) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized",
		zap.String("addr", fmt.Sprintf("%s:%d", host, port)),
		zap.String("history_key", key),
	)

	return newClient(client, key), nil
}

func newClient(lc listClient, key string) *Client {
	if key == "" {
		key = DefaultHistoryKey
	}
	return &Client{client: lc, key: key}
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) Prepend(ctx context.Context, result training.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal training result: %w", err)
	}

	if err := c.client.LPush(ctx, c.key, data).Err(); err != nil {
		return fmt.Errorf("failed to push training result: %w", err)
	}

	logger.Debug("Training result persisted", zap.String("key", c.key), zap.String("model", string(result.Model)))
	return nil
}

func (c *Client) List(ctx context.Context) ([]training.Result, error) {
	raw, err := c.client.LRange(ctx, c.key, 0, -1).Result()
	if err == redis.Nil {
		return []training.Result{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read training history: %w", err)
	}

	results := make([]training.Result, 0, len(raw))
	for i, item := range raw {
		var r training.Result
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			logger.Warn("Skipping malformed training history entry", zap.Int("index", i), zap.Error(err))
			continue
		}
		results = append(results, r)
	}
	return results, nil
}

func (c *Client) Len(ctx context.Context) (int, error) {
	n, err := c.client.LLen(ctx, c.key).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read training history length: %w", err)
	}
	return int(n), nil
}
