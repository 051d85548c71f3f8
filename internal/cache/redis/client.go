package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/histpatch/backend/internal/storage/models"
	"github.com/histpatch/backend/pkg/logger"
)

type Client struct {
	client *redis.Client
}

func NewClient(host string, port int, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) SetDiagnostic(ctx context.Context, promptHash, response string, ttl time.Duration) error {
	err := c.client.Set(ctx, fmt.Sprintf("diagnostic:%s", promptHash), response, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to cache diagnostic: %w", err)
	}

	logger.Debug("Diagnostic cached", zap.String("prompt_hash", promptHash), zap.Duration("ttl", ttl))
	return nil
}

func (c *Client) GetDiagnostic(ctx context.Context, promptHash string) (string, bool, error) {
	val, err := c.client.Get(ctx, fmt.Sprintf("diagnostic:%s", promptHash)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get cached diagnostic: %w", err)
	}

	logger.Debug("Diagnostic cache hit", zap.String("prompt_hash", promptHash))
	return val, true, nil
}

func (c *Client) SetContributors(ctx context.Context, contributors []models.Contributor, ttl time.Duration) error {
	data, err := json.Marshal(contributors)
	if err != nil {
		return fmt.Errorf("failed to marshal contributors: %w", err)
	}

	if err := c.client.Set(ctx, "contributors", data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache contributors: %w", err)
	}

	return nil
}

func (c *Client) GetContributors(ctx context.Context) ([]models.Contributor, bool, error) {
	data, err := c.client.Get(ctx, "contributors").Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached contributors: %w", err)
	}

	var contributors []models.Contributor
	if err := json.Unmarshal(data, &contributors); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal contributors: %w", err)
	}

	return contributors, true, nil
}
