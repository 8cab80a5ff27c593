package services

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisPinger reports whether the configured cache is reachable. The service
// keeps no data in Redis.
type RedisPinger struct {
	Client *redis.Client
}

func NewRedisPinger(redisURL string) (*RedisPinger, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	return &RedisPinger{Client: redis.NewClient(opts)}, nil
}

func (p *RedisPinger) Ping(ctx context.Context) error {
	if err := p.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (p *RedisPinger) Close() error {
	return p.Client.Close()
}
