// Package redis publishes values to Redis pub/sub channels.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
	// Channel receives every published value as JSON.
	Channel string
	// Client overrides Addr, Password and DB. It is not closed by Close.
	Client goredis.UniversalClient
}

type Publisher[T any] struct {
	client  goredis.UniversalClient
	channel string
	owned   bool
}

func NewPublisher[T any](ctx context.Context, cfg Config) (*Publisher[T], error) {
	if cfg.Channel == "" {
		return nil, errors.New("channel is required")
	}
	p := &Publisher[T]{client: cfg.Client, channel: cfg.Channel}
	if p.client == nil {
		if cfg.Addr == "" {
			return nil, errors.New("addr is required")
		}
		p.client = goredis.NewClient(&goredis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		p.owned = true
	}
	if err := p.client.Ping(ctx).Err(); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return p, nil
}

// PublishCount returns the number of subscribers that received the value.
func (p *Publisher[T]) PublishCount(ctx context.Context, v T) (int64, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return 0, fmt.Errorf("encode: %w", err)
	}
	n, err := p.client.Publish(ctx, p.channel, data).Result()
	if err != nil {
		return 0, fmt.Errorf("publish %s: %w", p.channel, err)
	}
	return n, nil
}

func (p *Publisher[T]) Publish(ctx context.Context, v T) error {
	_, err := p.PublishCount(ctx, v)
	return err
}

func (p *Publisher[T]) Close() error {
	if !p.owned {
		return nil
	}
	return p.client.Close()
}
