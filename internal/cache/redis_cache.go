package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"

	"tokosepatu/backend/internal/domain"
)

type RedisSaleCache struct {
	client *redis.Client
}

func NewRedisSaleCache(addr string, password string, db int) *RedisSaleCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisSaleCache{client: client}
}

func (c *RedisSaleCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisSaleCache) Close() error {
	return c.client.Close()
}

func (c *RedisSaleCache) Get(ctx context.Context, saleID int64) (*domain.SaleRecord, bool, error) {
	val, err := c.client.Get(ctx, saleKey(saleID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var record domain.SaleRecord
	if err := json.Unmarshal([]byte(val), &record); err != nil {
		return nil, false, err
	}
	return &record, true, nil
}

func (c *RedisSaleCache) Set(ctx context.Context, record *domain.SaleRecord, ttl time.Duration) error {
	if record == nil {
		return nil
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, saleKey(record.ID), payload, ttl).Err()
}

func (c *RedisSaleCache) Delete(ctx context.Context, saleID int64) error {
	return c.client.Del(ctx, saleKey(saleID)).Err()
}
