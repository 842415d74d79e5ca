package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tipflow/tip-backend/config"
	"github.com/tipflow/tip-backend/services"
	"github.com/tipflow/tip-backend/utils"
)

const keyPrefix = "tipflow:tipcode:"

// EmployeeCache stores tip-code resolutions in Redis. Entries are never
// invalidated; a deactivated employee or suspended provider can still resolve
// until the entry's TTL runs out.
type EmployeeCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// Connect returns nil when no address is configured.
func Connect(ctx context.Context, cfg config.RedisConfig) (*EmployeeCache, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}
	utils.InfoLogger.Infof("Redis connected at %s", cfg.Addr)
	return NewEmployeeCache(client, cfg.TTL), nil
}

func NewEmployeeCache(client redis.UniversalClient, ttl time.Duration) *EmployeeCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &EmployeeCache{client: client, ttl: ttl}
}

func key(tipCode string) string {
	return keyPrefix + tipCode
}

func (c *EmployeeCache) GetEmployee(ctx context.Context, tipCode string) (*services.EmployeeRef, bool, error) {
	raw, err := c.client.Get(ctx, key(tipCode)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var ref services.EmployeeRef
	if err := json.Unmarshal(raw, &ref); err != nil {
		// treat a corrupt entry as a miss; the next Set overwrites it
		return nil, false, nil
	}
	return &ref, true, nil
}

func (c *EmployeeCache) SetEmployee(ctx context.Context, ref *services.EmployeeRef) error {
	raw, err := json.Marshal(ref)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(ref.TipCode), raw, c.ttl).Err()
}

func (c *EmployeeCache) Close() error {
	return c.client.Close()
}
