// Package catalog keeps the wizard's reference data (providers and service
// templates) in a Redis cache that a background job refreshes periodically.
// Wizard sessions read from the cache; nothing here talks to the UI directly.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"travel_backoffice_backend/internal/agency"
)

const (
	keyProviders = "catalog:providers"
	keyTemplates = "catalog:templates"
)

// ErrCacheMiss is returned when a catalog key is absent or expired.
var ErrCacheMiss = errors.New("catalog cache miss")

// Cache stores catalog snapshots as JSON blobs in Redis.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCache creates a cache with the given entry TTL.
func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

// SetProviders replaces the cached provider snapshot.
func (c *Cache) SetProviders(ctx context.Context, providers []agency.Provider) error {
	return c.set(ctx, keyProviders, providers)
}

// Providers returns the cached provider snapshot.
func (c *Cache) Providers(ctx context.Context) ([]agency.Provider, error) {
	var out []agency.Provider
	if err := c.get(ctx, keyProviders, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetTemplates replaces the cached template snapshot.
func (c *Cache) SetTemplates(ctx context.Context, templates []agency.ServiceTemplate) error {
	return c.set(ctx, keyTemplates, templates)
}

// Templates returns the cached template snapshot.
func (c *Cache) Templates(ctx context.Context) ([]agency.ServiceTemplate, error) {
	var out []agency.ServiceTemplate
	if err := c.get(ctx, keyTemplates, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Cache) set(ctx context.Context, key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := c.rdb.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

func (c *Cache) get(ctx context.Context, key string, out any) error {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}
