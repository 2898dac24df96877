// Package redis implements Redis-backed caching for the shared tenant
// registry. Registry lookups sit on the hot path of every request (the
// resolver consults them before touching a tenant store), so tenant metadata
// is cached read-through with a TTL and invalidated on settings writes.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/schoolhub/school-admin-hub/internal/domain/tenant"
	"github.com/schoolhub/school-admin-hub/pkg/logger"
)

// Config holds Redis connection configuration.
type Config struct {
	// Addr is the Redis server address in "host:port" format.
	Addr string

	// Password is the Redis authentication password (empty if no auth).
	Password string

	// DB is the Redis database number (0-15).
	DB int

	// PoolSize is the maximum number of socket connections.
	PoolSize int

	// DialTimeout is the timeout for establishing new connections.
	DialTimeout time.Duration

	// ReadTimeout is the timeout for socket reads.
	ReadTimeout time.Duration

	// TenantTTL is how long cached tenant metadata stays valid.
	TenantTTL time.Duration
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Addr:        "localhost:6379",
		DB:          0,
		PoolSize:    10,
		DialTimeout: 5 * time.Second,
		ReadTimeout: 3 * time.Second,
		TenantTTL:   5 * time.Minute,
	}
}

// NewClient creates a Redis client and verifies connectivity.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: cfg.DialTimeout,
		ReadTimeout: cfg.ReadTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis: failed to ping server: %w", err)
	}
	return client, nil
}

// tenantKeyPrefix namespaces cached tenant metadata.
const tenantKeyPrefix = "registry:tenant:"

func tenantKey(code string) string {
	return tenantKeyPrefix + tenant.NormalizeCode(code)
}

// cachedTenant is the wire form of tenant metadata in Redis.
type cachedTenant struct {
	ID           string          `json:"id"`
	Code         string          `json:"code"`
	DisplayName  string          `json:"display_name"`
	DatabaseName string          `json:"database_name"`
	Settings     tenant.Settings `json:"settings"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// RegistryCache is a read-through cache over a tenant.Registry. Cache
// failures are never fatal: reads fall through to the underlying registry
// and the miss is logged.
type RegistryCache struct {
	inner  tenant.Registry
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewRegistryCache wraps a registry with Redis caching.
func NewRegistryCache(inner tenant.Registry, client *redis.Client, ttl time.Duration, log *logger.Logger) *RegistryCache {
	if log == nil {
		log = logger.Default()
	}
	return &RegistryCache{
		inner:  inner,
		client: client,
		ttl:    ttl,
		log:    log.With(logger.Component("registry-cache")),
	}
}

// GetByCode returns the tenant for a code, from cache when possible.
func (c *RegistryCache) GetByCode(ctx context.Context, code string) (*tenant.Tenant, error) {
	key := tenantKey(code)

	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		if t, decodeErr := decodeTenant(data); decodeErr == nil {
			return t, nil
		}
		// Corrupt entry: drop it and fall through to the registry.
		c.client.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		c.log.Warn("registry cache read failed", logger.SchoolCode(code), logger.Err(err))
	}

	t, err := c.inner.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if data, encodeErr := encodeTenant(t); encodeErr == nil {
		if setErr := c.client.Set(ctx, key, data, c.ttl).Err(); setErr != nil {
			c.log.Warn("registry cache write failed", logger.SchoolCode(code), logger.Err(setErr))
		}
	}

	return t, nil
}

// UpdateSettings writes through to the registry and invalidates the cached
// entry so the next read sees fresh settings.
func (c *RegistryCache) UpdateSettings(ctx context.Context, id uuid.UUID, s tenant.Settings) error {
	if err := c.inner.UpdateSettings(ctx, id, s); err != nil {
		return err
	}

	// The cache is keyed by code, not id; scanning the small namespace is
	// acceptable because settings writes are rare and administrative.
	iter := c.client.Scan(ctx, 0, tenantKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		c.client.Del(ctx, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.log.Warn("registry cache invalidation failed", logger.TenantID(id.String()), logger.Err(err))
	}

	return nil
}

func encodeTenant(t *tenant.Tenant) ([]byte, error) {
	return json.Marshal(cachedTenant{
		ID:           t.ID.String(),
		Code:         t.Code,
		DisplayName:  t.DisplayName,
		DatabaseName: t.DatabaseName,
		Settings:     t.Settings,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	})
}

func decodeTenant(data []byte) (*tenant.Tenant, error) {
	var ct cachedTenant
	if err := json.Unmarshal(data, &ct); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(ct.ID)
	if err != nil {
		return nil, err
	}
	return &tenant.Tenant{
		ID:           id,
		Code:         ct.Code,
		DisplayName:  ct.DisplayName,
		DatabaseName: ct.DatabaseName,
		Settings:     ct.Settings,
		CreatedAt:    ct.CreatedAt,
		UpdatedAt:    ct.UpdatedAt,
	}, nil
}
