/*
Package cache puts a short-lived Redis cache in front of the user lookup used by
token verification, so reconnect storms and API bursts do not each hit PostgreSQL.

The cache is best-effort: any Redis failure falls through to the backing lookup.
Entries must be invalidated when an account is updated or deleted.
*/
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"rosterhub/internal/app/user"
	"rosterhub/internal/pkg/logx"
)

const (
	dialTimeout  = 3 * time.Second
	readTimeout  = 2 * time.Second
	writeTimeout = 2 * time.Second
	pingTimeout  = 2 * time.Second

	identityKeyPrefix = "user:identity:"
)

// NewClient parses a Redis URL and returns a connected client.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}

	options.PoolSize = 10
	options.MinIdleConns = 2
	options.DialTimeout = dialTimeout
	options.ReadTimeout = readTimeout
	options.WriteTimeout = writeTimeout

	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping failed: %w", err)
	}

	logx.Info("Redis client connected.", "addr", options.Addr, "pool_size", options.PoolSize)
	return client, nil
}

// IdentityCache is a user.Lookup backed by Redis with a fallback lookup.
type IdentityCache struct {
	client *redis.Client
	next   user.Lookup
	ttl    time.Duration
	logger zerolog.Logger
}

// NewIdentityCache caches identities resolved by next for ttl.
func NewIdentityCache(client *redis.Client, next user.Lookup, ttl time.Duration) *IdentityCache {
	return &IdentityCache{
		client: client,
		next:   next,
		ttl:    ttl,
		logger: logx.Component("identity_cache"),
	}
}

func identityKey(id string) string {
	return identityKeyPrefix + id
}

// FindUserByID implements user.Lookup. Unknown users are never cached.
func (c *IdentityCache) FindUserByID(ctx context.Context, id string) (*user.Identity, error) {
	raw, err := c.client.Get(ctx, identityKey(id)).Bytes()
	switch {
	case err == nil:
		var identity user.Identity
		if jsonErr := json.Unmarshal(raw, &identity); jsonErr == nil {
			return &identity, nil
		}
		c.logger.Warn().Str("user_id", id).Msg("Discarding undecodable cache entry.")

	case !errors.Is(err, redis.Nil):
		c.logger.Warn().Err(err).Str("user_id", id).Msg("Identity cache read failed. Falling back to store.")
	}

	identity, err := c.next.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(identity); err == nil {
		if err := c.client.Set(ctx, identityKey(id), data, c.ttl).Err(); err != nil {
			c.logger.Warn().Err(err).Str("user_id", id).Msg("Identity cache write failed.")
		}
	}

	return identity, nil
}

// Invalidate drops the cached identity of id.
func (c *IdentityCache) Invalidate(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, identityKey(id)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate identity: %w", err)
	}
	return nil
}
