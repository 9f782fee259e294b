package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xraph/steward"
)

// Compile-time interface check.
var _ steward.Cache = (*Redis)(nil)

// Redis is a role cache backed by a Redis server, for deployments where
// several service instances must share invalidation.
type Redis struct {
	client    redis.UniversalClient
	ttl       time.Duration
	keyPrefix string
	logger    *slog.Logger
}

// RedisOption configures the Redis cache.
type RedisOption func(*Redis)

// WithRedisTTL sets the default cache entry time-to-live.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) { r.ttl = ttl }
}

// WithKeyPrefix sets the namespace prepended to every cache key.
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *Redis) { r.keyPrefix = prefix }
}

// WithRedisLogger sets the logger for cache-side failures.
func WithRedisLogger(logger *slog.Logger) RedisOption {
	return func(r *Redis) { r.logger = logger }
}

// NewRedis creates a Redis-backed cache on an existing client.
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	r := &Redis{
		client:    client,
		ttl:       2 * time.Minute,
		keyPrefix: "steward:",
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the cached role for the key. Redis stores empty strings, so a
// cached "no role" round-trips intact; redis.Nil is the only miss signal.
func (r *Redis) Get(ctx context.Context, scope steward.Scope, subject, resourceID string) (string, bool) {
	val, err := r.client.Get(ctx, r.key(scope, subject, resourceID)).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		r.logger.Warn("steward cache: redis get failed", slog.Any("error", err))
		return "", false
	}
	return val, true
}

// Set stores a role for the key. A ttl <= 0 uses the cache default.
func (r *Redis) Set(ctx context.Context, scope steward.Scope, subject, resourceID, role string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = r.ttl
	}
	if err := r.client.Set(ctx, r.key(scope, subject, resourceID), role, ttl).Err(); err != nil {
		r.logger.Warn("steward cache: redis set failed", slog.Any("error", err))
	}
}

// InvalidateExact removes the entry for one (scope, subject, resource).
func (r *Redis) InvalidateExact(ctx context.Context, scope steward.Scope, subject, resourceID string) {
	if err := r.client.Del(ctx, r.key(scope, subject, resourceID)).Err(); err != nil {
		r.logger.Warn("steward cache: redis del failed", slog.Any("error", err))
	}
}

// InvalidateResource removes entries for all subjects on a resource.
func (r *Redis) InvalidateResource(ctx context.Context, scope steward.Scope, resourceID string) {
	r.deleteMatching(ctx, r.keyPrefix+string(scope)+":"+resourceID+":*")
}

// InvalidateSubjectGlobal removes every entry for a subject across all
// scopes and resources.
func (r *Redis) InvalidateSubjectGlobal(ctx context.Context, subject string) {
	r.deleteMatching(ctx, r.keyPrefix+"*:"+subject)
}

// deleteMatching scans for keys matching the pattern and deletes them.
// SCAN rather than KEYS so a large cache does not block the server.
func (r *Redis) deleteMatching(ctx context.Context, pattern string) {
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		r.logger.Warn("steward cache: redis scan failed",
			slog.String("pattern", pattern),
			slog.Any("error", err),
		)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.logger.Warn("steward cache: redis del failed", slog.Any("error", err))
	}
}

// key keeps the subject segment last so that resource invalidation and
// subject invalidation are both single glob patterns.
func (r *Redis) key(scope steward.Scope, subject, resourceID string) string {
	return r.keyPrefix + string(scope) + ":" + resourceID + ":" + subject
}
