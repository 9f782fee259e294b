package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/xraph/steward"
)

// setupRedisTest starts a miniredis instance and returns a cache on it.
func setupRedisTest(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedis(client, WithRedisTTL(time.Minute)), mr
}

func TestRedisCacheHitMiss(t *testing.T) {
	ctx := context.Background()
	c, _ := setupRedisTest(t)

	if _, ok := c.Get(ctx, steward.ScopeOrganization, "u1", "org1"); ok {
		t.Fatal("expected cache miss")
	}

	c.Set(ctx, steward.ScopeOrganization, "u1", "org1", "admin", 0)
	got, ok := c.Get(ctx, steward.ScopeOrganization, "u1", "org1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != "admin" {
		t.Fatalf("expected admin, got %q", got)
	}
}

func TestRedisCacheEmptyRoleIsAHit(t *testing.T) {
	ctx := context.Background()
	c, _ := setupRedisTest(t)

	c.Set(ctx, steward.ScopeProject, "u1", "p1", "", 0)
	got, ok := c.Get(ctx, steward.ScopeProject, "u1", "p1")
	if !ok {
		t.Fatal("expected cached empty role to be a hit")
	}
	if got != "" {
		t.Fatalf("expected empty role, got %q", got)
	}
}

func TestRedisCacheTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c, mr := setupRedisTest(t)

	c.Set(ctx, steward.ScopeOrganization, "u1", "org1", "member", time.Second)
	mr.FastForward(2 * time.Second)

	if _, ok := c.Get(ctx, steward.ScopeOrganization, "u1", "org1"); ok {
		t.Fatal("expected cache miss after TTL expiry")
	}
}

func TestRedisCacheInvalidateExact(t *testing.T) {
	ctx := context.Background()
	c, _ := setupRedisTest(t)

	c.Set(ctx, steward.ScopeOrganization, "u1", "org1", "admin", 0)
	c.Set(ctx, steward.ScopeOrganization, "u2", "org1", "member", 0)

	c.InvalidateExact(ctx, steward.ScopeOrganization, "u1", "org1")

	if _, ok := c.Get(ctx, steward.ScopeOrganization, "u1", "org1"); ok {
		t.Fatal("expected u1 entry invalidated")
	}
	if _, ok := c.Get(ctx, steward.ScopeOrganization, "u2", "org1"); !ok {
		t.Fatal("expected u2 entry to survive")
	}
}

func TestRedisCacheInvalidateResource(t *testing.T) {
	ctx := context.Background()
	c, _ := setupRedisTest(t)

	c.Set(ctx, steward.ScopeProject, "u1", "p1", "admin", 0)
	c.Set(ctx, steward.ScopeProject, "u2", "p1", "viewer", 0)
	c.Set(ctx, steward.ScopeProject, "u1", "p2", "member", 0)

	c.InvalidateResource(ctx, steward.ScopeProject, "p1")

	if _, ok := c.Get(ctx, steward.ScopeProject, "u1", "p1"); ok {
		t.Fatal("expected p1/u1 invalidated")
	}
	if _, ok := c.Get(ctx, steward.ScopeProject, "u2", "p1"); ok {
		t.Fatal("expected p1/u2 invalidated")
	}
	if _, ok := c.Get(ctx, steward.ScopeProject, "u1", "p2"); !ok {
		t.Fatal("expected p2 entry to survive")
	}
}

func TestRedisCacheInvalidateSubjectGlobal(t *testing.T) {
	ctx := context.Background()
	c, _ := setupRedisTest(t)

	c.Set(ctx, steward.ScopeOrganization, "u1", "org1", "admin", 0)
	c.Set(ctx, steward.ScopeProject, "u1", "p1", "viewer", 0)
	c.Set(ctx, steward.ScopeSystem, "u1", "global", "system_admin", 0)
	c.Set(ctx, steward.ScopeOrganization, "u2", "org1", "member", 0)

	c.InvalidateSubjectGlobal(ctx, "u1")

	if _, ok := c.Get(ctx, steward.ScopeOrganization, "u1", "org1"); ok {
		t.Fatal("expected u1 org entry invalidated")
	}
	if _, ok := c.Get(ctx, steward.ScopeProject, "u1", "p1"); ok {
		t.Fatal("expected u1 project entry invalidated")
	}
	if _, ok := c.Get(ctx, steward.ScopeSystem, "u1", "global"); ok {
		t.Fatal("expected u1 system entry invalidated")
	}
	if _, ok := c.Get(ctx, steward.ScopeOrganization, "u2", "org1"); !ok {
		t.Fatal("expected u2 entry to survive")
	}
}
