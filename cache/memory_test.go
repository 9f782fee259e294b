package cache

import (
	"context"
	"testing"
	"time"

	"github.com/xraph/steward"
)

func TestMemoryCacheHitMiss(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(time.Minute))

	// Miss
	_, ok := c.Get(ctx, steward.ScopeOrganization, "u1", "org1")
	if ok {
		t.Fatal("expected cache miss")
	}

	// Set + Hit
	c.Set(ctx, steward.ScopeOrganization, "u1", "org1", "admin", 0)
	got, ok := c.Get(ctx, steward.ScopeOrganization, "u1", "org1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != "admin" {
		t.Fatalf("expected admin, got %q", got)
	}
}

func TestMemoryCacheEmptyRoleIsAHit(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	c.Set(ctx, steward.ScopeProject, "u1", "p1", "", 0)
	got, ok := c.Get(ctx, steward.ScopeProject, "u1", "p1")
	if !ok {
		t.Fatal("expected cached empty role to be a hit")
	}
	if got != "" {
		t.Fatalf("expected empty role, got %q", got)
	}
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(1 * time.Millisecond))

	c.Set(ctx, steward.ScopeOrganization, "u1", "org1", "member", 0)
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get(ctx, steward.ScopeOrganization, "u1", "org1")
	if ok {
		t.Fatal("expected cache miss after TTL expiry")
	}
}

func TestMemoryCacheDropExpiredKeepsRefreshedEntry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(time.Minute))
	key := cacheKey(steward.ScopeOrganization, "u1", "org1")

	// A reader that saw the old, expired entry must not delete a value a
	// concurrent writer refreshed in the meantime.
	c.entries[key] = &entry{role: "member", expiresAt: time.Now().Add(-time.Minute)}
	c.Set(ctx, steward.ScopeOrganization, "u1", "org1", "member", 0)
	c.dropExpired(key)

	got, ok := c.Get(ctx, steward.ScopeOrganization, "u1", "org1")
	if !ok || got != "member" {
		t.Fatalf("expected refreshed entry to survive, got ok=%v role=%q", ok, got)
	}

	// A genuinely expired entry is still collected.
	c.entries[key] = &entry{role: "member", expiresAt: time.Now().Add(-time.Minute)}
	c.dropExpired(key)
	if _, ok := c.entries[key]; ok {
		t.Fatal("expected expired entry to be dropped")
	}
}

func TestMemoryCachePerCallTTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(time.Minute))

	c.Set(ctx, steward.ScopeOrganization, "u1", "org1", "member", time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get(ctx, steward.ScopeOrganization, "u1", "org1"); ok {
		t.Fatal("expected per-call TTL to override default")
	}
}

func TestMemoryCacheInvalidateExact(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

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

func TestMemoryCacheInvalidateResource(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

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

func TestMemoryCacheInvalidateSubjectGlobal(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

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

func TestMemoryCacheMaxSizeEviction(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithMaxSize(2))

	c.Set(ctx, steward.ScopeOrganization, "u1", "org1", "admin", 0)
	c.Set(ctx, steward.ScopeOrganization, "u2", "org1", "member", 0)
	c.Set(ctx, steward.ScopeOrganization, "u3", "org1", "viewer", 0)

	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()
	if n > 2 {
		t.Fatalf("expected at most 2 entries, got %d", n)
	}
}
