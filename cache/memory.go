// Package cache provides caching implementations for Steward role lookups.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/xraph/steward"
)

// Compile-time interface check.
var _ steward.Cache = (*Memory)(nil)

// Memory is an in-memory role cache with TTL-based expiration.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ttl     time.Duration
	maxSize int
}

type entry struct {
	role      string
	expiresAt time.Time
}

// MemoryOption configures the memory cache.
type MemoryOption func(*Memory)

// WithTTL sets the default cache entry time-to-live.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(m *Memory) { m.ttl = ttl }
}

// WithMaxSize sets the maximum number of cache entries.
func WithMaxSize(n int) MemoryOption {
	return func(m *Memory) { m.maxSize = n }
}

// NewMemory creates a new in-memory cache.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]*entry),
		ttl:     2 * time.Minute,
		maxSize: 10000,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the cached role for the key, if present and unexpired.
func (m *Memory) Get(_ context.Context, scope steward.Scope, subject, resourceID string) (string, bool) {
	key := cacheKey(scope, subject, resourceID)
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return "", false
	}
	if time.Now().After(e.expiresAt) {
		m.dropExpired(key)
		return "", false
	}
	return e.role, true
}

// dropExpired deletes the entry for key only if it is still expired. The
// expiry is re-checked under the write lock so a concurrent Set that just
// refreshed the entry is not thrown away.
func (m *Memory) dropExpired(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[key]; ok && time.Now().After(e.expiresAt) {
		delete(m.entries, key)
	}
}

// Set stores a role for the key. A ttl <= 0 uses the cache default.
func (m *Memory) Set(_ context.Context, scope steward.Scope, subject, resourceID, role string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = m.ttl
	}
	key := cacheKey(scope, subject, resourceID)
	m.mu.Lock()
	defer m.mu.Unlock()

	// Evict if at capacity.
	if len(m.entries) >= m.maxSize {
		m.evictExpired()
		if len(m.entries) >= m.maxSize {
			// Evict one arbitrary entry.
			m.evictOne()
		}
	}

	m.entries[key] = &entry{
		role:      role,
		expiresAt: time.Now().Add(ttl),
	}
}

// InvalidateExact removes the entry for one (scope, subject, resource).
func (m *Memory) InvalidateExact(_ context.Context, scope steward.Scope, subject, resourceID string) {
	key := cacheKey(scope, subject, resourceID)
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

// InvalidateResource removes entries for all subjects on a resource.
func (m *Memory) InvalidateResource(_ context.Context, scope steward.Scope, resourceID string) {
	prefix := string(scope) + ":" + resourceID + ":"
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		}
	}
}

// InvalidateSubjectGlobal removes every entry for a subject across all
// scopes and resources.
func (m *Memory) InvalidateSubjectGlobal(_ context.Context, subject string) {
	suffix := ":" + subject
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if strings.HasSuffix(k, suffix) {
			delete(m.entries, k)
		}
	}
}

// cacheKey keeps the subject segment last so that resource invalidation is
// a prefix scan and subject invalidation a suffix scan.
func cacheKey(scope steward.Scope, subject, resourceID string) string {
	return string(scope) + ":" + resourceID + ":" + subject
}

// evictExpired removes all expired entries. Must hold write lock.
func (m *Memory) evictExpired() {
	now := time.Now()
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}

// evictOne removes one arbitrary entry. Must hold write lock.
func (m *Memory) evictOne() {
	for k := range m.entries {
		delete(m.entries, k)
		return
	}
}
