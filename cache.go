package steward

import (
	"context"
	"time"
)

// Cache stores resolved roles per (scope, subject, resource) with a short
// TTL. A cached empty role means the lookup ran and the subject holds
// nothing; deny outcomes are cached exactly like grants so repeated
// unauthorized probing does not turn into a miss storm.
//
// Implementations must be safe for unbounded concurrent readers and writers.
// Entries are replaced whole, never merged.
type Cache interface {
	// Get returns the cached role for the key, if present and unexpired.
	// The second return distinguishes "no entry" from a cached empty role.
	Get(ctx context.Context, scope Scope, subject, resourceID string) (string, bool)

	// Set stores a role for the key. A ttl <= 0 uses the backend's default.
	Set(ctx context.Context, scope Scope, subject, resourceID, role string, ttl time.Duration)

	// InvalidateExact removes the entry for one (scope, subject, resource).
	InvalidateExact(ctx context.Context, scope Scope, subject, resourceID string)

	// InvalidateResource removes entries for all subjects on a resource.
	// Used when an organization or project is deleted.
	InvalidateResource(ctx context.Context, scope Scope, resourceID string)

	// InvalidateSubjectGlobal removes every entry for a subject across all
	// scopes and resources. Used when a subject's grants change broadly,
	// e.g. a system-admin grant or revoke.
	InvalidateSubjectGlobal(ctx context.Context, subject string)
}

// systemResourceID is the fixed resource key under which system-scope
// lookups are cached; the system scope has exactly one resource.
const systemResourceID = "global"
