package steward

import "time"

// Config holds configuration for the Steward engine.
type Config struct {
	// CacheTTL is the time-to-live for cached role lookups. The TTL bounds
	// how stale a decision can be when an invalidation path is missed.
	// Defaults to 2 minutes.
	CacheTTL time.Duration `json:"cache_ttl,omitempty"`

	// AuditDecisions records every decision in the decision log store.
	// Defaults to false.
	AuditDecisions bool `json:"audit_decisions,omitempty"`

	// OrganizationsController overrides the controller hint under which a
	// generic "id" route parameter is read as an organization id.
	OrganizationsController string `json:"organizations_controller,omitempty"`

	// ProjectsController overrides the controller hint under which a
	// generic "id" route parameter is read as a project id.
	ProjectsController string `json:"projects_controller,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		CacheTTL: 2 * time.Minute,
	}
}
