// Package membership defines the Membership entity, the ground truth that
// subject roles are resolved from, and its store interface.
package membership

import (
	"errors"
	"time"

	"github.com/xraph/steward/id"
)

// ErrNotFound is returned when a membership cannot be found.
var ErrNotFound = errors.New("membership: not found")

// Scope values stored on a membership row. They mirror the engine's scopes;
// the store layer deals in plain strings, the engine applies typing.
const (
	ScopeOrganization = "organization"
	ScopeProject      = "project"
	ScopeSystem       = "system"
)

// Membership binds a subject to a role on a resource at a scope. Only rows
// with IsActive true count toward authorization; a removed member keeps its
// row for audit but resolves to no role.
type Membership struct {
	ID         id.ID     `json:"id" db:"id"`
	Scope      string    `json:"scope" db:"scope"`
	ResourceID id.ID     `json:"resource_id" db:"resource_id"`
	SubjectID  string    `json:"subject_id" db:"subject_id"`
	Role       string    `json:"role" db:"role"`
	IsActive   bool      `json:"is_active" db:"is_active"`
	GrantedBy  string    `json:"granted_by,omitempty" db:"granted_by"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// ListFilter contains filters for listing memberships.
type ListFilter struct {
	Scope      string `json:"scope,omitempty"`
	ResourceID *id.ID `json:"resource_id,omitempty"`
	SubjectID  string `json:"subject_id,omitempty"`
	Role       string `json:"role,omitempty"`
	ActiveOnly bool   `json:"active_only,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Offset     int    `json:"offset,omitempty"`
}
