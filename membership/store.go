package membership

import (
	"context"

	"github.com/xraph/steward/id"
)

// Store defines persistence operations for memberships. The Get*Role and
// admin-check queries are the read side the decision engine depends on;
// everything else serves the command layer.
type Store interface {
	// CreateMembership persists a new membership.
	CreateMembership(ctx context.Context, m *Membership) error

	// GetMembership retrieves the membership row for a subject on a
	// resource at a scope, active or not.
	GetMembership(ctx context.Context, scope string, resourceID id.ID, subjectID string) (*Membership, error)

	// UpdateMembershipRole changes the role on an existing membership.
	UpdateMembershipRole(ctx context.Context, scope string, resourceID id.ID, subjectID, role string) error

	// DeactivateMembership marks a membership inactive. The row remains
	// for audit; it no longer grants any role.
	DeactivateMembership(ctx context.Context, scope string, resourceID id.ID, subjectID string) error

	// DeleteMembershipsByResource removes every membership on a resource.
	// Used when an organization or project is deleted.
	DeleteMembershipsByResource(ctx context.Context, scope string, resourceID id.ID) error

	// ListMemberships returns memberships matching the filter.
	ListMemberships(ctx context.Context, filter *ListFilter) ([]*Membership, error)

	// CountMemberships returns the number of memberships matching the filter.
	CountMemberships(ctx context.Context, filter *ListFilter) (int64, error)

	// GetOrganizationRole returns the subject's active role in the
	// organization, or "" when the subject holds none.
	GetOrganizationRole(ctx context.Context, orgID id.ID, subjectID string) (string, error)

	// GetProjectRole returns the subject's active role in the project,
	// or "" when the subject holds none.
	GetProjectRole(ctx context.Context, projectID id.ID, subjectID string) (string, error)

	// IsSystemAdmin reports whether the subject holds an active
	// system-admin grant.
	IsSystemAdmin(ctx context.Context, subjectID string) (bool, error)

	// HasAnyOrganizationAdminRole reports whether the subject is an active
	// admin of at least one organization. Existential, not resource-scoped.
	HasAnyOrganizationAdminRole(ctx context.Context, subjectID string) (bool, error)
}
