package organization

import (
	"context"

	"github.com/xraph/steward/id"
)

// Store defines persistence operations for organizations.
type Store interface {
	// CreateOrganization persists a new organization.
	CreateOrganization(ctx context.Context, o *Organization) error

	// GetOrganization retrieves an organization by ID.
	GetOrganization(ctx context.Context, orgID id.ID) (*Organization, error)

	// ListOrganizations returns organizations matching the filter.
	ListOrganizations(ctx context.Context, filter *ListFilter) ([]*Organization, error)

	// CountOrganizations returns the number of organizations matching the filter.
	CountOrganizations(ctx context.Context, filter *ListFilter) (int64, error)

	// DeleteOrganization removes an organization by ID.
	DeleteOrganization(ctx context.Context, orgID id.ID) error
}
