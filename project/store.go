package project

import (
	"context"

	"github.com/xraph/steward/id"
)

// Store defines persistence operations for projects.
type Store interface {
	// CreateProject persists a new project.
	CreateProject(ctx context.Context, p *Project) error

	// GetProject retrieves a project by ID.
	GetProject(ctx context.Context, projectID id.ID) (*Project, error)

	// GetProjectOwningOrganization returns the ID of the organization that
	// owns the project. The second return is false when the project does
	// not exist; the error is reserved for store failures.
	GetProjectOwningOrganization(ctx context.Context, projectID id.ID) (id.ID, bool, error)

	// ListProjects returns projects matching the filter.
	ListProjects(ctx context.Context, filter *ListFilter) ([]*Project, error)

	// CountProjects returns the number of projects matching the filter.
	CountProjects(ctx context.Context, filter *ListFilter) (int64, error)

	// DeleteProject removes a project by ID.
	DeleteProject(ctx context.Context, projectID id.ID) error
}
