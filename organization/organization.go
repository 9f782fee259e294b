// Package organization defines the Organization entity and its store interface.
package organization

import (
	"errors"
	"time"

	"github.com/xraph/steward/id"
)

// ErrNotFound is returned when an organization cannot be found.
var ErrNotFound = errors.New("organization: not found")

// Organization is a tenant on the platform. It owns projects and the
// memberships that grant its members organization-level roles.
type Organization struct {
	ID        id.ID     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ListFilter contains filters for listing organizations.
type ListFilter struct {
	Search string `json:"search,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}
