// Package project defines the Project entity and its store interface.
package project

import (
	"errors"
	"time"

	"github.com/xraph/steward/id"
)

// ErrNotFound is returned when a project cannot be found.
var ErrNotFound = errors.New("project: not found")

// Project is a ticket container owned by exactly one organization. The
// owning organization is what project-role derivation resolves through.
type Project struct {
	ID             id.ID     `json:"id" db:"id"`
	OrganizationID id.ID     `json:"organization_id" db:"organization_id"`
	Name           string    `json:"name" db:"name"`
	Key            string    `json:"key" db:"key"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// ListFilter contains filters for listing projects.
type ListFilter struct {
	OrganizationID *id.ID `json:"organization_id,omitempty"`
	Search         string `json:"search,omitempty"`
	Limit          int    `json:"limit,omitempty"`
	Offset         int    `json:"offset,omitempty"`
}
