// Package store defines the aggregate persistence interface. Each subsystem
// (organization, project, membership, decisionlog) defines its own store
// interface; the composite Store composes them all.
// Backends: Postgres, SQLite, MongoDB, and Memory.
package store

import (
	"context"

	"github.com/xraph/steward/decisionlog"
	"github.com/xraph/steward/membership"
	"github.com/xraph/steward/organization"
	"github.com/xraph/steward/project"
)

// Store is the aggregate persistence interface. A single backend
// (postgres, sqlite, mongo, memory) implements all of it.
type Store interface {
	organization.Store
	project.Store
	membership.Store
	decisionlog.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
