// Package plugin defines the plugin system for Steward.
// Plugins are notified of lifecycle events (decision made, membership
// granted, resource deleted, etc.) and can react: logging, metrics,
// tracing, cross-service cache busting.
//
// Each lifecycle hook is a separate interface so plugins opt in only
// to the events they care about.
package plugin

import (
	"context"

	"github.com/xraph/steward/id"
	"github.com/xraph/steward/membership"
)

// Plugin is the base interface all plugins must implement.
type Plugin interface {
	// Name returns a unique human-readable name for the plugin.
	Name() string
}

// BeforeDecision is called before an authorization decision is evaluated.
// The req parameter is *steward.Requirement (passed as any to avoid an
// import cycle).
type BeforeDecision interface {
	OnBeforeDecision(ctx context.Context, subject string, req any) error
}

// AfterDecision is called after a decision completes. The req parameter is
// *steward.Requirement; result is *steward.Decision.
type AfterDecision interface {
	OnAfterDecision(ctx context.Context, subject string, req, result any) error
}

// MembershipGranted is called after a membership is created.
type MembershipGranted interface {
	OnMembershipGranted(ctx context.Context, m *membership.Membership) error
}

// MembershipRoleChanged is called after a membership's role changes.
type MembershipRoleChanged interface {
	OnMembershipRoleChanged(ctx context.Context, m *membership.Membership) error
}

// MembershipRevoked is called after a membership is deactivated.
type MembershipRevoked interface {
	OnMembershipRevoked(ctx context.Context, scope string, resourceID id.ID, subjectID string) error
}

// OrganizationDeleted is called after an organization is deleted.
type OrganizationDeleted interface {
	OnOrganizationDeleted(ctx context.Context, orgID id.ID) error
}

// ProjectDeleted is called after a project is deleted.
type ProjectDeleted interface {
	OnProjectDeleted(ctx context.Context, projectID id.ID) error
}

// Shutdown is called when the engine stops.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
