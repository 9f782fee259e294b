package plugin

import (
	"context"
	"log/slog"

	"github.com/xraph/steward/id"
	"github.com/xraph/steward/membership"
)

// Named entry types pair a hook with the plugin name for logging.

type beforeDecisionEntry struct {
	name string
	hook BeforeDecision
}
type afterDecisionEntry struct {
	name string
	hook AfterDecision
}
type membershipGrantedEntry struct {
	name string
	hook MembershipGranted
}
type membershipRoleChangedEntry struct {
	name string
	hook MembershipRoleChanged
}
type membershipRevokedEntry struct {
	name string
	hook MembershipRevoked
}
type organizationDeletedEntry struct {
	name string
	hook OrganizationDeleted
}
type projectDeletedEntry struct {
	name string
	hook ProjectDeleted
}
type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered plugins and dispatches lifecycle events.
// It type-caches plugins at registration time so emit calls iterate
// only over plugins implementing the relevant hook.
type Registry struct {
	plugins []Plugin
	logger  *slog.Logger

	beforeDecision        []beforeDecisionEntry
	afterDecision         []afterDecisionEntry
	membershipGranted     []membershipGrantedEntry
	membershipRoleChanged []membershipRoleChangedEntry
	membershipRevoked     []membershipRevokedEntry
	organizationDeleted   []organizationDeletedEntry
	projectDeleted        []projectDeletedEntry
	shutdown              []shutdownEntry
}

// NewRegistry creates a plugin registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds a plugin and type-asserts it into all applicable
// hook caches. Plugins are notified in registration order.
func (r *Registry) Register(p Plugin) {
	r.plugins = append(r.plugins, p)
	name := p.Name()

	if h, ok := p.(BeforeDecision); ok {
		r.beforeDecision = append(r.beforeDecision, beforeDecisionEntry{name, h})
	}
	if h, ok := p.(AfterDecision); ok {
		r.afterDecision = append(r.afterDecision, afterDecisionEntry{name, h})
	}
	if h, ok := p.(MembershipGranted); ok {
		r.membershipGranted = append(r.membershipGranted, membershipGrantedEntry{name, h})
	}
	if h, ok := p.(MembershipRoleChanged); ok {
		r.membershipRoleChanged = append(r.membershipRoleChanged, membershipRoleChangedEntry{name, h})
	}
	if h, ok := p.(MembershipRevoked); ok {
		r.membershipRevoked = append(r.membershipRevoked, membershipRevokedEntry{name, h})
	}
	if h, ok := p.(OrganizationDeleted); ok {
		r.organizationDeleted = append(r.organizationDeleted, organizationDeletedEntry{name, h})
	}
	if h, ok := p.(ProjectDeleted); ok {
		r.projectDeleted = append(r.projectDeleted, projectDeletedEntry{name, h})
	}
	if h, ok := p.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Plugins returns all registered plugins.
func (r *Registry) Plugins() []Plugin { return r.plugins }

// EmitBeforeDecision notifies all plugins that implement BeforeDecision.
func (r *Registry) EmitBeforeDecision(ctx context.Context, subject string, req any) {
	for _, e := range r.beforeDecision {
		if err := e.hook.OnBeforeDecision(ctx, subject, req); err != nil {
			r.logHookError("OnBeforeDecision", e.name, err)
		}
	}
}

// EmitAfterDecision notifies all plugins that implement AfterDecision.
func (r *Registry) EmitAfterDecision(ctx context.Context, subject string, req, result any) {
	for _, e := range r.afterDecision {
		if err := e.hook.OnAfterDecision(ctx, subject, req, result); err != nil {
			r.logHookError("OnAfterDecision", e.name, err)
		}
	}
}

// EmitMembershipGranted notifies all plugins that implement MembershipGranted.
func (r *Registry) EmitMembershipGranted(ctx context.Context, m *membership.Membership) {
	for _, e := range r.membershipGranted {
		if err := e.hook.OnMembershipGranted(ctx, m); err != nil {
			r.logHookError("OnMembershipGranted", e.name, err)
		}
	}
}

// EmitMembershipRoleChanged notifies all plugins that implement MembershipRoleChanged.
func (r *Registry) EmitMembershipRoleChanged(ctx context.Context, m *membership.Membership) {
	for _, e := range r.membershipRoleChanged {
		if err := e.hook.OnMembershipRoleChanged(ctx, m); err != nil {
			r.logHookError("OnMembershipRoleChanged", e.name, err)
		}
	}
}

// EmitMembershipRevoked notifies all plugins that implement MembershipRevoked.
func (r *Registry) EmitMembershipRevoked(ctx context.Context, scope string, resourceID id.ID, subjectID string) {
	for _, e := range r.membershipRevoked {
		if err := e.hook.OnMembershipRevoked(ctx, scope, resourceID, subjectID); err != nil {
			r.logHookError("OnMembershipRevoked", e.name, err)
		}
	}
}

// EmitOrganizationDeleted notifies all plugins that implement OrganizationDeleted.
func (r *Registry) EmitOrganizationDeleted(ctx context.Context, orgID id.ID) {
	for _, e := range r.organizationDeleted {
		if err := e.hook.OnOrganizationDeleted(ctx, orgID); err != nil {
			r.logHookError("OnOrganizationDeleted", e.name, err)
		}
	}
}

// EmitProjectDeleted notifies all plugins that implement ProjectDeleted.
func (r *Registry) EmitProjectDeleted(ctx context.Context, projectID id.ID) {
	for _, e := range r.projectDeleted {
		if err := e.hook.OnProjectDeleted(ctx, projectID); err != nil {
			r.logHookError("OnProjectDeleted", e.name, err)
		}
	}
}

// EmitShutdown notifies all plugins that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a hook failure. Hook errors never interrupt dispatch.
func (r *Registry) logHookError(hook, plugin string, err error) {
	if r.logger == nil {
		return
	}
	r.logger.Warn("steward plugin hook failed",
		slog.String("hook", hook),
		slog.String("plugin", plugin),
		slog.Any("error", err),
	)
}
