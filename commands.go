package steward

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/steward/id"
	"github.com/xraph/steward/membership"
	"github.com/xraph/steward/project"
)

// systemAdminRole is the role value stored for an explicit system-admin
// grant. System grants live in the membership table with a nil resource.
const systemAdminRole = "system_admin"

// GrantMembership creates an active membership for a subject on a resource.
// The cached role for the triple is purged so the next decision sees the
// grant immediately.
func (e *Engine) GrantMembership(ctx context.Context, scope Scope, resourceID id.ID, subject, role, grantedBy string) (*membership.Membership, error) {
	if subject == "" {
		return nil, ErrMissingSubject
	}
	if err := validateScopedRole(scope, role); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	m := &membership.Membership{
		ID:         id.NewMembershipID(),
		Scope:      string(scope),
		ResourceID: resourceID,
		SubjectID:  subject,
		Role:       role,
		IsActive:   true,
		GrantedBy:  grantedBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := e.store.CreateMembership(ctx, m); err != nil {
		return nil, fmt.Errorf("grant membership: %w", err)
	}

	e.invalidateAfterMembershipWrite(ctx, scope, resourceID, subject)
	if e.plugins != nil {
		e.plugins.EmitMembershipGranted(ctx, m)
	}
	return m, nil
}

// ChangeMembershipRole updates the role on an existing membership.
func (e *Engine) ChangeMembershipRole(ctx context.Context, scope Scope, resourceID id.ID, subject, role string) error {
	if subject == "" {
		return ErrMissingSubject
	}
	if err := validateScopedRole(scope, role); err != nil {
		return err
	}

	if err := e.store.UpdateMembershipRole(ctx, string(scope), resourceID, subject, role); err != nil {
		return fmt.Errorf("change membership role: %w", err)
	}

	e.invalidateAfterMembershipWrite(ctx, scope, resourceID, subject)
	if e.plugins != nil {
		if m, err := e.store.GetMembership(ctx, string(scope), resourceID, subject); err == nil {
			e.plugins.EmitMembershipRoleChanged(ctx, m)
		}
	}
	return nil
}

// RevokeMembership deactivates a subject's membership on a resource. The
// row is kept for audit; only active rows grant access.
func (e *Engine) RevokeMembership(ctx context.Context, scope Scope, resourceID id.ID, subject string) error {
	if subject == "" {
		return ErrMissingSubject
	}
	if !scope.Valid() {
		return ErrInvalidScope
	}

	if err := e.store.DeactivateMembership(ctx, string(scope), resourceID, subject); err != nil {
		return fmt.Errorf("revoke membership: %w", err)
	}

	e.invalidateAfterMembershipWrite(ctx, scope, resourceID, subject)
	if e.plugins != nil {
		e.plugins.EmitMembershipRevoked(ctx, string(scope), resourceID, subject)
	}
	return nil
}

// SetSystemAdmin grants or revokes the explicit platform-admin level for a
// subject. All of the subject's cached roles are purged since the grant
// changes the outcome of every system-scoped decision.
func (e *Engine) SetSystemAdmin(ctx context.Context, subject string, grant bool, grantedBy string) error {
	if subject == "" {
		return ErrMissingSubject
	}

	if grant {
		now := time.Now().UTC()
		m := &membership.Membership{
			ID:         id.NewMembershipID(),
			Scope:      string(ScopeSystem),
			ResourceID: id.Nil,
			SubjectID:  subject,
			Role:       systemAdminRole,
			IsActive:   true,
			GrantedBy:  grantedBy,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := e.store.CreateMembership(ctx, m); err != nil {
			return fmt.Errorf("grant system admin: %w", err)
		}
		e.InvalidateSubjectGlobal(ctx, subject)
		if e.plugins != nil {
			e.plugins.EmitMembershipGranted(ctx, m)
		}
		return nil
	}

	if err := e.store.DeactivateMembership(ctx, string(ScopeSystem), id.Nil, subject); err != nil {
		return fmt.Errorf("revoke system admin: %w", err)
	}
	e.InvalidateSubjectGlobal(ctx, subject)
	if e.plugins != nil {
		e.plugins.EmitMembershipRevoked(ctx, string(ScopeSystem), id.Nil, subject)
	}
	return nil
}

// DeleteOrganization removes an organization, its projects, and every
// membership attached to any of them, then purges all cached roles for the
// affected resources.
func (e *Engine) DeleteOrganization(ctx context.Context, orgID id.ID) error {
	projects, err := e.store.ListProjects(ctx, &project.ListFilter{OrganizationID: &orgID})
	if err != nil {
		return fmt.Errorf("delete organization: list projects: %w", err)
	}
	for _, p := range projects {
		if err := e.store.DeleteMembershipsByResource(ctx, string(ScopeProject), p.ID); err != nil {
			return fmt.Errorf("delete organization: project memberships: %w", err)
		}
		if err := e.store.DeleteProject(ctx, p.ID); err != nil {
			return fmt.Errorf("delete organization: project: %w", err)
		}
		e.InvalidateResource(ctx, ScopeProject, p.ID)
	}

	if err := e.store.DeleteMembershipsByResource(ctx, string(ScopeOrganization), orgID); err != nil {
		return fmt.Errorf("delete organization: memberships: %w", err)
	}
	if err := e.store.DeleteOrganization(ctx, orgID); err != nil {
		return fmt.Errorf("delete organization: %w", err)
	}

	e.InvalidateResource(ctx, ScopeOrganization, orgID)
	if e.plugins != nil {
		e.plugins.EmitOrganizationDeleted(ctx, orgID)
	}
	return nil
}

// DeleteProject removes a project and its memberships and purges the
// project's cached roles.
func (e *Engine) DeleteProject(ctx context.Context, projID id.ID) error {
	if err := e.store.DeleteMembershipsByResource(ctx, string(ScopeProject), projID); err != nil {
		return fmt.Errorf("delete project: memberships: %w", err)
	}
	if err := e.store.DeleteProject(ctx, projID); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}

	e.InvalidateResource(ctx, ScopeProject, projID)
	if e.plugins != nil {
		e.plugins.EmitProjectDeleted(ctx, projID)
	}
	return nil
}

// invalidateAfterMembershipWrite purges the cache entries a membership
// write can stale. An organization write also stales the subject's cached
// system level, which depends on whether they administer any organization.
func (e *Engine) invalidateAfterMembershipWrite(ctx context.Context, scope Scope, resourceID id.ID, subject string) {
	e.InvalidateMembership(ctx, scope, resourceID, subject)
	if e.cache != nil && scope == ScopeOrganization {
		e.cache.InvalidateExact(ctx, ScopeSystem, subject, systemResourceID)
	}
}

func validateScopedRole(scope Scope, role string) error {
	switch scope {
	case ScopeOrganization:
		if !OrgRole(role).Valid() {
			return ErrInvalidRole
		}
	case ScopeProject:
		if !ProjectRole(role).Valid() {
			return ErrInvalidRole
		}
	case ScopeSystem:
		if role != systemAdminRole {
			return ErrInvalidRole
		}
	default:
		return ErrInvalidScope
	}
	return nil
}
