package steward

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/steward/id"
	"github.com/xraph/steward/membership"
)

func TestGrantMembership_Validation(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	orgID := id.NewOrganizationID()

	if _, err := eng.GrantMembership(ctx, ScopeOrganization, orgID, "", "member", "admin1"); !errors.Is(err, ErrMissingSubject) {
		t.Fatalf("expected ErrMissingSubject, got %v", err)
	}
	if _, err := eng.GrantMembership(ctx, ScopeOrganization, orgID, "u1", "owner", "admin1"); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	// Project roles are not organization roles.
	if _, err := eng.GrantMembership(ctx, ScopeProject, id.NewProjectID(), "u1", "manager", "admin1"); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole for manager at project scope, got %v", err)
	}
	if _, err := eng.GrantMembership(ctx, Scope("team"), orgID, "u1", "member", "admin1"); !errors.Is(err, ErrInvalidScope) {
		t.Fatalf("expected ErrInvalidScope, got %v", err)
	}
}

func TestGrantMembership_VisibleAfterCachedDeny(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, WithCache(newTestCache()))
	orgID := id.NewOrganizationID()

	// Prime the cache with a deny.
	d := eng.AuthorizeOrganization(ctx, RequireOrganization(OrgRoleMember), "u1", orgCtx(orgID))
	if d.Allowed {
		t.Fatalf("expected initial deny, got %s", d.Code)
	}

	// The grant invalidates the cached absence, so the next decision allows.
	if _, err := eng.GrantMembership(ctx, ScopeOrganization, orgID, "u1", "member", "admin1"); err != nil {
		t.Fatal(err)
	}
	d = eng.AuthorizeOrganization(ctx, RequireOrganization(OrgRoleMember), "u1", orgCtx(orgID))
	if !d.Allowed {
		t.Fatalf("expected allow after grant, got %s", d.Code)
	}
}

func TestChangeMembershipRole_InvalidatesCache(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, WithCache(newTestCache()))
	orgID := id.NewOrganizationID()

	if _, err := eng.GrantMembership(ctx, ScopeOrganization, orgID, "u1", "member", "admin1"); err != nil {
		t.Fatal(err)
	}
	d := eng.AuthorizeOrganization(ctx, RequireOrganization(OrgRoleManager), "u1", orgCtx(orgID))
	if d.Allowed {
		t.Fatalf("expected member denied manager requirement, got %s", d.Code)
	}

	if err := eng.ChangeMembershipRole(ctx, ScopeOrganization, orgID, "u1", "manager"); err != nil {
		t.Fatal(err)
	}
	d = eng.AuthorizeOrganization(ctx, RequireOrganization(OrgRoleManager), "u1", orgCtx(orgID))
	if !d.Allowed {
		t.Fatalf("expected allow after promotion, got %s", d.Code)
	}
}

func TestRevokeMembership_InvalidatesCache(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, WithCache(newTestCache()))
	orgID := id.NewOrganizationID()

	if _, err := eng.GrantMembership(ctx, ScopeOrganization, orgID, "u1", "admin", "admin1"); err != nil {
		t.Fatal(err)
	}
	d := eng.AuthorizeOrganization(ctx, RequireOrganization(OrgRoleAdmin), "u1", orgCtx(orgID))
	if !d.Allowed {
		t.Fatalf("expected allow, got %s", d.Code)
	}

	if err := eng.RevokeMembership(ctx, ScopeOrganization, orgID, "u1"); err != nil {
		t.Fatal(err)
	}
	d = eng.AuthorizeOrganization(ctx, RequireOrganization(OrgRoleViewer), "u1", orgCtx(orgID))
	if d.Allowed {
		t.Fatalf("expected deny after revoke, got %s", d.Code)
	}
}

func TestGrantMembership_ReGrantAfterRevoke(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t, WithCache(newTestCache()))
	orgID := id.NewOrganizationID()

	if _, err := eng.GrantMembership(ctx, ScopeOrganization, orgID, "u1", "admin", "admin1"); err != nil {
		t.Fatal(err)
	}
	if err := eng.RevokeMembership(ctx, ScopeOrganization, orgID, "u1"); err != nil {
		t.Fatal(err)
	}

	// Revocation keeps the row, so the re-grant must reactivate it rather
	// than collide with the (scope, resource, subject) key.
	if _, err := eng.GrantMembership(ctx, ScopeOrganization, orgID, "u1", "member", "admin2"); err != nil {
		t.Fatalf("re-grant after revoke: %v", err)
	}
	d := eng.AuthorizeOrganization(ctx, RequireOrganization(OrgRoleMember), "u1", orgCtx(orgID))
	if !d.Allowed || d.HeldRole != "member" {
		t.Fatalf("expected member allow after re-grant, got %s (%q)", d.Code, d.HeldRole)
	}

	n, err := s.CountMemberships(ctx, &membership.ListFilter{SubjectID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected a single membership row after re-grant, got %d", n)
	}
}

func TestOrganizationMutationRefreshesSystemLevel(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, WithCache(newTestCache()))
	orgID := id.NewOrganizationID()

	// Cache the user-level system decision first.
	d := eng.AuthorizeSystem(ctx, RequireSystem(SystemLevelOrgAdmin), "u1")
	if d.Allowed {
		t.Fatalf("expected deny before grant, got %s", d.Code)
	}

	// Becoming an organization admin must be visible to system-scope
	// decisions without waiting out the TTL.
	if _, err := eng.GrantMembership(ctx, ScopeOrganization, orgID, "u1", "admin", "root"); err != nil {
		t.Fatal(err)
	}
	d = eng.AuthorizeSystem(ctx, RequireSystem(SystemLevelOrgAdmin), "u1")
	if !d.Allowed || d.Code != DecisionAllowOrgAdmin {
		t.Fatalf("expected org-admin allow after grant, got %s", d.Code)
	}
}

func TestSetSystemAdmin_RoundTrip(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, WithCache(newTestCache()))

	if err := eng.SetSystemAdmin(ctx, "", true, "root"); !errors.Is(err, ErrMissingSubject) {
		t.Fatalf("expected ErrMissingSubject, got %v", err)
	}

	if err := eng.SetSystemAdmin(ctx, "u1", true, "root"); err != nil {
		t.Fatal(err)
	}
	// Granting an already-held standing is idempotent.
	if err := eng.SetSystemAdmin(ctx, "u1", true, "root"); err != nil {
		t.Fatalf("repeat grant: %v", err)
	}
	d := eng.AuthorizeSystem(ctx, RequireSystem(SystemLevelAdmin), "u1")
	if !d.Allowed || d.Code != DecisionAllowSystemAdmin {
		t.Fatalf("expected system-admin allow, got %s", d.Code)
	}

	if err := eng.SetSystemAdmin(ctx, "u1", false, "root"); err != nil {
		t.Fatal(err)
	}
	d = eng.AuthorizeSystem(ctx, RequireSystem(SystemLevelAdmin), "u1")
	if d.Allowed {
		t.Fatalf("expected deny after revoke, got %s", d.Code)
	}
}

func TestDeleteOrganization_CascadesAndInvalidates(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t, WithCache(newTestCache()))
	orgID := id.NewOrganizationID()
	projID := createProject(t, s, orgID)

	if _, err := eng.GrantMembership(ctx, ScopeOrganization, orgID, "u1", "admin", "root"); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.GrantMembership(ctx, ScopeProject, projID, "u2", "member", "u1"); err != nil {
		t.Fatal(err)
	}

	// Warm both caches.
	if d := eng.AuthorizeOrganization(ctx, RequireOrganization(OrgRoleAdmin), "u1", orgCtx(orgID)); !d.Allowed {
		t.Fatalf("expected allow, got %s", d.Code)
	}
	if d := eng.AuthorizeProject(ctx, RequireProject(ProjectRoleMember), "u2", projCtx(projID)); !d.Allowed {
		t.Fatalf("expected allow, got %s", d.Code)
	}

	if err := eng.DeleteOrganization(ctx, orgID); err != nil {
		t.Fatal(err)
	}

	// Projects and memberships are gone.
	if _, found, _ := s.GetProjectOwningOrganization(ctx, projID); found {
		t.Fatal("expected project removed with its organization")
	}
	n, _ := s.CountMemberships(ctx, &membership.ListFilter{})
	if n != 0 {
		t.Fatalf("expected no memberships left, got %d", n)
	}

	// Decisions deny immediately, not after TTL.
	if d := eng.AuthorizeOrganization(ctx, RequireOrganization(OrgRoleViewer), "u1", orgCtx(orgID)); d.Allowed {
		t.Fatalf("expected deny after delete, got %s", d.Code)
	}
	if d := eng.AuthorizeProject(ctx, RequireProject(ProjectRoleViewer), "u2", projCtx(projID)); d.Allowed {
		t.Fatalf("expected deny after delete, got %s", d.Code)
	}
}

func TestDeleteProject_Invalidates(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t, WithCache(newTestCache()))
	orgID := id.NewOrganizationID()
	projID := createProject(t, s, orgID)

	if _, err := eng.GrantMembership(ctx, ScopeProject, projID, "u1", "admin", "root"); err != nil {
		t.Fatal(err)
	}
	if d := eng.AuthorizeProject(ctx, RequireProject(ProjectRoleAdmin), "u1", projCtx(projID)); !d.Allowed {
		t.Fatalf("expected allow, got %s", d.Code)
	}

	if err := eng.DeleteProject(ctx, projID); err != nil {
		t.Fatal(err)
	}
	if d := eng.AuthorizeProject(ctx, RequireProject(ProjectRoleViewer), "u1", projCtx(projID)); d.Allowed {
		t.Fatalf("expected deny after delete, got %s", d.Code)
	}
}
