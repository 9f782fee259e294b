package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/steward/decisionlog"
	"github.com/xraph/steward/id"
	"github.com/xraph/steward/membership"
	"github.com/xraph/steward/organization"
	"github.com/xraph/steward/project"
	"github.com/xraph/steward/store"
)

// Compile-time check that *Store implements store.Store.
var _ store.Store = (*Store)(nil)

func TestOrganizationCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	o := &organization.Organization{
		ID:   id.NewOrganizationID(),
		Name: "Acme",
		Slug: "acme",
	}

	// Create
	if err := s.CreateOrganization(ctx, o); err != nil {
		t.Fatal(err)
	}

	// Get
	got, err := s.GetOrganization(ctx, o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Acme" {
		t.Fatalf("expected Acme, got %s", got.Name)
	}

	// List with search
	list, _ := s.ListOrganizations(ctx, &organization.ListFilter{Search: "acm"})
	if len(list) != 1 {
		t.Fatalf("expected 1 organization, got %d", len(list))
	}

	// Count
	count, _ := s.CountOrganizations(ctx, nil)
	if count != 1 {
		t.Fatalf("expected count 1, got %d", count)
	}

	// Delete
	if err := s.DeleteOrganization(ctx, o.ID); err != nil {
		t.Fatal(err)
	}
	_, err = s.GetOrganization(ctx, o.ID)
	if !errors.Is(err, organization.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestProjectCRUDAndOwningOrganization(t *testing.T) {
	ctx := context.Background()
	s := New()

	orgID := id.NewOrganizationID()
	p := &project.Project{
		ID:             id.NewProjectID(),
		OrganizationID: orgID,
		Name:           "Billing",
		Key:            "BILL",
	}

	if err := s.CreateProject(ctx, p); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.OrganizationID != orgID {
		t.Fatal("owning organization mismatch")
	}

	owner, found, err := s.GetProjectOwningOrganization(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !found || owner != orgID {
		t.Fatalf("expected owner %s, got %s (found=%v)", orgID, owner, found)
	}

	// Unknown project is not an error, just absent.
	_, found, err = s.GetProjectOwningOrganization(ctx, id.NewProjectID())
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Fatal("expected unknown project to be absent")
	}

	// List scoped to organization
	list, _ := s.ListProjects(ctx, &project.ListFilter{OrganizationID: &orgID})
	if len(list) != 1 {
		t.Fatalf("expected 1 project, got %d", len(list))
	}

	if err := s.DeleteProject(ctx, p.ID); err != nil {
		t.Fatal(err)
	}
	_, err = s.GetProject(ctx, p.ID)
	if !errors.Is(err, project.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestMembershipLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	orgID := id.NewOrganizationID()
	m := &membership.Membership{
		ID:         id.NewMembershipID(),
		Scope:      membership.ScopeOrganization,
		ResourceID: orgID,
		SubjectID:  "u1",
		Role:       "member",
		IsActive:   true,
	}

	if err := s.CreateMembership(ctx, m); err != nil {
		t.Fatal(err)
	}

	role, err := s.GetOrganizationRole(ctx, orgID, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if role != "member" {
		t.Fatalf("expected member, got %q", role)
	}

	// Role change
	if err := s.UpdateMembershipRole(ctx, membership.ScopeOrganization, orgID, "u1", "admin"); err != nil {
		t.Fatal(err)
	}
	role, _ = s.GetOrganizationRole(ctx, orgID, "u1")
	if role != "admin" {
		t.Fatalf("expected admin after update, got %q", role)
	}

	// Deactivation keeps the row but resolves to no role.
	if err := s.DeactivateMembership(ctx, membership.ScopeOrganization, orgID, "u1"); err != nil {
		t.Fatal(err)
	}
	role, _ = s.GetOrganizationRole(ctx, orgID, "u1")
	if role != "" {
		t.Fatalf("expected no role after deactivation, got %q", role)
	}
	if _, err := s.GetMembership(ctx, membership.ScopeOrganization, orgID, "u1"); err != nil {
		t.Fatal("expected deactivated row to remain readable")
	}
}

func TestMembershipRoleQueriesIgnoreInactive(t *testing.T) {
	ctx := context.Background()
	s := New()

	projID := id.NewProjectID()
	_ = s.CreateMembership(ctx, &membership.Membership{
		ID:         id.NewMembershipID(),
		Scope:      membership.ScopeProject,
		ResourceID: projID,
		SubjectID:  "u1",
		Role:       "admin",
		IsActive:   false,
	})

	role, err := s.GetProjectRole(ctx, projID, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if role != "" {
		t.Fatalf("expected inactive membership to resolve to no role, got %q", role)
	}
}

func TestSystemAdminQueries(t *testing.T) {
	ctx := context.Background()
	s := New()

	if ok, _ := s.IsSystemAdmin(ctx, "u1"); ok {
		t.Fatal("expected no system admin grant")
	}

	_ = s.CreateMembership(ctx, &membership.Membership{
		ID:        id.NewMembershipID(),
		Scope:     membership.ScopeSystem,
		SubjectID: "u1",
		Role:      "system_admin",
		IsActive:  true,
	})
	if ok, _ := s.IsSystemAdmin(ctx, "u1"); !ok {
		t.Fatal("expected system admin grant")
	}

	// Existential org-admin check.
	if ok, _ := s.HasAnyOrganizationAdminRole(ctx, "u2"); ok {
		t.Fatal("expected u2 not to administer any organization")
	}
	_ = s.CreateMembership(ctx, &membership.Membership{
		ID:         id.NewMembershipID(),
		Scope:      membership.ScopeOrganization,
		ResourceID: id.NewOrganizationID(),
		SubjectID:  "u2",
		Role:       "admin",
		IsActive:   true,
	})
	if ok, _ := s.HasAnyOrganizationAdminRole(ctx, "u2"); !ok {
		t.Fatal("expected u2 to administer an organization")
	}
}

func TestDeleteMembershipsByResource(t *testing.T) {
	ctx := context.Background()
	s := New()

	orgID := id.NewOrganizationID()
	for _, subj := range []string{"u1", "u2"} {
		_ = s.CreateMembership(ctx, &membership.Membership{
			ID:         id.NewMembershipID(),
			Scope:      membership.ScopeOrganization,
			ResourceID: orgID,
			SubjectID:  subj,
			Role:       "member",
			IsActive:   true,
		})
	}

	if err := s.DeleteMembershipsByResource(ctx, membership.ScopeOrganization, orgID); err != nil {
		t.Fatal(err)
	}
	count, _ := s.CountMemberships(ctx, &membership.ListFilter{Scope: membership.ScopeOrganization})
	if count != 0 {
		t.Fatalf("expected 0 memberships, got %d", count)
	}
}

func TestDecisionLogQueryAndPurge(t *testing.T) {
	ctx := context.Background()
	s := New()

	old := &decisionlog.Entry{
		ID:        id.NewDecisionLogID(),
		Scope:     "organization",
		SubjectID: "u1",
		Decision:  "allow",
		CreatedAt: time.Now().Add(-48 * time.Hour),
	}
	recent := &decisionlog.Entry{
		ID:        id.NewDecisionLogID(),
		Scope:     "project",
		SubjectID: "u1",
		Decision:  "deny_insufficient_role",
		CreatedAt: time.Now(),
	}
	_ = s.CreateDecisionLog(ctx, old)
	_ = s.CreateDecisionLog(ctx, recent)

	list, err := s.ListDecisionLogs(ctx, &decisionlog.QueryFilter{SubjectID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(list))
	}
	if list[0].ID != recent.ID {
		t.Fatal("expected most recent entry first")
	}

	list, _ = s.ListDecisionLogs(ctx, &decisionlog.QueryFilter{Decision: "allow"})
	if len(list) != 1 {
		t.Fatalf("expected 1 allow entry, got %d", len(list))
	}

	n, err := s.PurgeDecisionLogs(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 purged entry, got %d", n)
	}
	if _, err := s.GetDecisionLog(ctx, old.ID); err == nil {
		t.Fatal("expected purged entry to be gone")
	}
}
