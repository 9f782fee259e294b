package steward

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/xraph/steward/id"
	"github.com/xraph/steward/membership"
	"github.com/xraph/steward/project"
	"github.com/xraph/steward/store/memory"
)

// testCache is a minimal Cache for engine tests. The cache/ package cannot
// be imported from here without a cycle; invalidation semantics mirror it.
type testCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newTestCache() *testCache {
	return &testCache{entries: make(map[string]string)}
}

func (c *testCache) key(scope Scope, subject, resourceID string) string {
	return string(scope) + ":" + resourceID + ":" + subject
}

func (c *testCache) Get(_ context.Context, scope Scope, subject, resourceID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[c.key(scope, subject, resourceID)]
	return v, ok
}

func (c *testCache) Set(_ context.Context, scope Scope, subject, resourceID, role string, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[c.key(scope, subject, resourceID)] = role
}

func (c *testCache) InvalidateExact(_ context.Context, scope Scope, subject, resourceID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, c.key(scope, subject, resourceID))
}

func (c *testCache) InvalidateResource(_ context.Context, scope Scope, resourceID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := string(scope) + ":" + resourceID + ":"
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
}

func (c *testCache) InvalidateSubjectGlobal(_ context.Context, subject string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasSuffix(k, ":"+subject) {
			delete(c.entries, k)
		}
	}
}

var _ Cache = (*testCache)(nil)

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *memory.Store) {
	t.Helper()
	s := memory.New()
	eng, err := NewEngine(append([]Option{WithStore(s)}, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	return eng, s
}

func grantOrg(t *testing.T, s *memory.Store, orgID id.ID, subject, role string) {
	t.Helper()
	err := s.CreateMembership(context.Background(), &membership.Membership{
		ID:         id.NewMembershipID(),
		Scope:      membership.ScopeOrganization,
		ResourceID: orgID,
		SubjectID:  subject,
		Role:       role,
		IsActive:   true,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func grantProject(t *testing.T, s *memory.Store, projID id.ID, subject, role string) {
	t.Helper()
	err := s.CreateMembership(context.Background(), &membership.Membership{
		ID:         id.NewMembershipID(),
		Scope:      membership.ScopeProject,
		ResourceID: projID,
		SubjectID:  subject,
		Role:       role,
		IsActive:   true,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func createProject(t *testing.T, s *memory.Store, orgID id.ID) id.ID {
	t.Helper()
	p := &project.Project{
		ID:             id.NewProjectID(),
		OrganizationID: orgID,
		Name:           "Core",
		Key:            "CORE",
	}
	if err := s.CreateProject(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	return p.ID
}

func orgCtx(orgID id.ID) *DecisionContext {
	return &DecisionContext{RouteParams: map[string]string{ParamOrganizationID: orgID.String()}}
}

func projCtx(projID id.ID) *DecisionContext {
	return &DecisionContext{RouteParams: map[string]string{ParamProjectID: projID.String()}}
}

func TestNewEngine_RequiresStore(t *testing.T) {
	_, err := NewEngine()
	if err == nil {
		t.Fatal("expected error when store is nil")
	}
}

func TestAuthorizeOrganization_DirectRole(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	orgID := id.NewOrganizationID()
	grantOrg(t, s, orgID, "u1", "member")

	// Exact requirement level.
	d := eng.AuthorizeOrganization(ctx, RequireOrganization(OrgRoleMember), "u1", orgCtx(orgID))
	if !d.Allowed || d.Code != DecisionAllow {
		t.Fatalf("expected allow, got %s: %s", d.Code, d.Reason)
	}
	if d.HeldRole != "member" {
		t.Fatalf("expected held role member, got %q", d.HeldRole)
	}

	// Higher role satisfies lower requirement.
	d = eng.AuthorizeOrganization(ctx, RequireOrganization(OrgRoleViewer), "u1", orgCtx(orgID))
	if !d.Allowed {
		t.Fatalf("expected member to satisfy viewer, got %s", d.Code)
	}

	// Lower role fails higher requirement.
	d = eng.AuthorizeOrganization(ctx, RequireOrganization(OrgRoleManager), "u1", orgCtx(orgID))
	if d.Allowed || d.Code != DecisionDenyInsufficientRole {
		t.Fatalf("expected insufficient role, got %s", d.Code)
	}
}

func TestAuthorizeOrganization_ZeroRequirementDenies(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	orgID := id.NewOrganizationID()
	grantOrg(t, s, orgID, "u1", "admin")

	// A requirement built by hand with no minimum role must never allow,
	// even for a subject holding the top role.
	d := eng.AuthorizeOrganization(ctx, Requirement{Scope: ScopeOrganization}, "u1", orgCtx(orgID))
	if d.Allowed {
		t.Fatalf("expected deny for empty minimum role, got %s", d.Code)
	}
}

func TestAuthorizeOrganization_MissingSubject(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	d := eng.AuthorizeOrganization(ctx, RequireOrganization(OrgRoleViewer), "", orgCtx(id.NewOrganizationID()))
	if d.Allowed || d.Code != DecisionDenyMissingSubject {
		t.Fatalf("expected missing subject deny, got %s", d.Code)
	}
}

func TestAuthorizeOrganization_MissingResource(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	d := eng.AuthorizeOrganization(ctx, RequireOrganization(OrgRoleViewer), "u1", &DecisionContext{})
	if d.Allowed || d.Code != DecisionDenyMissingResource {
		t.Fatalf("expected missing resource deny, got %s", d.Code)
	}

	// A malformed identifier is treated the same as no identifier.
	d = eng.AuthorizeOrganization(ctx, RequireOrganization(OrgRoleViewer), "u1", &DecisionContext{
		RouteParams: map[string]string{ParamOrganizationID: "garbage"},
	})
	if d.Allowed || d.Code != DecisionDenyMissingResource {
		t.Fatalf("expected malformed id deny, got %s", d.Code)
	}
}

func TestAuthorizeProject_DirectRole(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	orgID := id.NewOrganizationID()
	projID := createProject(t, s, orgID)
	grantProject(t, s, projID, "u1", "member")

	d := eng.AuthorizeProject(ctx, RequireProject(ProjectRoleMember), "u1", projCtx(projID))
	if !d.Allowed || d.Code != DecisionAllow {
		t.Fatalf("expected direct allow, got %s: %s", d.Code, d.Reason)
	}
}

func TestAuthorizeProject_DerivedFromOrganization(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	orgID := id.NewOrganizationID()
	projID := createProject(t, s, orgID)

	// No project membership at all; org manager derives project admin.
	grantOrg(t, s, orgID, "u1", "manager")

	d := eng.AuthorizeProject(ctx, RequireProject(ProjectRoleAdmin), "u1", projCtx(projID))
	if !d.Allowed || d.Code != DecisionAllowDerived {
		t.Fatalf("expected derived allow, got %s: %s", d.Code, d.Reason)
	}
	if d.HeldRole != "admin" {
		t.Fatalf("expected derived admin, got %q", d.HeldRole)
	}
}

func TestAuthorizeProject_DerivedBeatsLowDirectRole(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	orgID := id.NewOrganizationID()
	projID := createProject(t, s, orgID)

	// Direct viewer on the project but admin of the owning organization.
	// The higher derived role must still satisfy the requirement.
	grantProject(t, s, projID, "u1", "viewer")
	grantOrg(t, s, orgID, "u1", "admin")

	d := eng.AuthorizeProject(ctx, RequireProject(ProjectRoleAdmin), "u1", projCtx(projID))
	if !d.Allowed || d.Code != DecisionAllowDerived {
		t.Fatalf("expected derived allow over low direct role, got %s", d.Code)
	}
}

func TestAuthorizeProject_OrgViewerDerivesViewerOnly(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	orgID := id.NewOrganizationID()
	projID := createProject(t, s, orgID)
	grantOrg(t, s, orgID, "u1", "viewer")

	d := eng.AuthorizeProject(ctx, RequireProject(ProjectRoleViewer), "u1", projCtx(projID))
	if !d.Allowed {
		t.Fatalf("expected derived viewer allow, got %s", d.Code)
	}
	d = eng.AuthorizeProject(ctx, RequireProject(ProjectRoleMember), "u1", projCtx(projID))
	if d.Allowed {
		t.Fatal("expected derived viewer to fail member requirement")
	}
}

func TestAuthorizeProject_UnknownProject(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	d := eng.AuthorizeProject(ctx, RequireProject(ProjectRoleViewer), "u1", projCtx(id.NewProjectID()))
	if d.Allowed || d.Code != DecisionDenyNotFound {
		t.Fatalf("expected not found deny, got %s", d.Code)
	}
}

func TestAuthorizeSystem_Levels(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	// Plain user.
	d := eng.AuthorizeSystem(ctx, RequireSystem(SystemLevelOrgAdmin), "u1")
	if d.Allowed {
		t.Fatalf("expected plain user denied, got %s", d.Code)
	}

	// Admin of some organization satisfies the org-admin level.
	grantOrg(t, s, id.NewOrganizationID(), "u2", "admin")
	d = eng.AuthorizeSystem(ctx, RequireSystem(SystemLevelOrgAdmin), "u2")
	if !d.Allowed || d.Code != DecisionAllowOrgAdmin {
		t.Fatalf("expected org-admin allow, got %s", d.Code)
	}
	// But not the system-admin level.
	d = eng.AuthorizeSystem(ctx, RequireSystem(SystemLevelAdmin), "u2")
	if d.Allowed {
		t.Fatalf("expected org admin denied system-admin level, got %s", d.Code)
	}

	// Explicit grant satisfies everything.
	_ = s.CreateMembership(ctx, &membership.Membership{
		ID:        id.NewMembershipID(),
		Scope:     membership.ScopeSystem,
		SubjectID: "u3",
		Role:      "system_admin",
		IsActive:  true,
	})
	d = eng.AuthorizeSystem(ctx, RequireSystem(SystemLevelAdmin), "u3")
	if !d.Allowed || d.Code != DecisionAllowSystemAdmin {
		t.Fatalf("expected system-admin allow, got %s", d.Code)
	}
}

func TestAuthorize_DispatchesByScope(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	orgID := id.NewOrganizationID()
	grantOrg(t, s, orgID, "u1", "admin")

	d := eng.Authorize(ctx, RequireOrganization(OrgRoleAdmin), "u1", orgCtx(orgID))
	if !d.Allowed {
		t.Fatalf("expected allow via dispatch, got %s", d.Code)
	}

	d = eng.Authorize(ctx, Requirement{Scope: "team"}, "u1", nil)
	if d.Allowed || d.Code != DecisionDenyInvalidRequirement {
		t.Fatalf("expected invalid requirement deny, got %s", d.Code)
	}
}

func TestEnforce(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	orgID := id.NewOrganizationID()
	grantOrg(t, s, orgID, "u1", "viewer")

	if err := eng.Enforce(ctx, RequireOrganization(OrgRoleViewer), "u1", orgCtx(orgID)); err != nil {
		t.Fatal(err)
	}

	err := eng.Enforce(ctx, RequireOrganization(OrgRoleAdmin), "u1", orgCtx(orgID))
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
}

// failingStore wraps the memory store and fails every role lookup.
type failingStore struct {
	*memory.Store
}

var errStoreDown = errors.New("store down")

func (f *failingStore) GetOrganizationRole(context.Context, id.ID, string) (string, error) {
	return "", errStoreDown
}

func (f *failingStore) GetProjectRole(context.Context, id.ID, string) (string, error) {
	return "", errStoreDown
}

func (f *failingStore) IsSystemAdmin(context.Context, string) (bool, error) {
	return false, errStoreDown
}

func TestAuthorize_FailsClosedOnStoreError(t *testing.T) {
	ctx := context.Background()
	inner := memory.New()
	eng, err := NewEngine(WithStore(&failingStore{Store: inner}))
	if err != nil {
		t.Fatal(err)
	}

	orgID := id.NewOrganizationID()
	d := eng.AuthorizeOrganization(ctx, RequireOrganization(OrgRoleViewer), "u1", orgCtx(orgID))
	if d.Allowed || d.Code != DecisionDenyStoreFailure {
		t.Fatalf("expected store failure deny, got %s", d.Code)
	}

	d = eng.AuthorizeSystem(ctx, RequireSystem(SystemLevelUser), "u1")
	if d.Allowed || d.Code != DecisionDenyStoreFailure {
		t.Fatalf("expected system store failure deny, got %s", d.Code)
	}
}

func TestAuthorize_UsesCache(t *testing.T) {
	ctx := context.Background()
	c := newTestCache()
	eng, s := newTestEngine(t, WithCache(c))
	orgID := id.NewOrganizationID()
	grantOrg(t, s, orgID, "u1", "member")

	// First decision populates the cache.
	d := eng.AuthorizeOrganization(ctx, RequireOrganization(OrgRoleMember), "u1", orgCtx(orgID))
	if !d.Allowed {
		t.Fatalf("expected allow, got %s", d.Code)
	}

	// Remove the backing row; the cached role must still answer until it is
	// invalidated.
	if err := s.DeleteMembershipsByResource(ctx, membership.ScopeOrganization, orgID); err != nil {
		t.Fatal(err)
	}
	d = eng.AuthorizeOrganization(ctx, RequireOrganization(OrgRoleMember), "u1", orgCtx(orgID))
	if !d.Allowed {
		t.Fatalf("expected cached allow, got %s", d.Code)
	}

	// After invalidation the store is consulted again.
	eng.InvalidateMembership(ctx, ScopeOrganization, orgID, "u1")
	d = eng.AuthorizeOrganization(ctx, RequireOrganization(OrgRoleMember), "u1", orgCtx(orgID))
	if d.Allowed {
		t.Fatalf("expected deny after invalidation, got %s", d.Code)
	}
}

func TestAuthorize_CachesAbsentRole(t *testing.T) {
	ctx := context.Background()
	c := newTestCache()
	eng, s := newTestEngine(t, WithCache(c))
	orgID := id.NewOrganizationID()

	// First decision caches "no role".
	d := eng.AuthorizeOrganization(ctx, RequireOrganization(OrgRoleViewer), "u1", orgCtx(orgID))
	if d.Allowed {
		t.Fatalf("expected deny, got %s", d.Code)
	}

	// A grant without invalidation stays invisible until the entry is
	// purged; idempotent denials repeat from cache.
	grantOrg(t, s, orgID, "u1", "admin")
	d = eng.AuthorizeOrganization(ctx, RequireOrganization(OrgRoleViewer), "u1", orgCtx(orgID))
	if d.Allowed {
		t.Fatalf("expected cached deny, got %s", d.Code)
	}

	eng.InvalidateMembership(ctx, ScopeOrganization, orgID, "u1")
	d = eng.AuthorizeOrganization(ctx, RequireOrganization(OrgRoleViewer), "u1", orgCtx(orgID))
	if !d.Allowed {
		t.Fatalf("expected allow after invalidation, got %s", d.Code)
	}
}

func TestAuthorize_DecisionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t, WithCache(newTestCache()))
	orgID := id.NewOrganizationID()
	grantOrg(t, s, orgID, "u1", "manager")

	req := RequireOrganization(OrgRoleMember)
	first := eng.AuthorizeOrganization(ctx, req, "u1", orgCtx(orgID))
	for i := 0; i < 5; i++ {
		d := eng.AuthorizeOrganization(ctx, req, "u1", orgCtx(orgID))
		if d.Allowed != first.Allowed || d.Code != first.Code {
			t.Fatalf("decision changed between identical calls: %s vs %s", d.Code, first.Code)
		}
	}
}

func TestAuthorize_AuditLogWritten(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t, WithConfig(Config{CacheTTL: time.Minute, AuditDecisions: true}))
	orgID := id.NewOrganizationID()
	grantOrg(t, s, orgID, "u1", "admin")

	d := eng.AuthorizeOrganization(ctx, RequireOrganization(OrgRoleAdmin), "u1", orgCtx(orgID))
	if !d.Allowed {
		t.Fatalf("expected allow, got %s", d.Code)
	}

	// The audit write is asynchronous.
	deadline := time.Now().Add(2 * time.Second)
	for {
		n, err := s.CountDecisionLogs(ctx, nil)
		if err != nil {
			t.Fatal(err)
		}
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected 1 decision log entry, got %d", n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
