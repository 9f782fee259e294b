package plugin

import (
	"context"
	"log/slog"
	"testing"

	"github.com/xraph/steward/id"
	"github.com/xraph/steward/membership"
)

// testPlugin implements Plugin + MembershipGranted + AfterDecision.
type testPlugin struct {
	grantedCalled       bool
	afterDecisionCalled bool
}

func (t *testPlugin) Name() string { return "test-plugin" }

func (t *testPlugin) OnMembershipGranted(_ context.Context, _ *membership.Membership) error {
	t.grantedCalled = true
	return nil
}

func (t *testPlugin) OnAfterDecision(_ context.Context, _ string, _, _ any) error {
	t.afterDecisionCalled = true
	return nil
}

// minimalPlugin only implements Plugin (no hooks).
type minimalPlugin struct{}

func (m *minimalPlugin) Name() string { return "minimal" }

func TestRegistryDispatch(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(slog.Default())

	tp := &testPlugin{}
	reg.Register(tp)
	reg.Register(&minimalPlugin{})

	if len(reg.Plugins()) != 2 {
		t.Fatalf("expected 2 plugins, got %d", len(reg.Plugins()))
	}

	// Should dispatch MembershipGranted to testPlugin only.
	reg.EmitMembershipGranted(ctx, &membership.Membership{
		ID: id.NewMembershipID(), Scope: membership.ScopeOrganization, SubjectID: "u1",
	})
	if !tp.grantedCalled {
		t.Fatal("OnMembershipGranted was not called")
	}

	// Should dispatch AfterDecision.
	reg.EmitAfterDecision(ctx, "u1", nil, nil)
	if !tp.afterDecisionCalled {
		t.Fatal("OnAfterDecision was not called")
	}

	// Should not panic on hooks with no listeners.
	reg.EmitBeforeDecision(ctx, "u1", nil)
	reg.EmitOrganizationDeleted(ctx, id.NewOrganizationID())
	reg.EmitShutdown(ctx)
}
