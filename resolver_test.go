package steward

import (
	"testing"

	"github.com/xraph/steward/id"
)

func TestResolverAttachedIDWins(t *testing.T) {
	r := DefaultResolver()
	attached := id.NewOrganizationID()
	other := id.NewOrganizationID()

	got, ok := r.OrganizationID(&DecisionContext{
		ResourceID:  attached,
		RouteParams: map[string]string{ParamOrganizationID: other.String()},
	})
	if !ok {
		t.Fatal("expected resolution")
	}
	if got != attached {
		t.Fatalf("expected attached id %s, got %s", attached, got)
	}
}

func TestResolverAttachedIDWrongKindIsSkipped(t *testing.T) {
	r := DefaultResolver()
	projID := id.NewProjectID()
	orgID := id.NewOrganizationID()

	// A project id attached to an organization decision is not the target;
	// resolution moves on to the route parameter.
	got, ok := r.OrganizationID(&DecisionContext{
		ResourceID:  projID,
		RouteParams: map[string]string{ParamOrganizationID: orgID.String()},
	})
	if !ok || got != orgID {
		t.Fatalf("expected fallback to route param %s, got %s (ok=%v)", orgID, got, ok)
	}
}

func TestResolverSourceOrder(t *testing.T) {
	r := DefaultResolver()
	routeID := id.NewProjectID()
	queryID := id.NewProjectID()
	headerID := id.NewProjectID()

	dctx := &DecisionContext{
		RouteParams: map[string]string{ParamProjectID: routeID.String()},
		QueryParams: map[string]string{ParamProjectID: queryID.String()},
		Headers:     map[string]string{HeaderProjectID: headerID.String()},
	}
	if got, _ := r.ProjectID(dctx); got != routeID {
		t.Fatalf("expected route param to win, got %s", got)
	}

	dctx.RouteParams = nil
	if got, _ := r.ProjectID(dctx); got != queryID {
		t.Fatalf("expected query param next, got %s", got)
	}

	dctx.QueryParams = nil
	if got, _ := r.ProjectID(dctx); got != headerID {
		t.Fatalf("expected header last, got %s", got)
	}
}

func TestResolverGenericIDRequiresControllerMatch(t *testing.T) {
	r := DefaultResolver()
	orgID := id.NewOrganizationID()

	dctx := &DecisionContext{
		RouteParams: map[string]string{ParamGenericID: orgID.String()},
		Controller:  "organizations",
	}
	if got, ok := r.OrganizationID(dctx); !ok || got != orgID {
		t.Fatalf("expected generic id under owning controller, got %s (ok=%v)", got, ok)
	}

	// Same request under an unrelated controller must not treat the generic
	// id as an organization.
	dctx.Controller = "tickets"
	if _, ok := r.OrganizationID(dctx); ok {
		t.Fatal("expected no resolution under unrelated controller")
	}
}

func TestResolverControllerMatchIsCaseInsensitive(t *testing.T) {
	r := DefaultResolver()
	projID := id.NewProjectID()

	got, ok := r.ProjectID(&DecisionContext{
		RouteParams: map[string]string{ParamGenericID: projID.String()},
		Controller:  "Projects",
	})
	if !ok || got != projID {
		t.Fatalf("expected case-insensitive controller match, got %s (ok=%v)", got, ok)
	}
}

func TestResolverSkipsMalformedCandidates(t *testing.T) {
	r := DefaultResolver()
	queryID := id.NewOrganizationID()

	got, ok := r.OrganizationID(&DecisionContext{
		RouteParams: map[string]string{ParamOrganizationID: "not-an-id"},
		QueryParams: map[string]string{ParamOrganizationID: queryID.String()},
	})
	if !ok || got != queryID {
		t.Fatalf("expected malformed route param skipped, got %s (ok=%v)", got, ok)
	}
}

func TestResolverRejectsWrongPrefix(t *testing.T) {
	r := DefaultResolver()
	projID := id.NewProjectID()

	// A well-formed id of the wrong kind never resolves.
	if _, ok := r.OrganizationID(&DecisionContext{
		RouteParams: map[string]string{ParamOrganizationID: projID.String()},
	}); ok {
		t.Fatal("expected project id to be rejected for organization scope")
	}
}

func TestResolverHeaderLookupIsCaseInsensitive(t *testing.T) {
	r := DefaultResolver()
	orgID := id.NewOrganizationID()

	got, ok := r.OrganizationID(&DecisionContext{
		Headers: map[string]string{"x-organization-id": orgID.String()},
	})
	if !ok || got != orgID {
		t.Fatalf("expected lowercase header to resolve, got %s (ok=%v)", got, ok)
	}
}

func TestResolverNilAndEmptyContext(t *testing.T) {
	r := DefaultResolver()
	if _, ok := r.OrganizationID(nil); ok {
		t.Fatal("expected nil context not to resolve")
	}
	if _, ok := r.ProjectID(&DecisionContext{}); ok {
		t.Fatal("expected empty context not to resolve")
	}
}
