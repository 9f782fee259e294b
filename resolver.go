package steward

import (
	"strings"

	"github.com/xraph/steward/id"
)

// DecisionContext carries the request-side material a decision needs:
// an optional directly-attached resource identifier plus the string bags the
// transport layer extracted from the request. The engine never reads the
// request itself; middleware (or a programmatic caller) fills this in.
type DecisionContext struct {
	// ResourceID is a directly attached resource identifier. Set it for
	// programmatic checks where the caller already knows the target.
	ResourceID id.ID

	// RouteParams are path parameters, e.g. {"organizationId": "org_…"}.
	RouteParams map[string]string

	// QueryParams are URL query parameters.
	QueryParams map[string]string

	// Headers are request headers relevant to resolution.
	Headers map[string]string

	// Controller is the handler-group hint used to decide whether a generic
	// "id" route parameter belongs to the scope under decision.
	Controller string
}

// Candidate source keys, in resolution order after the attached ID.
const (
	ParamOrganizationID = "organizationId"
	ParamProjectID      = "projectId"
	ParamGenericID      = "id"

	HeaderOrganizationID = "X-Organization-Id"
	HeaderProjectID      = "X-Project-Id"
)

// Resolver locates the target resource identifier for a decision from an
// ordered list of request-carried locations. The first source that yields a
// well-formed identifier of the right kind wins; malformed candidates are
// skipped, not errors.
type Resolver struct {
	// OrganizationsController is the controller hint under which a generic
	// "id" route parameter is treated as an organization id.
	OrganizationsController string

	// ProjectsController is the controller hint under which a generic "id"
	// route parameter is treated as a project id.
	ProjectsController string
}

// DefaultResolver returns a Resolver with the platform's controller names.
func DefaultResolver() Resolver {
	return Resolver{
		OrganizationsController: "organizations",
		ProjectsController:      "projects",
	}
}

// OrganizationID resolves the target organization identifier from dctx.
// Returns false when no source yields a well-formed organization id; the
// caller must treat that as a deny.
func (r Resolver) OrganizationID(dctx *DecisionContext) (id.ID, bool) {
	return r.resolve(dctx, id.PrefixOrganization, ParamOrganizationID, HeaderOrganizationID, r.OrganizationsController)
}

// ProjectID resolves the target project identifier from dctx.
func (r Resolver) ProjectID(dctx *DecisionContext) (id.ID, bool) {
	return r.resolve(dctx, id.PrefixProject, ParamProjectID, HeaderProjectID, r.ProjectsController)
}

func (r Resolver) resolve(dctx *DecisionContext, prefix id.Prefix, param, header, controller string) (id.ID, bool) {
	if dctx == nil {
		return id.Nil, false
	}

	// 1. Directly attached identifier.
	if !dctx.ResourceID.IsNil() && dctx.ResourceID.Prefix() == prefix {
		return dctx.ResourceID, true
	}

	// 2. Scope-specific route parameter.
	if v, ok := parseCandidate(dctx.RouteParams[param], prefix); ok {
		return v, true
	}

	// 3. Generic "id" route parameter, only when the controller hint says
	// the handler group owns this resource kind.
	if strings.EqualFold(dctx.Controller, controller) {
		if v, ok := parseCandidate(dctx.RouteParams[ParamGenericID], prefix); ok {
			return v, true
		}
	}

	// 4. Scope-specific query parameter.
	if v, ok := parseCandidate(dctx.QueryParams[param], prefix); ok {
		return v, true
	}

	// 5. Scope-specific header, for programmatic callers.
	if v, ok := parseCandidate(headerValue(dctx.Headers, header), prefix); ok {
		return v, true
	}

	return id.Nil, false
}

// parseCandidate parses s as an identifier of the expected kind.
// Empty and malformed candidates are skipped.
func parseCandidate(s string, prefix id.Prefix) (id.ID, bool) {
	if s == "" {
		return id.Nil, false
	}
	parsed, err := id.ParseWithPrefix(s, prefix)
	if err != nil {
		return id.Nil, false
	}
	return parsed, true
}

// headerValue performs a case-insensitive header lookup, since callers may
// hand us canonicalized or raw header maps.
func headerValue(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
