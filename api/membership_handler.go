package api

import (
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/steward"
	"github.com/xraph/steward/id"
	"github.com/xraph/steward/membership"
)

func (a *API) registerMembershipRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("memberships"))

	if err := g.POST("/memberships", a.grantMembership,
		forge.WithSummary("Grant membership"),
		forge.WithDescription("Grants a subject a role on a resource at a scope."),
		forge.WithOperationID("grantMembership"),
		forge.WithRequestSchema(GrantMembershipRequest{}),
		forge.WithCreatedResponse(&membership.Membership{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/memberships/role", a.changeMembershipRole,
		forge.WithSummary("Change membership role"),
		forge.WithDescription("Changes the role on an existing membership."),
		forge.WithOperationID("changeMembershipRole"),
		forge.WithRequestSchema(ChangeMembershipRoleRequest{}),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/memberships/revoke", a.revokeMembership,
		forge.WithSummary("Revoke membership"),
		forge.WithDescription("Deactivates a membership. The row is kept for audit."),
		forge.WithOperationID("revokeMembership"),
		forge.WithRequestSchema(RevokeMembershipRequest{}),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/memberships", a.listMemberships,
		forge.WithSummary("List memberships"),
		forge.WithDescription("Lists memberships with optional filters."),
		forge.WithOperationID("listMemberships"),
		forge.WithRequestSchema(ListMembershipsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Membership list", []*membership.Membership{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/system-admins", a.grantSystemAdmin,
		forge.WithSummary("Grant system admin"),
		forge.WithDescription("Grants platform-wide administrator standing to a subject."),
		forge.WithOperationID("grantSystemAdmin"),
		forge.WithRequestSchema(SetSystemAdminRequest{}),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.DELETE("/system-admins/:subjectId", a.revokeSystemAdmin,
		forge.WithSummary("Revoke system admin"),
		forge.WithDescription("Removes platform-wide administrator standing from a subject."),
		forge.WithOperationID("revokeSystemAdmin"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	)
}

func (a *API) grantMembership(ctx forge.Context, req *GrantMembershipRequest) (*membership.Membership, error) {
	if req.Scope == "" || req.ResourceID == "" || req.SubjectID == "" || req.Role == "" {
		return nil, forge.BadRequest("scope, resource_id, subject_id, and role are required")
	}

	resourceID, err := parseScopedResourceID(req.Scope, req.ResourceID)
	if err != nil {
		return nil, forge.BadRequest(err.Error())
	}

	m, err := a.eng.GrantMembership(ctx.Context(), steward.Scope(req.Scope), resourceID, req.SubjectID, req.Role, req.GrantedBy)
	if err != nil {
		return nil, mapError(err)
	}

	return m, ctx.JSON(http.StatusCreated, m)
}

func (a *API) changeMembershipRole(ctx forge.Context, req *ChangeMembershipRoleRequest) (*struct{}, error) {
	if req.Scope == "" || req.ResourceID == "" || req.SubjectID == "" || req.Role == "" {
		return nil, forge.BadRequest("scope, resource_id, subject_id, and role are required")
	}

	resourceID, err := parseScopedResourceID(req.Scope, req.ResourceID)
	if err != nil {
		return nil, forge.BadRequest(err.Error())
	}

	if err := a.eng.ChangeMembershipRole(ctx.Context(), steward.Scope(req.Scope), resourceID, req.SubjectID, req.Role); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) revokeMembership(ctx forge.Context, req *RevokeMembershipRequest) (*struct{}, error) {
	if req.Scope == "" || req.ResourceID == "" || req.SubjectID == "" {
		return nil, forge.BadRequest("scope, resource_id, and subject_id are required")
	}

	resourceID, err := parseScopedResourceID(req.Scope, req.ResourceID)
	if err != nil {
		return nil, forge.BadRequest(err.Error())
	}

	if err := a.eng.RevokeMembership(ctx.Context(), steward.Scope(req.Scope), resourceID, req.SubjectID); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listMemberships(ctx forge.Context, req *ListMembershipsRequest) ([]*membership.Membership, error) {
	filter := &membership.ListFilter{
		Scope:      req.Scope,
		SubjectID:  req.SubjectID,
		Role:       req.Role,
		ActiveOnly: req.ActiveOnly,
		Limit:      defaultLimit(req.Limit),
		Offset:     req.Offset,
	}

	if req.ResourceID != "" {
		rid, err := id.Parse(req.ResourceID)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid resource_id: %v", err))
		}
		filter.ResourceID = &rid
	}

	memberships, err := a.eng.Store().ListMemberships(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	return memberships, ctx.JSON(http.StatusOK, memberships)
}

func (a *API) grantSystemAdmin(ctx forge.Context, req *SetSystemAdminRequest) (*struct{}, error) {
	if req.SubjectID == "" {
		return nil, forge.BadRequest("subject_id is required")
	}

	if err := a.eng.SetSystemAdmin(ctx.Context(), req.SubjectID, true, req.GrantedBy); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) revokeSystemAdmin(ctx forge.Context, _ *RevokeSystemAdminRequest) (*struct{}, error) {
	subjectID := ctx.Param("subjectId")
	if subjectID == "" {
		return nil, forge.BadRequest("subjectId is required")
	}

	if err := a.eng.SetSystemAdmin(ctx.Context(), subjectID, false, ""); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

// parseScopedResourceID parses a resource identifier and checks its kind
// matches the membership scope.
func parseScopedResourceID(scope, s string) (id.ID, error) {
	switch steward.Scope(scope) {
	case steward.ScopeOrganization:
		rid, err := id.ParseOrganizationID(s)
		if err != nil {
			return id.Nil, fmt.Errorf("invalid resource_id: %v", err)
		}
		return rid, nil
	case steward.ScopeProject:
		rid, err := id.ParseProjectID(s)
		if err != nil {
			return id.Nil, fmt.Errorf("invalid resource_id: %v", err)
		}
		return rid, nil
	default:
		return id.Nil, fmt.Errorf("unknown scope %q", scope)
	}
}
