package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/xraph/steward/id"
	"github.com/xraph/steward/organization"
)

func (a *API) registerOrganizationRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("organizations"))

	if err := g.POST("/organizations", a.createOrganization,
		forge.WithSummary("Create organization"),
		forge.WithDescription("Creates a new organization."),
		forge.WithOperationID("createOrganization"),
		forge.WithRequestSchema(CreateOrganizationRequest{}),
		forge.WithCreatedResponse(&organization.Organization{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/organizations/:organizationId", a.getOrganization,
		forge.WithSummary("Get organization"),
		forge.WithDescription("Returns details of a specific organization."),
		forge.WithOperationID("getOrganization"),
		forge.WithResponseSchema(http.StatusOK, "Organization details", &organization.Organization{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/organizations", a.listOrganizations,
		forge.WithSummary("List organizations"),
		forge.WithDescription("Lists organizations with optional filters."),
		forge.WithOperationID("listOrganizations"),
		forge.WithRequestSchema(ListOrganizationsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Organization list", []*organization.Organization{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.DELETE("/organizations/:organizationId", a.deleteOrganization,
		forge.WithSummary("Delete organization"),
		forge.WithDescription("Deletes an organization, its projects, and every membership on them."),
		forge.WithOperationID("deleteOrganization"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	)
}

func (a *API) createOrganization(ctx forge.Context, req *CreateOrganizationRequest) (*organization.Organization, error) {
	if req.Name == "" {
		return nil, forge.BadRequest("name is required")
	}
	if req.Slug == "" {
		return nil, forge.BadRequest("slug is required")
	}

	now := time.Now().UTC()
	o := &organization.Organization{
		ID:        id.NewOrganizationID(),
		Name:      req.Name,
		Slug:      req.Slug,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := a.eng.Store().CreateOrganization(ctx.Context(), o); err != nil {
		return nil, mapError(err)
	}

	return o, ctx.JSON(http.StatusCreated, o)
}

func (a *API) getOrganization(ctx forge.Context, _ *GetOrganizationRequest) (*organization.Organization, error) {
	orgID, err := id.ParseOrganizationID(ctx.Param("organizationId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid organization ID: %v", err))
	}

	o, err := a.eng.Store().GetOrganization(ctx.Context(), orgID)
	if err != nil {
		return nil, mapError(err)
	}

	return o, ctx.JSON(http.StatusOK, o)
}

func (a *API) listOrganizations(ctx forge.Context, req *ListOrganizationsRequest) ([]*organization.Organization, error) {
	filter := &organization.ListFilter{
		Search: req.Search,
		Limit:  defaultLimit(req.Limit),
		Offset: req.Offset,
	}

	orgs, err := a.eng.Store().ListOrganizations(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	return orgs, ctx.JSON(http.StatusOK, orgs)
}

func (a *API) deleteOrganization(ctx forge.Context, _ *GetOrganizationRequest) (*struct{}, error) {
	orgID, err := id.ParseOrganizationID(ctx.Param("organizationId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid organization ID: %v", err))
	}

	if err := a.eng.DeleteOrganization(ctx.Context(), orgID); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}
