package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/xraph/steward/id"
	"github.com/xraph/steward/project"
)

func (a *API) registerProjectRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("projects"))

	if err := g.POST("/projects", a.createProject,
		forge.WithSummary("Create project"),
		forge.WithDescription("Creates a new project under an organization."),
		forge.WithOperationID("createProject"),
		forge.WithRequestSchema(CreateProjectRequest{}),
		forge.WithCreatedResponse(&project.Project{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/projects/:projectId", a.getProject,
		forge.WithSummary("Get project"),
		forge.WithDescription("Returns details of a specific project."),
		forge.WithOperationID("getProject"),
		forge.WithResponseSchema(http.StatusOK, "Project details", &project.Project{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/projects", a.listProjects,
		forge.WithSummary("List projects"),
		forge.WithDescription("Lists projects with optional filters."),
		forge.WithOperationID("listProjects"),
		forge.WithRequestSchema(ListProjectsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Project list", []*project.Project{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.DELETE("/projects/:projectId", a.deleteProject,
		forge.WithSummary("Delete project"),
		forge.WithDescription("Deletes a project and every membership on it."),
		forge.WithOperationID("deleteProject"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	)
}

func (a *API) createProject(ctx forge.Context, req *CreateProjectRequest) (*project.Project, error) {
	if req.OrganizationID == "" {
		return nil, forge.BadRequest("organization_id is required")
	}
	if req.Name == "" {
		return nil, forge.BadRequest("name is required")
	}
	if req.Key == "" {
		return nil, forge.BadRequest("key is required")
	}

	orgID, err := id.ParseOrganizationID(req.OrganizationID)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid organization_id: %v", err))
	}

	// Creating a project under a missing organization is a client error.
	if _, err := a.eng.Store().GetOrganization(ctx.Context(), orgID); err != nil {
		return nil, mapError(err)
	}

	now := time.Now().UTC()
	p := &project.Project{
		ID:             id.NewProjectID(),
		OrganizationID: orgID,
		Name:           req.Name,
		Key:            req.Key,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := a.eng.Store().CreateProject(ctx.Context(), p); err != nil {
		return nil, mapError(err)
	}

	return p, ctx.JSON(http.StatusCreated, p)
}

func (a *API) getProject(ctx forge.Context, _ *GetProjectRequest) (*project.Project, error) {
	projID, err := id.ParseProjectID(ctx.Param("projectId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid project ID: %v", err))
	}

	p, err := a.eng.Store().GetProject(ctx.Context(), projID)
	if err != nil {
		return nil, mapError(err)
	}

	return p, ctx.JSON(http.StatusOK, p)
}

func (a *API) listProjects(ctx forge.Context, req *ListProjectsRequest) ([]*project.Project, error) {
	filter := &project.ListFilter{
		Search: req.Search,
		Limit:  defaultLimit(req.Limit),
		Offset: req.Offset,
	}

	if req.OrganizationID != "" {
		orgID, err := id.ParseOrganizationID(req.OrganizationID)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid organization_id: %v", err))
		}
		filter.OrganizationID = &orgID
	}

	projects, err := a.eng.Store().ListProjects(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	return projects, ctx.JSON(http.StatusOK, projects)
}

func (a *API) deleteProject(ctx forge.Context, _ *GetProjectRequest) (*struct{}, error) {
	projID, err := id.ParseProjectID(ctx.Param("projectId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid project ID: %v", err))
	}

	if err := a.eng.DeleteProject(ctx.Context(), projID); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}
