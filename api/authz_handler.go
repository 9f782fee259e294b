package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/steward"
	"github.com/xraph/steward/id"
)

func (a *API) registerAuthzRoutes(router forge.Router) error {
	g := router.Group("/v1/authz", forge.WithGroupTags("authorization"))

	if err := g.POST("/authorize", a.authorize,
		forge.WithSummary("Authorization decision"),
		forge.WithDescription("Evaluates whether the subject meets the minimum role at the given scope."),
		forge.WithOperationID("authzAuthorize"),
		forge.WithRequestSchema(AuthorizeRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Decision", DecisionResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/enforce", a.enforce,
		forge.WithSummary("Enforce authorization"),
		forge.WithDescription("Returns 200 if allowed, 403 if denied."),
		forge.WithOperationID("authzEnforce"),
		forge.WithRequestSchema(AuthorizeRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Allowed", DecisionResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.POST("/batch-authorize", a.batchAuthorize,
		forge.WithSummary("Batch authorization decision"),
		forge.WithDescription("Evaluates multiple authorization checks in one request."),
		forge.WithOperationID("authzBatchAuthorize"),
		forge.WithRequestSchema(BatchAuthorizeRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Batch results", BatchAuthorizeResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) authorize(ctx forge.Context, req *AuthorizeRequest) (*DecisionResponse, error) {
	d, err := a.decide(ctx, req)
	if err != nil {
		return nil, err
	}
	resp := toDecisionResponse(d)
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) enforce(ctx forge.Context, req *AuthorizeRequest) (*DecisionResponse, error) {
	d, err := a.decide(ctx, req)
	if err != nil {
		return nil, err
	}
	resp := toDecisionResponse(d)
	if !d.Allowed {
		return resp, ctx.JSON(http.StatusForbidden, resp)
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) batchAuthorize(ctx forge.Context, req *BatchAuthorizeRequest) (*BatchAuthorizeResponse, error) {
	if len(req.Checks) == 0 {
		return nil, forge.BadRequest("checks cannot be empty")
	}

	results := make([]DecisionResponse, len(req.Checks))
	for i := range req.Checks {
		d, err := a.decide(ctx, &req.Checks[i])
		if err != nil {
			return nil, err
		}
		results[i] = *toDecisionResponse(d)
	}

	resp := &BatchAuthorizeResponse{Results: results}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) decide(ctx forge.Context, req *AuthorizeRequest) (*steward.Decision, error) {
	if req.Scope == "" || req.MinRole == "" || req.SubjectID == "" {
		return nil, forge.BadRequest("scope, min_role, and subject_id are required")
	}

	requirement, err := toRequirement(req.Scope, req.MinRole)
	if err != nil {
		return nil, forge.BadRequest(err.Error())
	}

	// A malformed resource identifier is left unattached; the engine then
	// resolves nothing and denies, same as any other missing resource.
	dctx := &steward.DecisionContext{}
	if req.ResourceID != "" {
		if rid, parseErr := id.Parse(req.ResourceID); parseErr == nil {
			dctx.ResourceID = rid
		}
	}

	return a.eng.Authorize(ctx.Context(), requirement, req.SubjectID, dctx), nil
}
