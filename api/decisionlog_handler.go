package api

import (
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/xraph/steward/decisionlog"
)

func (a *API) registerDecisionLogRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("decision-logs"))

	if err := g.GET("/decision-logs", a.listDecisionLogs,
		forge.WithSummary("Query decision logs"),
		forge.WithDescription("Returns authorization decision audit logs with optional filters."),
		forge.WithOperationID("listDecisionLogs"),
		forge.WithRequestSchema(ListDecisionLogsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Decision log list", []*decisionlog.Entry{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.POST("/decision-logs/purge", a.purgeDecisionLogs,
		forge.WithSummary("Purge decision logs"),
		forge.WithDescription("Removes decision log entries older than the cutoff."),
		forge.WithOperationID("purgeDecisionLogs"),
		forge.WithRequestSchema(PurgeDecisionLogsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Purge result", PurgeResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) listDecisionLogs(ctx forge.Context, req *ListDecisionLogsRequest) ([]*decisionlog.Entry, error) {
	filter := &decisionlog.QueryFilter{
		Scope:      req.Scope,
		SubjectID:  req.SubjectID,
		ResourceID: req.ResourceID,
		Decision:   req.Decision,
		Limit:      defaultLimit(req.Limit),
		Offset:     req.Offset,
	}

	if req.After != "" {
		t, err := time.Parse(time.RFC3339, req.After)
		if err != nil {
			return nil, forge.BadRequest("invalid after timestamp")
		}
		filter.After = &t
	}
	if req.Before != "" {
		t, err := time.Parse(time.RFC3339, req.Before)
		if err != nil {
			return nil, forge.BadRequest("invalid before timestamp")
		}
		filter.Before = &t
	}

	logs, err := a.eng.Store().ListDecisionLogs(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	return logs, ctx.JSON(http.StatusOK, logs)
}

func (a *API) purgeDecisionLogs(ctx forge.Context, req *PurgeDecisionLogsRequest) (*PurgeResponse, error) {
	if req.Before == "" {
		return nil, forge.BadRequest("before is required")
	}

	cutoff, err := time.Parse(time.RFC3339, req.Before)
	if err != nil {
		return nil, forge.BadRequest("invalid before timestamp")
	}

	purged, err := a.eng.Store().PurgeDecisionLogs(ctx.Context(), cutoff)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &PurgeResponse{Purged: purged}
	return resp, ctx.JSON(http.StatusOK, resp)
}
