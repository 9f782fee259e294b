package api

import (
	"errors"
	"fmt"

	"github.com/xraph/forge"

	"github.com/xraph/steward"
	"github.com/xraph/steward/decisionlog"
	"github.com/xraph/steward/membership"
	"github.com/xraph/steward/organization"
	"github.com/xraph/steward/project"
)

// mapError maps domain errors to Forge HTTP errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return forge.NotFound(err.Error())
	}
	if errors.Is(err, steward.ErrInvalidRole) || errors.Is(err, steward.ErrInvalidScope) {
		return forge.BadRequest(err.Error())
	}
	if errors.Is(err, steward.ErrMissingSubject) || errors.Is(err, steward.ErrInvalidRequirement) {
		return forge.BadRequest(err.Error())
	}
	if errors.Is(err, steward.ErrAccessDenied) {
		return forge.Forbidden(err.Error())
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, organization.ErrNotFound) ||
		errors.Is(err, project.ErrNotFound) ||
		errors.Is(err, membership.ErrNotFound) ||
		errors.Is(err, decisionlog.ErrNotFound)
}

func defaultLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

// toRequirement builds a typed requirement from wire strings. The role is
// validated against the scope's role set before any store work happens.
func toRequirement(scope, minRole string) (steward.Requirement, error) {
	switch steward.Scope(scope) {
	case steward.ScopeOrganization:
		r := steward.OrgRole(minRole)
		if !r.Valid() {
			return steward.Requirement{}, fmt.Errorf("unknown organization role %q", minRole)
		}
		return steward.RequireOrganization(r), nil
	case steward.ScopeProject:
		r := steward.ProjectRole(minRole)
		if !r.Valid() {
			return steward.Requirement{}, fmt.Errorf("unknown project role %q", minRole)
		}
		return steward.RequireProject(r), nil
	case steward.ScopeSystem:
		l := steward.SystemLevel(minRole)
		if !l.Valid() {
			return steward.Requirement{}, fmt.Errorf("unknown system level %q", minRole)
		}
		return steward.RequireSystem(l), nil
	default:
		return steward.Requirement{}, fmt.Errorf("unknown scope %q", scope)
	}
}

func toDecisionResponse(d *steward.Decision) *DecisionResponse {
	return &DecisionResponse{
		Allowed:    d.Allowed,
		Code:       string(d.Code),
		Reason:     d.Reason,
		HeldRole:   d.HeldRole,
		ResourceID: d.ResourceID,
		EvalTimeNs: d.EvalTimeNs,
	}
}
