// Package middleware provides HTTP authorization middleware for Steward.
package middleware

import (
	"encoding/json"

	"github.com/xraph/forge"

	"github.com/xraph/steward"
)

// Require enforces a single scoped requirement. The subject comes from the
// request context (Authsome user > application-set subject > anonymous) and
// the target resource is resolved from the route parameters and headers the
// handler was mounted with.
func Require(eng *steward.Engine, req steward.Requirement) forge.Middleware {
	return RequireWithController(eng, req, "")
}

// RequireWithController is Require with a controller hint, so a handler
// group mounted under a generic ":id" route parameter can still resolve its
// own resource kind.
func RequireWithController(eng *steward.Engine, req steward.Requirement, controller string) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			d := eng.Authorize(ctx.Context(), req, resolveSubject(ctx), decisionContext(ctx, controller))
			if !d.Allowed {
				return denyResponse(ctx, d)
			}
			return next(ctx)
		}
	}
}

// RequireAny allows the request if ANY of the requirements is satisfied.
func RequireAny(eng *steward.Engine, reqs ...steward.Requirement) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			subject := resolveSubject(ctx)
			dctx := decisionContext(ctx, "")

			var last *steward.Decision
			for _, req := range reqs {
				last = eng.Authorize(ctx.Context(), req, subject, dctx)
				if last.Allowed {
					return next(ctx)
				}
			}
			return denyResponse(ctx, last)
		}
	}
}

// RequireAll allows the request only if ALL requirements are satisfied.
func RequireAll(eng *steward.Engine, reqs ...steward.Requirement) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			subject := resolveSubject(ctx)
			dctx := decisionContext(ctx, "")

			for _, req := range reqs {
				if d := eng.Authorize(ctx.Context(), req, subject, dctx); !d.Allowed {
					return denyResponse(ctx, d)
				}
			}
			return next(ctx)
		}
	}
}

// resolveSubject extracts the subject identifier from the request context.
// Priority: Forge user ID (from Authsome) > application-set subject > "".
// An empty subject always ends in a deny.
func resolveSubject(ctx forge.Context) string {
	if userID := forge.UserIDFromContext(ctx.Context()); userID != "" {
		return userID
	}
	return steward.SubjectFromContext(ctx.Context())
}

// decisionContext gathers the request material the resolver understands.
// Only the known parameter and header names are copied; the engine never
// sees the raw request.
func decisionContext(ctx forge.Context, controller string) *steward.DecisionContext {
	params := map[string]string{}
	for _, name := range []string{steward.ParamOrganizationID, steward.ParamProjectID, steward.ParamGenericID} {
		if v := ctx.Param(name); v != "" {
			params[name] = v
		}
	}

	query := map[string]string{}
	headers := map[string]string{}
	if r := ctx.Request(); r != nil {
		for _, name := range []string{steward.ParamOrganizationID, steward.ParamProjectID} {
			if v := r.URL.Query().Get(name); v != "" {
				query[name] = v
			}
		}
		for _, name := range []string{steward.HeaderOrganizationID, steward.HeaderProjectID} {
			if v := r.Header.Get(name); v != "" {
				headers[name] = v
			}
		}
	}

	return &steward.DecisionContext{
		RouteParams: params,
		QueryParams: query,
		Headers:     headers,
		Controller:  controller,
	}
}

func denyResponse(ctx forge.Context, d *steward.Decision) error {
	body := map[string]string{"error": "access denied"}
	if d != nil {
		body["code"] = string(d.Code)
	}
	ctx.SetHeader("Content-Type", "application/json")
	ctx.Response().WriteHeader(403)
	return json.NewEncoder(ctx.Response()).Encode(body)
}
