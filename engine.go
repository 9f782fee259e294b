package steward

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/steward/decisionlog"
	"github.com/xraph/steward/id"
	"github.com/xraph/steward/plugin"
	"github.com/xraph/steward/store"
)

// Engine is the authorization decision engine. It resolves the target
// resource from the decision context, looks up the subject's effective role
// (cache first, store on miss), applies the hierarchy and derivation rules,
// and always produces an allow or deny. Store failures degrade to deny.
type Engine struct {
	store    store.Store
	cache    Cache
	resolver Resolver
	plugins  *plugin.Registry
	logger   *slog.Logger
	config   Config
}

// NewEngine creates a new Steward engine with the given options.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		resolver: DefaultResolver(),
		logger:   slog.Default(),
		config:   DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		return nil, errors.New("steward: store is required")
	}
	if e.config.CacheTTL <= 0 {
		e.config.CacheTTL = DefaultConfig().CacheTTL
	}
	// Config-supplied controller hints override the resolver defaults.
	if e.config.OrganizationsController != "" {
		e.resolver.OrganizationsController = e.config.OrganizationsController
	}
	if e.config.ProjectsController != "" {
		e.resolver.ProjectsController = e.config.ProjectsController
	}
	return e, nil
}

// Store returns the underlying composite store.
func (e *Engine) Store() store.Store { return e.store }

// Plugins returns the plugin registry (may be nil).
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Start performs any startup initialization.
func (e *Engine) Start(_ context.Context) error { return nil }

// Stop performs graceful shutdown.
func (e *Engine) Stop(ctx context.Context) error {
	if e.plugins != nil {
		e.plugins.EmitShutdown(ctx)
	}
	return nil
}

// Authorize dispatches to the decision procedure for the requirement's
// scope. An unknown scope is a construction bug and denies.
func (e *Engine) Authorize(ctx context.Context, req Requirement, subject string, dctx *DecisionContext) *Decision {
	switch req.Scope {
	case ScopeOrganization:
		return e.AuthorizeOrganization(ctx, req, subject, dctx)
	case ScopeProject:
		return e.AuthorizeProject(ctx, req, subject, dctx)
	case ScopeSystem:
		return e.AuthorizeSystem(ctx, req, subject)
	default:
		e.logger.Error("steward: requirement names unknown scope", slog.String("scope", string(req.Scope)))
		return &Decision{Code: DecisionDenyInvalidRequirement, Reason: "unknown requirement scope"}
	}
}

// Enforce runs Authorize and converts a deny into ErrAccessDenied.
func (e *Engine) Enforce(ctx context.Context, req Requirement, subject string, dctx *DecisionContext) error {
	d := e.Authorize(ctx, req, subject, dctx)
	if !d.Allowed {
		return fmt.Errorf("%w: %s", ErrAccessDenied, d.Code)
	}
	return nil
}

// AuthorizeOrganization decides an organization-scoped requirement.
func (e *Engine) AuthorizeOrganization(ctx context.Context, req Requirement, subject string, dctx *DecisionContext) *Decision {
	start := time.Now()
	if e.plugins != nil {
		e.plugins.EmitBeforeDecision(ctx, subject, &req)
	}

	d := e.decideOrganization(ctx, req, subject, dctx)
	d.EvalTimeNs = time.Since(start).Nanoseconds()
	e.finishDecision(ctx, req, subject, d)
	return d
}

func (e *Engine) decideOrganization(ctx context.Context, req Requirement, subject string, dctx *DecisionContext) *Decision {
	if subject == "" {
		e.logger.Warn("steward: organization decision without subject")
		return &Decision{Code: DecisionDenyMissingSubject, Reason: "no authenticated subject"}
	}

	orgID, ok := e.resolver.OrganizationID(dctx)
	if !ok {
		e.logger.Warn("steward: no organization id resolvable",
			slog.String("subject", subject))
		return &Decision{Code: DecisionDenyMissingResource, Reason: "no organization id in request"}
	}

	held, err := e.organizationRole(ctx, subject, orgID)
	if err != nil {
		return e.storeFailure(orgID.String(), subject, err)
	}

	if held.Sufficient(req.OrgRole) {
		return &Decision{
			Allowed:    true,
			Code:       DecisionAllow,
			HeldRole:   string(held),
			ResourceID: orgID.String(),
		}
	}

	e.logger.Debug("steward: insufficient organization role",
		slog.String("subject", subject),
		slog.String("organization", orgID.String()),
		slog.String("required", string(req.OrgRole)),
		slog.String("held", string(held)),
	)
	return &Decision{
		Code:       DecisionDenyInsufficientRole,
		Reason:     "organization role below requirement",
		HeldRole:   string(held),
		ResourceID: orgID.String(),
	}
}

// AuthorizeProject decides a project-scoped requirement. The direct project
// role is checked first; when it does not satisfy the requirement, the role
// derived from the owning organization's membership is checked as a
// fallback. A low direct role does not block a higher derived role.
func (e *Engine) AuthorizeProject(ctx context.Context, req Requirement, subject string, dctx *DecisionContext) *Decision {
	start := time.Now()
	if e.plugins != nil {
		e.plugins.EmitBeforeDecision(ctx, subject, &req)
	}

	d := e.decideProject(ctx, req, subject, dctx)
	d.EvalTimeNs = time.Since(start).Nanoseconds()
	e.finishDecision(ctx, req, subject, d)
	return d
}

func (e *Engine) decideProject(ctx context.Context, req Requirement, subject string, dctx *DecisionContext) *Decision {
	if subject == "" {
		e.logger.Warn("steward: project decision without subject")
		return &Decision{Code: DecisionDenyMissingSubject, Reason: "no authenticated subject"}
	}

	projID, ok := e.resolver.ProjectID(dctx)
	if !ok {
		e.logger.Warn("steward: no project id resolvable",
			slog.String("subject", subject))
		return &Decision{Code: DecisionDenyMissingResource, Reason: "no project id in request"}
	}

	orgID, found, err := e.store.GetProjectOwningOrganization(ctx, projID)
	if err != nil {
		return e.storeFailure(projID.String(), subject, err)
	}
	if !found {
		e.logger.Warn("steward: project does not exist",
			slog.String("subject", subject),
			slog.String("project", projID.String()),
		)
		return &Decision{Code: DecisionDenyNotFound, Reason: "project not found", ResourceID: projID.String()}
	}

	direct, err := e.projectRole(ctx, subject, projID)
	if err != nil {
		return e.storeFailure(projID.String(), subject, err)
	}
	if direct.Sufficient(req.ProjectRole) {
		return &Decision{
			Allowed:    true,
			Code:       DecisionAllow,
			HeldRole:   string(direct),
			ResourceID: projID.String(),
		}
	}

	orgRole, err := e.organizationRole(ctx, subject, orgID)
	if err != nil {
		return e.storeFailure(projID.String(), subject, err)
	}
	derived := DeriveProjectRole(orgRole)
	if derived.Sufficient(req.ProjectRole) {
		return &Decision{
			Allowed:    true,
			Code:       DecisionAllowDerived,
			HeldRole:   string(derived),
			Reason:     "derived from organization role " + string(orgRole),
			ResourceID: projID.String(),
		}
	}

	e.logger.Debug("steward: insufficient project role",
		slog.String("subject", subject),
		slog.String("project", projID.String()),
		slog.String("required", string(req.ProjectRole)),
		slog.String("direct", string(direct)),
		slog.String("derived", string(derived)),
	)
	return &Decision{
		Code:       DecisionDenyInsufficientRole,
		Reason:     "neither direct nor derived project role meets requirement",
		HeldRole:   string(direct),
		ResourceID: projID.String(),
	}
}

// AuthorizeSystem decides a system-scoped requirement. There is no resource
// to resolve; the system scope has exactly one resource.
func (e *Engine) AuthorizeSystem(ctx context.Context, req Requirement, subject string) *Decision {
	start := time.Now()
	if e.plugins != nil {
		e.plugins.EmitBeforeDecision(ctx, subject, &req)
	}

	d := e.decideSystem(ctx, req, subject)
	d.EvalTimeNs = time.Since(start).Nanoseconds()
	e.finishDecision(ctx, req, subject, d)
	return d
}

func (e *Engine) decideSystem(ctx context.Context, req Requirement, subject string) *Decision {
	if subject == "" {
		e.logger.Warn("steward: system decision without subject")
		return &Decision{Code: DecisionDenyMissingSubject, Reason: "no authenticated subject"}
	}

	level, err := e.systemLevel(ctx, subject)
	if err != nil {
		return e.storeFailure(systemResourceID, subject, err)
	}

	if level.Sufficient(req.SystemLevel) {
		code := DecisionAllow
		switch level {
		case SystemLevelAdmin:
			code = DecisionAllowSystemAdmin
		case SystemLevelOrgAdmin:
			code = DecisionAllowOrgAdmin
		}
		return &Decision{
			Allowed:    true,
			Code:       code,
			HeldRole:   string(level),
			ResourceID: systemResourceID,
		}
	}

	e.logger.Debug("steward: insufficient system level",
		slog.String("subject", subject),
		slog.String("required", string(req.SystemLevel)),
		slog.String("held", string(level)),
	)
	return &Decision{
		Code:       DecisionDenyInsufficientRole,
		Reason:     "system level below requirement",
		HeldRole:   string(level),
		ResourceID: systemResourceID,
	}
}

// organizationRole returns the subject's active organization role, reading
// through the cache. An absent role is cached like any other value.
func (e *Engine) organizationRole(ctx context.Context, subject string, orgID id.ID) (OrgRole, error) {
	key := orgID.String()
	if e.cache != nil {
		if v, ok := e.cache.Get(ctx, ScopeOrganization, subject, key); ok {
			return OrgRole(v), nil
		}
	}
	role, err := e.store.GetOrganizationRole(ctx, orgID, subject)
	if err != nil {
		return OrgRoleNone, err
	}
	if e.cache != nil {
		e.cache.Set(ctx, ScopeOrganization, subject, key, role, e.config.CacheTTL)
	}
	return OrgRole(role), nil
}

// projectRole returns the subject's active direct project role, reading
// through the cache.
func (e *Engine) projectRole(ctx context.Context, subject string, projID id.ID) (ProjectRole, error) {
	key := projID.String()
	if e.cache != nil {
		if v, ok := e.cache.Get(ctx, ScopeProject, subject, key); ok {
			return ProjectRole(v), nil
		}
	}
	role, err := e.store.GetProjectRole(ctx, projID, subject)
	if err != nil {
		return ProjectRoleNone, err
	}
	if e.cache != nil {
		e.cache.Set(ctx, ScopeProject, subject, key, role, e.config.CacheTTL)
	}
	return ProjectRole(role), nil
}

// systemLevel resolves the subject's effective platform level: an explicit
// system-admin grant, failing that the existential "admin of any
// organization" check, failing that plain user.
func (e *Engine) systemLevel(ctx context.Context, subject string) (SystemLevel, error) {
	if e.cache != nil {
		if v, ok := e.cache.Get(ctx, ScopeSystem, subject, systemResourceID); ok {
			return SystemLevel(v), nil
		}
	}

	level := SystemLevelUser
	isAdmin, err := e.store.IsSystemAdmin(ctx, subject)
	if err != nil {
		return "", err
	}
	if isAdmin {
		level = SystemLevelAdmin
	} else {
		orgAdmin, err := e.store.HasAnyOrganizationAdminRole(ctx, subject)
		if err != nil {
			return "", err
		}
		if orgAdmin {
			level = SystemLevelOrgAdmin
		}
	}

	if e.cache != nil {
		e.cache.Set(ctx, ScopeSystem, subject, systemResourceID, string(level), e.config.CacheTTL)
	}
	return level, nil
}

// storeFailure logs a role store error and fails closed.
func (e *Engine) storeFailure(resourceID, subject string, err error) *Decision {
	e.logger.Error("steward: role store failure, denying",
		slog.String("subject", subject),
		slog.String("resource", resourceID),
		slog.Any("error", err),
	)
	return &Decision{
		Code:       DecisionDenyStoreFailure,
		Reason:     "role lookup failed",
		ResourceID: resourceID,
	}
}

// finishDecision fires the after-decision hooks and, when enabled, records
// the decision in the audit log. The audit write runs detached from the
// request so an abandoned caller cannot cancel it mid-write.
func (e *Engine) finishDecision(ctx context.Context, req Requirement, subject string, d *Decision) {
	if e.plugins != nil {
		e.plugins.EmitAfterDecision(ctx, subject, &req, d)
	}
	if !e.config.AuditDecisions {
		return
	}
	entry := &decisionlog.Entry{
		ID:         id.NewDecisionLogID(),
		Scope:      string(req.Scope),
		SubjectID:  subject,
		ResourceID: d.ResourceID,
		MinRole:    req.MinRole(),
		HeldRole:   d.HeldRole,
		Decision:   string(d.Code),
		Reason:     d.Reason,
		EvalTimeNs: d.EvalTimeNs,
		CreatedAt:  time.Now().UTC(),
	}
	go func(ctx context.Context) {
		if err := e.store.CreateDecisionLog(ctx, entry); err != nil {
			e.logger.Warn("steward: decision audit write failed", slog.Any("error", err))
		}
	}(context.WithoutCancel(ctx))
}

// InvalidateMembership purges the cached role for one subject on one
// resource. Call after any membership write for that triple.
func (e *Engine) InvalidateMembership(ctx context.Context, scope Scope, resourceID id.ID, subject string) {
	if e.cache == nil {
		return
	}
	if scope == ScopeSystem {
		e.cache.InvalidateExact(ctx, ScopeSystem, subject, systemResourceID)
		return
	}
	e.cache.InvalidateExact(ctx, scope, subject, resourceID.String())
}

// InvalidateResource purges cached roles for every subject on a resource.
// Used on organization or project deletion, where enumerating members may
// be expensive.
func (e *Engine) InvalidateResource(ctx context.Context, scope Scope, resourceID id.ID) {
	if e.cache == nil {
		return
	}
	e.cache.InvalidateResource(ctx, scope, resourceID.String())
}

// InvalidateSubjectGlobal purges every cached role for a subject across all
// scopes. Used when a subject's grants change broadly, e.g. a system-admin
// grant or revoke.
func (e *Engine) InvalidateSubjectGlobal(ctx context.Context, subject string) {
	if e.cache == nil {
		return
	}
	e.cache.InvalidateSubjectGlobal(ctx, subject)
}
