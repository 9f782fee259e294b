// Package steward provides scoped authorization decisions for a multi-tenant
// ticketing platform.
//
// Steward answers whether a subject may perform an operation that requires a
// minimum role at a given scope, across a three-level hierarchy of system,
// organization, and project. Organization roles grant derived
// project-level capabilities when no direct project membership exists.
// Decisions are cached with a short TTL and invalidated explicitly by the
// mutation commands that change membership state.
//
//	eng, err := steward.NewEngine(
//	    steward.WithStore(memStore),
//	    steward.WithCache(cache.NewMemory()),
//	)
//	decision := eng.AuthorizeOrganization(ctx,
//	    steward.RequireOrganization(steward.OrgRoleMember),
//	    "user_01h2xcejqtf2nbrexx3vqjhp41",
//	    &steward.DecisionContext{RouteParams: map[string]string{"organizationId": orgID}},
//	)
package steward

// Scope is the tier at which a role applies.
type Scope string

const (
	// ScopeSystem covers platform-wide operations.
	ScopeSystem Scope = "system"

	// ScopeOrganization covers operations on a single organization.
	ScopeOrganization Scope = "organization"

	// ScopeProject covers operations on a single project.
	ScopeProject Scope = "project"
)

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool {
	switch s {
	case ScopeSystem, ScopeOrganization, ScopeProject:
		return true
	}
	return false
}

// Requirement is the minimum role a protected operation demands at a scope.
// Requirements are immutable; construct one per protected operation with
// RequireOrganization, RequireProject, or RequireSystem.
type Requirement struct {
	Scope       Scope       `json:"scope"`
	OrgRole     OrgRole     `json:"org_role,omitempty"`
	ProjectRole ProjectRole `json:"project_role,omitempty"`
	SystemLevel SystemLevel `json:"system_level,omitempty"`
}

// RequireOrganization builds an organization-scoped requirement.
func RequireOrganization(min OrgRole) Requirement {
	return Requirement{Scope: ScopeOrganization, OrgRole: min}
}

// RequireProject builds a project-scoped requirement.
func RequireProject(min ProjectRole) Requirement {
	return Requirement{Scope: ScopeProject, ProjectRole: min}
}

// RequireSystem builds a system-scoped requirement.
func RequireSystem(min SystemLevel) Requirement {
	return Requirement{Scope: ScopeSystem, SystemLevel: min}
}

// MinRole returns the string form of the requirement's minimum role.
func (r Requirement) MinRole() string {
	switch r.Scope {
	case ScopeOrganization:
		return string(r.OrgRole)
	case ScopeProject:
		return string(r.ProjectRole)
	case ScopeSystem:
		return string(r.SystemLevel)
	default:
		return ""
	}
}

// Decision is the outcome of an authorization check. The engine always
// produces a Decision; lookup failures degrade to a deny, never to a fault.
type Decision struct {
	Allowed    bool         `json:"allowed"`
	Code       DecisionCode `json:"code"`
	Reason     string       `json:"reason,omitempty"`
	HeldRole   string       `json:"held_role,omitempty"`
	ResourceID string       `json:"resource_id,omitempty"`
	EvalTimeNs int64        `json:"eval_time_ns"`
}

// DecisionCode identifies why a decision came out the way it did.
type DecisionCode string

const (
	// DecisionAllow means a direct role satisfied the requirement.
	DecisionAllow DecisionCode = "allow"

	// DecisionAllowDerived means a project requirement was satisfied by a
	// role derived from the owning organization's membership.
	DecisionAllowDerived DecisionCode = "allow_derived"

	// DecisionAllowSystemAdmin means an explicit system-admin grant matched.
	DecisionAllowSystemAdmin DecisionCode = "allow_system_admin"

	// DecisionAllowOrgAdmin means the subject is an admin of at least one
	// organization, which satisfies the OrganizationAdmin system level.
	DecisionAllowOrgAdmin DecisionCode = "allow_org_admin"

	// DecisionDenyMissingSubject means no authenticated subject was present.
	DecisionDenyMissingSubject DecisionCode = "deny_missing_subject"

	// DecisionDenyMissingResource means no valid resource identifier could
	// be resolved from the decision context.
	DecisionDenyMissingResource DecisionCode = "deny_missing_resource"

	// DecisionDenyNotFound means the referenced resource does not exist.
	DecisionDenyNotFound DecisionCode = "deny_not_found"

	// DecisionDenyInsufficientRole means a role was held but falls below
	// the requirement.
	DecisionDenyInsufficientRole DecisionCode = "deny_insufficient_role"

	// DecisionDenyStoreFailure means the role store failed; the engine
	// fails closed.
	DecisionDenyStoreFailure DecisionCode = "deny_store_failure"

	// DecisionDenyInvalidRequirement means the requirement itself named an
	// unknown scope or role. A construction bug in the caller, still deny.
	DecisionDenyInvalidRequirement DecisionCode = "deny_invalid_requirement"
)
