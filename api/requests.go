package api

// ──────────────────────────────────────────────────
// Authorization requests
// ──────────────────────────────────────────────────

// AuthorizeRequest is the request body for an authorization decision.
type AuthorizeRequest struct {
	Scope      string `json:"scope" description:"Decision scope (system, organization, project)"`
	MinRole    string `json:"min_role" description:"Minimum role the operation demands"`
	SubjectID  string `json:"subject_id" description:"Subject identifier"`
	ResourceID string `json:"resource_id,omitempty" description:"Target resource identifier (ignored at system scope)"`
}

// BatchAuthorizeRequest contains multiple authorization checks.
type BatchAuthorizeRequest struct {
	Checks []AuthorizeRequest `json:"checks" description:"List of authorization checks"`
}

// ──────────────────────────────────────────────────
// Organization requests
// ──────────────────────────────────────────────────

// CreateOrganizationRequest is the body for creating an organization.
type CreateOrganizationRequest struct {
	Name string `json:"name" description:"Organization name"`
	Slug string `json:"slug" description:"URL-safe slug"`
}

// GetOrganizationRequest is the path parameter for getting an organization.
type GetOrganizationRequest struct {
	OrganizationID string `path:"organizationId" description:"Organization ID"`
}

// ListOrganizationsRequest holds query parameters for listing organizations.
type ListOrganizationsRequest struct {
	Search string `query:"search" description:"Search by name"`
	Limit  int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset int    `query:"offset" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Project requests
// ──────────────────────────────────────────────────

// CreateProjectRequest is the body for creating a project.
type CreateProjectRequest struct {
	OrganizationID string `json:"organization_id" description:"Owning organization ID"`
	Name           string `json:"name" description:"Project name"`
	Key            string `json:"key" description:"Short project key (e.g. PAY)"`
}

// GetProjectRequest is the path parameter for getting a project.
type GetProjectRequest struct {
	ProjectID string `path:"projectId" description:"Project ID"`
}

// ListProjectsRequest holds query parameters for listing projects.
type ListProjectsRequest struct {
	OrganizationID string `query:"organization_id" description:"Filter by owning organization"`
	Search         string `query:"search" description:"Search by name"`
	Limit          int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset         int    `query:"offset" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Membership requests
// ──────────────────────────────────────────────────

// GrantMembershipRequest is the body for granting a membership.
type GrantMembershipRequest struct {
	Scope      string `json:"scope" description:"Membership scope (organization, project)"`
	ResourceID string `json:"resource_id" description:"Target resource identifier"`
	SubjectID  string `json:"subject_id" description:"Subject identifier"`
	Role       string `json:"role" description:"Role to grant"`
	GrantedBy  string `json:"granted_by,omitempty" description:"Identifier of the granting subject"`
}

// ChangeMembershipRoleRequest is the body for changing a membership role.
type ChangeMembershipRoleRequest struct {
	Scope      string `json:"scope" description:"Membership scope"`
	ResourceID string `json:"resource_id" description:"Target resource identifier"`
	SubjectID  string `json:"subject_id" description:"Subject identifier"`
	Role       string `json:"role" description:"New role"`
}

// RevokeMembershipRequest is the body for revoking a membership.
type RevokeMembershipRequest struct {
	Scope      string `json:"scope" description:"Membership scope"`
	ResourceID string `json:"resource_id" description:"Target resource identifier"`
	SubjectID  string `json:"subject_id" description:"Subject identifier"`
}

// ListMembershipsRequest holds query parameters for listing memberships.
type ListMembershipsRequest struct {
	Scope      string `query:"scope" description:"Filter by scope"`
	ResourceID string `query:"resource_id" description:"Filter by resource"`
	SubjectID  string `query:"subject_id" description:"Filter by subject"`
	Role       string `query:"role" description:"Filter by role"`
	ActiveOnly bool   `query:"active_only" description:"Only active memberships"`
	Limit      int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset     int    `query:"offset" description:"Results to skip"`
}

// SetSystemAdminRequest is the body for granting system admin.
type SetSystemAdminRequest struct {
	SubjectID string `json:"subject_id" description:"Subject identifier"`
	GrantedBy string `json:"granted_by,omitempty" description:"Identifier of the granting subject"`
}

// RevokeSystemAdminRequest is the path parameter for revoking system admin.
type RevokeSystemAdminRequest struct {
	SubjectID string `path:"subjectId" description:"Subject identifier"`
}

// ──────────────────────────────────────────────────
// Decision log requests
// ──────────────────────────────────────────────────

// ListDecisionLogsRequest holds query parameters for querying decision logs.
type ListDecisionLogsRequest struct {
	Scope      string `query:"scope" description:"Filter by scope"`
	SubjectID  string `query:"subject_id" description:"Filter by subject"`
	ResourceID string `query:"resource_id" description:"Filter by resource"`
	Decision   string `query:"decision" description:"Filter by decision code"`
	After      string `query:"after" description:"RFC3339 lower bound"`
	Before     string `query:"before" description:"RFC3339 upper bound"`
	Limit      int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset     int    `query:"offset" description:"Results to skip"`
}

// PurgeDecisionLogsRequest is the body for purging old decision logs.
type PurgeDecisionLogsRequest struct {
	Before string `json:"before" description:"RFC3339 cutoff; entries older than this are removed"`
}
