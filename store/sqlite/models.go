package sqlite

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/steward/decisionlog"
	"github.com/xraph/steward/id"
	"github.com/xraph/steward/membership"
	"github.com/xraph/steward/organization"
	"github.com/xraph/steward/project"
)

type organizationModel struct {
	grove.BaseModel `grove:"table:steward_organizations"`
	ID              string    `grove:"id,pk"`
	Name            string    `grove:"name,notnull"`
	Slug            string    `grove:"slug,notnull"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

func organizationToModel(o *organization.Organization) *organizationModel {
	return &organizationModel{
		ID:        o.ID.String(),
		Name:      o.Name,
		Slug:      o.Slug,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

func organizationFromModel(m *organizationModel) *organization.Organization {
	oid, _ := id.ParseOrganizationID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &organization.Organization{
		ID:        oid,
		Name:      m.Name,
		Slug:      m.Slug,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

type projectModel struct {
	grove.BaseModel `grove:"table:steward_projects"`
	ID              string    `grove:"id,pk"`
	OrganizationID  string    `grove:"organization_id,notnull"`
	Name            string    `grove:"name,notnull"`
	Key             string    `grove:"key,notnull"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

func projectToModel(p *project.Project) *projectModel {
	return &projectModel{
		ID:             p.ID.String(),
		OrganizationID: p.OrganizationID.String(),
		Name:           p.Name,
		Key:            p.Key,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func projectFromModel(m *projectModel) *project.Project {
	pid, _ := id.ParseProjectID(m.ID)                  //nolint:errcheck // stored IDs are always valid
	oid, _ := id.ParseOrganizationID(m.OrganizationID) //nolint:errcheck
	return &project.Project{
		ID:             pid,
		OrganizationID: oid,
		Name:           m.Name,
		Key:            m.Key,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

type membershipModel struct {
	grove.BaseModel `grove:"table:steward_memberships"`
	ID              string    `grove:"id,pk"`
	Scope           string    `grove:"scope,notnull"`
	ResourceID      string    `grove:"resource_id,notnull"`
	SubjectID       string    `grove:"subject_id,notnull"`
	Role            string    `grove:"role,notnull"`
	IsActive        bool      `grove:"is_active,notnull"`
	GrantedBy       string    `grove:"granted_by"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

func membershipToModel(m *membership.Membership) *membershipModel {
	return &membershipModel{
		ID:         m.ID.String(),
		Scope:      m.Scope,
		ResourceID: m.ResourceID.String(),
		SubjectID:  m.SubjectID,
		Role:       m.Role,
		IsActive:   m.IsActive,
		GrantedBy:  m.GrantedBy,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func membershipFromModel(m *membershipModel) *membership.Membership {
	mid, _ := id.ParseMembershipID(m.ID) //nolint:errcheck // stored IDs are always valid
	// System grants carry no resource; the column is empty.
	var rid id.ID
	if m.ResourceID != "" {
		rid, _ = id.Parse(m.ResourceID) //nolint:errcheck
	}
	return &membership.Membership{
		ID:         mid,
		Scope:      m.Scope,
		ResourceID: rid,
		SubjectID:  m.SubjectID,
		Role:       m.Role,
		IsActive:   m.IsActive,
		GrantedBy:  m.GrantedBy,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

type decisionLogModel struct {
	grove.BaseModel `grove:"table:steward_decision_logs"`
	ID              string    `grove:"id,pk"`
	Scope           string    `grove:"scope,notnull"`
	SubjectID       string    `grove:"subject_id,notnull"`
	ResourceID      string    `grove:"resource_id"`
	MinRole         string    `grove:"min_role"`
	HeldRole        string    `grove:"held_role"`
	Decision        string    `grove:"decision,notnull"`
	Reason          string    `grove:"reason"`
	EvalTimeNs      int64     `grove:"eval_time_ns,notnull"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
}

func decisionLogToModel(e *decisionlog.Entry) *decisionLogModel {
	return &decisionLogModel{
		ID:         e.ID.String(),
		Scope:      e.Scope,
		SubjectID:  e.SubjectID,
		ResourceID: e.ResourceID,
		MinRole:    e.MinRole,
		HeldRole:   e.HeldRole,
		Decision:   e.Decision,
		Reason:     e.Reason,
		EvalTimeNs: e.EvalTimeNs,
		CreatedAt:  e.CreatedAt,
	}
}

func decisionLogFromModel(m *decisionLogModel) *decisionlog.Entry {
	lid, _ := id.ParseDecisionLogID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &decisionlog.Entry{
		ID:         lid,
		Scope:      m.Scope,
		SubjectID:  m.SubjectID,
		ResourceID: m.ResourceID,
		MinRole:    m.MinRole,
		HeldRole:   m.HeldRole,
		Decision:   m.Decision,
		Reason:     m.Reason,
		EvalTimeNs: m.EvalTimeNs,
		CreatedAt:  m.CreatedAt,
	}
}
