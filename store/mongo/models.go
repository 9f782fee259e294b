package mongo

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
	ID              string    `grove:"id,pk"       bson:"_id"`
	Name            string    `grove:"name"        bson:"name"`
	Slug            string    `grove:"slug"        bson:"slug"`
	CreatedAt       time.Time `grove:"created_at"  bson:"created_at"`
	UpdatedAt       time.Time `grove:"updated_at"  bson:"updated_at"`
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
	ID              string    `grove:"id,pk"            bson:"_id"`
	OrganizationID  string    `grove:"organization_id"  bson:"organization_id"`
	Name            string    `grove:"name"             bson:"name"`
	Key             string    `grove:"key"              bson:"key"`
	CreatedAt       time.Time `grove:"created_at"       bson:"created_at"`
	UpdatedAt       time.Time `grove:"updated_at"       bson:"updated_at"`
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
	ID              string    `grove:"id,pk"        bson:"_id"`
	Scope           string    `grove:"scope"        bson:"scope"`
	ResourceID      string    `grove:"resource_id"  bson:"resource_id"`
	SubjectID       string    `grove:"subject_id"   bson:"subject_id"`
	Role            string    `grove:"role"         bson:"role"`
	IsActive        bool      `grove:"is_active"    bson:"is_active"`
	GrantedBy       string    `grove:"granted_by"   bson:"granted_by,omitempty"`
	CreatedAt       time.Time `grove:"created_at"   bson:"created_at"`
	UpdatedAt       time.Time `grove:"updated_at"   bson:"updated_at"`
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
	// System grants carry no resource; the field is empty.
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
	ID              string    `grove:"id,pk"         bson:"_id"`
	Scope           string    `grove:"scope"         bson:"scope"`
	SubjectID       string    `grove:"subject_id"    bson:"subject_id"`
	ResourceID      string    `grove:"resource_id"   bson:"resource_id,omitempty"`
	MinRole         string    `grove:"min_role"      bson:"min_role,omitempty"`
	HeldRole        string    `grove:"held_role"     bson:"held_role,omitempty"`
	Decision        string    `grove:"decision"      bson:"decision"`
	Reason          string    `grove:"reason"        bson:"reason,omitempty"`
	EvalTimeNs      int64     `grove:"eval_time_ns"  bson:"eval_time_ns"`
	CreatedAt       time.Time `grove:"created_at"    bson:"created_at"`
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
