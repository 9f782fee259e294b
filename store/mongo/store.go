// Package mongo provides a MongoDB implementation of the Steward composite
// store using grove ORM.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/steward/decisionlog"
	"github.com/xraph/steward/id"
	"github.com/xraph/steward/membership"
	"github.com/xraph/steward/organization"
	"github.com/xraph/steward/project"
	"github.com/xraph/steward/store"
)

// Collection name constants.
const (
	colOrganizations = "steward_organizations"
	colProjects      = "steward_projects"
	colMemberships   = "steward_memberships"
	colDecisionLogs  = "steward_decision_logs"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a MongoDB implementation of the composite Steward store.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// Migrate creates indexes for all steward collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()
	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("steward/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongod.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all steward collections.
func migrationIndexes() map[string][]mongod.IndexModel {
	return map[string][]mongod.IndexModel{
		colOrganizations: {
			{
				Keys:    bson.D{{Key: "slug", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colProjects: {
			{
				Keys:    bson.D{{Key: "organization_id", Value: 1}, {Key: "key", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "organization_id", Value: 1}}},
		},
		colMemberships: {
			{
				Keys:    bson.D{{Key: "scope", Value: 1}, {Key: "resource_id", Value: 1}, {Key: "subject_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "subject_id", Value: 1}, {Key: "scope", Value: 1}, {Key: "role", Value: 1}, {Key: "is_active", Value: 1}}},
		},
		colDecisionLogs: {
			{Keys: bson.D{{Key: "subject_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "scope", Value: 1}, {Key: "resource_id", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
	}
}

// ──────────────────────────────────────────────────
// Organization operations
// ──────────────────────────────────────────────────

func (s *Store) CreateOrganization(ctx context.Context, o *organization.Organization) error {
	t := now()
	o.CreatedAt = t
	o.UpdatedAt = t
	m := organizationToModel(o)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("steward: create organization: %w", err)
	}
	return nil
}

func (s *Store) GetOrganization(ctx context.Context, orgID id.ID) (*organization.Organization, error) {
	var m organizationModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": orgID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("organization %s: %w", orgID, organization.ErrNotFound)
		}
		return nil, fmt.Errorf("steward: get organization: %w", err)
	}
	return organizationFromModel(&m), nil
}

func (s *Store) ListOrganizations(ctx context.Context, filter *organization.ListFilter) ([]*organization.Organization, error) {
	var models []organizationModel
	f := bson.M{}
	if filter != nil && filter.Search != "" {
		f["name"] = bson.M{"$regex": filter.Search, "$options": "i"}
	}
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "created_at", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("steward: list organizations: %w", err)
	}
	result := make([]*organization.Organization, len(models))
	for i := range models {
		result[i] = organizationFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountOrganizations(ctx context.Context, filter *organization.ListFilter) (int64, error) {
	f := bson.M{}
	if filter != nil && filter.Search != "" {
		f["name"] = bson.M{"$regex": filter.Search, "$options": "i"}
	}
	count, err := s.mdb.NewFind((*organizationModel)(nil)).
		Filter(f).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("steward: count organizations: %w", err)
	}
	return count, nil
}

func (s *Store) DeleteOrganization(ctx context.Context, orgID id.ID) error {
	_, err := s.mdb.NewDelete((*organizationModel)(nil)).
		Filter(bson.M{"_id": orgID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("steward: delete organization: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Project operations
// ──────────────────────────────────────────────────

func (s *Store) CreateProject(ctx context.Context, p *project.Project) error {
	t := now()
	p.CreatedAt = t
	p.UpdatedAt = t
	m := projectToModel(p)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("steward: create project: %w", err)
	}
	return nil
}

func (s *Store) GetProject(ctx context.Context, projectID id.ID) (*project.Project, error) {
	var m projectModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": projectID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("project %s: %w", projectID, project.ErrNotFound)
		}
		return nil, fmt.Errorf("steward: get project: %w", err)
	}
	return projectFromModel(&m), nil
}

func (s *Store) GetProjectOwningOrganization(ctx context.Context, projectID id.ID) (id.ID, bool, error) {
	var m projectModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": projectID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return id.Nil, false, nil
		}
		return id.Nil, false, fmt.Errorf("steward: get project owner: %w", err)
	}
	orgID, err := id.ParseOrganizationID(m.OrganizationID)
	if err != nil {
		return id.Nil, false, fmt.Errorf("steward: get project owner: %w", err)
	}
	return orgID, true, nil
}

func (s *Store) ListProjects(ctx context.Context, filter *project.ListFilter) ([]*project.Project, error) {
	var models []projectModel
	f := bson.M{}
	if filter != nil {
		if filter.OrganizationID != nil {
			f["organization_id"] = filter.OrganizationID.String()
		}
		if filter.Search != "" {
			f["name"] = bson.M{"$regex": filter.Search, "$options": "i"}
		}
	}
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "created_at", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("steward: list projects: %w", err)
	}
	result := make([]*project.Project, len(models))
	for i := range models {
		result[i] = projectFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountProjects(ctx context.Context, filter *project.ListFilter) (int64, error) {
	f := bson.M{}
	if filter != nil {
		if filter.OrganizationID != nil {
			f["organization_id"] = filter.OrganizationID.String()
		}
		if filter.Search != "" {
			f["name"] = bson.M{"$regex": filter.Search, "$options": "i"}
		}
	}
	count, err := s.mdb.NewFind((*projectModel)(nil)).
		Filter(f).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("steward: count projects: %w", err)
	}
	return count, nil
}

func (s *Store) DeleteProject(ctx context.Context, projectID id.ID) error {
	_, err := s.mdb.NewDelete((*projectModel)(nil)).
		Filter(bson.M{"_id": projectID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("steward: delete project: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Membership operations
// ──────────────────────────────────────────────────

func (s *Store) CreateMembership(ctx context.Context, m *membership.Membership) error {
	t := now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = t
	}
	m.UpdatedAt = t

	// The (scope, resource_id, subject_id) index is unique and revocation
	// keeps the document, so a re-grant reactivates in place instead of
	// inserting a duplicate.
	res, err := s.mdb.NewUpdate((*membershipModel)(nil)).
		Filter(membershipFilter(m.Scope, m.ResourceID, m.SubjectID)).
		Set("role", m.Role).
		Set("is_active", m.IsActive).
		Set("granted_by", m.GrantedBy).
		Set("updated_at", t).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("steward: create membership: %w", err)
	}
	if res.MatchedCount() > 0 {
		return nil
	}

	model := membershipToModel(m)
	if _, err := s.mdb.NewInsert(model).Exec(ctx); err != nil {
		return fmt.Errorf("steward: create membership: %w", err)
	}
	return nil
}

func (s *Store) GetMembership(ctx context.Context, scope string, resourceID id.ID, subjectID string) (*membership.Membership, error) {
	var m membershipModel
	err := s.mdb.NewFind(&m).
		Filter(membershipFilter(scope, resourceID, subjectID)).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("membership %s/%s/%s: %w", scope, resourceID, subjectID, membership.ErrNotFound)
		}
		return nil, fmt.Errorf("steward: get membership: %w", err)
	}
	return membershipFromModel(&m), nil
}

func (s *Store) UpdateMembershipRole(ctx context.Context, scope string, resourceID id.ID, subjectID, role string) error {
	res, err := s.mdb.NewUpdate((*membershipModel)(nil)).
		Filter(membershipFilter(scope, resourceID, subjectID)).
		Set("role", role).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("steward: update membership role: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("membership %s/%s/%s: %w", scope, resourceID, subjectID, membership.ErrNotFound)
	}
	return nil
}

func (s *Store) DeactivateMembership(ctx context.Context, scope string, resourceID id.ID, subjectID string) error {
	res, err := s.mdb.NewUpdate((*membershipModel)(nil)).
		Filter(membershipFilter(scope, resourceID, subjectID)).
		Set("is_active", false).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("steward: deactivate membership: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("membership %s/%s/%s: %w", scope, resourceID, subjectID, membership.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteMembershipsByResource(ctx context.Context, scope string, resourceID id.ID) error {
	_, err := s.mdb.NewDelete((*membershipModel)(nil)).
		Many().
		Filter(bson.M{"scope": scope, "resource_id": resourceID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("steward: delete memberships by resource: %w", err)
	}
	return nil
}

func (s *Store) ListMemberships(ctx context.Context, filter *membership.ListFilter) ([]*membership.Membership, error) {
	var models []membershipModel
	f := bson.M{}
	if filter != nil {
		if filter.Scope != "" {
			f["scope"] = filter.Scope
		}
		if filter.ResourceID != nil {
			f["resource_id"] = filter.ResourceID.String()
		}
		if filter.SubjectID != "" {
			f["subject_id"] = filter.SubjectID
		}
		if filter.Role != "" {
			f["role"] = filter.Role
		}
		if filter.ActiveOnly {
			f["is_active"] = true
		}
	}
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "created_at", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("steward: list memberships: %w", err)
	}
	result := make([]*membership.Membership, len(models))
	for i := range models {
		result[i] = membershipFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountMemberships(ctx context.Context, filter *membership.ListFilter) (int64, error) {
	f := bson.M{}
	if filter != nil {
		if filter.Scope != "" {
			f["scope"] = filter.Scope
		}
		if filter.ResourceID != nil {
			f["resource_id"] = filter.ResourceID.String()
		}
		if filter.SubjectID != "" {
			f["subject_id"] = filter.SubjectID
		}
		if filter.Role != "" {
			f["role"] = filter.Role
		}
		if filter.ActiveOnly {
			f["is_active"] = true
		}
	}
	count, err := s.mdb.NewFind((*membershipModel)(nil)).
		Filter(f).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("steward: count memberships: %w", err)
	}
	return count, nil
}

func (s *Store) GetOrganizationRole(ctx context.Context, orgID id.ID, subjectID string) (string, error) {
	return s.activeRole(ctx, membership.ScopeOrganization, orgID, subjectID)
}

func (s *Store) GetProjectRole(ctx context.Context, projectID id.ID, subjectID string) (string, error) {
	return s.activeRole(ctx, membership.ScopeProject, projectID, subjectID)
}

func (s *Store) IsSystemAdmin(ctx context.Context, subjectID string) (bool, error) {
	count, err := s.mdb.NewFind((*membershipModel)(nil)).
		Filter(bson.M{
			"scope":      membership.ScopeSystem,
			"subject_id": subjectID,
			"role":       "system_admin",
			"is_active":  true,
		}).
		Count(ctx)
	if err != nil {
		return false, fmt.Errorf("steward: is system admin: %w", err)
	}
	return count > 0, nil
}

func (s *Store) HasAnyOrganizationAdminRole(ctx context.Context, subjectID string) (bool, error) {
	count, err := s.mdb.NewFind((*membershipModel)(nil)).
		Filter(bson.M{
			"scope":      membership.ScopeOrganization,
			"subject_id": subjectID,
			"role":       "admin",
			"is_active":  true,
		}).
		Count(ctx)
	if err != nil {
		return false, fmt.Errorf("steward: has org admin role: %w", err)
	}
	return count > 0, nil
}

func (s *Store) activeRole(ctx context.Context, scope string, resourceID id.ID, subjectID string) (string, error) {
	var m membershipModel
	f := membershipFilter(scope, resourceID, subjectID)
	f["is_active"] = true
	err := s.mdb.NewFind(&m).Filter(f).Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return "", nil
		}
		return "", fmt.Errorf("steward: get %s role: %w", scope, err)
	}
	return m.Role, nil
}

func membershipFilter(scope string, resourceID id.ID, subjectID string) bson.M {
	return bson.M{
		"scope":       scope,
		"resource_id": resourceID.String(),
		"subject_id":  subjectID,
	}
}

// ──────────────────────────────────────────────────
// Decision log operations
// ──────────────────────────────────────────────────

func (s *Store) CreateDecisionLog(ctx context.Context, e *decisionlog.Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now()
	}
	m := decisionLogToModel(e)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("steward: create decision log: %w", err)
	}
	return nil
}

func (s *Store) GetDecisionLog(ctx context.Context, logID id.ID) (*decisionlog.Entry, error) {
	var m decisionLogModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": logID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("decision log %s: %w", logID, decisionlog.ErrNotFound)
		}
		return nil, fmt.Errorf("steward: get decision log: %w", err)
	}
	return decisionLogFromModel(&m), nil
}

func (s *Store) ListDecisionLogs(ctx context.Context, filter *decisionlog.QueryFilter) ([]*decisionlog.Entry, error) {
	var models []decisionLogModel
	f := decisionLogFilter(filter)
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "created_at", Value: -1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("steward: list decision logs: %w", err)
	}
	result := make([]*decisionlog.Entry, len(models))
	for i := range models {
		result[i] = decisionLogFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountDecisionLogs(ctx context.Context, filter *decisionlog.QueryFilter) (int64, error) {
	count, err := s.mdb.NewFind((*decisionLogModel)(nil)).
		Filter(decisionLogFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("steward: count decision logs: %w", err)
	}
	return count, nil
}

func (s *Store) PurgeDecisionLogs(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.mdb.NewDelete((*decisionLogModel)(nil)).
		Many().
		Filter(bson.M{"created_at": bson.M{"$lt": before}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("steward: purge decision logs: %w", err)
	}
	return res.DeletedCount(), nil
}

func decisionLogFilter(filter *decisionlog.QueryFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.Scope != "" {
		f["scope"] = filter.Scope
	}
	if filter.SubjectID != "" {
		f["subject_id"] = filter.SubjectID
	}
	if filter.ResourceID != "" {
		f["resource_id"] = filter.ResourceID
	}
	if filter.Decision != "" {
		f["decision"] = filter.Decision
	}
	created := bson.M{}
	if filter.After != nil {
		created["$gte"] = *filter.After
	}
	if filter.Before != nil {
		created["$lte"] = *filter.Before
	}
	if len(created) > 0 {
		f["created_at"] = created
	}
	return f
}
