// Package sqlite provides a SQLite implementation of the Steward composite
// store using grove ORM. It suits single-node deployments and local
// development.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"

	// Registers the sqlite migration executor.
	_ "github.com/xraph/grove/drivers/sqlitedriver/sqlitemigrate"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/steward/decisionlog"
	"github.com/xraph/steward/id"
	"github.com/xraph/steward/membership"
	"github.com/xraph/steward/organization"
	"github.com/xraph/steward/project"
	"github.com/xraph/steward/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a SQLite implementation of the composite Steward store.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// Migrate runs programmatic migrations via the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("steward/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("steward/sqlite: migration failed: %w", err)
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

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// ──────────────────────────────────────────────────
// Organization operations
// ──────────────────────────────────────────────────

func (s *Store) CreateOrganization(ctx context.Context, o *organization.Organization) error {
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now
	m := organizationToModel(o)
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("steward/sqlite: create organization: %w", err)
	}
	return nil
}

func (s *Store) GetOrganization(ctx context.Context, orgID id.ID) (*organization.Organization, error) {
	m := new(organizationModel)
	err := s.sdb.NewSelect(m).Where("id = ?", orgID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("organization %s: %w", orgID, organization.ErrNotFound)
		}
		return nil, fmt.Errorf("steward/sqlite: get organization: %w", err)
	}
	return organizationFromModel(m), nil
}

func (s *Store) ListOrganizations(ctx context.Context, filter *organization.ListFilter) ([]*organization.Organization, error) {
	var models []organizationModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at ASC")
	if filter != nil {
		if filter.Search != "" {
			q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Search+"%")
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("steward/sqlite: list organizations: %w", err)
	}
	result := make([]*organization.Organization, len(models))
	for i := range models {
		result[i] = organizationFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountOrganizations(ctx context.Context, filter *organization.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*organizationModel)(nil))
	if filter != nil && filter.Search != "" {
		q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Search+"%")
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("steward/sqlite: count organizations: %w", err)
	}
	return count, nil
}

func (s *Store) DeleteOrganization(ctx context.Context, orgID id.ID) error {
	_, err := s.sdb.NewDelete((*organizationModel)(nil)).
		Where("id = ?", orgID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("steward/sqlite: delete organization: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Project operations
// ──────────────────────────────────────────────────

func (s *Store) CreateProject(ctx context.Context, p *project.Project) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	m := projectToModel(p)
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("steward/sqlite: create project: %w", err)
	}
	return nil
}

func (s *Store) GetProject(ctx context.Context, projectID id.ID) (*project.Project, error) {
	m := new(projectModel)
	err := s.sdb.NewSelect(m).Where("id = ?", projectID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("project %s: %w", projectID, project.ErrNotFound)
		}
		return nil, fmt.Errorf("steward/sqlite: get project: %w", err)
	}
	return projectFromModel(m), nil
}

func (s *Store) GetProjectOwningOrganization(ctx context.Context, projectID id.ID) (id.ID, bool, error) {
	m := new(projectModel)
	err := s.sdb.NewSelect(m).Where("id = ?", projectID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return id.Nil, false, nil
		}
		return id.Nil, false, fmt.Errorf("steward/sqlite: get project owner: %w", err)
	}
	orgID, err := id.ParseOrganizationID(m.OrganizationID)
	if err != nil {
		return id.Nil, false, fmt.Errorf("steward/sqlite: get project owner: %w", err)
	}
	return orgID, true, nil
}

func (s *Store) ListProjects(ctx context.Context, filter *project.ListFilter) ([]*project.Project, error) {
	var models []projectModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at ASC")
	if filter != nil {
		if filter.OrganizationID != nil {
			q = q.Where("organization_id = ?", filter.OrganizationID.String())
		}
		if filter.Search != "" {
			q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Search+"%")
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("steward/sqlite: list projects: %w", err)
	}
	result := make([]*project.Project, len(models))
	for i := range models {
		result[i] = projectFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountProjects(ctx context.Context, filter *project.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*projectModel)(nil))
	if filter != nil {
		if filter.OrganizationID != nil {
			q = q.Where("organization_id = ?", filter.OrganizationID.String())
		}
		if filter.Search != "" {
			q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Search+"%")
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("steward/sqlite: count projects: %w", err)
	}
	return count, nil
}

func (s *Store) DeleteProject(ctx context.Context, projectID id.ID) error {
	_, err := s.sdb.NewDelete((*projectModel)(nil)).
		Where("id = ?", projectID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("steward/sqlite: delete project: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Membership operations
// ──────────────────────────────────────────────────

func (s *Store) CreateMembership(ctx context.Context, m *membership.Membership) error {
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now

	// The (scope, resource_id, subject_id) key is unique and revocation
	// keeps the row, so a re-grant reactivates in place instead of
	// inserting a duplicate.
	res, err := s.sdb.NewUpdate((*membershipModel)(nil)).
		Set("role = ?", m.Role).
		Set("is_active = ?", m.IsActive).
		Set("granted_by = ?", m.GrantedBy).
		Set("updated_at = ?", now).
		Where("scope = ?", m.Scope).
		Where("resource_id = ?", m.ResourceID.String()).
		Where("subject_id = ?", m.SubjectID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("steward/sqlite: create membership: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("steward/sqlite: create membership rows: %w", err)
	}
	if n > 0 {
		return nil
	}

	model := membershipToModel(m)
	if _, err := s.sdb.NewInsert(model).Exec(ctx); err != nil {
		return fmt.Errorf("steward/sqlite: create membership: %w", err)
	}
	return nil
}

func (s *Store) GetMembership(ctx context.Context, scope string, resourceID id.ID, subjectID string) (*membership.Membership, error) {
	m := new(membershipModel)
	err := s.sdb.NewSelect(m).
		Where("scope = ?", scope).
		Where("resource_id = ?", resourceID.String()).
		Where("subject_id = ?", subjectID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("membership %s/%s/%s: %w", scope, resourceID, subjectID, membership.ErrNotFound)
		}
		return nil, fmt.Errorf("steward/sqlite: get membership: %w", err)
	}
	return membershipFromModel(m), nil
}

func (s *Store) UpdateMembershipRole(ctx context.Context, scope string, resourceID id.ID, subjectID, role string) error {
	res, err := s.sdb.NewUpdate((*membershipModel)(nil)).
		Set("role = ?", role).
		Set("updated_at = ?", time.Now().UTC()).
		Where("scope = ?", scope).
		Where("resource_id = ?", resourceID.String()).
		Where("subject_id = ?", subjectID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("steward/sqlite: update membership role: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("steward/sqlite: update membership role rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("membership %s/%s/%s: %w", scope, resourceID, subjectID, membership.ErrNotFound)
	}
	return nil
}

func (s *Store) DeactivateMembership(ctx context.Context, scope string, resourceID id.ID, subjectID string) error {
	res, err := s.sdb.NewUpdate((*membershipModel)(nil)).
		Set("is_active = ?", false).
		Set("updated_at = ?", time.Now().UTC()).
		Where("scope = ?", scope).
		Where("resource_id = ?", resourceID.String()).
		Where("subject_id = ?", subjectID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("steward/sqlite: deactivate membership: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("steward/sqlite: deactivate membership rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("membership %s/%s/%s: %w", scope, resourceID, subjectID, membership.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteMembershipsByResource(ctx context.Context, scope string, resourceID id.ID) error {
	_, err := s.sdb.NewDelete((*membershipModel)(nil)).
		Where("scope = ?", scope).
		Where("resource_id = ?", resourceID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("steward/sqlite: delete memberships by resource: %w", err)
	}
	return nil
}

func (s *Store) ListMemberships(ctx context.Context, filter *membership.ListFilter) ([]*membership.Membership, error) {
	var models []membershipModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at ASC")
	if filter != nil {
		if filter.Scope != "" {
			q = q.Where("scope = ?", filter.Scope)
		}
		if filter.ResourceID != nil {
			q = q.Where("resource_id = ?", filter.ResourceID.String())
		}
		if filter.SubjectID != "" {
			q = q.Where("subject_id = ?", filter.SubjectID)
		}
		if filter.Role != "" {
			q = q.Where("role = ?", filter.Role)
		}
		if filter.ActiveOnly {
			q = q.Where("is_active = ?", true)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("steward/sqlite: list memberships: %w", err)
	}
	result := make([]*membership.Membership, len(models))
	for i := range models {
		result[i] = membershipFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountMemberships(ctx context.Context, filter *membership.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*membershipModel)(nil))
	if filter != nil {
		if filter.Scope != "" {
			q = q.Where("scope = ?", filter.Scope)
		}
		if filter.ResourceID != nil {
			q = q.Where("resource_id = ?", filter.ResourceID.String())
		}
		if filter.SubjectID != "" {
			q = q.Where("subject_id = ?", filter.SubjectID)
		}
		if filter.Role != "" {
			q = q.Where("role = ?", filter.Role)
		}
		if filter.ActiveOnly {
			q = q.Where("is_active = ?", true)
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("steward/sqlite: count memberships: %w", err)
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
	count, err := s.sdb.NewSelect((*membershipModel)(nil)).
		Where("scope = ?", membership.ScopeSystem).
		Where("subject_id = ?", subjectID).
		Where("role = ?", "system_admin").
		Where("is_active = ?", true).
		Count(ctx)
	if err != nil {
		return false, fmt.Errorf("steward/sqlite: is system admin: %w", err)
	}
	return count > 0, nil
}

func (s *Store) HasAnyOrganizationAdminRole(ctx context.Context, subjectID string) (bool, error) {
	count, err := s.sdb.NewSelect((*membershipModel)(nil)).
		Where("scope = ?", membership.ScopeOrganization).
		Where("subject_id = ?", subjectID).
		Where("role = ?", "admin").
		Where("is_active = ?", true).
		Count(ctx)
	if err != nil {
		return false, fmt.Errorf("steward/sqlite: has org admin role: %w", err)
	}
	return count > 0, nil
}

func (s *Store) activeRole(ctx context.Context, scope string, resourceID id.ID, subjectID string) (string, error) {
	m := new(membershipModel)
	err := s.sdb.NewSelect(m).
		Where("scope = ?", scope).
		Where("resource_id = ?", resourceID.String()).
		Where("subject_id = ?", subjectID).
		Where("is_active = ?", true).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return "", nil
		}
		return "", fmt.Errorf("steward/sqlite: get %s role: %w", scope, err)
	}
	return m.Role, nil
}

// ──────────────────────────────────────────────────
// Decision log operations
// ──────────────────────────────────────────────────

func (s *Store) CreateDecisionLog(ctx context.Context, e *decisionlog.Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	m := decisionLogToModel(e)
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("steward/sqlite: create decision log: %w", err)
	}
	return nil
}

func (s *Store) GetDecisionLog(ctx context.Context, logID id.ID) (*decisionlog.Entry, error) {
	m := new(decisionLogModel)
	err := s.sdb.NewSelect(m).Where("id = ?", logID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("decision log %s: %w", logID, decisionlog.ErrNotFound)
		}
		return nil, fmt.Errorf("steward/sqlite: get decision log: %w", err)
	}
	return decisionLogFromModel(m), nil
}

func (s *Store) ListDecisionLogs(ctx context.Context, filter *decisionlog.QueryFilter) ([]*decisionlog.Entry, error) {
	var models []decisionLogModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at DESC")
	if filter != nil {
		if filter.Scope != "" {
			q = q.Where("scope = ?", filter.Scope)
		}
		if filter.SubjectID != "" {
			q = q.Where("subject_id = ?", filter.SubjectID)
		}
		if filter.ResourceID != "" {
			q = q.Where("resource_id = ?", filter.ResourceID)
		}
		if filter.Decision != "" {
			q = q.Where("decision = ?", filter.Decision)
		}
		if filter.After != nil {
			q = q.Where("created_at >= ?", *filter.After)
		}
		if filter.Before != nil {
			q = q.Where("created_at <= ?", *filter.Before)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("steward/sqlite: list decision logs: %w", err)
	}
	result := make([]*decisionlog.Entry, len(models))
	for i := range models {
		result[i] = decisionLogFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountDecisionLogs(ctx context.Context, filter *decisionlog.QueryFilter) (int64, error) {
	q := s.sdb.NewSelect((*decisionLogModel)(nil))
	if filter != nil {
		if filter.Scope != "" {
			q = q.Where("scope = ?", filter.Scope)
		}
		if filter.SubjectID != "" {
			q = q.Where("subject_id = ?", filter.SubjectID)
		}
		if filter.ResourceID != "" {
			q = q.Where("resource_id = ?", filter.ResourceID)
		}
		if filter.Decision != "" {
			q = q.Where("decision = ?", filter.Decision)
		}
		if filter.After != nil {
			q = q.Where("created_at >= ?", *filter.After)
		}
		if filter.Before != nil {
			q = q.Where("created_at <= ?", *filter.Before)
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("steward/sqlite: count decision logs: %w", err)
	}
	return count, nil
}

func (s *Store) PurgeDecisionLogs(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.sdb.NewDelete((*decisionLogModel)(nil)).
		Where("created_at < ?", before).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("steward/sqlite: purge decision logs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("steward/sqlite: purge decision logs rows: %w", err)
	}
	return n, nil
}
