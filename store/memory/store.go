// Package memory provides an in-memory implementation of the Steward
// composite store. It is intended for testing and development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xraph/steward/decisionlog"
	"github.com/xraph/steward/id"
	"github.com/xraph/steward/membership"
	"github.com/xraph/steward/organization"
	"github.com/xraph/steward/project"
)

// Compile-time interface checks.
var (
	_ organization.Store = (*Store)(nil)
	_ project.Store      = (*Store)(nil)
	_ membership.Store   = (*Store)(nil)
	_ decisionlog.Store  = (*Store)(nil)
)

// Store is a thread-safe in-memory store for all Steward entities.
type Store struct {
	mu sync.RWMutex

	organizations map[string]*organization.Organization
	projects      map[string]*project.Project
	memberships   map[string]*membership.Membership // keyed scope/resource/subject
	decisionLogs  map[string]*decisionlog.Entry
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		organizations: make(map[string]*organization.Organization),
		projects:      make(map[string]*project.Project),
		memberships:   make(map[string]*membership.Membership),
		decisionLogs:  make(map[string]*decisionlog.Entry),
	}
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for the memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (s *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Organization Store
// ──────────────────────────────────────────────────

func (s *Store) CreateOrganization(_ context.Context, o *organization.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.organizations[o.ID.String()] = copyOrganization(o)
	return nil
}

func (s *Store) GetOrganization(_ context.Context, orgID id.ID) (*organization.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.organizations[orgID.String()]
	if !ok {
		return nil, fmt.Errorf("organization %s: %w", orgID, organization.ErrNotFound)
	}
	return copyOrganization(o), nil
}

func (s *Store) ListOrganizations(_ context.Context, filter *organization.ListFilter) ([]*organization.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*organization.Organization, 0, len(s.organizations))
	for _, o := range s.organizations {
		if filter != nil && filter.Search != "" &&
			!strings.Contains(strings.ToLower(o.Name), strings.ToLower(filter.Search)) {
			continue
		}
		result = append(result, copyOrganization(o))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	var p pagOpts
	if filter != nil {
		p = pagOpts{limit: filter.Limit, offset: filter.Offset}
	}
	return applyPagination(result, p), nil
}

func (s *Store) CountOrganizations(ctx context.Context, filter *organization.ListFilter) (int64, error) {
	var unpaged *organization.ListFilter
	if filter != nil {
		f := *filter
		f.Limit, f.Offset = 0, 0
		unpaged = &f
	}
	list, err := s.ListOrganizations(ctx, unpaged)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (s *Store) DeleteOrganization(_ context.Context, orgID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.organizations, orgID.String())
	return nil
}

// ──────────────────────────────────────────────────
// Project Store
// ──────────────────────────────────────────────────

func (s *Store) CreateProject(_ context.Context, p *project.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID.String()] = copyProject(p)
	return nil
}

func (s *Store) GetProject(_ context.Context, projectID id.ID) (*project.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[projectID.String()]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", projectID, project.ErrNotFound)
	}
	return copyProject(p), nil
}

func (s *Store) GetProjectOwningOrganization(_ context.Context, projectID id.ID) (id.ID, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[projectID.String()]
	if !ok {
		return id.Nil, false, nil
	}
	return p.OrganizationID, true, nil
}

func (s *Store) ListProjects(_ context.Context, filter *project.ListFilter) ([]*project.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*project.Project, 0, len(s.projects))
	for _, p := range s.projects {
		if filter != nil {
			if filter.OrganizationID != nil && p.OrganizationID != *filter.OrganizationID {
				continue
			}
			if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
				continue
			}
		}
		result = append(result, copyProject(p))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	var p pagOpts
	if filter != nil {
		p = pagOpts{limit: filter.Limit, offset: filter.Offset}
	}
	return applyPagination(result, p), nil
}

func (s *Store) CountProjects(ctx context.Context, filter *project.ListFilter) (int64, error) {
	var unpaged *project.ListFilter
	if filter != nil {
		f := *filter
		f.Limit, f.Offset = 0, 0
		unpaged = &f
	}
	list, err := s.ListProjects(ctx, unpaged)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (s *Store) DeleteProject(_ context.Context, projectID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.projects, projectID.String())
	return nil
}

// ──────────────────────────────────────────────────
// Membership Store
// ──────────────────────────────────────────────────

func (s *Store) CreateMembership(_ context.Context, m *membership.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memberships[membershipKey(m.Scope, m.ResourceID, m.SubjectID)] = copyMembership(m)
	return nil
}

func (s *Store) GetMembership(_ context.Context, scope string, resourceID id.ID, subjectID string) (*membership.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.memberships[membershipKey(scope, resourceID, subjectID)]
	if !ok {
		return nil, fmt.Errorf("membership %s/%s/%s: %w", scope, resourceID, subjectID, membership.ErrNotFound)
	}
	return copyMembership(m), nil
}

func (s *Store) UpdateMembershipRole(_ context.Context, scope string, resourceID id.ID, subjectID, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.memberships[membershipKey(scope, resourceID, subjectID)]
	if !ok {
		return fmt.Errorf("membership %s/%s/%s: %w", scope, resourceID, subjectID, membership.ErrNotFound)
	}
	m.Role = role
	m.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) DeactivateMembership(_ context.Context, scope string, resourceID id.ID, subjectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.memberships[membershipKey(scope, resourceID, subjectID)]
	if !ok {
		return fmt.Errorf("membership %s/%s/%s: %w", scope, resourceID, subjectID, membership.ErrNotFound)
	}
	m.IsActive = false
	m.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) DeleteMembershipsByResource(_ context.Context, scope string, resourceID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, m := range s.memberships {
		if m.Scope == scope && m.ResourceID == resourceID {
			delete(s.memberships, k)
		}
	}
	return nil
}

func (s *Store) ListMemberships(_ context.Context, filter *membership.ListFilter) ([]*membership.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*membership.Membership, 0, len(s.memberships))
	for _, m := range s.memberships {
		if filter != nil {
			if filter.Scope != "" && m.Scope != filter.Scope {
				continue
			}
			if filter.ResourceID != nil && m.ResourceID != *filter.ResourceID {
				continue
			}
			if filter.SubjectID != "" && m.SubjectID != filter.SubjectID {
				continue
			}
			if filter.Role != "" && m.Role != filter.Role {
				continue
			}
			if filter.ActiveOnly && !m.IsActive {
				continue
			}
		}
		result = append(result, copyMembership(m))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	var p pagOpts
	if filter != nil {
		p = pagOpts{limit: filter.Limit, offset: filter.Offset}
	}
	return applyPagination(result, p), nil
}

func (s *Store) CountMemberships(ctx context.Context, filter *membership.ListFilter) (int64, error) {
	var unpaged *membership.ListFilter
	if filter != nil {
		f := *filter
		f.Limit, f.Offset = 0, 0
		unpaged = &f
	}
	list, err := s.ListMemberships(ctx, unpaged)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (s *Store) GetOrganizationRole(_ context.Context, orgID id.ID, subjectID string) (string, error) {
	return s.activeRole(membership.ScopeOrganization, orgID, subjectID), nil
}

func (s *Store) GetProjectRole(_ context.Context, projectID id.ID, subjectID string) (string, error) {
	return s.activeRole(membership.ScopeProject, projectID, subjectID), nil
}

func (s *Store) IsSystemAdmin(_ context.Context, subjectID string) (bool, error) {
	return s.activeRole(membership.ScopeSystem, id.Nil, subjectID) == "system_admin", nil
}

func (s *Store) HasAnyOrganizationAdminRole(_ context.Context, subjectID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.memberships {
		if m.Scope == membership.ScopeOrganization && m.SubjectID == subjectID &&
			m.IsActive && m.Role == "admin" {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) activeRole(scope string, resourceID id.ID, subjectID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.memberships[membershipKey(scope, resourceID, subjectID)]
	if !ok || !m.IsActive {
		return ""
	}
	return m.Role
}

// ──────────────────────────────────────────────────
// Decision Log Store
// ──────────────────────────────────────────────────

func (s *Store) CreateDecisionLog(_ context.Context, e *decisionlog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisionLogs[e.ID.String()] = copyDecisionLog(e)
	return nil
}

func (s *Store) GetDecisionLog(_ context.Context, logID id.ID) (*decisionlog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.decisionLogs[logID.String()]
	if !ok {
		return nil, fmt.Errorf("decision log %s: %w", logID, decisionlog.ErrNotFound)
	}
	return copyDecisionLog(e), nil
}

func (s *Store) ListDecisionLogs(_ context.Context, filter *decisionlog.QueryFilter) ([]*decisionlog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*decisionlog.Entry, 0, len(s.decisionLogs))
	for _, e := range s.decisionLogs {
		if filter != nil {
			if filter.Scope != "" && e.Scope != filter.Scope {
				continue
			}
			if filter.SubjectID != "" && e.SubjectID != filter.SubjectID {
				continue
			}
			if filter.ResourceID != "" && e.ResourceID != filter.ResourceID {
				continue
			}
			if filter.Decision != "" && e.Decision != filter.Decision {
				continue
			}
			if filter.After != nil && !e.CreatedAt.After(*filter.After) {
				continue
			}
			if filter.Before != nil && !e.CreatedAt.Before(*filter.Before) {
				continue
			}
		}
		result = append(result, copyDecisionLog(e))
	}
	// Most recent first.
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	var p pagOpts
	if filter != nil {
		p = pagOpts{limit: filter.Limit, offset: filter.Offset}
	}
	return applyPagination(result, p), nil
}

func (s *Store) CountDecisionLogs(ctx context.Context, filter *decisionlog.QueryFilter) (int64, error) {
	var unpaged *decisionlog.QueryFilter
	if filter != nil {
		f := *filter
		f.Limit, f.Offset = 0, 0
		unpaged = &f
	}
	list, err := s.ListDecisionLogs(ctx, unpaged)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (s *Store) PurgeDecisionLogs(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, e := range s.decisionLogs {
		if e.CreatedAt.Before(before) {
			delete(s.decisionLogs, k)
			n++
		}
	}
	return n, nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func membershipKey(scope string, resourceID id.ID, subjectID string) string {
	return scope + "/" + resourceID.String() + "/" + subjectID
}

func copyOrganization(o *organization.Organization) *organization.Organization {
	c := *o
	return &c
}

func copyProject(p *project.Project) *project.Project {
	c := *p
	return &c
}

func copyMembership(m *membership.Membership) *membership.Membership {
	c := *m
	return &c
}

func copyDecisionLog(e *decisionlog.Entry) *decisionlog.Entry {
	c := *e
	return &c
}

type pagOpts struct{ limit, offset int }

func applyPagination[T any](items []*T, p pagOpts) []*T {
	if p.offset > 0 && p.offset < len(items) {
		items = items[p.offset:]
	} else if p.offset >= len(items) && p.offset > 0 {
		return nil
	}
	if p.limit > 0 && p.limit < len(items) {
		items = items[:p.limit]
	}
	return items
}
