// Package repositorytest provides an in-memory Store for service and
// handler tests: same semantics as the Postgres repo, including
// transactional rollback, without a database.
package repositorytest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/treeline-hq/treeline-backend/internal/projects/domain"
	"github.com/treeline-hq/treeline-backend/internal/projects/repository"
)

type MemStore struct {
	mu       sync.Mutex
	txDepth  int
	seq      int
	projects map[string]domain.Project           // org/id
	members  map[string]domain.ProjectMembership // org/project/user
	settings map[string]domain.ProjectSettings   // org/project
	tasks    map[string]domain.Task              // org/project/task
	order    map[string]int                      // insertion order for stable listings
}

var _ repository.Store = (*MemStore)(nil)

func New() *MemStore {
	return &MemStore{
		projects: make(map[string]domain.Project),
		members:  make(map[string]domain.ProjectMembership),
		settings: make(map[string]domain.ProjectSettings),
		tasks:    make(map[string]domain.Task),
		order:    make(map[string]int),
	}
}

func key(parts ...string) string { return strings.Join(parts, "/") }

func (s *MemStore) next() int {
	s.seq++
	return s.seq
}

// InTx snapshots state and restores it when fn fails, mirroring the
// all-or-nothing contract of the Postgres repo. Nested calls join the
// outer transaction.
func (s *MemStore) InTx(ctx context.Context, fn func(repository.Store) error) error {
	s.mu.Lock()
	s.txDepth++
	nested := s.txDepth > 1
	var snap *MemStore
	if !nested {
		snap = s.snapshotLocked()
	}
	s.mu.Unlock()

	err := fn(s)

	s.mu.Lock()
	s.txDepth--
	if err != nil && !nested {
		s.restoreLocked(snap)
	}
	s.mu.Unlock()
	return err
}

func (s *MemStore) snapshotLocked() *MemStore {
	snap := New()
	snap.seq = s.seq
	for k, v := range s.projects {
		snap.projects[k] = v
	}
	for k, v := range s.members {
		snap.members[k] = v
	}
	for k, v := range s.settings {
		snap.settings[k] = v
	}
	for k, v := range s.tasks {
		snap.tasks[k] = v
	}
	for k, v := range s.order {
		snap.order[k] = v
	}
	return snap
}

func (s *MemStore) restoreLocked(snap *MemStore) {
	s.seq = snap.seq
	s.projects = snap.projects
	s.members = snap.members
	s.settings = snap.settings
	s.tasks = snap.tasks
	s.order = snap.order
}

// --- projects ---

func (s *MemStore) ListProjects(ctx context.Context, orgID string) ([]domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Project
	for _, p := range s.projects {
		if p.OrgID == orgID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return s.order[key(orgID, out[i].ID)] < s.order[key(orgID, out[j].ID)]
	})
	return out, nil
}

func (s *MemStore) GetProject(ctx context.Context, orgID, projectID string) (*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[key(orgID, projectID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := p
	return &cp, nil
}

func (s *MemStore) InsertProject(ctx context.Context, p *domain.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	k := key(p.OrgID, p.ID)
	s.projects[k] = *p
	s.order[k] = s.next()
	return nil
}

func (s *MemStore) UpdateProject(ctx context.Context, orgID, projectID string, patch domain.ProjectPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(orgID, projectID)
	p, ok := s.projects[k]
	if !ok || p.DeletedAt != nil {
		return domain.ErrNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Slug != nil {
		p.Slug = *patch.Slug
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.Severity != nil {
		p.Severity = *patch.Severity
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.StartAt != nil {
		p.StartAt = patch.StartAt
	}
	if patch.EndAt != nil {
		p.EndAt = patch.EndAt
	}
	if patch.SetParent != nil {
		p.ParentID = patch.SetParent.Parent
	}
	p.UpdatedAt = time.Now()
	s.projects[k] = p
	return nil
}

func (s *MemStore) ArchiveProjects(ctx context.Context, orgID string, projectIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for _, id := range projectIDs {
		k := key(orgID, id)
		if p, ok := s.projects[k]; ok && p.DeletedAt == nil {
			p.DeletedAt = &now
			p.UpdatedAt = now
			s.projects[k] = p
		}
	}
	return nil
}

func (s *MemStore) ListArchivedRootsBefore(ctx context.Context, cutoff time.Time) ([]domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Project
	for _, p := range s.projects {
		if p.DeletedAt == nil || !p.DeletedAt.Before(cutoff) {
			continue
		}
		if p.ParentID != nil {
			if parent, ok := s.projects[key(p.OrgID, *p.ParentID)]; ok && parent.DeletedAt != nil {
				continue
			}
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) DeleteProjectRow(ctx context.Context, orgID, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.projects, key(orgID, projectID))
	return nil
}

// --- members ---

func (s *MemStore) ListMembers(ctx context.Context, orgID, projectID string) ([]domain.ProjectMembership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.membersOfLocked(orgID, map[string]bool{projectID: true}), nil
}

func (s *MemStore) ListMembersForProjects(ctx context.Context, orgID string, projectIDs []string) ([]domain.ProjectMembership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := make(map[string]bool, len(projectIDs))
	for _, id := range projectIDs {
		want[id] = true
	}
	return s.membersOfLocked(orgID, want), nil
}

func (s *MemStore) membersOfLocked(orgID string, projectIDs map[string]bool) []domain.ProjectMembership {
	var out []domain.ProjectMembership
	for _, m := range s.members {
		if m.OrgID == orgID && projectIDs[m.ProjectID] {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		oi := s.order[key(orgID, out[i].ProjectID, out[i].UserID, "m")]
		oj := s.order[key(orgID, out[j].ProjectID, out[j].UserID, "m")]
		return oi < oj
	})
	return out
}

func (s *MemStore) UpsertMember(ctx context.Context, m domain.ProjectMembership) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(m.OrgID, m.ProjectID, m.UserID)
	if existing, ok := s.members[k]; ok {
		existing.Role = m.Role
		s.members[k] = existing
		return nil
	}
	m.AddedAt = time.Now()
	s.members[k] = m
	s.order[k+"/m"] = s.next()
	return nil
}

func (s *MemStore) InsertMemberIfAbsent(ctx context.Context, m domain.ProjectMembership) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(m.OrgID, m.ProjectID, m.UserID)
	if _, ok := s.members[k]; ok {
		return nil
	}
	m.AddedAt = time.Now()
	s.members[k] = m
	s.order[k+"/m"] = s.next()
	return nil
}

func (s *MemStore) DeleteMember(ctx context.Context, orgID, projectID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.members, key(orgID, projectID, userID))
	return nil
}

func (s *MemStore) DeleteProjectMembers(ctx context.Context, orgID, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := key(orgID, projectID) + "/"
	for k := range s.members {
		if strings.HasPrefix(k, prefix) {
			delete(s.members, k)
		}
	}
	return nil
}

func (s *MemStore) HasMember(ctx context.Context, orgID, projectID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.members[key(orgID, projectID, userID)]
	return ok, nil
}

func (s *MemStore) GetMemberRole(ctx context.Context, orgID, projectID, userID string) (domain.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[key(orgID, projectID, userID)]
	if !ok {
		return "", domain.ErrNotFound
	}
	return m.Role, nil
}

func (s *MemStore) ListProjectIDsForUser(ctx context.Context, orgID, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []string
	for _, m := range s.members {
		if m.OrgID == orgID && m.UserID == userID {
			out = append(out, m.ProjectID)
		}
	}
	sort.Strings(out)
	return out, nil
}

// --- settings ---

func (s *MemStore) InsertSettings(ctx context.Context, st domain.ProjectSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st.UpdatedAt = time.Now()
	s.settings[key(st.OrgID, st.ProjectID)] = st
	return nil
}

func (s *MemStore) GetSettings(ctx context.Context, orgID, projectID string) (*domain.ProjectSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.settings[key(orgID, projectID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := st
	return &cp, nil
}

func (s *MemStore) UpdateSettings(ctx context.Context, orgID, projectID string, patch domain.SettingsPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(orgID, projectID)
	st, ok := s.settings[k]
	if !ok {
		return domain.ErrNotFound
	}
	if patch.AutoAssignCreator != nil {
		st.AutoAssignCreator = *patch.AutoAssignCreator
	}
	if patch.AutoAssignMembers != nil {
		st.AutoAssignMembers = *patch.AutoAssignMembers
	}
	if patch.DefaultDueDays != nil {
		st.DefaultDueDays = *patch.DefaultDueDays
	}
	if patch.DefaultPriority != nil {
		st.DefaultPriority = *patch.DefaultPriority
	}
	if patch.NotifyOnStatus != nil {
		st.NotifyOnStatus = *patch.NotifyOnStatus
	}
	if patch.NotifyOnAssign != nil {
		st.NotifyOnAssign = *patch.NotifyOnAssign
	}
	st.UpdatedAt = time.Now()
	s.settings[k] = st
	return nil
}

func (s *MemStore) DeleteSettings(ctx context.Context, orgID, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.settings, key(orgID, projectID))
	return nil
}

// --- tasks ---

func (s *MemStore) ListTasks(ctx context.Context, orgID, projectID string) ([]domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Task
	for _, t := range s.tasks {
		if t.OrgID == orgID && t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return s.order[key(orgID, projectID, out[i].ID, "t")] < s.order[key(orgID, projectID, out[j].ID, "t")]
	})
	return out, nil
}

func (s *MemStore) GetTask(ctx context.Context, orgID, projectID, taskID string) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[key(orgID, projectID, taskID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := t
	cp.Assignees = append([]string(nil), t.Assignees...)
	return &cp, nil
}

func (s *MemStore) InsertTask(ctx context.Context, t *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	k := key(t.OrgID, t.ProjectID, t.ID)
	cp := *t
	cp.Assignees = append([]string(nil), t.Assignees...)
	s.tasks[k] = cp
	s.order[k+"/t"] = s.next()
	return nil
}

func (s *MemStore) IsTaskAssignee(ctx context.Context, orgID, taskID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tasks {
		if t.OrgID == orgID && t.ID == taskID {
			for _, uid := range t.Assignees {
				if uid == userID {
					return true, nil
				}
			}
			return false, nil
		}
	}
	return false, nil
}

func (s *MemStore) DeleteTaskData(ctx context.Context, orgID, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := key(orgID, projectID) + "/"
	for k := range s.tasks {
		if strings.HasPrefix(k, prefix) {
			delete(s.tasks, k)
		}
	}
	return nil
}
