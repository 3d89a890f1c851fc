package service

import (
	"context"
	"sort"

	"github.com/treeline-hq/treeline-backend/internal/projects/domain"
	"github.com/treeline-hq/treeline-backend/internal/projects/hierarchy"
	"github.com/treeline-hq/treeline-backend/internal/projects/repository"
)

// HierarchyService answers tenant-scoped traversal queries over the
// project forest. Reads on a missing project id return empty results.
type HierarchyService struct {
	store repository.Store
}

func NewHierarchyService(store repository.Store) *HierarchyService {
	return &HierarchyService{store: store}
}

func (s *HierarchyService) forest(ctx context.Context, orgID string) (*hierarchy.Forest, error) {
	projects, err := s.store.ListProjects(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return hierarchy.Build(projects), nil
}

// Descendants returns every project under projectID, shallow-to-deep,
// excluding projectID itself.
func (s *HierarchyService) Descendants(ctx context.Context, orgID, projectID string) ([]string, error) {
	f, err := s.forest(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return f.Descendants(projectID), nil
}

// Ancestors returns the strict ancestor chain of projectID, root-most
// first.
func (s *HierarchyService) Ancestors(ctx context.Context, orgID, projectID string) ([]string, error) {
	f, err := s.forest(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return f.Ancestors(projectID), nil
}

// EffectiveMembers folds the direct rows of projectID and all of its
// ancestors into one set, deduplicated by user. When a user holds roles
// at several levels the most specific (deepest) one wins, so a direct
// grant on the project overrides anything inherited.
func (s *HierarchyService) EffectiveMembers(ctx context.Context, orgID, projectID string) ([]domain.EffectiveMember, error) {
	f, err := s.forest(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if !f.Contains(projectID) {
		return nil, nil
	}

	chain := append(f.Ancestors(projectID), projectID)
	rows, err := s.store.ListMembersForProjects(ctx, orgID, chain)
	if err != nil {
		return nil, err
	}

	byProject := make(map[string][]domain.ProjectMembership, len(chain))
	for _, m := range rows {
		byProject[m.ProjectID] = append(byProject[m.ProjectID], m)
	}

	// Walk root-most to the project itself so deeper rows overwrite
	// shallower ones.
	resolved := make(map[string]domain.EffectiveMember)
	for _, pid := range chain {
		for _, m := range byProject[pid] {
			resolved[m.UserID] = domain.EffectiveMember{
				UserID: m.UserID,
				Role:   m.Role,
				Source: pid,
			}
		}
	}

	out := make([]domain.EffectiveMember, 0, len(resolved))
	for _, em := range resolved {
		out = append(out, em)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}
