package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/treeline-hq/treeline-backend/internal/projects/domain"
	"github.com/treeline-hq/treeline-backend/internal/projects/repository/repositorytest"
)

const testOrg = "org-1"

type testEnv struct {
	store    *repositorytest.MemStore
	projects *ProjectService
	members  *MembershipService
	access   *AccessService
	hier     *HierarchyService
	tasks    *TaskService
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	store := repositorytest.New()
	return &testEnv{
		store:    store,
		projects: NewProjectService(store),
		members:  NewMembershipService(store),
		access:   NewAccessService(store),
		hier:     NewHierarchyService(store),
		tasks:    NewTaskService(store),
	}
}

func (e *testEnv) mustCreate(t *testing.T, name, creator string, parentID *string) *domain.Project {
	t.Helper()
	p, err := e.projects.Create(context.Background(), CreateProject{
		OrgID:     testOrg,
		Name:      name,
		CreatorID: creator,
		ParentID:  parentID,
	})
	require.NoError(t, err)
	return p
}

// mustTree builds root -> mid -> leaf, all created by the given user.
func (e *testEnv) mustTree(t *testing.T, creator string) (root, mid, leaf *domain.Project) {
	t.Helper()
	root = e.mustCreate(t, "Root", creator, nil)
	mid = e.mustCreate(t, "Mid", creator, &root.ID)
	leaf = e.mustCreate(t, "Leaf", creator, &mid.ID)
	return root, mid, leaf
}
