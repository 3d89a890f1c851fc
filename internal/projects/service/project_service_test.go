package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treeline-hq/treeline-backend/internal/projects/domain"
)

func TestCreateRootProject(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	p := e.mustCreate(t, "Platform", "alice", nil)
	assert.NotEmpty(t, p.ID)
	assert.Nil(t, p.ParentID)
	assert.Equal(t, domain.StatusPlanning, p.Status)
	assert.Equal(t, domain.SeverityMedium, p.Severity)
	assert.Equal(t, "platform", p.Slug)

	// default settings row exists
	st, err := e.projects.GetSettings(ctx, testOrg, p.ID)
	require.NoError(t, err)
	assert.True(t, st.AutoAssignCreator)
	assert.Equal(t, 14, st.DefaultDueDays)
	assert.Equal(t, domain.SeverityMedium, st.DefaultPriority)

	// creator holds ADMIN
	admin, err := e.access.IsAdmin(ctx, testOrg, p.ID, "alice", false)
	require.NoError(t, err)
	assert.True(t, admin)
}

func TestCreateValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.projects.Create(ctx, CreateProject{OrgID: testOrg, Name: "  ", CreatorID: "alice"})
	assert.Error(t, err)

	_, err = e.projects.Create(ctx, CreateProject{OrgID: testOrg, Name: "X", CreatorID: ""})
	assert.Error(t, err)

	_, err = e.projects.Create(ctx, CreateProject{
		OrgID: testOrg, Name: "X", CreatorID: "alice", Status: domain.Status("BOGUS"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalid)
}

func TestCreateChildSeedsParentMembers(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	parent := e.mustCreate(t, "Parent", "alice", nil)
	require.NoError(t, e.members.AddUserToSubtree(ctx, testOrg, parent.ID, "bob", domain.RoleViewer))

	child := e.mustCreate(t, "Child", "carol", &parent.ID)

	// parent's members land on the child
	for _, uid := range []string{"alice", "bob"} {
		ok, err := e.access.HasAccess(ctx, testOrg, child.ID, uid, false)
		require.NoError(t, err)
		assert.True(t, ok, "seeded member %s", uid)
	}

	// the creator's ADMIN row is written first and never downgraded by
	// inherited roles
	role, err := e.store.GetMemberRole(ctx, testOrg, child.ID, "carol")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, role)
}

func TestCreateChildOfMissingParent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	missing := "prj-00000-0000"
	_, err := e.projects.Create(ctx, CreateProject{
		OrgID: testOrg, Name: "Orphan", CreatorID: "alice", ParentID: &missing,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// nothing half-written
	all, err := e.store.ListProjects(ctx, testOrg)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateChildOfArchivedParent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	parent := e.mustCreate(t, "Parent", "alice", nil)
	require.NoError(t, e.projects.Archive(ctx, testOrg, parent.ID))

	_, err := e.projects.Create(ctx, CreateProject{
		OrgID: testOrg, Name: "Child", CreatorID: "alice", ParentID: &parent.ID,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteCascadesWholeSubtree(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	root, mid, leaf := e.mustTree(t, "alice")
	sibling := e.mustCreate(t, "Sibling", "alice", nil)

	_, err := e.tasks.Create(ctx, CreateTask{
		OrgID: testOrg, ProjectID: leaf.ID, Title: "deep task", CreatorID: "alice",
	})
	require.NoError(t, err)

	require.NoError(t, e.projects.Delete(ctx, testOrg, root.ID))

	for _, id := range []string{root.ID, mid.ID, leaf.ID} {
		_, err := e.store.GetProject(ctx, testOrg, id)
		assert.ErrorIs(t, err, domain.ErrNotFound, "project %s", id)

		_, err = e.store.GetSettings(ctx, testOrg, id)
		assert.ErrorIs(t, err, domain.ErrNotFound, "settings %s", id)

		members, err := e.store.ListMembers(ctx, testOrg, id)
		require.NoError(t, err)
		assert.Empty(t, members, "members %s", id)

		tasks, err := e.store.ListTasks(ctx, testOrg, id)
		require.NoError(t, err)
		assert.Empty(t, tasks, "tasks %s", id)
	}

	// unrelated tree untouched
	_, err = e.store.GetProject(ctx, testOrg, sibling.ID)
	assert.NoError(t, err)
}

func TestDeleteMissingProject(t *testing.T) {
	e := newEnv(t)
	err := e.projects.Delete(context.Background(), testOrg, "prj-00000-0000")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateReparent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	root, mid, leaf := e.mustTree(t, "alice")
	other := e.mustCreate(t, "Other", "alice", nil)

	// moving leaf under the other root is fine
	p, err := e.projects.Update(ctx, testOrg, leaf.ID, domain.ProjectPatch{
		SetParent: &domain.ParentChange{Parent: &other.ID},
	})
	require.NoError(t, err)
	require.NotNil(t, p.ParentID)
	assert.Equal(t, other.ID, *p.ParentID)

	// making mid a root
	p, err = e.projects.Update(ctx, testOrg, mid.ID, domain.ProjectPatch{
		SetParent: &domain.ParentChange{Parent: nil},
	})
	require.NoError(t, err)
	assert.Nil(t, p.ParentID)

	// reparenting under a descendant is a cycle
	require.NoError(t, err)
	_, err = e.projects.Update(ctx, testOrg, other.ID, domain.ProjectPatch{
		SetParent: &domain.ParentChange{Parent: &leaf.ID},
	})
	assert.ErrorIs(t, err, domain.ErrCycle)

	// self-parent is a cycle
	_, err = e.projects.Update(ctx, testOrg, root.ID, domain.ProjectPatch{
		SetParent: &domain.ParentChange{Parent: &root.ID},
	})
	assert.ErrorIs(t, err, domain.ErrCycle)

	// unknown new parent
	missing := "prj-00000-0000"
	_, err = e.projects.Update(ctx, testOrg, root.ID, domain.ProjectPatch{
		SetParent: &domain.ParentChange{Parent: &missing},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReparentUnderArchivedParent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	live := e.mustCreate(t, "Live", "alice", nil)
	graveyard := e.mustCreate(t, "Graveyard", "alice", nil)
	require.NoError(t, e.projects.Archive(ctx, testOrg, graveyard.ID))

	_, err := e.projects.Update(ctx, testOrg, live.ID, domain.ProjectPatch{
		SetParent: &domain.ParentChange{Parent: &graveyard.ID},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound, "archived parent rejected like a missing one")

	// the live project stays a root and survives the retention purge of
	// the archived tree
	n, err := e.projects.PurgeArchived(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := e.store.GetProject(ctx, testOrg, live.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ParentID)
	assert.Nil(t, got.DeletedAt)
}

func TestUpdateFields(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	p := e.mustCreate(t, "Platform", "alice", nil)

	name := "Platform Core"
	status := domain.StatusActive
	updated, err := e.projects.Update(ctx, testOrg, p.ID, domain.ProjectPatch{
		Name: &name, Status: &status,
	})
	require.NoError(t, err)
	assert.Equal(t, "Platform Core", updated.Name)
	assert.Equal(t, domain.StatusActive, updated.Status)
	assert.Equal(t, p.Slug, updated.Slug, "untouched field keeps its value")

	bad := domain.Status("NOPE")
	_, err = e.projects.Update(ctx, testOrg, p.ID, domain.ProjectPatch{Status: &bad})
	assert.Error(t, err)
}

func TestArchiveHidesSubtree(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	root, mid, leaf := e.mustTree(t, "alice")
	keep := e.mustCreate(t, "Keep", "alice", nil)

	require.NoError(t, e.projects.Archive(ctx, testOrg, mid.ID))

	_, err := e.projects.Get(ctx, testOrg, mid.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = e.projects.Get(ctx, testOrg, leaf.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = e.projects.Get(ctx, testOrg, root.ID)
	assert.NoError(t, err, "ancestor of the archived subtree stays visible")

	visible, err := e.projects.List(ctx, testOrg, "alice", false)
	require.NoError(t, err)
	ids := make([]string, 0, len(visible))
	for _, p := range visible {
		ids = append(ids, p.ID)
	}
	assert.ElementsMatch(t, []string{root.ID, keep.ID}, ids)
}

func TestPurgeArchived(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	root, mid, leaf := e.mustTree(t, "alice")
	fresh := e.mustCreate(t, "Fresh", "alice", nil)

	require.NoError(t, e.projects.Archive(ctx, testOrg, root.ID))
	require.NoError(t, e.projects.Archive(ctx, testOrg, fresh.ID))

	// only subtrees archived before the cutoff go; a future cutoff takes
	// both, a past cutoff takes none
	n, err := e.projects.PurgeArchived(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = e.projects.PurgeArchived(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, n, "two archived roots: the subtree root and the standalone project")

	for _, id := range []string{root.ID, mid.ID, leaf.ID, fresh.ID} {
		_, err := e.store.GetProject(ctx, testOrg, id)
		assert.True(t, errors.Is(err, domain.ErrNotFound), "project %s should be gone", id)
	}
}

func TestListScopedByMembership(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	mine := e.mustCreate(t, "Mine", "alice", nil)
	other := e.mustCreate(t, "Other", "bob", nil)

	visible, err := e.projects.List(ctx, testOrg, "alice", false)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, mine.ID, visible[0].ID)

	// super admin sees everything
	visible, err = e.projects.List(ctx, testOrg, "root-user", true)
	require.NoError(t, err)
	assert.Len(t, visible, 2)
	_ = other
}

func TestListReturnsTreeOrder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	rootA := e.mustCreate(t, "A", "alice", nil)
	rootB := e.mustCreate(t, "B", "alice", nil)
	childA := e.mustCreate(t, "A Child", "alice", &rootA.ID)

	// childA was created after rootB, but listing groups each root with
	// its subtree
	visible, err := e.projects.List(ctx, testOrg, "alice", false)
	require.NoError(t, err)
	ids := make([]string, 0, len(visible))
	for _, p := range visible {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{rootA.ID, childA.ID, rootB.ID}, ids)
}

func TestUpdateSettings(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	p := e.mustCreate(t, "Platform", "alice", nil)

	off := false
	days := 30
	st, err := e.projects.UpdateSettings(ctx, testOrg, p.ID, domain.SettingsPatch{
		AutoAssignCreator: &off, DefaultDueDays: &days,
	})
	require.NoError(t, err)
	assert.False(t, st.AutoAssignCreator)
	assert.Equal(t, 30, st.DefaultDueDays)
	assert.Equal(t, domain.SeverityMedium, st.DefaultPriority, "unpatched field untouched")

	bad := domain.Severity("NOPE")
	_, err = e.projects.UpdateSettings(ctx, testOrg, p.ID, domain.SettingsPatch{DefaultPriority: &bad})
	assert.Error(t, err)

	_, err = e.projects.UpdateSettings(ctx, testOrg, "prj-00000-0000", domain.SettingsPatch{DefaultDueDays: &days})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
