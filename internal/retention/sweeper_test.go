package retention

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treeline-hq/treeline-backend/internal/logger"
	"github.com/treeline-hq/treeline-backend/internal/projects/domain"
	"github.com/treeline-hq/treeline-backend/internal/projects/repository/repositorytest"
	"github.com/treeline-hq/treeline-backend/internal/projects/service"
)

func TestSweeperPurgesArchivedSubtrees(t *testing.T) {
	ctx := context.Background()
	store := repositorytest.New()
	projects := service.NewProjectService(store)

	root, err := projects.Create(ctx, service.CreateProject{
		OrgID: "org-1", Name: "Old", CreatorID: "alice",
	})
	require.NoError(t, err)
	child, err := projects.Create(ctx, service.CreateProject{
		OrgID: "org-1", Name: "Old Child", CreatorID: "alice", ParentID: &root.ID,
	})
	require.NoError(t, err)
	live, err := projects.Create(ctx, service.CreateProject{
		OrgID: "org-1", Name: "Live", CreatorID: "alice",
	})
	require.NoError(t, err)

	require.NoError(t, projects.Archive(ctx, "org-1", root.ID))

	// a zero retention window purges anything already archived
	s := NewSweeper(projects, logger.New("test", "error", "sweeper-test"), "0 0 3 * * *", 0)
	s.runOnce()

	for _, id := range []string{root.ID, child.ID} {
		_, err := store.GetProject(ctx, "org-1", id)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
	_, err = store.GetProject(ctx, "org-1", live.ID)
	assert.NoError(t, err, "non-archived project untouched")
}

func TestSweeperRespectsRetentionWindow(t *testing.T) {
	ctx := context.Background()
	store := repositorytest.New()
	projects := service.NewProjectService(store)

	p, err := projects.Create(ctx, service.CreateProject{
		OrgID: "org-1", Name: "Recent", CreatorID: "alice",
	})
	require.NoError(t, err)
	require.NoError(t, projects.Archive(ctx, "org-1", p.ID))

	s := NewSweeper(projects, logger.New("test", "error", "sweeper-test"), "0 0 3 * * *", 30*24*time.Hour)
	s.runOnce()

	got, err := store.GetProject(ctx, "org-1", p.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.DeletedAt, "still archived, not yet purged")
}

func TestSweeperRejectsBadSchedule(t *testing.T) {
	store := repositorytest.New()
	projects := service.NewProjectService(store)

	s := NewSweeper(projects, logger.New("test", "error", "sweeper-test"), "not a schedule", time.Hour)
	err := s.Start()
	assert.Error(t, err)
}
