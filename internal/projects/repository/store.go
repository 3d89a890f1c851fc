package repository

import (
	"context"
	"time"

	"github.com/treeline-hq/treeline-backend/internal/projects/domain"
)

// Store is the persistence surface the project services run against. The
// pgx-backed Repo implements it; tests use an in-memory fake. Every
// method is scoped by org id — no cross-tenant read or write is
// expressible through this interface.
type Store interface {
	// InTx runs fn inside a single transaction and passes it a Store
	// bound to that transaction. Nested calls reuse the enclosing
	// transaction. On error everything rolls back.
	InTx(ctx context.Context, fn func(Store) error) error

	// Projects. ListProjects returns every row in the org, archived
	// included, so traversal sees the whole forest.
	ListProjects(ctx context.Context, orgID string) ([]domain.Project, error)
	GetProject(ctx context.Context, orgID, projectID string) (*domain.Project, error)
	InsertProject(ctx context.Context, p *domain.Project) error
	UpdateProject(ctx context.Context, orgID, projectID string, patch domain.ProjectPatch) error
	ArchiveProjects(ctx context.Context, orgID string, projectIDs []string) error
	ListArchivedRootsBefore(ctx context.Context, cutoff time.Time) ([]domain.Project, error)
	DeleteProjectRow(ctx context.Context, orgID, projectID string) error

	// Direct membership rows.
	ListMembers(ctx context.Context, orgID, projectID string) ([]domain.ProjectMembership, error)
	ListMembersForProjects(ctx context.Context, orgID string, projectIDs []string) ([]domain.ProjectMembership, error)
	UpsertMember(ctx context.Context, m domain.ProjectMembership) error
	InsertMemberIfAbsent(ctx context.Context, m domain.ProjectMembership) error
	DeleteMember(ctx context.Context, orgID, projectID, userID string) error
	DeleteProjectMembers(ctx context.Context, orgID, projectID string) error
	HasMember(ctx context.Context, orgID, projectID, userID string) (bool, error)
	GetMemberRole(ctx context.Context, orgID, projectID, userID string) (domain.Role, error)
	ListProjectIDsForUser(ctx context.Context, orgID, userID string) ([]string, error)

	// Settings.
	InsertSettings(ctx context.Context, s domain.ProjectSettings) error
	GetSettings(ctx context.Context, orgID, projectID string) (*domain.ProjectSettings, error)
	UpdateSettings(ctx context.Context, orgID, projectID string, patch domain.SettingsPatch) error
	DeleteSettings(ctx context.Context, orgID, projectID string) error

	// Tasks and their linked rows.
	ListTasks(ctx context.Context, orgID, projectID string) ([]domain.Task, error)
	GetTask(ctx context.Context, orgID, projectID, taskID string) (*domain.Task, error)
	InsertTask(ctx context.Context, t *domain.Task) error
	IsTaskAssignee(ctx context.Context, orgID, taskID, userID string) (bool, error)
	// DeleteTaskData removes, in dependency order, every task-linked row
	// (comments, attachments, status log, assignments, watchers) and then
	// the tasks themselves for one project.
	DeleteTaskData(ctx context.Context, orgID, projectID string) error
}
