package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/treeline-hq/treeline-backend/internal/projects/domain"
	"github.com/treeline-hq/treeline-backend/internal/projects/repository"
)

// TaskService covers the minimal task surface the tracker core needs:
// creation with project-settings defaults, and reads for the task-level
// access rule. Status workflow enforcement is deliberately absent.
type TaskService struct {
	store repository.Store
}

func NewTaskService(store repository.Store) *TaskService {
	return &TaskService{store: store}
}

type CreateTask struct {
	OrgID     string
	ProjectID string
	Title     string
	Priority  domain.Severity
	CreatorID string
	Assignees []string
}

func (s *TaskService) Create(ctx context.Context, in CreateTask) (*domain.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title required", domain.ErrInvalid)
	}
	if in.Priority != "" && !in.Priority.Valid() {
		return nil, fmt.Errorf("%w: priority %q", domain.ErrInvalid, in.Priority)
	}

	id, err := domain.NewTaskID()
	if err != nil {
		return nil, err
	}

	var created *domain.Task
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		project, err := tx.GetProject(ctx, in.OrgID, in.ProjectID)
		if err != nil {
			return err
		}
		if project.Archived() {
			return domain.ErrNotFound
		}

		settings, err := tx.GetSettings(ctx, in.OrgID, in.ProjectID)
		if err != nil {
			return err
		}

		priority := in.Priority
		if priority == "" {
			priority = settings.DefaultPriority
		}

		assignees := append([]string(nil), in.Assignees...)
		if settings.AutoAssignCreator && !contains(assignees, in.CreatorID) {
			assignees = append(assignees, in.CreatorID)
		}

		t := &domain.Task{
			ID:        id,
			OrgID:     in.OrgID,
			ProjectID: in.ProjectID,
			Title:     title,
			Status:    "OPEN",
			Priority:  priority,
			CreatedBy: in.CreatorID,
			Assignees: assignees,
		}
		if err := tx.InsertTask(ctx, t); err != nil {
			return err
		}
		created = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *TaskService) List(ctx context.Context, orgID, projectID string) ([]domain.Task, error) {
	return s.store.ListTasks(ctx, orgID, projectID)
}

func (s *TaskService) Get(ctx context.Context, orgID, projectID, taskID string) (*domain.Task, error) {
	return s.store.GetTask(ctx, orgID, projectID, taskID)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
