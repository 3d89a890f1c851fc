package service

import (
	"context"
	"errors"

	"github.com/treeline-hq/treeline-backend/internal/projects/domain"
	"github.com/treeline-hq/treeline-backend/internal/projects/repository"
)

// AccessService is the single authorization check for everything that
// touches a project or the tasks under it. Denial is a false boolean,
// never an error; callers translate it into their own forbidden outcome.
type AccessService struct {
	store repository.Store
}

func NewAccessService(store repository.Store) *AccessService {
	return &AccessService{store: store}
}

// HasAccess is true for a super admin, otherwise true iff a direct
// membership row exists. Because the propagator materializes inheritance
// down the tree on every grant, this single-row check covers inherited
// access too — no ancestor walk on the hot path.
func (s *AccessService) HasAccess(ctx context.Context, orgID, projectID, userID string, superAdmin bool) (bool, error) {
	if superAdmin {
		return true, nil
	}
	return s.store.HasMember(ctx, orgID, projectID, userID)
}

// IsAdmin reports whether the user holds ADMIN on the project (directly
// or through a materialized inherited row), or is a super admin.
func (s *AccessService) IsAdmin(ctx context.Context, orgID, projectID, userID string, superAdmin bool) (bool, error) {
	if superAdmin {
		return true, nil
	}
	role, err := s.store.GetMemberRole(ctx, orgID, projectID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return role == domain.RoleAdmin, nil
}

// CanActOnTask layers the task rule on top of project access: a
// non-admin member may act on a task only as its creator or an assignee.
func (s *AccessService) CanActOnTask(ctx context.Context, orgID, projectID, taskID, userID string, superAdmin bool) (bool, error) {
	ok, err := s.HasAccess(ctx, orgID, projectID, userID, superAdmin)
	if err != nil || !ok {
		return false, err
	}
	if superAdmin {
		return true, nil
	}

	role, err := s.store.GetMemberRole(ctx, orgID, projectID, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}
	if role == domain.RoleAdmin {
		return true, nil
	}

	task, err := s.store.GetTask(ctx, orgID, projectID, taskID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if task.CreatedBy == userID {
		return true, nil
	}
	return s.store.IsTaskAssignee(ctx, orgID, taskID, userID)
}
