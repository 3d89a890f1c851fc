package http

import (
	"time"

	"github.com/treeline-hq/treeline-backend/internal/logger"
	"github.com/treeline-hq/treeline-backend/internal/projects/service"
)

// Handler bundles the dependencies for project HTTP endpoints.
type Handler struct {
	projects  *service.ProjectService
	members   *service.MembershipService
	hierarchy *service.HierarchyService
	access    *service.AccessService
	tasks     *service.TaskService
	log       *logger.Logger
}

func New(
	projects *service.ProjectService,
	members *service.MembershipService,
	hier *service.HierarchyService,
	access *service.AccessService,
	tasks *service.TaskService,
	log *logger.Logger,
) *Handler {
	return &Handler{
		projects:  projects,
		members:   members,
		hierarchy: hier,
		access:    access,
		tasks:     tasks,
		log:       log,
	}
}

type createProjectReq struct {
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	ParentID    *string    `json:"parent_id"`
	Status      string     `json:"status"`
	Severity    string     `json:"severity"`
	Description string     `json:"description"`
	StartAt     *time.Time `json:"start_at"`
	EndAt       *time.Time `json:"end_at"`
}

type updateProjectReq struct {
	Name        *string    `json:"name"`
	Slug        *string    `json:"slug"`
	Status      *string    `json:"status"`
	Severity    *string    `json:"severity"`
	Description *string    `json:"description"`
	StartAt     *time.Time `json:"start_at"`
	EndAt       *time.Time `json:"end_at"`
	// ParentID moves the project; explicit null detaches it into a root.
	ParentID  *string `json:"parent_id"`
	SetParent bool    `json:"set_parent"`
}

type updateSettingsReq struct {
	AutoAssignCreator *bool   `json:"auto_assign_creator"`
	AutoAssignMembers *bool   `json:"auto_assign_members"`
	DefaultDueDays    *int    `json:"default_due_days"`
	DefaultPriority   *string `json:"default_priority"`
	NotifyOnStatus    *bool   `json:"notify_on_status"`
	NotifyOnAssign    *bool   `json:"notify_on_assign"`
}

type grantReq struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type createTaskReq struct {
	Title     string   `json:"title"`
	Priority  string   `json:"priority"`
	Assignees []string `json:"assignees"`
}
