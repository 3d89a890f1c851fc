package domain

import "time"

// Status is the lifecycle state of a project. Transitions are not
// validated: an authorized editor may move a project between any two
// states.
type Status string

const (
	StatusPlanning  Status = "PLANNING"
	StatusActive    Status = "ACTIVE"
	StatusAtRisk    Status = "AT_RISK"
	StatusOnHold    Status = "ON_HOLD"
	StatusCompleted Status = "COMPLETED"
	StatusCanceled  Status = "CANCELED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPlanning, StatusActive, StatusAtRisk, StatusOnHold, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Role is a user's role on a single project.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleEditor Role = "EDITOR"
	RoleViewer Role = "VIEWER"
	RoleMember Role = "MEMBER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer, RoleMember:
		return true
	}
	return false
}

// Project is a node in an organization's project forest. ParentID is nil
// for a root project; when set it must reference a project in the same
// organization. DeletedAt marks an archived project awaiting retention
// purge.
type Project struct {
	ID          string     `json:"id"`
	OrgID       string     `json:"org_id"`
	ParentID    *string    `json:"parent_id,omitempty"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Status      Status     `json:"status"`
	Severity    Severity   `json:"severity"`
	Description string     `json:"description,omitempty"`
	StartAt     *time.Time `json:"start_at,omitempty"`
	EndAt       *time.Time `json:"end_at,omitempty"`
	CreatedBy   string     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

func (p *Project) Archived() bool { return p.DeletedAt != nil }

// ProjectMembership is a direct membership row. Inherited access is
// materialized into direct rows by the membership propagator, so this
// table is the single source the access predicate reads.
type ProjectMembership struct {
	OrgID     string    `json:"org_id"`
	ProjectID string    `json:"project_id"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	AddedAt   time.Time `json:"added_at"`
}

// EffectiveMember is a resolved (user, role) pair for a project, after
// folding in ancestor memberships. Source is the project the winning row
// is attached to.
type EffectiveMember struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
	Source string `json:"source_project_id"`
}

// ProjectSettings holds per-project defaults created alongside the
// project row.
type ProjectSettings struct {
	OrgID             string    `json:"org_id"`
	ProjectID         string    `json:"project_id"`
	AutoAssignCreator bool      `json:"auto_assign_creator"`
	AutoAssignMembers bool      `json:"auto_assign_members"`
	DefaultDueDays    int       `json:"default_due_days"`
	DefaultPriority   Severity  `json:"default_priority"`
	NotifyOnStatus    bool      `json:"notify_on_status"`
	NotifyOnAssign    bool      `json:"notify_on_assign"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// DefaultSettings returns the settings row inserted for a new project.
func DefaultSettings(orgID, projectID string) ProjectSettings {
	return ProjectSettings{
		OrgID:             orgID,
		ProjectID:         projectID,
		AutoAssignCreator: true,
		DefaultDueDays:    14,
		DefaultPriority:   SeverityMedium,
		NotifyOnStatus:    true,
		NotifyOnAssign:    true,
	}
}

// Task is the minimal task surface this core needs: the creator/assignee
// access rule and the deletion cascade. Workflow semantics live elsewhere.
type Task struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"org_id"`
	ProjectID string    `json:"project_id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	Priority  Severity  `json:"priority"`
	CreatedBy string    `json:"created_by"`
	Assignees []string  `json:"assignees,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
