package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/treeline-hq/treeline-backend/internal/projects/domain"
)

func (r *Repo) InsertSettings(ctx context.Context, s domain.ProjectSettings) error {
	const q = `
insert into project_settings
  (org_id, project_id, auto_assign_creator, auto_assign_members, default_due_days, default_priority, notify_on_status, notify_on_assign)
values ($1::uuid, $2, $3, $4, $5, $6, $7, $8);
`
	_, err := r.q.Exec(ctx, q,
		s.OrgID, s.ProjectID, s.AutoAssignCreator, s.AutoAssignMembers,
		s.DefaultDueDays, s.DefaultPriority, s.NotifyOnStatus, s.NotifyOnAssign,
	)
	return err
}

func (r *Repo) GetSettings(ctx context.Context, orgID, projectID string) (*domain.ProjectSettings, error) {
	const q = `
select org_id, project_id, auto_assign_creator, auto_assign_members, default_due_days, default_priority, notify_on_status, notify_on_assign, updated_at
from project_settings
where org_id = $1::uuid and project_id = $2;
`
	var s domain.ProjectSettings
	err := r.q.QueryRow(ctx, q, orgID, projectID).Scan(
		&s.OrgID, &s.ProjectID, &s.AutoAssignCreator, &s.AutoAssignMembers,
		&s.DefaultDueDays, &s.DefaultPriority, &s.NotifyOnStatus, &s.NotifyOnAssign, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *Repo) UpdateSettings(ctx context.Context, orgID, projectID string, patch domain.SettingsPatch) error {
	const q = `
update project_settings
set auto_assign_creator = coalesce($3, auto_assign_creator),
    auto_assign_members = coalesce($4, auto_assign_members),
    default_due_days    = coalesce($5, default_due_days),
    default_priority    = coalesce($6, default_priority),
    notify_on_status    = coalesce($7, notify_on_status),
    notify_on_assign    = coalesce($8, notify_on_assign),
    updated_at          = now()
where org_id = $1::uuid and project_id = $2;
`
	ct, err := r.q.Exec(ctx, q, orgID, projectID,
		patch.AutoAssignCreator, patch.AutoAssignMembers, patch.DefaultDueDays,
		patch.DefaultPriority, patch.NotifyOnStatus, patch.NotifyOnAssign,
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) DeleteSettings(ctx context.Context, orgID, projectID string) error {
	const q = `delete from project_settings where org_id = $1::uuid and project_id = $2;`
	_, err := r.q.Exec(ctx, q, orgID, projectID)
	return err
}
