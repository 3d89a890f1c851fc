package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/treeline-hq/treeline-backend/internal/projects/domain"
)

func (r *Repo) ListTasks(ctx context.Context, orgID, projectID string) ([]domain.Task, error) {
	const q = `
select id, org_id, project_id, title, status, priority, created_by, created_at, updated_at
from tasks
where org_id = $1::uuid and project_id = $2
order by created_at;
`
	rows, err := r.q.Query(ctx, q, orgID, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Task
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(&t.ID, &t.OrgID, &t.ProjectID, &t.Title, &t.Status, &t.Priority, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repo) GetTask(ctx context.Context, orgID, projectID, taskID string) (*domain.Task, error) {
	const q = `
select id, org_id, project_id, title, status, priority, created_by, created_at, updated_at
from tasks
where org_id = $1::uuid and project_id = $2 and id = $3;
`
	var t domain.Task
	err := r.q.QueryRow(ctx, q, orgID, projectID, taskID).Scan(
		&t.ID, &t.OrgID, &t.ProjectID, &t.Title, &t.Status, &t.Priority, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	const aq = `select user_id from task_assignments where org_id = $1::uuid and task_id = $2 order by user_id;`
	rows, err := r.q.Query(ctx, aq, orgID, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, err
		}
		t.Assignees = append(t.Assignees, uid)
	}
	return &t, rows.Err()
}

func (r *Repo) InsertTask(ctx context.Context, t *domain.Task) error {
	const q = `
insert into tasks (id, org_id, project_id, title, status, priority, created_by)
values ($1, $2::uuid, $3, $4, $5, $6, $7::uuid)
returning created_at, updated_at;
`
	err := r.q.QueryRow(ctx, q, t.ID, t.OrgID, t.ProjectID, t.Title, t.Status, t.Priority, t.CreatedBy).
		Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return err
	}

	const aq = `
insert into task_assignments (org_id, task_id, user_id)
values ($1::uuid, $2, $3::uuid)
on conflict do nothing;
`
	for _, uid := range t.Assignees {
		if _, err := r.q.Exec(ctx, aq, t.OrgID, t.ID, uid); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) IsTaskAssignee(ctx context.Context, orgID, taskID, userID string) (bool, error) {
	const q = `
select exists (
  select 1 from task_assignments
  where org_id = $1::uuid and task_id = $2 and user_id = $3::uuid
);
`
	var ok bool
	if err := r.q.QueryRow(ctx, q, orgID, taskID, userID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// DeleteTaskData clears every task-linked table for one project, children
// before parents, then the tasks themselves.
func (r *Repo) DeleteTaskData(ctx context.Context, orgID, projectID string) error {
	stmts := []string{
		`delete from task_comments where org_id = $1::uuid and task_id in (select id from tasks where org_id = $1::uuid and project_id = $2);`,
		`delete from task_attachments where org_id = $1::uuid and task_id in (select id from tasks where org_id = $1::uuid and project_id = $2);`,
		`delete from task_status_log where org_id = $1::uuid and task_id in (select id from tasks where org_id = $1::uuid and project_id = $2);`,
		`delete from task_assignments where org_id = $1::uuid and task_id in (select id from tasks where org_id = $1::uuid and project_id = $2);`,
		`delete from task_watchers where org_id = $1::uuid and task_id in (select id from tasks where org_id = $1::uuid and project_id = $2);`,
		`delete from tasks where org_id = $1::uuid and project_id = $2;`,
	}
	for _, stmt := range stmts {
		if _, err := r.q.Exec(ctx, stmt, orgID, projectID); err != nil {
			return err
		}
	}
	return nil
}
