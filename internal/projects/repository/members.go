package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/treeline-hq/treeline-backend/internal/projects/domain"
)

func scanMembers(rows pgx.Rows) ([]domain.ProjectMembership, error) {
	defer rows.Close()
	var out []domain.ProjectMembership
	for rows.Next() {
		var m domain.ProjectMembership
		if err := rows.Scan(&m.OrgID, &m.ProjectID, &m.UserID, &m.Role, &m.AddedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repo) ListMembers(ctx context.Context, orgID, projectID string) ([]domain.ProjectMembership, error) {
	const q = `
select org_id, project_id, user_id, role, added_at
from project_members
where org_id = $1::uuid and project_id = $2
order by added_at;
`
	rows, err := r.q.Query(ctx, q, orgID, projectID)
	if err != nil {
		return nil, err
	}
	return scanMembers(rows)
}

func (r *Repo) ListMembersForProjects(ctx context.Context, orgID string, projectIDs []string) ([]domain.ProjectMembership, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}
	const q = `
select org_id, project_id, user_id, role, added_at
from project_members
where org_id = $1::uuid and project_id = any($2)
order by added_at;
`
	rows, err := r.q.Query(ctx, q, orgID, projectIDs)
	if err != nil {
		return nil, err
	}
	return scanMembers(rows)
}

// UpsertMember writes a direct membership row; on conflict the last role
// wins.
func (r *Repo) UpsertMember(ctx context.Context, m domain.ProjectMembership) error {
	const q = `
insert into project_members (org_id, project_id, user_id, role)
values ($1::uuid, $2, $3::uuid, $4)
on conflict (org_id, project_id, user_id) do update
set role = excluded.role;
`
	_, err := r.q.Exec(ctx, q, m.OrgID, m.ProjectID, m.UserID, m.Role)
	return err
}

// InsertMemberIfAbsent never overwrites an existing row; seeding a child
// from its parent must not downgrade a role already granted on the
// child.
func (r *Repo) InsertMemberIfAbsent(ctx context.Context, m domain.ProjectMembership) error {
	const q = `
insert into project_members (org_id, project_id, user_id, role)
values ($1::uuid, $2, $3::uuid, $4)
on conflict (org_id, project_id, user_id) do nothing;
`
	_, err := r.q.Exec(ctx, q, m.OrgID, m.ProjectID, m.UserID, m.Role)
	return err
}

func (r *Repo) DeleteMember(ctx context.Context, orgID, projectID, userID string) error {
	const q = `
delete from project_members
where org_id = $1::uuid and project_id = $2 and user_id = $3::uuid;
`
	_, err := r.q.Exec(ctx, q, orgID, projectID, userID)
	return err
}

func (r *Repo) DeleteProjectMembers(ctx context.Context, orgID, projectID string) error {
	const q = `delete from project_members where org_id = $1::uuid and project_id = $2;`
	_, err := r.q.Exec(ctx, q, orgID, projectID)
	return err
}

func (r *Repo) HasMember(ctx context.Context, orgID, projectID, userID string) (bool, error) {
	const q = `
select exists (
  select 1 from project_members
  where org_id = $1::uuid and project_id = $2 and user_id = $3::uuid
);
`
	var ok bool
	if err := r.q.QueryRow(ctx, q, orgID, projectID, userID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (r *Repo) GetMemberRole(ctx context.Context, orgID, projectID, userID string) (domain.Role, error) {
	const q = `
select role from project_members
where org_id = $1::uuid and project_id = $2 and user_id = $3::uuid;
`
	var role domain.Role
	if err := r.q.QueryRow(ctx, q, orgID, projectID, userID).Scan(&role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return role, nil
}

func (r *Repo) ListProjectIDsForUser(ctx context.Context, orgID, userID string) ([]string, error) {
	const q = `
select project_id
from project_members
where org_id = $1::uuid and user_id = $2::uuid
order by project_id;
`
	rows, err := r.q.Query(ctx, q, orgID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
