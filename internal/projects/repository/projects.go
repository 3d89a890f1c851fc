package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/treeline-hq/treeline-backend/internal/projects/domain"
)

const projectColumns = `id, org_id, parent_id, name, slug, status, severity, description, start_at, end_at, created_by, created_at, updated_at, deleted_at`

func scanProject(row pgx.Row) (*domain.Project, error) {
	var p domain.Project
	err := row.Scan(
		&p.ID, &p.OrgID, &p.ParentID, &p.Name, &p.Slug, &p.Status, &p.Severity,
		&p.Description, &p.StartAt, &p.EndAt, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProjects returns every project in the org, archived included. The
// hierarchy resolver builds its adjacency index from this single fetch.
func (r *Repo) ListProjects(ctx context.Context, orgID string) ([]domain.Project, error) {
	const q = `
select ` + projectColumns + `
from projects
where org_id = $1::uuid
order by created_at;
`
	rows, err := r.q.Query(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Project, 0, 32)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *Repo) GetProject(ctx context.Context, orgID, projectID string) (*domain.Project, error) {
	const q = `
select ` + projectColumns + `
from projects
where org_id = $1::uuid and id = $2;
`
	p, err := scanProject(r.q.QueryRow(ctx, q, orgID, projectID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *Repo) InsertProject(ctx context.Context, p *domain.Project) error {
	const q = `
insert into projects (id, org_id, parent_id, name, slug, status, severity, description, start_at, end_at, created_by)
values ($1, $2::uuid, $3, $4, $5, $6, $7, $8, $9, $10, $11::uuid)
returning created_at, updated_at;
`
	return r.q.QueryRow(ctx, q,
		p.ID, p.OrgID, p.ParentID, p.Name, p.Slug, p.Status, p.Severity,
		p.Description, p.StartAt, p.EndAt, p.CreatedBy,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

// UpdateProject applies only the fields present on the patch. Scalar
// fields go through one fixed coalesce statement; a parent change is a
// separate statement because "set to null" must be expressible.
func (r *Repo) UpdateProject(ctx context.Context, orgID, projectID string, patch domain.ProjectPatch) error {
	const q = `
update projects
set name        = coalesce($3, name),
    slug        = coalesce($4, slug),
    status      = coalesce($5, status),
    severity    = coalesce($6, severity),
    description = coalesce($7, description),
    start_at    = coalesce($8, start_at),
    end_at      = coalesce($9, end_at),
    updated_at  = now()
where org_id = $1::uuid and id = $2 and deleted_at is null;
`
	ct, err := r.q.Exec(ctx, q, orgID, projectID,
		patch.Name, patch.Slug, patch.Status, patch.Severity,
		patch.Description, patch.StartAt, patch.EndAt,
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	if patch.SetParent != nil {
		const pq = `
update projects
set parent_id = $3, updated_at = now()
where org_id = $1::uuid and id = $2;
`
		if _, err := r.q.Exec(ctx, pq, orgID, projectID, patch.SetParent.Parent); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) ArchiveProjects(ctx context.Context, orgID string, projectIDs []string) error {
	const q = `
update projects
set deleted_at = now(), updated_at = now()
where org_id = $1::uuid and id = any($2) and deleted_at is null;
`
	_, err := r.q.Exec(ctx, q, orgID, projectIDs)
	return err
}

// ListArchivedRootsBefore returns archived projects older than cutoff
// whose parent is not itself archived — the roots of archived subtrees,
// which the retention sweeper deletes one whole subtree at a time.
func (r *Repo) ListArchivedRootsBefore(ctx context.Context, cutoff time.Time) ([]domain.Project, error) {
	const q = `
select ` + projectColumns + `
from projects p
where p.deleted_at is not null and p.deleted_at < $1
  and not exists (
    select 1 from projects parent
    where parent.org_id = p.org_id and parent.id = p.parent_id and parent.deleted_at is not null
  )
order by p.deleted_at;
`
	rows, err := r.q.Query(ctx, q, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *Repo) DeleteProjectRow(ctx context.Context, orgID, projectID string) error {
	const q = `delete from projects where org_id = $1::uuid and id = $2;`
	_, err := r.q.Exec(ctx, q, orgID, projectID)
	return err
}
