package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/treeline-hq/treeline-backend/internal/projects/domain"
	"github.com/treeline-hq/treeline-backend/internal/projects/hierarchy"
	"github.com/treeline-hq/treeline-backend/internal/projects/repository"
)

// ProjectService orchestrates the multi-step lifecycle operations:
// creation (project + default settings + creator admin + parent seed)
// and deletion (full subtree cascade), each inside one transaction.
type ProjectService struct {
	store repository.Store
}

func NewProjectService(store repository.Store) *ProjectService {
	return &ProjectService{store: store}
}

// CreateProject carries the inputs for Create. Zero-valued Status and
// Severity default to PLANNING / MEDIUM.
type CreateProject struct {
	OrgID       string
	Name        string
	Slug        string
	ParentID    *string
	CreatorID   string
	Status      domain.Status
	Severity    domain.Severity
	Description string
	StartAt     *time.Time
	EndAt       *time.Time
	Settings    *domain.SettingsPatch
}

// Create inserts the project, its default settings row, and the
// creator's ADMIN membership, then seeds membership from the parent if
// one was given. The creator row is written before seeding, and seeding
// is insert-if-absent, so an inherited role can never downgrade the
// creator. One transaction; a public-id collision retries the whole
// thing.
func (s *ProjectService) Create(ctx context.Context, in CreateProject) (*domain.Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name required", domain.ErrInvalid)
	}
	if in.CreatorID == "" {
		return nil, fmt.Errorf("%w: creator required", domain.ErrInvalid)
	}
	status := in.Status
	if status == "" {
		status = domain.StatusPlanning
	}
	severity := in.Severity
	if severity == "" {
		severity = domain.SeverityMedium
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: status %q", domain.ErrInvalid, status)
	}
	if !severity.Valid() {
		return nil, fmt.Errorf("%w: severity %q", domain.ErrInvalid, severity)
	}

	for attempt := 0; attempt < 5; attempt++ {
		id, err := domain.NewProjectID()
		if err != nil {
			return nil, err
		}

		p := &domain.Project{
			ID:          id,
			OrgID:       in.OrgID,
			ParentID:    in.ParentID,
			Name:        name,
			Slug:        slugOrDefault(in.Slug, name),
			Status:      status,
			Severity:    severity,
			Description: in.Description,
			StartAt:     in.StartAt,
			EndAt:       in.EndAt,
			CreatedBy:   in.CreatorID,
		}

		err = s.store.InTx(ctx, func(tx repository.Store) error {
			if in.ParentID != nil {
				parent, err := tx.GetProject(ctx, in.OrgID, *in.ParentID)
				if err != nil {
					return fmt.Errorf("parent %s: %w", *in.ParentID, err)
				}
				if parent.Archived() {
					return fmt.Errorf("parent %s: %w", *in.ParentID, domain.ErrNotFound)
				}
			}

			if err := tx.InsertProject(ctx, p); err != nil {
				return err
			}

			settings := domain.DefaultSettings(in.OrgID, id)
			if in.Settings != nil {
				applySettingsPatch(&settings, *in.Settings)
			}
			if err := tx.InsertSettings(ctx, settings); err != nil {
				return err
			}

			creator := domain.ProjectMembership{
				OrgID: in.OrgID, ProjectID: id, UserID: in.CreatorID, Role: domain.RoleAdmin,
			}
			if err := tx.UpsertMember(ctx, creator); err != nil {
				return err
			}

			if in.ParentID != nil {
				return seedFromParent(ctx, tx, in.OrgID, id, *in.ParentID)
			}
			return nil
		})

		if err == nil {
			return p, nil
		}
		// unique violation on the public id → new id, try again
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			continue
		}
		return nil, err
	}

	return nil, fmt.Errorf("failed to generate unique project id")
}

// Delete removes the project and its entire subtree in one transaction:
// per node, task-linked rows, tasks, members, settings, then each child
// subtree, then the project row. NotFound if the requested root does not
// exist; never partially applied.
func (s *ProjectService) Delete(ctx context.Context, orgID, projectID string) error {
	return s.store.InTx(ctx, func(tx repository.Store) error {
		if _, err := tx.GetProject(ctx, orgID, projectID); err != nil {
			return err
		}
		projects, err := tx.ListProjects(ctx, orgID)
		if err != nil {
			return err
		}
		return deleteSubtree(ctx, tx, orgID, projectID, hierarchy.Build(projects))
	})
}

func deleteSubtree(ctx context.Context, tx repository.Store, orgID, projectID string, f *hierarchy.Forest) error {
	if err := tx.DeleteTaskData(ctx, orgID, projectID); err != nil {
		return fmt.Errorf("delete tasks of %s: %w", projectID, err)
	}
	if err := tx.DeleteProjectMembers(ctx, orgID, projectID); err != nil {
		return fmt.Errorf("delete members of %s: %w", projectID, err)
	}
	if err := tx.DeleteSettings(ctx, orgID, projectID); err != nil {
		return fmt.Errorf("delete settings of %s: %w", projectID, err)
	}
	for _, child := range f.Children(projectID) {
		if err := deleteSubtree(ctx, tx, orgID, child, f); err != nil {
			return err
		}
	}
	if err := tx.DeleteProjectRow(ctx, orgID, projectID); err != nil {
		return fmt.Errorf("delete project %s: %w", projectID, err)
	}
	return nil
}

// Update applies a patch. A parent change is validated before any write:
// the new parent must exist in the same org, must not be archived, and
// must not be the project itself or one of its descendants (ErrCycle).
func (s *ProjectService) Update(ctx context.Context, orgID, projectID string, patch domain.ProjectPatch) (*domain.Project, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, fmt.Errorf("%w: status %q", domain.ErrInvalid, *patch.Status)
	}
	if patch.Severity != nil && !patch.Severity.Valid() {
		return nil, fmt.Errorf("%w: severity %q", domain.ErrInvalid, *patch.Severity)
	}

	var updated *domain.Project
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if patch.SetParent != nil && patch.SetParent.Parent != nil {
			newParent := *patch.SetParent.Parent
			projects, err := tx.ListProjects(ctx, orgID)
			if err != nil {
				return err
			}
			f := hierarchy.Build(projects)
			if !f.Contains(projectID) || !f.Contains(newParent) {
				return domain.ErrNotFound
			}
			// An archived parent would drag a live project into a
			// subtree the retention sweeper hard-deletes.
			parent, err := tx.GetProject(ctx, orgID, newParent)
			if err != nil {
				return err
			}
			if parent.Archived() {
				return fmt.Errorf("parent %s: %w", newParent, domain.ErrNotFound)
			}
			if f.WouldCycle(projectID, newParent) {
				return domain.ErrCycle
			}
		}

		if err := tx.UpdateProject(ctx, orgID, projectID, patch); err != nil {
			return err
		}
		p, err := tx.GetProject(ctx, orgID, projectID)
		if err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Archive soft-deletes the project and its whole subtree. Archived
// projects disappear from listings and are hard-deleted later by the
// retention sweeper.
func (s *ProjectService) Archive(ctx context.Context, orgID, projectID string) error {
	return s.store.InTx(ctx, func(tx repository.Store) error {
		if _, err := tx.GetProject(ctx, orgID, projectID); err != nil {
			return err
		}
		targets, err := subtreeIDs(ctx, tx, orgID, projectID)
		if err != nil {
			return err
		}
		return tx.ArchiveProjects(ctx, orgID, targets)
	})
}

// PurgeArchived hard-deletes every archived subtree older than cutoff.
// Each subtree is one Delete transaction, so a failure on one does not
// roll back the others. Returns the number of subtrees purged.
func (s *ProjectService) PurgeArchived(ctx context.Context, cutoff time.Time) (int, error) {
	roots, err := s.store.ListArchivedRootsBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	purged := 0
	for _, root := range roots {
		if err := s.Delete(ctx, root.OrgID, root.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return purged, fmt.Errorf("purge %s: %w", root.ID, err)
		}
		purged++
	}
	return purged, nil
}

// Get returns the project; an archived project reads as NotFound.
func (s *ProjectService) Get(ctx context.Context, orgID, projectID string) (*domain.Project, error) {
	p, err := s.store.GetProject(ctx, orgID, projectID)
	if err != nil {
		return nil, err
	}
	if p.Archived() {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

// List returns the user's visible projects: every non-archived project
// with a direct membership row, or all of them for a super admin.
// Results come back in tree order — each root followed by its subtree —
// so clients can render the forest without re-sorting.
func (s *ProjectService) List(ctx context.Context, orgID, userID string, superAdmin bool) ([]domain.Project, error) {
	projects, err := s.store.ListProjects(ctx, orgID)
	if err != nil {
		return nil, err
	}

	var visible map[string]bool
	if !superAdmin {
		ids, err := s.store.ListProjectIDsForUser(ctx, orgID, userID)
		if err != nil {
			return nil, err
		}
		visible = make(map[string]bool, len(ids))
		for _, id := range ids {
			visible[id] = true
		}
	}

	byID := make(map[string]domain.Project, len(projects))
	for _, p := range projects {
		byID[p.ID] = p
	}

	f := hierarchy.Build(projects)
	out := make([]domain.Project, 0, len(projects))
	for _, root := range f.Roots() {
		for _, id := range append([]string{root}, f.Descendants(root)...) {
			p := byID[id]
			if p.Archived() {
				continue
			}
			if superAdmin || visible[p.ID] {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (s *ProjectService) GetSettings(ctx context.Context, orgID, projectID string) (*domain.ProjectSettings, error) {
	return s.store.GetSettings(ctx, orgID, projectID)
}

func (s *ProjectService) UpdateSettings(ctx context.Context, orgID, projectID string, patch domain.SettingsPatch) (*domain.ProjectSettings, error) {
	if patch.DefaultPriority != nil && !patch.DefaultPriority.Valid() {
		return nil, fmt.Errorf("%w: priority %q", domain.ErrInvalid, *patch.DefaultPriority)
	}
	var out *domain.ProjectSettings
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.UpdateSettings(ctx, orgID, projectID, patch); err != nil {
			return err
		}
		s2, err := tx.GetSettings(ctx, orgID, projectID)
		if err != nil {
			return err
		}
		out = s2
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func applySettingsPatch(s *domain.ProjectSettings, p domain.SettingsPatch) {
	if p.AutoAssignCreator != nil {
		s.AutoAssignCreator = *p.AutoAssignCreator
	}
	if p.AutoAssignMembers != nil {
		s.AutoAssignMembers = *p.AutoAssignMembers
	}
	if p.DefaultDueDays != nil {
		s.DefaultDueDays = *p.DefaultDueDays
	}
	if p.DefaultPriority != nil {
		s.DefaultPriority = *p.DefaultPriority
	}
	if p.NotifyOnStatus != nil {
		s.NotifyOnStatus = *p.NotifyOnStatus
	}
	if p.NotifyOnAssign != nil {
		s.NotifyOnAssign = *p.NotifyOnAssign
	}
}

func slugOrDefault(slug, name string) string {
	slug = strings.TrimSpace(slug)
	if slug != "" {
		return strings.ToLower(slug)
	}
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '-'
		}
		return -1
	}, s)
	return strings.Trim(s, "-")
}
