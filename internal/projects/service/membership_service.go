package service

import (
	"context"
	"fmt"

	"github.com/treeline-hq/treeline-backend/internal/projects/domain"
	"github.com/treeline-hq/treeline-backend/internal/projects/hierarchy"
	"github.com/treeline-hq/treeline-backend/internal/projects/repository"
)

// MembershipService keeps direct membership rows consistent across a
// subtree. Granting at a subtree root materializes a row on the root and
// every descendant; that denormalization is what makes the access
// predicate a single-row lookup. The stored rows are a derived,
// eagerly-maintained projection of the subtree-root grant — never edit
// them per-project and expect the grant semantics to hold.
type MembershipService struct {
	store repository.Store
}

func NewMembershipService(store repository.Store) *MembershipService {
	return &MembershipService{store: store}
}

// ListDirect returns the project's direct membership rows — which, by
// the materialization contract, already include inherited members.
func (s *MembershipService) ListDirect(ctx context.Context, orgID, projectID string) ([]domain.ProjectMembership, error) {
	return s.store.ListMembers(ctx, orgID, projectID)
}

// AddUserToSubtree upserts (userID, role) onto projectID and every
// descendant, in one transaction. All rows land or none do.
func (s *MembershipService) AddUserToSubtree(ctx context.Context, orgID, projectID, userID string, role domain.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: role %q", domain.ErrInvalid, role)
	}
	return s.store.InTx(ctx, func(tx repository.Store) error {
		targets, err := subtreeIDs(ctx, tx, orgID, projectID)
		if err != nil {
			return err
		}
		for _, pid := range targets {
			m := domain.ProjectMembership{OrgID: orgID, ProjectID: pid, UserID: userID, Role: role}
			if err := tx.UpsertMember(ctx, m); err != nil {
				return fmt.Errorf("grant %s on %s: %w", userID, pid, err)
			}
		}
		return nil
	})
}

// RemoveUserFromSubtree deletes the user's rows on projectID and every
// descendant. Removal is unconditional across the whole subtree: a
// separately-granted deeper membership goes too. That is the documented
// contract, not an accident.
func (s *MembershipService) RemoveUserFromSubtree(ctx context.Context, orgID, projectID, userID string) error {
	return s.store.InTx(ctx, func(tx repository.Store) error {
		targets, err := subtreeIDs(ctx, tx, orgID, projectID)
		if err != nil {
			return err
		}
		for _, pid := range targets {
			if err := tx.DeleteMember(ctx, orgID, pid, userID); err != nil {
				return fmt.Errorf("revoke %s on %s: %w", userID, pid, err)
			}
		}
		return nil
	})
}

// SeedFromParent copies the parent's direct rows onto the child,
// insert-if-absent. Only the parent's direct table is read: inherited
// rows were already materialized there at write time, so no second hop
// is needed. Idempotent, and never downgrades a role already set on the
// child.
func (s *MembershipService) SeedFromParent(ctx context.Context, orgID, childID, parentID string) error {
	return s.store.InTx(ctx, func(tx repository.Store) error {
		return seedFromParent(ctx, tx, orgID, childID, parentID)
	})
}

// subtreeIDs resolves projectID plus its descendant set inside the
// caller's transaction. NotFound if the root of the subtree is missing:
// grant and revoke are writes, so they require the target to exist.
func subtreeIDs(ctx context.Context, tx repository.Store, orgID, projectID string) ([]string, error) {
	projects, err := tx.ListProjects(ctx, orgID)
	if err != nil {
		return nil, err
	}
	f := hierarchy.Build(projects)
	if !f.Contains(projectID) {
		return nil, domain.ErrNotFound
	}
	return append([]string{projectID}, f.Descendants(projectID)...), nil
}

// seedFromParent is the transaction-internal body of SeedFromParent,
// shared with the lifecycle manager so project creation seeds inside its
// own transaction.
func seedFromParent(ctx context.Context, tx repository.Store, orgID, childID, parentID string) error {
	if _, err := tx.GetProject(ctx, orgID, parentID); err != nil {
		return fmt.Errorf("seed parent %s: %w", parentID, err)
	}
	rows, err := tx.ListMembers(ctx, orgID, parentID)
	if err != nil {
		return err
	}
	for _, m := range rows {
		seeded := domain.ProjectMembership{OrgID: orgID, ProjectID: childID, UserID: m.UserID, Role: m.Role}
		if err := tx.InsertMemberIfAbsent(ctx, seeded); err != nil {
			return fmt.Errorf("seed %s onto %s: %w", m.UserID, childID, err)
		}
	}
	return nil
}
