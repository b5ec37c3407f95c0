package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/msomdec/sysmgr/internal/domain"
)

// RoleService grants and revokes roles on behalf of org admins.
type RoleService struct {
	users domain.UserRepository
}

func NewRoleService(users domain.UserRepository) *RoleService {
	return &RoleService{users: users}
}

// EffectiveRoles returns the target user's roles, implied roles included.
// Any member of the same org may look.
func (s *RoleService) EffectiveRoles(ctx context.Context, actor *domain.User, userID int64) (domain.RoleSet, error) {
	target, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if target.OrgID() != actor.OrgID() {
		return nil, domain.ErrNotFound
	}
	return target.Roles(), nil
}

// Grant gives role to the user with userID.
func (s *RoleService) Grant(ctx context.Context, actor *domain.User, userID int64, role domain.Role) (*domain.User, error) {
	return s.change(ctx, actor, userID, func(u *domain.User) error {
		return u.AddRole(role)
	})
}

// Revoke takes role away from the user with userID. Revoking a role the org
// does not define succeeds without changes.
func (s *RoleService) Revoke(ctx context.Context, actor *domain.User, userID int64, role domain.Role) (*domain.User, error) {
	return s.change(ctx, actor, userID, func(u *domain.User) error {
		if role == domain.RoleOrgAdmin && u.ID == actor.ID {
			return fmt.Errorf("%w: org admins cannot revoke their own org_admin role", domain.ErrInvalidInput)
		}
		u.RemoveRole(role)
		return nil
	})
}

func (s *RoleService) change(ctx context.Context, actor *domain.User, userID int64, apply func(*domain.User) error) (*domain.User, error) {
	if !actor.HasRole(domain.RoleOrgAdmin) {
		return nil, fmt.Errorf("%w: org_admin role required", domain.ErrForbidden)
	}

	target, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if target.OrgID() != actor.OrgID() {
		return nil, domain.ErrNotFound
	}

	if err := apply(target); err != nil {
		return nil, err
	}
	if err := s.users.UpdateGroups(ctx, target.ID, target.Groups()); err != nil {
		return nil, fmt.Errorf("update roles: %w", err)
	}

	if was := target.WasOrgAdmin(); was != nil {
		if is := target.HasRole(domain.RoleOrgAdmin); *was != is {
			slog.Info("org admin status changed", "user", target.String(), "by", actor.String(), "org_admin", is)
		}
	}
	target.ResetWasOrgAdmin()
	return target, nil
}
