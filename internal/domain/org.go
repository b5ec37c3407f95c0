package domain

import (
	"context"
	"time"
)

// Org is a tenant. Each role available to its users is backed by one UserGroup.
type Org struct {
	ID         int64
	Name       string
	UserGroups []UserGroup
	CreatedAt  time.Time
}

// UserGroup grants its Role to every member.
type UserGroup struct {
	ID    int64
	OrgID int64
	Name  string
	Role  Role
}

// Roles returns the roles the org makes available.
func (o *Org) Roles() RoleSet {
	if o == nil {
		return RoleSet{}
	}
	s := make(RoleSet, len(o.UserGroups))
	for _, g := range o.UserGroups {
		s[g.Role] = struct{}{}
	}
	return s
}

// UserGroup returns the group backing role, if the org defines one.
func (o *Org) UserGroup(role Role) (UserGroup, bool) {
	if o == nil {
		return UserGroup{}, false
	}
	for _, g := range o.UserGroups {
		if g.Role == role {
			return g, true
		}
	}
	return UserGroup{}, false
}

// OrgRepository defines persistence operations for orgs and their user groups.
type OrgRepository interface {
	Create(ctx context.Context, org *Org) error
	GetByID(ctx context.Context, id int64) (*Org, error)
}
