package domain

import "sort"

// Role is the label of a permission granted through a user group.
type Role string

const (
	RoleOrgAdmin           Role = "org_admin"
	RoleChannelAdmin       Role = "channel_admin"
	RoleConfigAdmin        Role = "config_admin"
	RoleSystemGroupAdmin   Role = "system_group_admin"
	RoleActivationKeyAdmin Role = "activation_key_admin"
	RoleMonitoringAdmin    Role = "monitoring_admin"
	RoleSatelliteAdmin     Role = "satellite_admin"
	RoleOrgApplicant       Role = "org_applicant"
)

// ImpliedRoles are granted to every org admin whose org also defines them.
var ImpliedRoles = []Role{
	RoleChannelAdmin,
	RoleConfigAdmin,
	RoleSystemGroupAdmin,
	RoleActivationKeyAdmin,
	RoleMonitoringAdmin,
}

var knownRoles = map[Role]bool{
	RoleOrgAdmin:           true,
	RoleChannelAdmin:       true,
	RoleConfigAdmin:        true,
	RoleSystemGroupAdmin:   true,
	RoleActivationKeyAdmin: true,
	RoleMonitoringAdmin:    true,
	RoleSatelliteAdmin:     true,
	RoleOrgApplicant:       true,
}

// ParseRole returns the role with the given label, or false if the label is unknown.
func ParseRole(label string) (Role, bool) {
	r := Role(label)
	return r, knownRoles[r]
}

// RoleSet is a set of roles. Values handed out by User and Org are copies.
type RoleSet map[Role]struct{}

// NewRoleSet builds a set from the given roles.
func NewRoleSet(roles ...Role) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}

// Contains reports whether r is in the set.
func (s RoleSet) Contains(r Role) bool {
	_, ok := s[r]
	return ok
}

// Sorted returns the roles ordered by label.
func (s RoleSet) Sorted() []Role {
	out := make([]Role, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ResolveRoles computes the effective roles of a member of the given groups.
// Org admins additionally receive every implied role the org defines.
func ResolveRoles(memberships []UserGroup, org *Org) RoleSet {
	roles := make(RoleSet, len(memberships))
	for _, g := range memberships {
		roles[g.Role] = struct{}{}
	}

	if roles.Contains(RoleOrgAdmin) && org != nil {
		orgRoles := org.Roles()
		for _, r := range ImpliedRoles {
			if orgRoles.Contains(r) {
				roles[r] = struct{}{}
			}
		}
	}
	return roles
}
