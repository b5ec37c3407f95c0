package domain

import (
	"context"
	"fmt"
	"slices"
	"time"
)

// PersonalInfo holds identity and contact details of a user.
type PersonalInfo struct {
	Login      string
	Password   string
	Prefix     string
	FirstNames string
	LastName   string
	Company    string
	Title      string
	Email      string
}

// UserInfo holds per-user preferences.
type UserInfo struct {
	UsePAMAuthentication bool
	PageSize             int
	ShowSystemGroupList  string
	LastLoggedIn         *time.Time
	PreferredLocale      string
	TimeZone             string
	EmailNotify          int
}

// NotificationMethod is a destination for monitoring notifications.
type NotificationMethod struct {
	ID      int64
	Name    string
	Type    string
	Address string
}

// User is an account within an org.
//
// Group memberships, addresses and servers are only reachable through methods
// so that role changes go through AddRole/RemoveRole and callers never hold
// references into the user's collections.
type User struct {
	ID                  int64
	Org                 *Org
	Personal            PersonalInfo
	Info                UserInfo
	Disabled            bool
	NotificationMethods []NotificationMethod
	CreatedAt           time.Time
	UpdatedAt           time.Time

	groups    []UserGroup
	addresses []Address
	servers   []Server

	// nil until the first role change; see WasOrgAdmin.
	wasOrgAdmin *bool
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByLogin(ctx context.Context, login string) (*User, error)
	// Update stores the whole aggregate from user, replacing every association.
	Update(ctx context.Context, user *User) error
	UpdateLastLogin(ctx context.Context, id int64, t time.Time) error
	UpdateAddresses(ctx context.Context, id int64, addrs []Address) error
	UpdateGroups(ctx context.Context, id int64, groups []UserGroup) error
}

// Login returns the user's login name.
func (u *User) Login() string {
	return u.Personal.Login
}

// OrgID returns the ID of the user's org, or 0 if the user has none.
func (u *User) OrgID() int64 {
	if u.Org == nil {
		return 0
	}
	return u.Org.ID
}

// Groups returns a copy of the user's group memberships.
func (u *User) Groups() []UserGroup {
	return slices.Clone(u.groups)
}

// SetGroups replaces the group memberships. Intended for repositories loading a user.
func (u *User) SetGroups(groups []UserGroup) {
	u.groups = slices.Clone(groups)
}

// Roles returns the user's effective roles, implied roles included.
func (u *User) Roles() RoleSet {
	return ResolveRoles(u.groups, u.Org)
}

// HasRole reports whether role is among the user's effective roles.
func (u *User) HasRole(role Role) bool {
	return u.Roles().Contains(role)
}

// AddRole makes the user a member of the org group backing role.
func (u *User) AddRole(role Role) error {
	u.checkOrgAdmin()
	g, ok := u.Org.UserGroup(role)
	if !ok {
		return fmt.Errorf("%w: org doesn't have role %s", ErrInvalidInput, role)
	}
	for _, existing := range u.groups {
		if existing.ID == g.ID {
			return nil
		}
	}
	u.groups = append(u.groups, g)
	return nil
}

// RemoveRole drops the user's membership in the org group backing role.
// It does nothing when the org has no such group.
func (u *User) RemoveRole(role Role) {
	u.checkOrgAdmin()
	g, ok := u.Org.UserGroup(role)
	if !ok {
		return
	}
	u.groups = slices.DeleteFunc(u.groups, func(existing UserGroup) bool {
		return existing.ID == g.ID
	})
}

// WasOrgAdmin reports whether the user was an org admin before the first role
// change since the last reset. It is nil when no role change happened.
func (u *User) WasOrgAdmin() *bool {
	if u.wasOrgAdmin == nil {
		return nil
	}
	v := *u.wasOrgAdmin
	return &v
}

// ResetWasOrgAdmin forgets the org admin snapshot.
func (u *User) ResetWasOrgAdmin() {
	u.wasOrgAdmin = nil
}

func (u *User) checkOrgAdmin() {
	if u.wasOrgAdmin == nil {
		v := u.HasRole(RoleOrgAdmin)
		u.wasOrgAdmin = &v
	}
}

// Addresses returns a copy of the user's address records.
func (u *User) Addresses() []Address {
	return slices.Clone(u.addresses)
}

// SetAddresses replaces the address records. Intended for repositories loading a user.
func (u *User) SetAddresses(addrs []Address) {
	u.addresses = slices.Clone(addrs)
}

// Address returns the user's contact address for in-place editing.
//
// When the user has no marketing address one is synthesized by
// EffectiveAddress and appended to the user's addresses, so later calls
// return the same record and the repository stores it on Update.
// The pointer is valid until the address list is replaced.
func (u *User) Address() *Address {
	for i := range u.addresses {
		if u.addresses[i].Type == AddressTypeMarketing {
			return &u.addresses[i]
		}
	}
	addr, _ := EffectiveAddress(u.addresses)
	u.addresses = append(u.addresses, addr)
	return &u.addresses[len(u.addresses)-1]
}

func (u *User) Phone() string { return u.Address().Phone }
func (u *User) SetPhone(v string) { u.Address().Phone = v }
func (u *User) Fax() string { return u.Address().Fax }
func (u *User) SetFax(v string) { u.Address().Fax = v }
func (u *User) City() string { return u.Address().City }
func (u *User) SetCity(v string) { u.Address().City = v }
func (u *User) Country() string { return u.Address().Country }
func (u *User) SetCountry(v string) { u.Address().Country = v }
func (u *User) Address1() string { return u.Address().Address1 }
func (u *User) SetAddress1(v string) { u.Address().Address1 = v }
func (u *User) Address2() string { return u.Address().Address2 }
func (u *User) SetAddress2(v string) { u.Address().Address2 = v }
func (u *User) State() string { return u.Address().State }
func (u *User) SetState(v string) { u.Address().State = v }
func (u *User) Zip() string { return u.Address().Zip }
func (u *User) SetZip(v string) { u.Address().Zip = v }
func (u *User) IsPoBox() string { return u.Address().IsPoBox }
func (u *User) SetIsPoBox(v string) { u.Address().IsPoBox = v }

// Servers returns a copy of the servers the user is associated with.
func (u *User) Servers() []Server {
	return slices.Clone(u.servers)
}

// SetServers replaces the server associations. Intended for repositories loading a user.
func (u *User) SetServers(servers []Server) {
	u.servers = slices.Clone(servers)
}

// AddServer associates the user with s. Adding a server twice is a no-op.
func (u *User) AddServer(s Server) {
	for _, existing := range u.servers {
		if existing.ID == s.ID {
			return
		}
	}
	u.servers = append(u.servers, s)
}

// RemoveServer drops the association with the server with the given ID.
func (u *User) RemoveServer(id int64) {
	u.servers = slices.DeleteFunc(u.servers, func(s Server) bool { return s.ID == id })
}

// Equal reports whether u and other are the same account: same login, org and ID.
func (u *User) Equal(other *User) bool {
	if u == nil || other == nil {
		return u == other
	}
	return u.Login() == other.Login() && u.OrgID() == other.OrgID() && u.ID == other.ID
}

func (u *User) String() string {
	return fmt.Sprintf("user %s (id %d, org_id %d)", u.Login(), u.ID, u.OrgID())
}
