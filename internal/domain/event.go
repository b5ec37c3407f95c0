package domain

import (
	"fmt"
	"slices"
	"sort"
	"time"
)

// EventPackageInstall is the name under which PackageInstallEvent is dispatched.
const EventPackageInstall = "ssm.package_install"

// PackageInstallEvent asks for a set of packages to be installed on a list of
// systems. It cannot be modified after construction.
type PackageInstallEvent struct {
	user     *User
	earliest *time.Time
	packages []string
	servers  []EssentialServer
}

// NewPackageInstallEvent builds the event. user, packages and servers are
// required; earliest may be nil. An empty, non-nil package set is accepted.
// Duplicate package IDs are collapsed.
func NewPackageInstallEvent(user *User, earliest *time.Time, packages []string, servers []EssentialServer) (*PackageInstallEvent, error) {
	if user == nil {
		return nil, fmt.Errorf("%w: user cannot be nil", ErrInvalidInput)
	}
	if packages == nil {
		return nil, fmt.Errorf("%w: packages cannot be nil", ErrInvalidInput)
	}
	if servers == nil {
		return nil, fmt.Errorf("%w: servers cannot be nil", ErrInvalidInput)
	}

	set := make([]string, 0, len(packages))
	seen := make(map[string]bool, len(packages))
	for _, p := range packages {
		if !seen[p] {
			seen[p] = true
			set = append(set, p)
		}
	}
	sort.Strings(set)

	e := &PackageInstallEvent{
		user:     user,
		packages: set,
		servers:  slices.Clone(servers),
	}
	if earliest != nil {
		t := *earliest
		e.earliest = &t
	}
	return e, nil
}

func (e *PackageInstallEvent) EventName() string { return EventPackageInstall }

// User returns the user who requested the installation.
func (e *PackageInstallEvent) User() *User { return e.user }

// Earliest returns the earliest time the installation may run, if one was given.
func (e *PackageInstallEvent) Earliest() (time.Time, bool) {
	if e.earliest == nil {
		return time.Time{}, false
	}
	return *e.earliest, true
}

// Packages returns the package IDs in sorted order.
func (e *PackageInstallEvent) Packages() []string { return slices.Clone(e.packages) }

// Servers returns the target systems.
func (e *PackageInstallEvent) Servers() []EssentialServer { return slices.Clone(e.servers) }

func (e *PackageInstallEvent) String() string {
	return fmt.Sprintf("PackageInstallEvent[User: %s, Package Count: %d, Server Count: %d]",
		e.user.Login(), len(e.packages), len(e.servers))
}
