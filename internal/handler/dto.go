package handler

import (
	"time"

	"github.com/msomdec/sysmgr/internal/domain"
)

// UserDTO is the JSON representation of a user.
type UserDTO struct {
	ID           int64    `json:"id"`
	Login        string   `json:"login"`
	OrgID        int64    `json:"orgId"`
	Email        string   `json:"email"`
	FirstNames   string   `json:"firstNames"`
	LastName     string   `json:"lastName"`
	Roles        []string `json:"roles"`
	UsePAM       bool     `json:"usePam"`
	Disabled     bool     `json:"disabled"`
	LastLoggedIn *string  `json:"lastLoggedIn"`
	CreatedAt    string   `json:"createdAt"`
	UpdatedAt    string   `json:"updatedAt"`
}

func toUserDTO(u *domain.User) UserDTO {
	dto := UserDTO{
		ID:         u.ID,
		Login:      u.Login(),
		OrgID:      u.OrgID(),
		Email:      u.Personal.Email,
		FirstNames: u.Personal.FirstNames,
		LastName:   u.Personal.LastName,
		Roles:      roleLabels(u.Roles()),
		UsePAM:     u.Info.UsePAMAuthentication,
		Disabled:   u.Disabled,
		CreatedAt:  u.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  u.UpdatedAt.Format(time.RFC3339),
	}
	if u.Info.LastLoggedIn != nil {
		s := u.Info.LastLoggedIn.Format(time.RFC3339)
		dto.LastLoggedIn = &s
	}
	return dto
}

func roleLabels(roles domain.RoleSet) []string {
	labels := make([]string, 0, len(roles))
	for _, r := range roles.Sorted() {
		labels = append(labels, string(r))
	}
	return labels
}

// AddressDTO is the JSON representation of a user's address.
type AddressDTO struct {
	Type     string `json:"type"`
	Address1 string `json:"address1"`
	Address2 string `json:"address2"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zip      string `json:"zip"`
	Country  string `json:"country"`
	Phone    string `json:"phone"`
	Fax      string `json:"fax"`
	IsPoBox  string `json:"isPoBox"`
}

func toAddressDTO(a domain.Address) AddressDTO {
	return AddressDTO{
		Type:     string(a.Type),
		Address1: a.Address1,
		Address2: a.Address2,
		City:     a.City,
		State:    a.State,
		Zip:      a.Zip,
		Country:  a.Country,
		Phone:    a.Phone,
		Fax:      a.Fax,
		IsPoBox:  a.IsPoBox,
	}
}

// apply copies the editable fields onto a. The type is never changed.
func (d AddressDTO) apply(a *domain.Address) {
	a.Address1 = d.Address1
	a.Address2 = d.Address2
	a.City = d.City
	a.State = d.State
	a.Zip = d.Zip
	a.Country = d.Country
	a.Phone = d.Phone
	a.Fax = d.Fax
	a.IsPoBox = d.IsPoBox
}

// ServerDTO is the JSON representation of an essential server.
type ServerDTO struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	BaseChannelLabel string `json:"baseChannelLabel"`
}

// InstallDTO describes an accepted package installation request.
type InstallDTO struct {
	Summary  string      `json:"summary"`
	Earliest *string     `json:"earliest"`
	Packages []string    `json:"packages"`
	Servers  []ServerDTO `json:"servers"`
}

func toInstallDTO(e *domain.PackageInstallEvent) InstallDTO {
	dto := InstallDTO{
		Summary:  e.String(),
		Packages: e.Packages(),
	}
	if t, ok := e.Earliest(); ok {
		s := t.Format(time.RFC3339)
		dto.Earliest = &s
	}
	for _, s := range e.Servers() {
		dto.Servers = append(dto.Servers, ServerDTO{ID: s.ID, Name: s.Name, BaseChannelLabel: s.BaseChannelLabel})
	}
	return dto
}

// ActionDTO is the JSON representation of a scheduled action.
type ActionDTO struct {
	ID         string   `json:"id"`
	ServerID   int64    `json:"serverId"`
	Packages   []string `json:"packages"`
	EarliestAt string   `json:"earliestAt"`
	Status     string   `json:"status"`
	CreatedAt  string   `json:"createdAt"`
}

func toActionDTO(a domain.ScheduledAction) ActionDTO {
	return ActionDTO{
		ID:         a.ID,
		ServerID:   a.ServerID,
		Packages:   a.Packages,
		EarliestAt: a.EarliestAt.Format(time.RFC3339),
		Status:     a.Status,
		CreatedAt:  a.CreatedAt.Format(time.RFC3339),
	}
}
