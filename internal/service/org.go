package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/msomdec/sysmgr/internal/domain"
)

// DefaultOrgRoles are the roles a new org makes available unless told otherwise.
var DefaultOrgRoles = append([]domain.Role{domain.RoleOrgAdmin}, domain.ImpliedRoles...)

// OrgService creates orgs and the user groups backing their roles.
type OrgService struct {
	orgs domain.OrgRepository
}

func NewOrgService(orgs domain.OrgRepository) *OrgService {
	return &OrgService{orgs: orgs}
}

// CreateOrg stores an org with one user group per role. With no roles given
// DefaultOrgRoles is used.
func (s *OrgService) CreateOrg(ctx context.Context, name string, roles ...domain.Role) (*domain.Org, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: org name is required", domain.ErrInvalidInput)
	}
	if len(roles) == 0 {
		roles = DefaultOrgRoles
	}

	org := &domain.Org{Name: name}
	for _, r := range domain.NewRoleSet(roles...).Sorted() {
		org.UserGroups = append(org.UserGroups, domain.UserGroup{
			Name: groupName(r),
			Role: r,
		})
	}

	if err := s.orgs.Create(ctx, org); err != nil {
		return nil, fmt.Errorf("create org: %w", err)
	}
	return org, nil
}

func (s *OrgService) GetOrg(ctx context.Context, id int64) (*domain.Org, error) {
	return s.orgs.GetByID(ctx, id)
}

// groupName turns "config_admin" into "Config Administrators".
func groupName(r domain.Role) string {
	words := strings.Split(strings.TrimSuffix(string(r), "_admin"), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	name := strings.Join(words, " ")
	if strings.HasSuffix(string(r), "_admin") {
		name += " Administrators"
	}
	return name
}
