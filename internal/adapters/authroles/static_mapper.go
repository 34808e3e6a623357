package authroles

import (
	domainauth "github.com/partkeep/partkeep/internal/domain/auth"
)

// StaticRoleMapper maps provider groups to roles by simple string membership.
// Admin wins over manager; everything else is a designer, which keeps
// unrecognized group sets from ever granting elevated access.
type StaticRoleMapper struct {
	AdminGroup   string
	ManagerGroup string
}

func (m StaticRoleMapper) Map(groups []string) domainauth.Role {
	for _, g := range groups {
		if m.AdminGroup != "" && g == m.AdminGroup {
			return domainauth.RoleAdmin
		}
	}
	for _, g := range groups {
		if m.ManagerGroup != "" && g == m.ManagerGroup {
			return domainauth.RoleManager
		}
	}
	return domainauth.RoleDesigner
}
