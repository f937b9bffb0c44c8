// Package authroles maps IdP identities onto application roles.
package authroles

import (
	"strings"

	domainauth "github.com/equinetracker/equinetracker/internal/domain/auth"
)

// StaticRoleMapper grants roles by exact group membership.
// Admin membership wins over user membership; everyone else is a guest.
type StaticRoleMapper struct {
	AdminGroup string
	UserGroup  string
}

// Map implements ports.RoleMapper.
func (m StaticRoleMapper) Map(id domainauth.Identity) domainauth.Role {
	switch {
	case memberOf(id.Groups, m.AdminGroup):
		return domainauth.RoleAdmin
	case memberOf(id.Groups, m.UserGroup):
		return domainauth.RoleUser
	default:
		return domainauth.RoleGuest
	}
}

func memberOf(groups []string, want string) bool {
	want = strings.TrimSpace(want)
	if want == "" {
		return false
	}
	for _, g := range groups {
		if strings.EqualFold(strings.TrimSpace(g), want) {
			return true
		}
	}
	return false
}
