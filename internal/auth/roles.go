package auth

import "github.com/turfease/platform/internal/domain"

// ListingRoles may create and manage turfs.
func ListingRoles() []domain.Role {
	return []domain.Role{domain.RoleOwner, domain.RoleAdmin}
}

// AdminRoles may use the admin console.
func AdminRoles() []domain.Role {
	return []domain.Role{domain.RoleAdmin}
}
