package service

import (
	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/models"
)

const permissionDenied = "You do not have permission to access this resource"

// RequireAnyRole fails unless user holds at least one of roles.
func RequireAnyRole(user *models.User, roles ...string) error {
	if user != nil {
		for _, r := range roles {
			if user.HasRole(r) {
				return nil
			}
		}
	}
	return apperr.Forbidden(permissionDenied)
}

// RequireAdminOrOwner lets admins through, and otherwise only the owner of the resource.
func RequireAdminOrOwner(user *models.User, ownerID uint) error {
	if user == nil {
		return apperr.Forbidden(permissionDenied)
	}
	if IsAdmin(user) || user.ID == ownerID {
		return nil
	}
	return apperr.Forbidden(permissionDenied)
}

func IsAdmin(user *models.User) bool {
	return user != nil && user.HasRole(models.RoleAdmin)
}
