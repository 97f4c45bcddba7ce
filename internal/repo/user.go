package repo

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Preload("Roles").Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Preload("Roles").First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) EmailTaken(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) NationalIDTaken(ctx context.Context, nationalID string) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Where("national_id = ?", nationalID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) FindRole(ctx context.Context, authority string) (*models.Role, error) {
	var role models.Role
	if err := r.DB.WithContext(ctx).Where("authority = ?", authority).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// CreateUser inserts u together with links to the named roles.
func (r *GormRepo) CreateUser(ctx context.Context, u *models.User, authorities ...string) error {
	for _, a := range authorities {
		role, err := r.FindRole(ctx, a)
		if err != nil {
			return fmt.Errorf("role %s: %w", a, err)
		}
		u.Roles = append(u.Roles, *role)
	}
	return r.DB.WithContext(ctx).Create(u).Error
}

// GrantRole adds the role to the user if missing.
func (r *GormRepo) GrantRole(ctx context.Context, u *models.User, authority string) error {
	if u.HasRole(authority) {
		return nil
	}
	role, err := r.FindRole(ctx, authority)
	if err != nil {
		return fmt.Errorf("role %s: %w", authority, err)
	}
	if err := r.DB.WithContext(ctx).Model(u).Association("Roles").Append(role); err != nil {
		return err
	}
	return nil
}
