package repository

import (
	"context"

	"storetrack/internal/model"

	"gorm.io/gorm"
)

// RoleRepository defines data access for roles and the permission registry.
type RoleRepository interface {
	Create(ctx context.Context, role *model.Role) error
	Update(ctx context.Context, role *model.Role) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Role, error)
	FindByIDWithPermissions(ctx context.Context, id uint) (*model.Role, error)
	FindByName(ctx context.Context, name string) (*model.Role, error)
	ListAll(ctx context.Context) ([]model.Role, error)

	AddPermission(ctx context.Context, role *model.Role, perm *model.Permission) error
	RemovePermission(ctx context.Context, role *model.Role, perm *model.Permission) error

	CreatePermission(ctx context.Context, perm *model.Permission) error
	FindOrCreatePermission(ctx context.Context, perm *model.Permission) error
	FindPermissionByID(ctx context.Context, id uint) (*model.Permission, error)
	FindPermissionByName(ctx context.Context, name string) (*model.Permission, error)
	ListPermissions(ctx context.Context) ([]model.Permission, error)
}

type roleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) Create(ctx context.Context, role *model.Role) error {
	return GetDB(ctx, r.db).Create(role).Error
}

func (r *roleRepository) Update(ctx context.Context, role *model.Role) error {
	return GetDB(ctx, r.db).Save(role).Error
}

func (r *roleRepository) Delete(ctx context.Context, id uint) error {
	db := GetDB(ctx, r.db)
	// Association rows first; no database-level cascade.
	if err := db.Exec("DELETE FROM role_permission WHERE role_id = ?", id).Error; err != nil {
		return err
	}
	if err := db.Exec("DELETE FROM group_role WHERE role_id = ?", id).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.Role{}).Error
}

func (r *roleRepository) FindByID(ctx context.Context, id uint) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).First(&role, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) FindByIDWithPermissions(ctx context.Context, id uint) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).Preload("Permissions").First(&role, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) FindByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) ListAll(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	if err := GetDB(ctx, r.db).Preload("Permissions").Order("name asc").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

// AddPermission attaches the permission to the role. Adding a permission the
// role already carries is a no-op, keeping the association free of
// duplicate rows.
func (r *roleRepository) AddPermission(ctx context.Context, role *model.Role, perm *model.Permission) error {
	var count int64
	db := GetDB(ctx, r.db)
	if err := db.Table("role_permission").
		Where("role_id = ? AND permission_id = ?", role.ID, perm.ID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return db.Model(role).Association("Permissions").Append(perm)
}

// RemovePermission detaches the permission; removing an absent permission
// leaves the role unchanged.
func (r *roleRepository) RemovePermission(ctx context.Context, role *model.Role, perm *model.Permission) error {
	return GetDB(ctx, r.db).Model(role).Association("Permissions").Delete(perm)
}

func (r *roleRepository) CreatePermission(ctx context.Context, perm *model.Permission) error {
	return GetDB(ctx, r.db).Create(perm).Error
}

func (r *roleRepository) FindOrCreatePermission(ctx context.Context, perm *model.Permission) error {
	return GetDB(ctx, r.db).Where("name = ?", perm.Name).FirstOrCreate(perm).Error
}

func (r *roleRepository) FindPermissionByID(ctx context.Context, id uint) (*model.Permission, error) {
	var perm model.Permission
	if err := GetDB(ctx, r.db).First(&perm, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &perm, nil
}

func (r *roleRepository) FindPermissionByName(ctx context.Context, name string) (*model.Permission, error) {
	var perm model.Permission
	if err := GetDB(ctx, r.db).Where("name = ?", name).First(&perm).Error; err != nil {
		return nil, err
	}
	return &perm, nil
}

func (r *roleRepository) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	var perms []model.Permission
	if err := GetDB(ctx, r.db).Order("name asc").Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}
