package repository

import (
	"context"

	"storetrack/internal/model"

	"gorm.io/gorm"
)

// GroupRepository defines data access for groups, their role bundles and
// user memberships.
type GroupRepository interface {
	Create(ctx context.Context, group *model.Group) error
	Update(ctx context.Context, group *model.Group) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Group, error)
	FindByName(ctx context.Context, name string) (*model.Group, error)
	ListAll(ctx context.Context) ([]model.Group, error)
	ListForUser(ctx context.Context, userID uint) ([]model.Group, error)

	AddRole(ctx context.Context, group *model.Group, role *model.Role) error
	RemoveRole(ctx context.Context, group *model.Group, role *model.Role) error
	AddUser(ctx context.Context, group *model.Group, user *model.User) error
	RemoveUser(ctx context.Context, group *model.Group, user *model.User) error
}

type groupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) Create(ctx context.Context, group *model.Group) error {
	return GetDB(ctx, r.db).Create(group).Error
}

func (r *groupRepository) Update(ctx context.Context, group *model.Group) error {
	return GetDB(ctx, r.db).Save(group).Error
}

func (r *groupRepository) Delete(ctx context.Context, id uint) error {
	db := GetDB(ctx, r.db)
	if err := db.Exec("DELETE FROM group_role WHERE group_id = ?", id).Error; err != nil {
		return err
	}
	if err := db.Exec("DELETE FROM group_user WHERE group_id = ?", id).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.Group{}).Error
}

func (r *groupRepository) FindByID(ctx context.Context, id uint) (*model.Group, error) {
	var group model.Group
	if err := GetDB(ctx, r.db).
		Preload("Roles.Permissions").
		Preload("Users").
		First(&group, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepository) FindByName(ctx context.Context, name string) (*model.Group, error) {
	var group model.Group
	if err := GetDB(ctx, r.db).Where("name = ?", name).First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepository) ListAll(ctx context.Context) ([]model.Group, error) {
	var groups []model.Group
	if err := GetDB(ctx, r.db).Preload("Roles").Order("name asc").Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

// ListForUser returns the groups the user belongs to with roles and
// permissions loaded, for effective-permission listings.
func (r *groupRepository) ListForUser(ctx context.Context, userID uint) ([]model.Group, error) {
	var groups []model.Group
	if err := GetDB(ctx, r.db).
		Preload("Roles.Permissions").
		Joins("JOIN group_user gu ON gu.group_id = groups.id").
		Where("gu.user_id = ?", userID).
		Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

// AddRole attaches the role only if the group does not already carry it.
func (r *groupRepository) AddRole(ctx context.Context, group *model.Group, role *model.Role) error {
	db := GetDB(ctx, r.db)
	var count int64
	if err := db.Table("group_role").
		Where("group_id = ? AND role_id = ?", group.ID, role.ID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return db.Model(group).Association("Roles").Append(role)
}

func (r *groupRepository) RemoveRole(ctx context.Context, group *model.Group, role *model.Role) error {
	return GetDB(ctx, r.db).Model(group).Association("Roles").Delete(role)
}

// AddUser attaches the user only if not already a member.
func (r *groupRepository) AddUser(ctx context.Context, group *model.Group, user *model.User) error {
	db := GetDB(ctx, r.db)
	var count int64
	if err := db.Table("group_user").
		Where("group_id = ? AND user_id = ?", group.ID, user.ID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return db.Model(group).Association("Users").Append(user)
}

func (r *groupRepository) RemoveUser(ctx context.Context, group *model.Group, user *model.User) error {
	return GetDB(ctx, r.db).Model(group).Association("Users").Delete(user)
}

// UserHasPermission resolves the group -> role -> permission closure for one
// user and one permission name with a single join. Shared by the
// access-control middleware and the services; evaluated per check, no
// caching.
func UserHasPermission(ctx context.Context, db *gorm.DB, userID uint, name string) (bool, error) {
	var count int64
	err := GetDB(ctx, db).Raw(`
		SELECT COUNT(1) FROM permissions p
		INNER JOIN role_permission rp ON rp.permission_id = p.id
		INNER JOIN group_role gr ON gr.role_id = rp.role_id
		INNER JOIN group_user gu ON gu.group_id = gr.group_id
		WHERE gu.user_id = ? AND p.name = ?
	`, userID, name).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
