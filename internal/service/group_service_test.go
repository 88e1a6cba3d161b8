package service

import (
	"context"
	"testing"

	"storetrack/internal/imagestore"
	"storetrack/internal/model"
	"storetrack/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type groupFixture struct {
	groups GroupService
	roles  RoleService
	users  UserService
	db     *gorm.DB
}

func newGroupFixture(t *testing.T) *groupFixture {
	t.Helper()
	db := newTestDB(t)
	groupRepo := repository.NewGroupRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	return &groupFixture{
		groups: NewGroupService(groupRepo, roleRepo, userRepo, auditRepo),
		roles:  NewRoleService(roleRepo, auditRepo),
		users:  NewUserService(userRepo, groupRepo, auditRepo, imagestore.New(t.TempDir())),
		db:     db,
	}
}

func TestCreateGroupRejectsDuplicate(t *testing.T) {
	f := newGroupFixture(t)
	ctx := context.Background()

	_, err := f.groups.CreateGroup(ctx, nil, CreateGroupRequest{Name: "Editors"})
	require.NoError(t, err)

	_, err = f.groups.CreateGroup(ctx, nil, CreateGroupRequest{Name: "Editors"})
	assert.ErrorIs(t, err, ErrConflict)

	all, err := f.groups.ListGroups(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGroupMembershipIsIdempotent(t *testing.T) {
	f := newGroupFixture(t)
	ctx := context.Background()

	group, err := f.groups.CreateGroup(ctx, nil, CreateGroupRequest{Name: "Editors"})
	require.NoError(t, err)
	role, err := f.roles.CreateRole(ctx, nil, CreateRoleRequest{Name: "editor"})
	require.NoError(t, err)
	user := registerAlice(t, f.users)

	// Attaching twice keeps a single association.
	require.NoError(t, f.groups.AddRole(ctx, group.ID, role.ID))
	require.NoError(t, f.groups.AddRole(ctx, group.ID, role.ID))
	require.NoError(t, f.groups.AddUser(ctx, group.ID, user.ID))
	require.NoError(t, f.groups.AddUser(ctx, group.ID, user.ID))

	got, err := f.groups.GetGroup(ctx, group.ID)
	require.NoError(t, err)
	assert.Len(t, got.Roles, 1)
	assert.Len(t, got.Members, 1)
}

func TestRemoveAbsentMembershipIsNoOp(t *testing.T) {
	f := newGroupFixture(t)
	ctx := context.Background()

	group, err := f.groups.CreateGroup(ctx, nil, CreateGroupRequest{Name: "Editors"})
	require.NoError(t, err)
	role, err := f.roles.CreateRole(ctx, nil, CreateRoleRequest{Name: "editor"})
	require.NoError(t, err)
	user := registerAlice(t, f.users)

	assert.NoError(t, f.groups.RemoveRole(ctx, group.ID, role.ID))
	assert.NoError(t, f.groups.RemoveUser(ctx, group.ID, user.ID))
}

func TestDeleteGroupCleansAssociations(t *testing.T) {
	f := newGroupFixture(t)
	ctx := context.Background()

	group, err := f.groups.CreateGroup(ctx, nil, CreateGroupRequest{Name: "Editors"})
	require.NoError(t, err)
	role, err := f.roles.CreateRole(ctx, nil, CreateRoleRequest{Name: "editor"})
	require.NoError(t, err)
	user := registerAlice(t, f.users)

	require.NoError(t, f.groups.AddRole(ctx, group.ID, role.ID))
	require.NoError(t, f.groups.AddUser(ctx, group.ID, user.ID))

	require.NoError(t, f.groups.DeleteGroup(ctx, nil, group.ID))

	_, err = f.groups.GetGroup(ctx, group.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// The user and the role survive; only the bindings go.
	_, err = f.users.GetUser(ctx, user.ID)
	assert.NoError(t, err)
	_, err = f.roles.GetRole(ctx, role.ID)
	assert.NoError(t, err)

	var bindings int64
	require.NoError(t, f.db.Table("group_user").Where("group_id = ?", group.ID).Count(&bindings).Error)
	assert.Zero(t, bindings)
}

// The effective permission set on the profile is the union over all
// groups, deduplicated.
func TestEffectivePermissionsUnion(t *testing.T) {
	f := newGroupFixture(t)
	ctx := context.Background()

	user := registerAlice(t, f.users)

	roleRepo := repository.NewRoleRepository(f.db)
	permA := &model.Permission{Name: "item.update"}
	permB := &model.Permission{Name: "item.delete"}
	require.NoError(t, roleRepo.CreatePermission(ctx, permA))
	require.NoError(t, roleRepo.CreatePermission(ctx, permB))

	editors, err := f.groups.CreateGroup(ctx, nil, CreateGroupRequest{Name: "Editors"})
	require.NoError(t, err)
	cleaners, err := f.groups.CreateGroup(ctx, nil, CreateGroupRequest{Name: "Cleaners"})
	require.NoError(t, err)

	editor, err := f.roles.CreateRole(ctx, nil, CreateRoleRequest{Name: "editor"})
	require.NoError(t, err)
	cleaner, err := f.roles.CreateRole(ctx, nil, CreateRoleRequest{Name: "cleaner"})
	require.NoError(t, err)

	_, err = f.roles.AddPermission(ctx, editor.ID, permA.ID)
	require.NoError(t, err)
	_, err = f.roles.AddPermission(ctx, cleaner.ID, permA.ID)
	require.NoError(t, err)
	_, err = f.roles.AddPermission(ctx, cleaner.ID, permB.ID)
	require.NoError(t, err)

	require.NoError(t, f.groups.AddRole(ctx, editors.ID, editor.ID))
	require.NoError(t, f.groups.AddRole(ctx, cleaners.ID, cleaner.ID))
	require.NoError(t, f.groups.AddUser(ctx, editors.ID, user.ID))
	require.NoError(t, f.groups.AddUser(ctx, cleaners.ID, user.ID))

	me, err := f.users.GetMe(ctx, user.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"item.update", "item.delete"}, me.Permissions)
}
