package service

import (
	"context"
	"testing"

	"storetrack/internal/model"
	"storetrack/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newRoleFixture(t *testing.T) (RoleService, repository.RoleRepository, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	repo := repository.NewRoleRepository(db)
	svc := NewRoleService(repo, repository.NewAuditRepository(db))
	return svc, repo, db
}

func TestCreateRoleRejectsDuplicate(t *testing.T) {
	svc, _, db := newRoleFixture(t)
	ctx := context.Background()

	_, err := svc.CreateRole(ctx, nil, CreateRoleRequest{Name: "editor"})
	require.NoError(t, err)

	_, err = svc.CreateRole(ctx, nil, CreateRoleRequest{Name: "editor"})
	assert.ErrorIs(t, err, ErrConflict)

	// The rejection leaves an audit trail entry.
	var entry model.AuditLog
	require.NoError(t, db.Where("action = ?", model.ActionRejectDuplicate).First(&entry).Error)
	assert.Equal(t, "editor", entry.EntityName)
}

func TestAddPermissionIsIdempotent(t *testing.T) {
	svc, repo, _ := newRoleFixture(t)
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, nil, CreateRoleRequest{Name: "editor"})
	require.NoError(t, err)

	perm := &model.Permission{Name: "item.update"}
	require.NoError(t, repo.CreatePermission(ctx, perm))

	for i := 0; i < 2; i++ {
		updated, err := svc.AddPermission(ctx, role.ID, perm.ID)
		require.NoError(t, err)
		assert.Len(t, updated.Permissions, 1)
	}

	has, err := svc.RoleHasPermission(ctx, role.ID, "item.update")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestRemoveAbsentPermissionIsNoOp(t *testing.T) {
	svc, repo, _ := newRoleFixture(t)
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, nil, CreateRoleRequest{Name: "viewer"})
	require.NoError(t, err)

	perm := &model.Permission{Name: "item.delete"}
	require.NoError(t, repo.CreatePermission(ctx, perm))

	updated, err := svc.RemovePermission(ctx, role.ID, perm.ID)
	require.NoError(t, err)
	assert.Empty(t, updated.Permissions)
}

func TestRemovePermissionDetaches(t *testing.T) {
	svc, repo, _ := newRoleFixture(t)
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, nil, CreateRoleRequest{Name: "editor"})
	require.NoError(t, err)

	perm := &model.Permission{Name: "item.update"}
	require.NoError(t, repo.CreatePermission(ctx, perm))

	_, err = svc.AddPermission(ctx, role.ID, perm.ID)
	require.NoError(t, err)

	updated, err := svc.RemovePermission(ctx, role.ID, perm.ID)
	require.NoError(t, err)
	assert.Empty(t, updated.Permissions)

	has, err := svc.RoleHasPermission(ctx, role.ID, "item.update")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestDeleteRoleUnknownID(t *testing.T) {
	svc, _, _ := newRoleFixture(t)

	err := svc.DeleteRole(context.Background(), nil, 4242)
	assert.ErrorIs(t, err, ErrNotFound)
}
