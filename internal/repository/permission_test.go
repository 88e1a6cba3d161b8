package repository

import (
	"context"
	"path/filepath"
	"testing"

	"storetrack/internal/database"
	"storetrack/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Discard,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

// A user holds a permission exactly when some group they belong to has a
// role carrying it. Every hop of the chain is required.
func TestUserHasPermissionClosure(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	userRepo := NewUserRepository(db)
	roleRepo := NewRoleRepository(db)
	groupRepo := NewGroupRepository(db)

	alice := &model.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x"}
	require.NoError(t, userRepo.Create(ctx, alice))

	perm := &model.Permission{Name: "item.update"}
	require.NoError(t, roleRepo.CreatePermission(ctx, perm))

	editor := &model.Role{Name: "editor"}
	require.NoError(t, roleRepo.Create(ctx, editor))

	editors := &model.Group{Name: "Editors"}
	require.NoError(t, groupRepo.Create(ctx, editors))

	check := func() bool {
		ok, err := UserHasPermission(ctx, db, alice.ID, "item.update")
		require.NoError(t, err)
		return ok
	}

	// No link at all yet.
	assert.False(t, check())

	// Permission on role, but role not in any of alice's groups.
	require.NoError(t, roleRepo.AddPermission(ctx, editor, perm))
	assert.False(t, check())

	// Role in group, but alice not a member.
	require.NoError(t, groupRepo.AddRole(ctx, editors, editor))
	assert.False(t, check())

	// Full chain: user -> group -> role -> permission.
	require.NoError(t, groupRepo.AddUser(ctx, editors, alice))
	assert.True(t, check())

	// A different permission name still fails.
	ok, err := UserHasPermission(ctx, db, alice.ID, "item.delete")
	require.NoError(t, err)
	assert.False(t, ok)

	// Breaking any hop revokes it.
	require.NoError(t, groupRepo.RemoveRole(ctx, editors, editor))
	assert.False(t, check())
}

func TestUserHasPermissionUnknownUser(t *testing.T) {
	db := newTestDB(t)

	ok, err := UserHasPermission(context.Background(), db, 4242, "item.update")
	require.NoError(t, err)
	assert.False(t, ok)
}
