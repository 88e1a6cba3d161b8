package service

import (
	"context"
	"testing"

	"storetrack/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := repository.NewCategoryRepository(db)
	svc := NewCategoryService(repo)

	require.NoError(t, Seed(ctx, repository.NewRoleRepository(db), repository.NewGroupRepository(db), repo))

	colors, err := svc.ListColors(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, colors)

	created, err := svc.CreateCategory(ctx, CreateCategoryRequest{Name: "Tools", ColorID: colors[2].ID})
	require.NoError(t, err)
	assert.Equal(t, colors[2].Color, created.Color)

	_, err = svc.CreateCategory(ctx, CreateCategoryRequest{Name: "Tools"})
	assert.ErrorIs(t, err, ErrConflict)

	updated, err := svc.UpdateCategory(ctx, created.ID, UpdateCategoryRequest{Name: "Hand Tools", ColorID: colors[0].ID})
	require.NoError(t, err)
	assert.Equal(t, "Hand Tools", updated.Name)
	assert.Equal(t, colors[0].Color, updated.Color)

	require.NoError(t, svc.DeleteCategory(ctx, created.ID))
	_, err = svc.GetCategory(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

// Defaulting: a category created without a color lands on the first
// palette entry.
func TestCategoryDefaultColor(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := repository.NewCategoryRepository(db)
	svc := NewCategoryService(repo)

	require.NoError(t, Seed(ctx, repository.NewRoleRepository(db), repository.NewGroupRepository(db), repo))

	created, err := svc.CreateCategory(ctx, CreateCategoryRequest{Name: "Misc"})
	require.NoError(t, err)
	assert.Equal(t, "primary", created.Color)
}

func TestSeedIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	roleRepo := repository.NewRoleRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)

	require.NoError(t, Seed(ctx, roleRepo, groupRepo, categoryRepo))
	require.NoError(t, Seed(ctx, roleRepo, groupRepo, categoryRepo))

	perms, err := roleRepo.ListPermissions(ctx)
	require.NoError(t, err)
	assert.Len(t, perms, len(knownPermissions))

	roles, err := roleRepo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 1)

	role, err := roleRepo.FindByIDWithPermissions(ctx, roles[0].ID)
	require.NoError(t, err)
	assert.Len(t, role.Permissions, len(knownPermissions))

	groups, err := groupRepo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, groups, 1)

	colors, err := categoryRepo.ListColors(ctx)
	require.NoError(t, err)
	assert.Len(t, colors, len(categoryPalette))
}
