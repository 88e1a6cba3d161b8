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

func newStorageFixture(t *testing.T) (StorageService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc := NewStorageService(
		repository.NewStorageRepository(db),
		repository.NewItemRepository(db),
		repository.NewCategoryRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
		imagestore.New(t.TempDir()),
	)
	return svc, db
}

func mustCreateStorage(t *testing.T, svc StorageService, name string, parentID uint) uint {
	t.Helper()
	res, err := svc.CreateStorage(context.Background(), nil, CreateStorageRequest{
		Name:     name,
		ParentID: parentID,
	}, nil)
	require.NoError(t, err)
	return res.ID
}

func TestHierarchyChainRootFirst(t *testing.T) {
	svc, _ := newStorageFixture(t)
	ctx := context.Background()

	house := mustCreateStorage(t, svc, "House", 0)
	room := mustCreateStorage(t, svc, "Living Room", house)
	shelf := mustCreateStorage(t, svc, "Shelf", room)

	ids, err := svc.GetHierarchyIDs(ctx, shelf)
	require.NoError(t, err)
	assert.Equal(t, []uint{house, room, shelf}, ids)

	chain, err := svc.GetHierarchy(ctx, shelf)
	require.NoError(t, err)
	require.Len(t, chain, 3)
	assert.Equal(t, "House", chain[0].Name)
	assert.Equal(t, "Shelf", chain[2].Name)

	root, err := svc.GetRoot(ctx, shelf)
	require.NoError(t, err)
	assert.Equal(t, house, root.ID)
}

func TestHierarchyZeroIDIsEmpty(t *testing.T) {
	svc, _ := newStorageFixture(t)

	ids, err := svc.GetHierarchyIDs(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestHierarchyDanglingParent(t *testing.T) {
	svc, db := newStorageFixture(t)
	ctx := context.Background()

	shelf := mustCreateStorage(t, svc, "Shelf", 0)
	// Point the shelf at a parent that does not exist.
	require.NoError(t, db.Model(&model.StorageLocation{}).
		Where("id = ?", shelf).Update("parent_id", 4242).Error)

	// The id chain keeps the unresolvable parent id in front; the object
	// chain stops at the last row that resolves.
	ids, err := svc.GetHierarchyIDs(ctx, shelf)
	require.NoError(t, err)
	assert.Equal(t, []uint{4242, shelf}, ids)

	chain, err := svc.GetHierarchy(ctx, shelf)
	require.NoError(t, err)
	require.Len(t, chain, 1)
	assert.Equal(t, shelf, chain[0].ID)
}

func TestHierarchyCycleTerminates(t *testing.T) {
	svc, db := newStorageFixture(t)
	ctx := context.Background()

	a := mustCreateStorage(t, svc, "A", 0)
	b := mustCreateStorage(t, svc, "B", a)
	require.NoError(t, db.Model(&model.StorageLocation{}).
		Where("id = ?", a).Update("parent_id", b).Error)

	ids, err := svc.GetHierarchyIDs(ctx, b)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{a, b}, ids)
}

func TestListChildRefs(t *testing.T) {
	svc, _ := newStorageFixture(t)
	ctx := context.Background()

	house := mustCreateStorage(t, svc, "House", 0)
	garage := mustCreateStorage(t, svc, "Garage", 0)
	room := mustCreateStorage(t, svc, "Room", house)

	roots, err := svc.ListChildRefs(ctx, 0)
	require.NoError(t, err)
	rootIDs := []uint{}
	for _, ref := range roots {
		rootIDs = append(rootIDs, ref.ID)
	}
	assert.ElementsMatch(t, []uint{house, garage}, rootIDs)

	children, err := svc.ListChildRefs(ctx, house)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, room, children[0].ID)
	assert.Equal(t, "Room", children[0].Name)
}

func TestUpdateStorageRejectsSelfParent(t *testing.T) {
	svc, _ := newStorageFixture(t)

	shelf := mustCreateStorage(t, svc, "Shelf", 0)
	_, err := svc.UpdateStorage(context.Background(), shelf, UpdateStorageRequest{
		Name:     "Shelf",
		ParentID: shelf,
	}, nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteStorageReparentsChildrenAndDetachesItems(t *testing.T) {
	svc, db := newStorageFixture(t)
	ctx := context.Background()

	house := mustCreateStorage(t, svc, "House", 0)
	room := mustCreateStorage(t, svc, "Room", house)

	houseID := house
	item := model.Item{Name: "Drill", StorageLocationID: &houseID}
	require.NoError(t, db.Create(&item).Error)

	require.NoError(t, svc.DeleteStorage(ctx, nil, house))

	_, err := svc.GetStorage(ctx, house)
	assert.ErrorIs(t, err, ErrNotFound)

	var child model.StorageLocation
	require.NoError(t, db.First(&child, room).Error)
	assert.Nil(t, child.ParentID)

	var orphan model.Item
	require.NoError(t, db.First(&orphan, item.ID).Error)
	assert.Nil(t, orphan.StorageLocationID)
}
