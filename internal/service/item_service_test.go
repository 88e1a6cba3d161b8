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

func newItemFixture(t *testing.T) (ItemService, StorageService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	images := imagestore.New(t.TempDir())
	storageRepo := repository.NewStorageRepository(db)
	itemRepo := repository.NewItemRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	txManager := repository.NewTransactionManager(db)

	storages := NewStorageService(storageRepo, itemRepo, categoryRepo, auditRepo, txManager, images)
	items := NewItemService(itemRepo, storageRepo, categoryRepo, auditRepo, txManager, images, nil, storages)
	return items, storages, db
}

func intPtr(v int) *int { return &v }

func TestCreateItemRecordsInitialStock(t *testing.T) {
	items, _, _ := newItemFixture(t)
	ctx := context.Background()

	item, err := items.CreateItem(ctx, nil, CreateItemRequest{
		Name:     "Drill",
		Quantity: intPtr(5),
	}, nil)
	require.NoError(t, err)

	qty, err := items.GetCurrentStock(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, qty)
	assert.Equal(t, 5, *qty)

	created, err := items.GetCreationTimestamp(ctx, item.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "Unknown", created)
}

func TestItemWithoutStockReportsUnknown(t *testing.T) {
	items, _, _ := newItemFixture(t)
	ctx := context.Background()

	item, err := items.CreateItem(ctx, nil, CreateItemRequest{Name: "Mystery Box"}, nil)
	require.NoError(t, err)

	qty, err := items.GetCurrentStock(ctx, item.ID)
	require.NoError(t, err)
	assert.Nil(t, qty)

	created, err := items.GetCreationTimestamp(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Unknown", created)
}

// The stock ledger is append-only: changed quantities add a row,
// resubmitting the current quantity does not.
func TestStockLedgerAppendOnly(t *testing.T) {
	items, _, _ := newItemFixture(t)
	ctx := context.Background()

	item, err := items.CreateItem(ctx, nil, CreateItemRequest{
		Name:     "Screws",
		Quantity: intPtr(100),
	}, nil)
	require.NoError(t, err)

	// Same quantity: no new ledger row.
	_, err = items.UpdateItem(ctx, nil, item.ID, UpdateItemRequest{
		Name:     "Screws",
		Quantity: intPtr(100),
	}, nil)
	require.NoError(t, err)

	history, err := items.StockHistory(ctx, item.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	// Changed quantity: one new row, older rows untouched.
	_, err = items.UpdateItem(ctx, nil, item.ID, UpdateItemRequest{
		Name:     "Screws",
		Quantity: intPtr(80),
	}, nil)
	require.NoError(t, err)

	history, err = items.StockHistory(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 100, history[0].Quantity)
	assert.Equal(t, 80, history[1].Quantity)

	qty, err := items.GetCurrentStock(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, qty)
	assert.Equal(t, 80, *qty)
}

func TestUpdateItemReplacesCategories(t *testing.T) {
	items, _, db := newItemFixture(t)
	ctx := context.Background()

	require.NoError(t, db.Create(&model.CategoryColor{Name: "Blue", Color: "primary"}).Error)
	tools := model.Category{Name: "Tools", ColorID: 1}
	garden := model.Category{Name: "Garden", ColorID: 1}
	require.NoError(t, db.Create(&tools).Error)
	require.NoError(t, db.Create(&garden).Error)

	item, err := items.CreateItem(ctx, nil, CreateItemRequest{
		Name:        "Rake",
		CategoryIDs: []uint{tools.ID, garden.ID},
	}, nil)
	require.NoError(t, err)
	require.Len(t, item.Categories, 2)

	// The submitted set fully replaces the old one.
	updated, err := items.UpdateItem(ctx, nil, item.ID, UpdateItemRequest{
		Name:        "Rake",
		CategoryIDs: []uint{garden.ID},
	}, nil)
	require.NoError(t, err)
	require.Len(t, updated.Categories, 1)
	assert.Equal(t, "Garden", updated.Categories[0].Name)
}

func TestCreateItemRejectsDuplicateBarcode(t *testing.T) {
	items, _, _ := newItemFixture(t)
	ctx := context.Background()

	_, err := items.CreateItem(ctx, nil, CreateItemRequest{Name: "A", Barcode: "4006381333931"}, nil)
	require.NoError(t, err)

	_, err = items.CreateItem(ctx, nil, CreateItemRequest{Name: "B", Barcode: "4006381333931"}, nil)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestItemStorageHierarchyOnDetail(t *testing.T) {
	items, storages, _ := newItemFixture(t)
	ctx := context.Background()

	house := mustCreateStorage(t, storages, "House", 0)
	shelf := mustCreateStorage(t, storages, "Shelf", house)

	item, err := items.CreateItem(ctx, nil, CreateItemRequest{
		Name:              "Drill",
		StorageLocationID: shelf,
	}, nil)
	require.NoError(t, err)

	require.Len(t, item.StorageHierarchy, 2)
	assert.Equal(t, "House", item.StorageHierarchy[0].Name)
	assert.Equal(t, "Shelf", item.StorageHierarchy[1].Name)
}

func TestDeleteItemCascades(t *testing.T) {
	items, _, db := newItemFixture(t)
	ctx := context.Background()

	item, err := items.CreateItem(ctx, nil, CreateItemRequest{
		Name:     "Drill",
		Quantity: intPtr(3),
	}, nil)
	require.NoError(t, err)

	require.NoError(t, db.Create(&model.ItemImage{ItemID: item.ID, Filename: "gone.png"}).Error)

	require.NoError(t, items.DeleteItem(ctx, nil, item.ID))

	_, err = items.GetItem(ctx, item.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var stockRows int64
	require.NoError(t, db.Model(&model.ItemStorageStock{}).
		Where("item_id = ?", item.ID).Count(&stockRows).Error)
	assert.Zero(t, stockRows)

	var imageRows int64
	require.NoError(t, db.Model(&model.ItemImage{}).
		Where("item_id = ?", item.ID).Count(&imageRows).Error)
	assert.Zero(t, imageRows)
}
