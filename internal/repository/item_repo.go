package repository

import (
	"context"
	"errors"

	"storetrack/internal/model"

	"gorm.io/gorm"
)

// ItemRepository defines data access for items, their images and the
// append-only stock ledger.
type ItemRepository interface {
	Create(ctx context.Context, item *model.Item) error
	Update(ctx context.Context, item *model.Item) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Item, error)
	FindByIDWithDetails(ctx context.Context, id uint) (*model.Item, error)
	FindByBarcode(ctx context.Context, barcode string) (*model.Item, error)
	List(ctx context.Context, page, limit int, search string) ([]model.Item, int64, error)
	ListByStorage(ctx context.Context, storageID uint) ([]model.Item, error)

	ReplaceCategories(ctx context.Context, item *model.Item, categories []model.Category) error

	AddImage(ctx context.Context, image *model.ItemImage) error
	ListImages(ctx context.Context, itemID uint) ([]model.ItemImage, error)
	DeleteImages(ctx context.Context, itemID uint) error

	AppendStock(ctx context.Context, row *model.ItemStorageStock) error
	LatestStock(ctx context.Context, itemID uint) (*model.ItemStorageStock, error)
	EarliestStock(ctx context.Context, itemID uint) (*model.ItemStorageStock, error)
	ListStock(ctx context.Context, itemID uint) ([]model.ItemStorageStock, error)
	DeleteStock(ctx context.Context, itemID uint) error
}

type itemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) Create(ctx context.Context, item *model.Item) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *itemRepository) Update(ctx context.Context, item *model.Item) error {
	return GetDB(ctx, r.db).Save(item).Error
}

func (r *itemRepository) Delete(ctx context.Context, id uint) error {
	db := GetDB(ctx, r.db)
	if err := db.Exec("DELETE FROM item_category WHERE item_id = ?", id).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.Item{}).Error
}

func (r *itemRepository) FindByID(ctx context.Context, id uint) (*model.Item, error) {
	var item model.Item
	if err := GetDB(ctx, r.db).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) FindByIDWithDetails(ctx context.Context, id uint) (*model.Item, error) {
	var item model.Item
	if err := GetDB(ctx, r.db).
		Preload("Categories.Color").
		Preload("Images").
		First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) FindByBarcode(ctx context.Context, barcode string) (*model.Item, error) {
	var item model.Item
	if err := GetDB(ctx, r.db).Where("barcode = ?", barcode).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) List(ctx context.Context, page, limit int, search string) ([]model.Item, int64, error) {
	var items []model.Item
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Item{})
	if search != "" {
		db = db.Where("name LIKE ?", "%"+search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Categories.Color").Order("name asc").
		Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (r *itemRepository) ListByStorage(ctx context.Context, storageID uint) ([]model.Item, error) {
	var items []model.Item
	if err := GetDB(ctx, r.db).Where("storage_location_id = ?", storageID).
		Order("name asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *itemRepository) ReplaceCategories(ctx context.Context, item *model.Item, categories []model.Category) error {
	return GetDB(ctx, r.db).Model(item).Association("Categories").Replace(categories)
}

func (r *itemRepository) AddImage(ctx context.Context, image *model.ItemImage) error {
	return GetDB(ctx, r.db).Create(image).Error
}

func (r *itemRepository) ListImages(ctx context.Context, itemID uint) ([]model.ItemImage, error) {
	var images []model.ItemImage
	if err := GetDB(ctx, r.db).Where("item_id = ?", itemID).Order("id asc").Find(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}

func (r *itemRepository) DeleteImages(ctx context.Context, itemID uint) error {
	return GetDB(ctx, r.db).Where("item_id = ?", itemID).Delete(&model.ItemImage{}).Error
}

func (r *itemRepository) AppendStock(ctx context.Context, row *model.ItemStorageStock) error {
	return GetDB(ctx, r.db).Create(row).Error
}

// LatestStock returns the most recent ledger row, or nil when the item has
// no stock history. Ties on timestamp resolve to the later insert.
func (r *itemRepository) LatestStock(ctx context.Context, itemID uint) (*model.ItemStorageStock, error) {
	var row model.ItemStorageStock
	err := GetDB(ctx, r.db).Where("item_id = ?", itemID).
		Order("timestamp desc, id desc").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *itemRepository) EarliestStock(ctx context.Context, itemID uint) (*model.ItemStorageStock, error) {
	var row model.ItemStorageStock
	err := GetDB(ctx, r.db).Where("item_id = ?", itemID).
		Order("timestamp asc, id asc").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *itemRepository) ListStock(ctx context.Context, itemID uint) ([]model.ItemStorageStock, error) {
	var rows []model.ItemStorageStock
	if err := GetDB(ctx, r.db).Where("item_id = ?", itemID).
		Order("timestamp asc, id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *itemRepository) DeleteStock(ctx context.Context, itemID uint) error {
	return GetDB(ctx, r.db).Where("item_id = ?", itemID).Delete(&model.ItemStorageStock{}).Error
}
