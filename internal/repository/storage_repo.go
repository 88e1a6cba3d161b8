package repository

import (
	"context"

	"storetrack/internal/model"

	"gorm.io/gorm"
)

// StorageRepository defines data access for the storage location tree and
// its attached images.
type StorageRepository interface {
	Create(ctx context.Context, loc *model.StorageLocation) error
	Update(ctx context.Context, loc *model.StorageLocation) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.StorageLocation, error)
	FindByIDWithDetails(ctx context.Context, id uint) (*model.StorageLocation, error)
	ListAll(ctx context.Context) ([]model.StorageLocation, error)
	ListByParent(ctx context.Context, parentID *uint) ([]model.StorageLocation, error)

	ReplaceCategories(ctx context.Context, loc *model.StorageLocation, categories []model.Category) error
	ClearChildrenParent(ctx context.Context, id uint) error
	DetachItems(ctx context.Context, id uint) error

	AddImage(ctx context.Context, image *model.StorageImage) error
	ListImages(ctx context.Context, storageID uint) ([]model.StorageImage, error)
	DeleteImages(ctx context.Context, storageID uint) error
}

type storageRepository struct {
	db *gorm.DB
}

func NewStorageRepository(db *gorm.DB) StorageRepository {
	return &storageRepository{db: db}
}

func (r *storageRepository) Create(ctx context.Context, loc *model.StorageLocation) error {
	return GetDB(ctx, r.db).Create(loc).Error
}

func (r *storageRepository) Update(ctx context.Context, loc *model.StorageLocation) error {
	return GetDB(ctx, r.db).Save(loc).Error
}

func (r *storageRepository) Delete(ctx context.Context, id uint) error {
	db := GetDB(ctx, r.db)
	if err := db.Exec("DELETE FROM storage_category WHERE storage_location_id = ?", id).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.StorageLocation{}).Error
}

func (r *storageRepository) FindByID(ctx context.Context, id uint) (*model.StorageLocation, error) {
	var loc model.StorageLocation
	if err := GetDB(ctx, r.db).First(&loc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &loc, nil
}

func (r *storageRepository) FindByIDWithDetails(ctx context.Context, id uint) (*model.StorageLocation, error) {
	var loc model.StorageLocation
	if err := GetDB(ctx, r.db).
		Preload("Categories.Color").
		Preload("Images").
		Preload("Children").
		First(&loc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &loc, nil
}

func (r *storageRepository) ListAll(ctx context.Context) ([]model.StorageLocation, error) {
	var locs []model.StorageLocation
	if err := GetDB(ctx, r.db).Order("name asc").Find(&locs).Error; err != nil {
		return nil, err
	}
	return locs, nil
}

// ListByParent returns child locations of the given parent; nil means the
// roots of the forest.
func (r *storageRepository) ListByParent(ctx context.Context, parentID *uint) ([]model.StorageLocation, error) {
	var locs []model.StorageLocation
	db := GetDB(ctx, r.db).Order("name asc")
	if parentID == nil {
		db = db.Where("parent_id IS NULL")
	} else {
		db = db.Where("parent_id = ?", *parentID)
	}
	if err := db.Find(&locs).Error; err != nil {
		return nil, err
	}
	return locs, nil
}

func (r *storageRepository) ReplaceCategories(ctx context.Context, loc *model.StorageLocation, categories []model.Category) error {
	return GetDB(ctx, r.db).Model(loc).Association("Categories").Replace(categories)
}

func (r *storageRepository) ClearChildrenParent(ctx context.Context, id uint) error {
	return GetDB(ctx, r.db).Model(&model.StorageLocation{}).
		Where("parent_id = ?", id).
		Update("parent_id", nil).Error
}

func (r *storageRepository) DetachItems(ctx context.Context, id uint) error {
	return GetDB(ctx, r.db).Model(&model.Item{}).
		Where("storage_location_id = ?", id).
		Update("storage_location_id", nil).Error
}

func (r *storageRepository) AddImage(ctx context.Context, image *model.StorageImage) error {
	return GetDB(ctx, r.db).Create(image).Error
}

func (r *storageRepository) ListImages(ctx context.Context, storageID uint) ([]model.StorageImage, error) {
	var images []model.StorageImage
	if err := GetDB(ctx, r.db).Where("storage_location_id = ?", storageID).Find(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}

func (r *storageRepository) DeleteImages(ctx context.Context, storageID uint) error {
	return GetDB(ctx, r.db).Where("storage_location_id = ?", storageID).Delete(&model.StorageImage{}).Error
}
