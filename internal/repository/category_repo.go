package repository

import (
	"context"

	"storetrack/internal/model"

	"gorm.io/gorm"
)

// CategoryRepository defines data access for categories and the fixed
// color palette.
type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	Update(ctx context.Context, category *model.Category) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Category, error)
	FindByName(ctx context.Context, name string) (*model.Category, error)
	ListAll(ctx context.Context) ([]model.Category, error)
	ListByIDs(ctx context.Context, ids []uint) ([]model.Category, error)

	FindColorByID(ctx context.Context, id uint) (*model.CategoryColor, error)
	ListColors(ctx context.Context) ([]model.CategoryColor, error)
	FindOrCreateColor(ctx context.Context, color *model.CategoryColor) error
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *model.Category) error {
	return GetDB(ctx, r.db).Create(category).Error
}

func (r *categoryRepository) Update(ctx context.Context, category *model.Category) error {
	return GetDB(ctx, r.db).Save(category).Error
}

func (r *categoryRepository) Delete(ctx context.Context, id uint) error {
	db := GetDB(ctx, r.db)
	if err := db.Exec("DELETE FROM item_category WHERE category_id = ?", id).Error; err != nil {
		return err
	}
	if err := db.Exec("DELETE FROM storage_category WHERE category_id = ?", id).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.Category{}).Error
}

func (r *categoryRepository) FindByID(ctx context.Context, id uint) (*model.Category, error) {
	var category model.Category
	if err := GetDB(ctx, r.db).Preload("Color").First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) FindByName(ctx context.Context, name string) (*model.Category, error) {
	var category model.Category
	if err := GetDB(ctx, r.db).Where("name = ?", name).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) ListAll(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := GetDB(ctx, r.db).Preload("Color").Order("name asc").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepository) ListByIDs(ctx context.Context, ids []uint) ([]model.Category, error) {
	var categories []model.Category
	if len(ids) == 0 {
		return categories, nil
	}
	if err := GetDB(ctx, r.db).Where("id IN ?", ids).Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepository) FindColorByID(ctx context.Context, id uint) (*model.CategoryColor, error) {
	var color model.CategoryColor
	if err := GetDB(ctx, r.db).First(&color, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &color, nil
}

func (r *categoryRepository) ListColors(ctx context.Context) ([]model.CategoryColor, error) {
	var colors []model.CategoryColor
	if err := GetDB(ctx, r.db).Order("id asc").Find(&colors).Error; err != nil {
		return nil, err
	}
	return colors, nil
}

func (r *categoryRepository) FindOrCreateColor(ctx context.Context, color *model.CategoryColor) error {
	return GetDB(ctx, r.db).Where("name = ?", color.Name).FirstOrCreate(color).Error
}
