package service

import (
	"context"
	"fmt"

	"storetrack/internal/model"
	"storetrack/internal/repository"
)

// --- DTOs ---

type CreateCategoryRequest struct {
	Name    string `form:"name" json:"name" binding:"required,max=100"`
	ColorID uint   `form:"color_id" json:"color_id"`
}

type UpdateCategoryRequest struct {
	Name    string `form:"name" json:"name" binding:"required,max=100"`
	ColorID uint   `form:"color_id" json:"color_id"`
}

type CategoryResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

type ColorResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CategoryService defines business logic for categories and the color
// palette they draw from.
type CategoryService interface {
	ListCategories(ctx context.Context) ([]CategoryResponse, error)
	GetCategory(ctx context.Context, id uint) (*CategoryResponse, error)
	CreateCategory(ctx context.Context, req CreateCategoryRequest) (*CategoryResponse, error)
	UpdateCategory(ctx context.Context, id uint, req UpdateCategoryRequest) (*CategoryResponse, error)
	DeleteCategory(ctx context.Context, id uint) error
	ListColors(ctx context.Context) ([]ColorResponse, error)
}

type categoryService struct {
	repo repository.CategoryRepository
}

func NewCategoryService(repo repository.CategoryRepository) CategoryService {
	return &categoryService{repo: repo}
}

func toCategoryResponse(c *model.Category) *CategoryResponse {
	return &CategoryResponse{
		ID:    c.ID,
		Name:  c.Name,
		Color: c.Color.Color,
	}
}

func (s *categoryService) ListCategories(ctx context.Context) ([]CategoryResponse, error) {
	categories, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}

	res := make([]CategoryResponse, 0, len(categories))
	for i := range categories {
		res = append(res, *toCategoryResponse(&categories[i]))
	}
	return res, nil
}

func (s *categoryService) GetCategory(ctx context.Context, id uint) (*CategoryResponse, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: category %d", ErrNotFound, id)
	}
	return toCategoryResponse(category), nil
}

func (s *categoryService) CreateCategory(ctx context.Context, req CreateCategoryRequest) (*CategoryResponse, error) {
	if _, err := s.repo.FindByName(ctx, req.Name); err == nil {
		return nil, fmt.Errorf("%w: category '%s'", ErrConflict, req.Name)
	}

	category := &model.Category{Name: req.Name}
	if req.ColorID != 0 {
		if _, err := s.repo.FindColorByID(ctx, req.ColorID); err != nil {
			return nil, fmt.Errorf("%w: color %d", ErrNotFound, req.ColorID)
		}
		category.ColorID = req.ColorID
	}

	if err := s.repo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return s.GetCategory(ctx, category.ID)
}

func (s *categoryService) UpdateCategory(ctx context.Context, id uint, req UpdateCategoryRequest) (*CategoryResponse, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: category %d", ErrNotFound, id)
	}

	if req.Name != category.Name {
		if _, err := s.repo.FindByName(ctx, req.Name); err == nil {
			return nil, fmt.Errorf("%w: category '%s'", ErrConflict, req.Name)
		}
	}

	category.Name = req.Name
	if req.ColorID != 0 {
		color, err := s.repo.FindColorByID(ctx, req.ColorID)
		if err != nil {
			return nil, fmt.Errorf("%w: color %d", ErrNotFound, req.ColorID)
		}
		category.ColorID = color.ID
		category.Color = *color
	}

	if err := s.repo.Update(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return s.GetCategory(ctx, id)
}

// DeleteCategory removes the category; its assignments to items and
// storage locations go with it.
func (s *categoryService) DeleteCategory(ctx context.Context, id uint) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return fmt.Errorf("%w: category %d", ErrNotFound, id)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

func (s *categoryService) ListColors(ctx context.Context) ([]ColorResponse, error) {
	colors, err := s.repo.ListColors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch colors: %w", err)
	}

	res := make([]ColorResponse, 0, len(colors))
	for _, c := range colors {
		res = append(res, ColorResponse{ID: c.ID, Name: c.Name, Color: c.Color})
	}
	return res, nil
}
