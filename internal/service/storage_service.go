package service

import (
	"context"
	"fmt"
	"log"
	"mime/multipart"

	"storetrack/internal/imagestore"
	"storetrack/internal/model"
	"storetrack/internal/repository"
)

// --- DTOs ---

type CreateStorageRequest struct {
	Name        string `form:"name" json:"name" binding:"required,max=100"`
	Description string `form:"description" json:"description" binding:"omitempty,max=512"`
	ParentID    uint   `form:"parent_id" json:"parent_id"`
}

type UpdateStorageRequest struct {
	Name        string `form:"name" json:"name" binding:"required,max=100"`
	Description string `form:"description" json:"description" binding:"omitempty,max=512"`
	ParentID    uint   `form:"parent_id" json:"parent_id"`
	CategoryIDs []uint `form:"category_ids" json:"category_ids"`
}

// StorageRef is the {id, name} shape returned by the storage list sub-API.
type StorageRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type StorageResponse struct {
	ID          uint               `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	ParentID    *uint              `json:"parent_id,omitempty"`
	Categories  []CategoryResponse `json:"categories,omitempty"`
	Images      []string           `json:"images,omitempty"`
	Children    []StorageRef       `json:"children,omitempty"`
	Hierarchy   []StorageRef       `json:"hierarchy,omitempty"`
	Items       []StorageItemRef   `json:"items,omitempty"`
}

// StorageItemRef is the item summary shown on a location's detail view.
type StorageItemRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// StorageService manages the storage location tree and resolves ancestor
// chains for breadcrumbs.
type StorageService interface {
	ListStorages(ctx context.Context) ([]StorageResponse, error)
	ListStorageRefs(ctx context.Context) ([]StorageRef, error)
	ListChildRefs(ctx context.Context, parentID uint) ([]StorageRef, error)
	GetStorage(ctx context.Context, id uint) (*StorageResponse, error)
	CreateStorage(ctx context.Context, actorID *uint, req CreateStorageRequest, images []*multipart.FileHeader) (*StorageResponse, error)
	UpdateStorage(ctx context.Context, id uint, req UpdateStorageRequest, images []*multipart.FileHeader) (*StorageResponse, error)
	DeleteStorage(ctx context.Context, actorID *uint, id uint) error

	GetHierarchyIDs(ctx context.Context, id uint) ([]uint, error)
	GetHierarchy(ctx context.Context, id uint) ([]model.StorageLocation, error)
	GetRoot(ctx context.Context, id uint) (*model.StorageLocation, error)
}

type storageService struct {
	repo         repository.StorageRepository
	itemRepo     repository.ItemRepository
	categoryRepo repository.CategoryRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	images       *imagestore.Store
}

func NewStorageService(
	repo repository.StorageRepository,
	itemRepo repository.ItemRepository,
	categoryRepo repository.CategoryRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	images *imagestore.Store,
) StorageService {
	return &storageService{
		repo:         repo,
		itemRepo:     itemRepo,
		categoryRepo: categoryRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		images:       images,
	}
}

// --- Hierarchy resolution ---

// GetHierarchyIDs walks parent links from the given location and returns
// the id chain in root-first order. A zero id yields an empty chain. The
// walk stops at the first id that does not resolve, so a dangling parent
// reference truncates the chain instead of failing; the unresolvable id
// itself stays in the chain, matching GetHierarchy's last resolvable
// object. A visited set guards against a corrupted cycle.
func (s *storageService) GetHierarchyIDs(ctx context.Context, id uint) ([]uint, error) {
	hierarchy := []uint{}
	visited := make(map[uint]bool)
	currentID := id
	for currentID != 0 && !visited[currentID] {
		visited[currentID] = true
		hierarchy = append([]uint{currentID}, hierarchy...)
		loc, err := s.repo.FindByID(ctx, currentID)
		if err != nil {
			if IsRecordNotFound(err) {
				break
			}
			return nil, err
		}
		if loc.ParentID == nil {
			break
		}
		currentID = *loc.ParentID
	}
	return hierarchy, nil
}

// GetHierarchy is the object form of GetHierarchyIDs: root-first chain of
// locations, truncated silently at a dangling parent reference.
func (s *storageService) GetHierarchy(ctx context.Context, id uint) ([]model.StorageLocation, error) {
	hierarchy := []model.StorageLocation{}
	visited := make(map[uint]bool)
	currentID := id
	for currentID != 0 && !visited[currentID] {
		visited[currentID] = true
		loc, err := s.repo.FindByID(ctx, currentID)
		if err != nil {
			if IsRecordNotFound(err) {
				break
			}
			return nil, err
		}
		hierarchy = append([]model.StorageLocation{*loc}, hierarchy...)
		if loc.ParentID == nil {
			break
		}
		currentID = *loc.ParentID
	}
	return hierarchy, nil
}

// GetRoot follows parent links upward and returns the topmost resolvable
// location.
func (s *storageService) GetRoot(ctx context.Context, id uint) (*model.StorageLocation, error) {
	chain, err := s.GetHierarchy(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(chain) == 0 {
		return nil, fmt.Errorf("%w: storage location %d", ErrNotFound, id)
	}
	return &chain[0], nil
}

// --- CRUD ---

func (s *storageService) toResponse(ctx context.Context, loc *model.StorageLocation, withHierarchy bool) (*StorageResponse, error) {
	res := &StorageResponse{
		ID:       loc.ID,
		Name:     loc.Name,
		ParentID: loc.ParentID,
	}
	if loc.Description != nil {
		res.Description = *loc.Description
	}
	for i := range loc.Categories {
		res.Categories = append(res.Categories, *toCategoryResponse(&loc.Categories[i]))
	}
	for _, img := range loc.Images {
		res.Images = append(res.Images, img.Filename)
	}
	for _, child := range loc.Children {
		res.Children = append(res.Children, StorageRef{ID: child.ID, Name: child.Name})
	}

	if withHierarchy {
		chain, err := s.GetHierarchy(ctx, loc.ID)
		if err != nil {
			return nil, err
		}
		for _, node := range chain {
			res.Hierarchy = append(res.Hierarchy, StorageRef{ID: node.ID, Name: node.Name})
		}
	}
	return res, nil
}

func (s *storageService) ListStorages(ctx context.Context) ([]StorageResponse, error) {
	locs, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch storage locations: %w", err)
	}

	res := make([]StorageResponse, 0, len(locs))
	for i := range locs {
		sr, err := s.toResponse(ctx, &locs[i], false)
		if err != nil {
			return nil, err
		}
		res = append(res, *sr)
	}
	return res, nil
}

func (s *storageService) ListStorageRefs(ctx context.Context) ([]StorageRef, error) {
	locs, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	refs := make([]StorageRef, 0, len(locs))
	for _, loc := range locs {
		refs = append(refs, StorageRef{ID: loc.ID, Name: loc.Name})
	}
	return refs, nil
}

// ListChildRefs returns the direct children of a location; a parent id of
// 0 means the roots of the forest.
func (s *storageService) ListChildRefs(ctx context.Context, parentID uint) ([]StorageRef, error) {
	var parent *uint
	if parentID != 0 {
		parent = &parentID
	}
	locs, err := s.repo.ListByParent(ctx, parent)
	if err != nil {
		return nil, err
	}
	refs := make([]StorageRef, 0, len(locs))
	for _, loc := range locs {
		refs = append(refs, StorageRef{ID: loc.ID, Name: loc.Name})
	}
	return refs, nil
}

func (s *storageService) GetStorage(ctx context.Context, id uint) (*StorageResponse, error) {
	loc, err := s.repo.FindByIDWithDetails(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: storage location %d", ErrNotFound, id)
	}
	res, err := s.toResponse(ctx, loc, true)
	if err != nil {
		return nil, err
	}

	items, err := s.itemRepo.ListByStorage(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		res.Items = append(res.Items, StorageItemRef{ID: item.ID, Name: item.Name})
	}
	return res, nil
}

func (s *storageService) CreateStorage(ctx context.Context, actorID *uint, req CreateStorageRequest, images []*multipart.FileHeader) (*StorageResponse, error) {
	loc := &model.StorageLocation{
		Name:        req.Name,
		Description: optional(req.Description),
	}
	if req.ParentID != 0 {
		if _, err := s.repo.FindByID(ctx, req.ParentID); err != nil {
			return nil, fmt.Errorf("%w: parent location %d", ErrNotFound, req.ParentID)
		}
		loc.ParentID = &req.ParentID
	}

	staged, err := s.stageAll(images)
	if err != nil {
		return nil, err
	}
	defer discardAll(staged)

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, loc); err != nil {
			return err
		}
		for _, st := range staged {
			img := &model.StorageImage{StorageLocationID: loc.ID, Filename: st.Filename}
			if err := s.repo.AddImage(txCtx, img); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage location: %w", err)
	}

	commitAll(staged)
	s.auditAction(ctx, actorID, model.ActionCreateStorage, loc.ID, loc.Name)
	return s.GetStorage(ctx, loc.ID)
}

func (s *storageService) UpdateStorage(ctx context.Context, id uint, req UpdateStorageRequest, images []*multipart.FileHeader) (*StorageResponse, error) {
	loc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: storage location %d", ErrNotFound, id)
	}

	loc.Name = req.Name
	loc.Description = optional(req.Description)
	if req.ParentID != 0 {
		if req.ParentID == id {
			return nil, fmt.Errorf("%w: a location cannot be its own parent", ErrValidation)
		}
		if _, err := s.repo.FindByID(ctx, req.ParentID); err != nil {
			return nil, fmt.Errorf("%w: parent location %d", ErrNotFound, req.ParentID)
		}
		loc.ParentID = &req.ParentID
	} else {
		loc.ParentID = nil
	}

	categories, err := s.categoryRepo.ListByIDs(ctx, req.CategoryIDs)
	if err != nil {
		return nil, err
	}

	staged, err := s.stageAll(images)
	if err != nil {
		return nil, err
	}
	defer discardAll(staged)

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, loc); err != nil {
			return err
		}
		// Full replacement, mirroring item category assignment.
		if err := s.repo.ReplaceCategories(txCtx, loc, categories); err != nil {
			return err
		}
		for _, st := range staged {
			img := &model.StorageImage{StorageLocationID: loc.ID, Filename: st.Filename}
			if err := s.repo.AddImage(txCtx, img); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update storage location: %w", err)
	}

	commitAll(staged)
	return s.GetStorage(ctx, id)
}

// DeleteStorage removes the location, its images (rows and files), detaches
// its items and reparents its children to the root. Database work happens
// in one transaction; files are removed only after commit.
func (s *storageService) DeleteStorage(ctx context.Context, actorID *uint, id uint) error {
	loc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: storage location %d", ErrNotFound, id)
	}

	images, err := s.repo.ListImages(ctx, id)
	if err != nil {
		return err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.DeleteImages(txCtx, id); err != nil {
			return err
		}
		if err := s.repo.ClearChildrenParent(txCtx, id); err != nil {
			return err
		}
		if err := s.repo.DetachItems(txCtx, id); err != nil {
			return err
		}
		return s.repo.Delete(txCtx, id)
	})
	if err != nil {
		return fmt.Errorf("failed to delete storage location: %w", err)
	}

	for _, img := range images {
		_ = s.images.Delete(imagestore.KindStorage, img.Filename)
	}

	s.auditAction(ctx, actorID, model.ActionDeleteStorage, id, loc.Name)
	return nil
}

func (s *storageService) stageAll(images []*multipart.FileHeader) ([]*imagestore.Staged, error) {
	staged := make([]*imagestore.Staged, 0, len(images))
	for _, file := range images {
		if file == nil || file.Filename == "" {
			continue
		}
		st, err := s.images.Stage(imagestore.KindStorage, file)
		if err != nil {
			discardAll(staged)
			return nil, fmt.Errorf("failed to store image: %w", err)
		}
		staged = append(staged, st)
	}
	return staged, nil
}

func discardAll(staged []*imagestore.Staged) {
	for _, st := range staged {
		st.Discard()
	}
}

func commitAll(staged []*imagestore.Staged) {
	for _, st := range staged {
		if err := st.Commit(); err != nil {
			log.Println("WARNING: failed to persist staged image:", err)
		}
	}
}

func (s *storageService) auditAction(ctx context.Context, actorID *uint, action string, entityID uint, name string) {
	if s.auditRepo == nil {
		return
	}
	entry := &model.AuditLog{
		UserID:     actorID,
		Action:     action,
		EntityID:   fmt.Sprintf("%d", entityID),
		EntityName: name,
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		log.Println("WARNING: failed to write audit log:", err)
	}
}
