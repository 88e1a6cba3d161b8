package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"mime/multipart"
	"time"

	"storetrack/internal/imagestore"
	"storetrack/internal/model"
	"storetrack/internal/repository"
	"storetrack/internal/websocket"
)

// --- DTOs ---

type CreateItemRequest struct {
	Name              string `form:"name" json:"name" binding:"required,max=100"`
	Description       string `form:"description" json:"description" binding:"omitempty,max=512"`
	Barcode           string `form:"barcode" json:"barcode" binding:"omitempty,max=100"`
	StorageLocationID uint   `form:"storage_location_id" json:"storage_location_id"`
	Quantity          *int   `form:"quantity" json:"quantity" binding:"omitempty,min=0"`
	CategoryIDs       []uint `form:"category_ids" json:"category_ids"`
}

type UpdateItemRequest struct {
	Name              string `form:"name" json:"name" binding:"required,max=100"`
	Description       string `form:"description" json:"description" binding:"omitempty,max=512"`
	Barcode           string `form:"barcode" json:"barcode" binding:"omitempty,max=100"`
	StorageLocationID uint   `form:"storage_location_id" json:"storage_location_id"`
	Quantity          *int   `form:"quantity" json:"quantity" binding:"omitempty,min=0"`
	CategoryIDs       []uint `form:"category_ids" json:"category_ids"`
}

type ItemResponse struct {
	ID                uint               `json:"id"`
	Name              string             `json:"name"`
	Description       string             `json:"description,omitempty"`
	Barcode           string             `json:"barcode,omitempty"`
	OwnerID           *uint              `json:"owner_id,omitempty"`
	StorageLocationID *uint              `json:"storage_location_id,omitempty"`
	StorageHierarchy  []StorageRef       `json:"storage_hierarchy,omitempty"`
	Categories        []CategoryResponse `json:"categories,omitempty"`
	Images            []string           `json:"images,omitempty"`
	Quantity          *int               `json:"quantity,omitempty"`
	CreatedAt         string             `json:"created_at"`
}

type ItemListResult struct {
	Items []ItemResponse `json:"items"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// StockEntryResponse is one row of an item's stock history, oldest first.
type StockEntryResponse struct {
	Quantity          int       `json:"quantity"`
	StorageLocationID *uint     `json:"storage_location_id,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

// unknownTimestamp is reported for items without any stock history; the
// ledger doubles as the creation record, so an empty ledger means the
// creation time was never captured.
const unknownTimestamp = "Unknown"

// ItemService defines business logic for items, their images and the
// append-only stock ledger.
type ItemService interface {
	ListItems(ctx context.Context, page, limit int, search string) (*ItemListResult, error)
	GetItem(ctx context.Context, id uint) (*ItemResponse, error)
	GetItemByBarcode(ctx context.Context, barcode string) (*ItemResponse, error)
	CreateItem(ctx context.Context, actorID *uint, req CreateItemRequest, images []*multipart.FileHeader) (*ItemResponse, error)
	UpdateItem(ctx context.Context, actorID *uint, id uint, req UpdateItemRequest, images []*multipart.FileHeader) (*ItemResponse, error)
	DeleteItem(ctx context.Context, actorID *uint, id uint) error

	GetCurrentStock(ctx context.Context, id uint) (*int, error)
	GetCreationTimestamp(ctx context.Context, id uint) (string, error)
	StockHistory(ctx context.Context, id uint) ([]StockEntryResponse, error)
}

type itemService struct {
	repo         repository.ItemRepository
	storageRepo  repository.StorageRepository
	categoryRepo repository.CategoryRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	images       *imagestore.Store
	hub          *websocket.Hub
	storages     StorageService
}

func NewItemService(
	repo repository.ItemRepository,
	storageRepo repository.StorageRepository,
	categoryRepo repository.CategoryRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	images *imagestore.Store,
	hub *websocket.Hub,
	storages StorageService,
) ItemService {
	return &itemService{
		repo:         repo,
		storageRepo:  storageRepo,
		categoryRepo: categoryRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		images:       images,
		hub:          hub,
		storages:     storages,
	}
}

// --- Mapping ---

func (s *itemService) toResponse(ctx context.Context, item *model.Item) (*ItemResponse, error) {
	res := &ItemResponse{
		ID:                item.ID,
		Name:              item.Name,
		OwnerID:           item.OwnerID,
		StorageLocationID: item.StorageLocationID,
	}
	if item.Description != nil {
		res.Description = *item.Description
	}
	if item.Barcode != nil {
		res.Barcode = *item.Barcode
	}
	for i := range item.Categories {
		res.Categories = append(res.Categories, *toCategoryResponse(&item.Categories[i]))
	}
	for _, img := range item.Images {
		res.Images = append(res.Images, img.Filename)
	}

	qty, err := s.GetCurrentStock(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	res.Quantity = qty

	created, err := s.GetCreationTimestamp(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	res.CreatedAt = created

	if item.StorageLocationID != nil {
		chain, err := s.storages.GetHierarchy(ctx, *item.StorageLocationID)
		if err != nil {
			return nil, err
		}
		for _, node := range chain {
			res.StorageHierarchy = append(res.StorageHierarchy, StorageRef{ID: node.ID, Name: node.Name})
		}
	}
	return res, nil
}

// --- Queries ---

func (s *itemService) ListItems(ctx context.Context, page, limit int, search string) (*ItemListResult, error) {
	items, total, err := s.repo.List(ctx, page, limit, search)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch items: %w", err)
	}

	res := make([]ItemResponse, 0, len(items))
	for i := range items {
		ir, err := s.toResponse(ctx, &items[i])
		if err != nil {
			return nil, err
		}
		res = append(res, *ir)
	}
	return &ItemListResult{Items: res, Total: total, Page: page, Limit: limit}, nil
}

func (s *itemService) GetItem(ctx context.Context, id uint) (*ItemResponse, error) {
	item, err := s.repo.FindByIDWithDetails(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: item %d", ErrNotFound, id)
	}
	return s.toResponse(ctx, item)
}

func (s *itemService) GetItemByBarcode(ctx context.Context, barcode string) (*ItemResponse, error) {
	item, err := s.repo.FindByBarcode(ctx, barcode)
	if err != nil {
		return nil, fmt.Errorf("%w: barcode '%s'", ErrNotFound, barcode)
	}
	return s.GetItem(ctx, item.ID)
}

// GetCurrentStock returns the quantity of the most recent ledger row, or
// nil when the item has never had stock recorded.
func (s *itemService) GetCurrentStock(ctx context.Context, id uint) (*int, error) {
	row, err := s.repo.LatestStock(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	qty := row.Quantity
	return &qty, nil
}

// GetCreationTimestamp derives the item's creation time from its earliest
// ledger row, formatted for display. Items with an empty ledger report
// "Unknown".
func (s *itemService) GetCreationTimestamp(ctx context.Context, id uint) (string, error) {
	row, err := s.repo.EarliestStock(ctx, id)
	if err != nil {
		return "", err
	}
	if row == nil {
		return unknownTimestamp, nil
	}
	return row.Timestamp.Format("2006-01-02 15:04"), nil
}

func (s *itemService) StockHistory(ctx context.Context, id uint) ([]StockEntryResponse, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, fmt.Errorf("%w: item %d", ErrNotFound, id)
	}

	rows, err := s.repo.ListStock(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stock history: %w", err)
	}

	history := make([]StockEntryResponse, 0, len(rows))
	for _, row := range rows {
		history = append(history, StockEntryResponse{
			Quantity:          row.Quantity,
			StorageLocationID: row.StorageLocationID,
			Timestamp:         row.Timestamp,
		})
	}
	return history, nil
}

// --- Mutations ---

func (s *itemService) CreateItem(ctx context.Context, actorID *uint, req CreateItemRequest, images []*multipart.FileHeader) (*ItemResponse, error) {
	if req.Barcode != "" {
		if _, err := s.repo.FindByBarcode(ctx, req.Barcode); err == nil {
			return nil, fmt.Errorf("%w: barcode '%s'", ErrConflict, req.Barcode)
		}
	}

	item := &model.Item{
		Name:        req.Name,
		Description: optional(req.Description),
		Barcode:     optional(req.Barcode),
		OwnerID:     actorID,
	}
	if req.StorageLocationID != 0 {
		if _, err := s.storageRepo.FindByID(ctx, req.StorageLocationID); err != nil {
			return nil, fmt.Errorf("%w: storage location %d", ErrNotFound, req.StorageLocationID)
		}
		item.StorageLocationID = &req.StorageLocationID
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
		if err := s.repo.Create(txCtx, item); err != nil {
			return err
		}
		if len(categories) > 0 {
			if err := s.repo.ReplaceCategories(txCtx, item, categories); err != nil {
				return err
			}
		}
		for _, st := range staged {
			img := &model.ItemImage{ItemID: item.ID, Filename: st.Filename}
			if err := s.repo.AddImage(txCtx, img); err != nil {
				return err
			}
		}
		if req.Quantity != nil {
			row := &model.ItemStorageStock{
				ItemID:            item.ID,
				StorageLocationID: item.StorageLocationID,
				Quantity:          *req.Quantity,
				Timestamp:         time.Now(),
			}
			if err := s.repo.AppendStock(txCtx, row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	commitAll(staged)
	s.auditItem(ctx, actorID, model.ActionCreateItem, item)
	if req.Quantity != nil {
		s.publishStock(item.ID, *req.Quantity)
	}
	return s.GetItem(ctx, item.ID)
}

// UpdateItem replaces the item's fields and category set. A submitted
// quantity is appended to the ledger only when it differs from the current
// stock, so resubmitting an unchanged form does not grow the history.
func (s *itemService) UpdateItem(ctx context.Context, actorID *uint, id uint, req UpdateItemRequest, images []*multipart.FileHeader) (*ItemResponse, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: item %d", ErrNotFound, id)
	}

	if req.Barcode != "" && (item.Barcode == nil || *item.Barcode != req.Barcode) {
		if _, err := s.repo.FindByBarcode(ctx, req.Barcode); err == nil {
			return nil, fmt.Errorf("%w: barcode '%s'", ErrConflict, req.Barcode)
		}
	}

	item.Name = req.Name
	item.Description = optional(req.Description)
	item.Barcode = optional(req.Barcode)
	if req.StorageLocationID != 0 {
		if _, err := s.storageRepo.FindByID(ctx, req.StorageLocationID); err != nil {
			return nil, fmt.Errorf("%w: storage location %d", ErrNotFound, req.StorageLocationID)
		}
		item.StorageLocationID = &req.StorageLocationID
	} else {
		item.StorageLocationID = nil
	}

	categories, err := s.categoryRepo.ListByIDs(ctx, req.CategoryIDs)
	if err != nil {
		return nil, err
	}

	current, err := s.GetCurrentStock(ctx, id)
	if err != nil {
		return nil, err
	}
	appendStock := req.Quantity != nil && (current == nil || *current != *req.Quantity)

	staged, err := s.stageAll(images)
	if err != nil {
		return nil, err
	}
	defer discardAll(staged)

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, item); err != nil {
			return err
		}
		// Full replacement: the submitted set wins, including empty.
		if err := s.repo.ReplaceCategories(txCtx, item, categories); err != nil {
			return err
		}
		for _, st := range staged {
			img := &model.ItemImage{ItemID: item.ID, Filename: st.Filename}
			if err := s.repo.AddImage(txCtx, img); err != nil {
				return err
			}
		}
		if appendStock {
			row := &model.ItemStorageStock{
				ItemID:            item.ID,
				StorageLocationID: item.StorageLocationID,
				Quantity:          *req.Quantity,
				Timestamp:         time.Now(),
			}
			if err := s.repo.AppendStock(txCtx, row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	commitAll(staged)
	s.auditItem(ctx, actorID, model.ActionUpdateItem, item)
	if appendStock {
		s.publishStock(item.ID, *req.Quantity)
	}
	return s.GetItem(ctx, id)
}

// DeleteItem removes the item together with its image rows and full stock
// history in one transaction, then removes the image files. Files already
// missing on disk are skipped.
func (s *itemService) DeleteItem(ctx context.Context, actorID *uint, id uint) error {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: item %d", ErrNotFound, id)
	}

	images, err := s.repo.ListImages(ctx, id)
	if err != nil {
		return err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.DeleteImages(txCtx, id); err != nil {
			return err
		}
		if err := s.repo.DeleteStock(txCtx, id); err != nil {
			return err
		}
		return s.repo.Delete(txCtx, id)
	})
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	for _, img := range images {
		_ = s.images.Delete(imagestore.KindItem, img.Filename)
	}

	s.auditItem(ctx, actorID, model.ActionDeleteItem, item)
	return nil
}

// --- Helpers ---

func (s *itemService) stageAll(images []*multipart.FileHeader) ([]*imagestore.Staged, error) {
	staged := make([]*imagestore.Staged, 0, len(images))
	for _, file := range images {
		if file == nil || file.Filename == "" {
			continue
		}
		st, err := s.images.Stage(imagestore.KindItem, file)
		if err != nil {
			discardAll(staged)
			return nil, fmt.Errorf("failed to store image: %w", err)
		}
		staged = append(staged, st)
	}
	return staged, nil
}

func (s *itemService) publishStock(itemID uint, quantity int) {
	msg, err := json.Marshal(map[string]any{
		"event": "stock.updated",
		"data": map[string]any{
			"item_id":   itemID,
			"quantity":  quantity,
			"timestamp": time.Now().UTC(),
		},
	})
	if err != nil {
		return
	}
	s.hub.Publish(msg)
}

func (s *itemService) auditItem(ctx context.Context, actorID *uint, action string, item *model.Item) {
	if s.auditRepo == nil {
		return
	}
	entry := &model.AuditLog{
		UserID:     actorID,
		Action:     action,
		EntityID:   fmt.Sprintf("%d", item.ID),
		EntityName: item.Name,
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		log.Println("WARNING: failed to write audit log:", err)
	}
}
