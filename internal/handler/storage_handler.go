package handler

import (
	"net/http"

	"storetrack/internal/middleware"
	"storetrack/internal/service"
	"storetrack/pkg/response"

	"github.com/gin-gonic/gin"
)

type StorageHandler struct {
	storageService service.StorageService
}

func NewStorageHandler(storageService service.StorageService) *StorageHandler {
	return &StorageHandler{storageService: storageService}
}

// RegisterRoutes binds the storage location endpoints. All of them require
// a logged-in user; the list sub-API feeds the location picker on item and
// storage forms.
func (h *StorageHandler) RegisterRoutes(router *gin.RouterGroup) {
	storages := router.Group("/storages", middleware.RequireAuth())
	{
		storages.GET("", h.ListStorages)
		storages.POST("", h.CreateStorage)
		storages.GET("/:id", h.GetStorage)
		storages.POST("/:id", h.UpdateStorage)
		storages.GET("/:id/delete", h.DeleteStorage)
		storages.POST("/:id/delete", h.DeleteStorage)
	}

	api := router.Group("/api/storages", middleware.RequireAuth())
	{
		api.GET("/list", h.ListStorageRefs)
		api.GET("/list/childs/:id", h.ListChildRefs)
	}
}

func (h *StorageHandler) ListStorages(c *gin.Context) {
	storages, err := h.storageService.ListStorages(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, storages))
}

// ListStorageRefs returns every location as {id, name} pairs
// @Summary      Storage picker list
// @Tags         storages
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string][]service.StorageRef
// @Router       /api/storages/list [get]
func (h *StorageHandler) ListStorageRefs(c *gin.Context) {
	refs, err := h.storageService.ListStorageRefs(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"storages": refs})
}

// ListChildRefs returns the direct children of a location as {id, name}
// pairs; id 0 selects the root locations.
func (h *StorageHandler) ListChildRefs(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	refs, err := h.storageService.ListChildRefs(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"storages": refs})
}

func (h *StorageHandler) GetStorage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	storage, err := h.storageService.GetStorage(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, storage))
}

func (h *StorageHandler) CreateStorage(c *gin.Context) {
	var req service.CreateStorageRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	storage, err := h.storageService.CreateStorage(c.Request.Context(), actorID(c), req, formImages(c))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, storage))
}

func (h *StorageHandler) UpdateStorage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req service.UpdateStorageRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	storage, err := h.storageService.UpdateStorage(c.Request.Context(), id, req, formImages(c))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, storage))
}

func (h *StorageHandler) DeleteStorage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.storageService.DeleteStorage(c.Request.Context(), actorID(c), id); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Storage location deleted"}))
}
