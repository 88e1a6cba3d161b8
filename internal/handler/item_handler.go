package handler

import (
	"mime/multipart"
	"net/http"

	"storetrack/internal/middleware"
	"storetrack/internal/service"
	"storetrack/pkg/pagination"
	"storetrack/pkg/response"

	"github.com/gin-gonic/gin"
)

type ItemHandler struct {
	itemService service.ItemService
}

func NewItemHandler(itemService service.ItemService) *ItemHandler {
	return &ItemHandler{itemService: itemService}
}

// RegisterRoutes binds the item endpoints. Browsing and creating are open
// to every logged-in user; editing and deleting are permission-gated.
func (h *ItemHandler) RegisterRoutes(router *gin.RouterGroup) {
	items := router.Group("/items", middleware.RequireAuth())
	{
		items.GET("", h.ListItems)
		items.POST("", h.CreateItem)
		items.GET("/:id", h.GetItem)
		items.GET("/:id/stock", h.StockHistory)
		items.POST("/:id", middleware.RequirePermissions("item.update"), h.UpdateItem)
		items.GET("/:id/delete", middleware.RequirePermissions("item.delete"), h.DeleteItem)
		items.POST("/:id/delete", middleware.RequirePermissions("item.delete"), h.DeleteItem)
	}

	router.GET("/api/items/barcode/:code", middleware.RequireAuth(), h.GetItemByBarcode)
}

// ListItems returns a page of items with current stock
// @Summary      List items
// @Tags         items
// @Produce      json
// @Security     BearerAuth
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Page size"
// @Param        search  query     string  false  "Name filter"
// @Success      200     {object}  response.Response{data=service.ItemListResult}
// @Router       /items [get]
func (h *ItemHandler) ListItems(c *gin.Context) {
	params := pagination.Parse(c)
	result, err := h.itemService.ListItems(c.Request.Context(), params.Page, params.Limit, c.Query("search"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

func (h *ItemHandler) GetItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	item, err := h.itemService.GetItem(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// GetItemByBarcode resolves a scanned barcode to the item carrying it
func (h *ItemHandler) GetItemByBarcode(c *gin.Context) {
	item, err := h.itemService.GetItemByBarcode(c.Request.Context(), c.Param("code"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// StockHistory returns the item's full stock ledger, oldest first
func (h *ItemHandler) StockHistory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	history, err := h.itemService.StockHistory(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"history": history}))
}

func (h *ItemHandler) CreateItem(c *gin.Context) {
	var req service.CreateItemRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.itemService.CreateItem(c.Request.Context(), actorID(c), req, formImages(c))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

func (h *ItemHandler) UpdateItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req service.UpdateItemRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.itemService.UpdateItem(c.Request.Context(), actorID(c), id, req, formImages(c))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

func (h *ItemHandler) DeleteItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.itemService.DeleteItem(c.Request.Context(), actorID(c), id); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Item deleted"}))
}

// formImages collects the uploaded files from the multipart "images"
// field; JSON requests simply have none.
func formImages(c *gin.Context) []*multipart.FileHeader {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	return form.File["images"]
}
