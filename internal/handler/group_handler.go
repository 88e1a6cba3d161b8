package handler

import (
	"context"
	"net/http"

	"storetrack/internal/middleware"
	"storetrack/internal/service"
	"storetrack/pkg/response"

	"github.com/gin-gonic/gin"
)

type GroupHandler struct {
	groupService service.GroupService
}

func NewGroupHandler(groupService service.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

// RegisterRoutes binds the group endpoints under the admin area. Role and
// member attachment are navigation-style GET routes so the admin pages can
// link them directly.
func (h *GroupHandler) RegisterRoutes(router *gin.RouterGroup) {
	groups := router.Group("/admin/groups", middleware.RequireAuth(), middleware.RequirePermissions("admin.backend.access"))
	{
		groups.GET("", middleware.RequirePermissions("admin.groups.read"), h.ListGroups)
		groups.POST("", middleware.RequirePermissions("admin.group.create"), h.CreateGroup)
		groups.GET("/:id", middleware.RequirePermissions("admin.group.read"), h.GetGroup)
		groups.POST("/:id", middleware.RequirePermissions("admin.group.update"), h.UpdateGroup)
		groups.GET("/:id/delete", middleware.RequirePermissions("admin.group.delete"), h.DeleteGroup)
		groups.POST("/:id/delete", middleware.RequirePermissions("admin.group.delete"), h.DeleteGroup)

		groups.GET("/:id/add_role/:roleID", middleware.RequirePermissions("admin.group.update"), h.AddRole)
		groups.GET("/:id/remove_role/:roleID", middleware.RequirePermissions("admin.group.update"), h.RemoveRole)
		groups.GET("/:id/add_user/:userID", middleware.RequirePermissions("admin.group.update"), h.AddUser)
		groups.GET("/:id/remove_user/:userID", middleware.RequirePermissions("admin.membership.remove"), h.RemoveUser)
	}
}

func (h *GroupHandler) ListGroups(c *gin.Context) {
	groups, err := h.groupService.ListGroups(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, groups))
}

func (h *GroupHandler) GetGroup(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	group, err := h.groupService.GetGroup(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, group))
}

// CreateGroup creates a group; a duplicate name is rejected with 409
// @Summary      Create group
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateGroupRequest  true  "Create Group Payload"
// @Success      201      {object}  response.Response{data=service.GroupResponse}
// @Failure      409      {object}  response.Response
// @Router       /admin/groups [post]
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req service.CreateGroupRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	group, err := h.groupService.CreateGroup(c.Request.Context(), actorID(c), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, group))
}

func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req service.UpdateGroupRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	group, err := h.groupService.UpdateGroup(c.Request.Context(), id, req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, group))
}

func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.groupService.DeleteGroup(c.Request.Context(), actorID(c), id); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Group deleted"}))
}

func (h *GroupHandler) AddRole(c *gin.Context) {
	h.membership(c, "roleID", h.groupService.AddRole)
}

func (h *GroupHandler) RemoveRole(c *gin.Context) {
	h.membership(c, "roleID", h.groupService.RemoveRole)
}

func (h *GroupHandler) AddUser(c *gin.Context) {
	h.membership(c, "userID", h.groupService.AddUser)
}

func (h *GroupHandler) RemoveUser(c *gin.Context) {
	h.membership(c, "userID", h.groupService.RemoveUser)
}

// membership runs one of the group attachment operations; all four share
// the same shape. Repeating an attachment or detachment is a no-op.
func (h *GroupHandler) membership(c *gin.Context, param string, op func(ctx context.Context, groupID, otherID uint) error) {
	groupID, ok := parseID(c, "id")
	if !ok {
		return
	}
	otherID, ok := parseID(c, param)
	if !ok {
		return
	}

	if err := op(c.Request.Context(), groupID, otherID); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "OK"}))
}
