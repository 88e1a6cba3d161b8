package handler

import (
	"net/http"

	"storetrack/internal/middleware"
	"storetrack/internal/service"
	"storetrack/pkg/response"

	"github.com/gin-gonic/gin"
)

type RoleHandler struct {
	roleService service.RoleService
}

func NewRoleHandler(roleService service.RoleService) *RoleHandler {
	return &RoleHandler{roleService: roleService}
}

// RegisterRoutes binds the role endpoints under the admin area. The whole
// group requires admin area access on top of per-route permissions.
func (h *RoleHandler) RegisterRoutes(router *gin.RouterGroup) {
	roles := router.Group("/admin/roles", middleware.RequireAuth(), middleware.RequirePermissions("admin.backend.access"))
	{
		roles.GET("", middleware.RequirePermissions("admin.roles.read"), h.ListRoles)
		roles.POST("", middleware.RequirePermissions("admin.roles.create"), h.CreateRole)
		roles.GET("/:id", middleware.RequirePermissions("admin.role.read"), h.GetRole)
		roles.POST("/:id", middleware.RequirePermissions("admin.role.update"), h.UpdateRole)
		roles.GET("/:id/delete", middleware.RequirePermissions("admin.role.delete"), h.DeleteRole)
		roles.POST("/:id/delete", middleware.RequirePermissions("admin.role.delete"), h.DeleteRole)
		roles.POST("/:id/add_permission", middleware.RequirePermissions("admin.role.update"), h.AddPermission)
		roles.POST("/:id/remove_permission", middleware.RequirePermissions("admin.role.update"), h.RemovePermission)
	}

	router.GET("/admin/permissions",
		middleware.RequireAuth(),
		middleware.RequirePermissions("admin.backend.access", "admin.roles.read"),
		h.ListPermissions)
}

func (h *RoleHandler) ListRoles(c *gin.Context) {
	roles, err := h.roleService.ListRoles(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, roles))
}

func (h *RoleHandler) GetRole(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	role, err := h.roleService.GetRole(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}

func (h *RoleHandler) CreateRole(c *gin.Context) {
	var req service.CreateRoleRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	role, err := h.roleService.CreateRole(c.Request.Context(), actorID(c), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, role))
}

func (h *RoleHandler) UpdateRole(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req service.UpdateRoleRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	role, err := h.roleService.UpdateRole(c.Request.Context(), id, req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}

func (h *RoleHandler) DeleteRole(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.roleService.DeleteRole(c.Request.Context(), actorID(c), id); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Role deleted"}))
}

// AddPermission attaches a permission to the role; already-attached
// permissions are accepted silently.
func (h *RoleHandler) AddPermission(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req struct {
		PermissionID uint `form:"permission_id" json:"permission_id" binding:"required"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	role, err := h.roleService.AddPermission(c.Request.Context(), id, req.PermissionID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}

func (h *RoleHandler) RemovePermission(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req struct {
		PermissionID uint `form:"permission_id" json:"permission_id" binding:"required"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	role, err := h.roleService.RemovePermission(c.Request.Context(), id, req.PermissionID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}

func (h *RoleHandler) ListPermissions(c *gin.Context) {
	perms, err := h.roleService.ListPermissions(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, perms))
}

// actorID returns the caller id as the nullable form audit entries use.
func actorID(c *gin.Context) *uint {
	if id, ok := middleware.CallerID(c); ok {
		return &id
	}
	return nil
}
