package handler

import (
	"net/http"

	"storetrack/internal/middleware"
	"storetrack/internal/service"
	"storetrack/pkg/pagination"
	"storetrack/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/admin/audit",
		middleware.RequireAuth(),
		middleware.RequirePermissions("admin.backend.access"),
		h.ListEntries)
}

// ListEntries returns the audit trail, newest first
func (h *AuditHandler) ListEntries(c *gin.Context) {
	params := pagination.Parse(c)
	result, err := h.auditService.ListEntries(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
