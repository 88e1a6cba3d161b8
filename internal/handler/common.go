package handler

import (
	"errors"
	"net/http"
	"strconv"

	"storetrack/internal/service"
	"storetrack/pkg/response"

	"github.com/gin-gonic/gin"
)

// fail maps service sentinel errors to HTTP statuses and writes the
// standard error envelope.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	}
	c.JSON(status, response.Error(status, err.Error()))
}

// parseID reads a numeric path parameter; a malformed value writes a 400
// and reports false.
func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid id parameter"))
		return 0, false
	}
	return uint(id), true
}
