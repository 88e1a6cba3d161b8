package handler

import (
	"net/http"

	"storetrack/internal/imagestore"
	"storetrack/internal/middleware"
	"storetrack/internal/service"
	"storetrack/pkg/response"

	"github.com/gin-gonic/gin"
)

type ImageHandler struct {
	store       *imagestore.Store
	userService service.UserService
}

func NewImageHandler(store *imagestore.Store, userService service.UserService) *ImageHandler {
	return &ImageHandler{store: store, userService: userService}
}

// RegisterRoutes binds the image serving endpoints. Filenames are
// validated against traversal before hitting the filesystem.
func (h *ImageHandler) RegisterRoutes(router *gin.RouterGroup) {
	img := router.Group("/img", middleware.RequireAuth())
	{
		img.GET("/item/:filename", h.serve(imagestore.KindItem))
		img.GET("/user/:filename", h.serve(imagestore.KindUser))
		img.GET("/storage/:filename", h.serve(imagestore.KindStorage))
		img.GET("/current_user", h.CurrentUserImage)
	}
}

func (h *ImageHandler) serve(kind imagestore.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		filename := c.Param("filename")
		if !imagestore.IsValidName(filename) {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid filename"))
			return
		}
		c.File(h.store.Path(kind, filename))
	}
}

// CurrentUserImage redirects to the caller's profile image, falling back
// to the default avatar.
func (h *ImageHandler) CurrentUserImage(c *gin.Context) {
	userID, ok := middleware.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Unauthorized"))
		return
	}

	filename := imagestore.DefaultUserImage()
	if user, err := h.userService.GetUser(c.Request.Context(), userID); err == nil && user.ImageFilename != "" {
		filename = user.ImageFilename
	}

	c.Redirect(http.StatusFound, "/img/user/"+filename)
}
