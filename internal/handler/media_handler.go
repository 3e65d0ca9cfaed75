package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/physical-edu/physical-backend/internal/middleware"
	"github.com/physical-edu/physical-backend/internal/model"
	"github.com/physical-edu/physical-backend/internal/response"
	"github.com/physical-edu/physical-backend/internal/service"
	"github.com/rs/zerolog"
)

// MediaHandler handles image upload endpoints.
type MediaHandler struct {
	mediaService *service.MediaService
	log          zerolog.Logger
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(mediaService *service.MediaService, log zerolog.Logger) *MediaHandler {
	return &MediaHandler{
		mediaService: mediaService,
		log:          log.With().Str("component", "media_handler").Logger(),
	}
}

// UploadImage godoc
// POST /api/questions/upload-image
// POST /api/questions/image/upload
// Uploads the multipart "image" file into the folder selected by the
// caller's role and the "type" form field, and returns its URL and id.
func (h *MediaHandler) UploadImage(c *gin.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer file.Close()

	imageType := model.ImageType(c.PostForm("type"))
	user := middleware.GetUser(c)

	obj, err := h.mediaService.Upload(c.Request.Context(), user.Role, imageType, file, header)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.SuccessMessage(c, http.StatusOK, "Image uploaded", obj)
}
