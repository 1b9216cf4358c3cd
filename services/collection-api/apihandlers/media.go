package apihandlers

import (
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	mw "github.com/aaarash/nemo/pkg/apihelpers/middlewares"
	jwthandling "github.com/aaarash/nemo/pkg/jwt-handling"
	"github.com/aaarash/nemo/pkg/utils"
)

var allowedMediaTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// AddMediaAPI registers the endpoints for image answer attachments. Uploads
// happen before response submission; the returned media id goes into the
// answer's mediaObjectId field.
func (h *HttpEndpoints) AddMediaAPI(rg *gin.RouterGroup) {
	mediaGroup := rg.Group("/media")
	mediaGroup.Use(mw.CollectionAuthMiddleware(h.tokenSignKey, h.allowedInstanceIDs))
	{
		mediaGroup.POST("", h.uploadMedia)
		mediaGroup.GET("/:mediaID", h.getMedia)
	}
}

func (h *HttpEndpoints) uploadMedia(c *gin.Context) {
	token := c.MustGet("validatedToken").(*jwthandling.CollectionUserClaims)

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file found in request"})
		return
	}

	contentType, err := utils.ValidateFileTypeFromContent(file, allowedMediaTypes)
	if err != nil {
		slog.Warn("rejected media upload", slog.String("instanceID", token.InstanceID), slog.String("error", err.Error()))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	mediaID := uuid.NewString() + utils.GetFileExtensionFromContentType(contentType)
	dst := filepath.Join(h.mediaStoragePath, token.InstanceID, mediaID)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		slog.Error("failed to store media file", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error saving file"})
		return
	}

	slog.Info("media uploaded", slog.String("instanceID", token.InstanceID), slog.String("mediaID", mediaID))
	c.JSON(http.StatusCreated, gin.H{"mediaId": mediaID})
}

func (h *HttpEndpoints) getMedia(c *gin.Context) {
	token := c.MustGet("validatedToken").(*jwthandling.CollectionUserClaims)
	mediaID := c.Param("mediaID")

	// Media ids are server generated; anything else is a traversal attempt.
	name := mediaID[:len(mediaID)-len(filepath.Ext(mediaID))]
	if !utils.IsURLSafe(name) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid media id"})
		return
	}

	c.File(filepath.Join(h.mediaStoragePath, token.InstanceID, mediaID))
}
