package handlers

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vaikhari/vaikhari/backend/api/internal/models"
	"github.com/vaikhari/vaikhari/backend/api/internal/storage"
	"github.com/vaikhari/vaikhari/backend/api/pkg/logger"
	"github.com/vaikhari/vaikhari/backend/api/pkg/middleware"
)

const (
	maxUploadBytes  = 32 << 20 // 32 MiB
	presignedExpiry = 15 * time.Minute
)

// MediaHandler serves asset upload and presigned download URLs. Registered
// only when object storage is configured.
type MediaHandler struct {
	store *storage.MediaStorage
}

func NewMediaHandler(s *storage.MediaStorage) *MediaHandler {
	return &MediaHandler{store: s}
}

// Register routes under /media. authn is the shared Authenticate middleware.
func (h *MediaHandler) Register(rg *gin.RouterGroup, authn gin.HandlerFunc) {
	m := rg.Group("/media")
	m.POST("", authn, middleware.RequireRole(models.RoleEditor), h.Upload)
	m.GET("/:key/url", authn, h.PresignedURL)
}

// Upload stores a multipart "file" part under a fresh uuid key, keeping the
// original extension so content type survives.
func (h *MediaHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	if fh.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}
	defer f.Close()

	key := uuid.NewString() + filepath.Ext(fh.Filename)
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := h.store.Upload(c.Request.Context(), key, f, fh.Size, contentType); err != nil {
		logger.Errorf("media upload failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"key": key, "size": fh.Size, "contentType": contentType})
}

// PresignedURL hands out a time-limited GET URL for the object.
func (h *MediaHandler) PresignedURL(c *gin.Context) {
	key := c.Param("key")
	u, err := h.store.PresignedURL(c.Request.Context(), key, presignedExpiry)
	if err != nil {
		logger.Errorf("presign failed for %s: %v", key, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "presign failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "url": u, "expiresIn": int(presignedExpiry.Seconds())})
}
