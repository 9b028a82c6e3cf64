package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vaikhari/vaikhari/backend/api/internal/circles"
	"github.com/vaikhari/vaikhari/backend/api/pkg/logger"
	"github.com/vaikhari/vaikhari/backend/api/pkg/middleware"
)

// CreatePostRequest is the publish payload for a circle feed.
type CreatePostRequest struct {
	Body string `json:"body" binding:"required"`
}

// CirclesHandler serves the paginated circle feed.
type CirclesHandler struct {
	svc *circles.Service
}

func NewCirclesHandler(s *circles.Service) *CirclesHandler {
	return &CirclesHandler{svc: s}
}

// Register routes under /circles. authn is the shared Authenticate middleware.
func (h *CirclesHandler) Register(rg *gin.RouterGroup, authn gin.HandlerFunc) {
	cg := rg.Group("/circles")
	cg.GET("/:id/posts", authn, h.ListPosts)
	cg.POST("/:id/posts", authn, h.CreatePost)
}

// ListPosts returns one page of a circle's feed, newest first. ?before is an
// exclusive createdAt cursor (RFC3339 or unix milliseconds); ?limit is
// clamped to [1, 100] and defaults to 20.
func (h *CirclesHandler) ListPosts(c *gin.Context) {
	before, ok := parseBefore(c.Query("before"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid before cursor"})
		return
	}
	limit := circles.DefaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = circles.ClampLimit(n)
	}

	page, err := h.svc.List(c.Request.Context(), c.Param("id"), before, limit)
	if err != nil {
		logger.Errorf("circle feed query failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "feed query failed"})
		return
	}
	c.JSON(http.StatusOK, page)
}

// CreatePost publishes a post into the circle on behalf of the caller.
func (h *CirclesHandler) CreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body required"})
		return
	}
	u := middleware.CurrentUser(c)
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHENTICATED"})
		return
	}
	post, err := h.svc.Create(c.Request.Context(), c.Param("id"), u.UID, req.Body)
	if err == circles.ErrEmptyBody {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body required"})
		return
	}
	if err != nil {
		logger.Errorf("post create failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "post create failed"})
		return
	}
	c.JSON(http.StatusCreated, post)
}

// parseBefore accepts an RFC3339 timestamp or unix milliseconds. An empty
// cursor means "from the top" and yields the zero time.
func parseBefore(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil && ms > 0 {
		return time.UnixMilli(ms).UTC(), true
	}
	return time.Time{}, false
}
