package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vaikhari/vaikhari/backend/api/internal/database"
	"github.com/vaikhari/vaikhari/backend/api/internal/models"
	"github.com/vaikhari/vaikhari/backend/api/internal/users"
	"github.com/vaikhari/vaikhari/backend/api/pkg/logger"
	"github.com/vaikhari/vaikhari/backend/api/pkg/middleware"
)

// AssignRolesRequest targets a user by uid or email and replaces their roles.
type AssignRolesRequest struct {
	UID   string   `json:"uid"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// AdminHandler serves the superadmin role-management endpoints plus the
// operator database inspection view.
type AdminHandler struct {
	usersSvc *users.Service
	auth     AuthClient
	db       *mongo.Database
}

func NewAdminHandler(u *users.Service, a AuthClient, db *mongo.Database) *AdminHandler {
	return &AdminHandler{usersSvc: u, auth: a, db: db}
}

// Register routes under /admin. authn is the shared Authenticate middleware;
// the role endpoints additionally require superadmin. The db inspection
// endpoint is deliberately left open for local operator use; deployments
// front it with network policy.
func (h *AdminHandler) Register(rg *gin.RouterGroup, authn gin.HandlerFunc) {
	a := rg.Group("/admin")
	a.GET("/roles", authn, middleware.RequireRole(models.RoleSuperadmin), h.GetRoles)
	a.POST("/roles", authn, middleware.RequireRole(models.RoleSuperadmin), h.AssignRoles)
	a.GET("/db/inspect", h.InspectDB)
}

// GetRoles looks a user up by ?uid= or ?email= and returns their stored roles.
func (h *AdminHandler) GetRoles(c *gin.Context) {
	uid := c.Query("uid")
	email := c.Query("email")
	if uid == "" && email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "uid or email required"})
		return
	}

	var (
		u   *models.User
		err error
	)
	if uid != "" {
		u, err = h.usersSvc.GetByUID(c.Request.Context(), uid)
	} else {
		u, err = h.usersSvc.GetByEmail(c.Request.Context(), email)
	}
	if err != nil {
		logger.Errorf("role lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if u == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"uid": u.UID, "email": u.Email, "roles": u.Roles})
}

// AssignRoles overwrites the target user's role set with the valid subset of
// the request and mirrors it into the provider's custom claims so future
// tokens carry the roles too.
func (h *AdminHandler) AssignRoles(c *gin.Context) {
	var req AssignRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Roles) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roles required"})
		return
	}
	if req.UID == "" && req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "uid or email required"})
		return
	}

	ctx := c.Request.Context()
	uid := req.UID
	if uid == "" {
		target, err := h.usersSvc.GetByEmail(ctx, req.Email)
		if err != nil {
			logger.Errorf("role target lookup failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
			return
		}
		if target == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		uid = target.UID
	}

	u, err := h.usersSvc.AssignRoles(ctx, uid, req.Roles)
	if err == users.ErrInvalidRoles {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roles required"})
		return
	}
	if err != nil {
		logger.Errorf("role assignment failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "role assignment failed"})
		return
	}
	if u == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	// best-effort mirror into provider claims; the database stays the source
	// of truth when the provider call fails
	if err := h.auth.SetCustomClaims(ctx, u.UID, map[string]interface{}{"roles": u.Roles}); err != nil {
		logger.Warnf("custom claims update failed for %s: %v", u.UID, err)
	}

	c.JSON(http.StatusOK, gin.H{"uid": u.UID, "email": u.Email, "roles": u.Roles})
}

// InspectDB summarizes every collection with a count and a redacted sample.
func (h *AdminHandler) InspectDB(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	infos, err := database.Inspect(c.Request.Context(), h.db, limit)
	if err != nil {
		logger.Errorf("db inspect failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "inspection failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"database": h.db.Name(), "collections": infos})
}
