package handlers

import (
	"strings"

	"github.com/SAP-F-2025/leaderboard-service/internal/models"
	"github.com/SAP-F-2025/leaderboard-service/internal/services"
	"github.com/gin-gonic/gin"
)

const (
	ctxKeyUserID   = "user_id"
	ctxKeyUserRole = "user_role"
)

// viewerFromContext returns the caller set by the auth middleware, or an
// anonymous viewer.
func viewerFromContext(c *gin.Context) services.Viewer {
	userID := c.GetString(ctxKeyUserID)
	if userID == "" {
		return services.Viewer{}
	}

	role, _ := c.Get(ctxKeyUserRole)
	r, ok := role.(models.UserRole)
	if !ok {
		r = models.RoleStudent
	}
	return services.Viewer{UserID: userID, Role: r}
}

// pathParam trims a route parameter. Format checks are left to the service.
func pathParam(c *gin.Context, name string) string {
	return strings.TrimSpace(c.Param(name))
}
