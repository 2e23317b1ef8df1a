package handlers

import (
	"net/http"
	"strings"

	"github.com/SAP-F-2025/leaderboard-service/internal/auth"
	"github.com/SAP-F-2025/leaderboard-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware resolves the bearer token into the caller stored in the gin context
type AuthMiddleware struct {
	BaseHandler
	verifier auth.TokenVerifier
}

func NewAuthMiddleware(verifier auth.TokenVerifier, logger utils.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		BaseHandler: NewBaseHandler(logger),
		verifier:    verifier,
	}
}

// Optional lets anonymous requests through. A token that is present but
// invalid is still rejected.
func (m *AuthMiddleware) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}
		if m.authenticate(c, token) {
			c.Next()
		}
	}
}

// Required rejects requests without a valid token
func (m *AuthMiddleware) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			m.RespondWithError(c, http.StatusUnauthorized, "Authentication required", nil)
			return
		}
		if m.authenticate(c, token) {
			c.Next()
		}
	}
}

// Admin must run after Required
func (m *AuthMiddleware) Admin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !viewerFromContext(c).IsAdmin() {
			m.RespondWithError(c, http.StatusForbidden, "Administrator role required", nil)
			return
		}
		c.Next()
	}
}

func (m *AuthMiddleware) authenticate(c *gin.Context, token string) bool {
	claims, err := m.verifier.Verify(token)
	if err != nil {
		m.RespondWithError(c, http.StatusUnauthorized, "Invalid or expired token", err)
		return false
	}

	c.Set(ctxKeyUserID, claims.UserID)
	c.Set(ctxKeyUserRole, claims.Role)
	return true
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
