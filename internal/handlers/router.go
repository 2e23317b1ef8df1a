package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/leaderboard-service/internal/auth"
	"github.com/SAP-F-2025/leaderboard-service/internal/services"
	"github.com/SAP-F-2025/leaderboard-service/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HandlerManager struct {
	leaderboardHandler *LeaderboardHandler
	adminHandler       *AdminHandler
	auth               *AuthMiddleware
	gatherer           prometheus.Gatherer
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	verifier auth.TokenVerifier,
	gatherer prometheus.Gatherer,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		leaderboardHandler: NewLeaderboardHandler(serviceManager.Leaderboard(), logger),
		adminHandler:       NewAdminHandler(serviceManager.Leaderboard(), logger),
		auth:               NewAuthMiddleware(verifier, logger),
		gatherer:           gatherer,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(hm.gatherer, promhttp.HandlerOpts{})))

	v1 := router.Group("/api/v1")
	{
		leaderboard := v1.Group("/test-series/:id/leaderboard")
		{
			leaderboard.GET("", hm.auth.Optional(), hm.leaderboardHandler.GetLeaderboard)

			authenticated := leaderboard.Group("", hm.auth.Required())
			authenticated.GET("/me", hm.leaderboardHandler.GetMyPerformance)
			authenticated.GET("/users/:user_id", hm.leaderboardHandler.GetUserPerformance)
			authenticated.POST("/update", hm.leaderboardHandler.UpdateMyEntry)
		}

		admin := v1.Group("/admin/test-series/:id/leaderboard", hm.auth.Required(), hm.auth.Admin())
		{
			admin.GET("/debug", hm.adminHandler.Debug)
			admin.POST("/ensure/:user_id", hm.adminHandler.EnsureEntry)
			admin.POST("/refresh", hm.adminHandler.Refresh)
			admin.GET("/export", hm.adminHandler.Export)
		}
	}
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "leaderboard-service",
	})
}
