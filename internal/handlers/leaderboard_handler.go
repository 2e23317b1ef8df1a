package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/leaderboard-service/internal/services"
	"github.com/SAP-F-2025/leaderboard-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type LeaderboardHandler struct {
	BaseHandler
	leaderboardService services.LeaderboardService
}

func NewLeaderboardHandler(leaderboardService services.LeaderboardService, logger utils.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		BaseHandler:        NewBaseHandler(logger),
		leaderboardService: leaderboardService,
	}
}

// GetLeaderboard returns one page of the ranked leaderboard
// @Summary Get leaderboard
// @Description Anonymous and non-enrolled viewers only see the top entries; enrolled users and admins can page through everything
// @Tags leaderboard
// @Produce json
// @Param id path string true "Test series ID"
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} SuccessResponse{data=services.LeaderboardPage}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /test-series/{id}/leaderboard [get]
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	var query services.LeaderboardQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid query parameters", err, err.Error())
		return
	}

	seriesID := pathParam(c, "id")
	page, err := h.leaderboardService.GetLeaderboard(c.Request.Context(), seriesID, query, viewerFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Leaderboard retrieved", page,
		"test_series_id", seriesID,
		"tier", page.Tier)
}

// GetMyPerformance returns the caller's own entry
// @Summary Get my leaderboard performance
// @Tags leaderboard
// @Produce json
// @Param id path string true "Test series ID"
// @Success 200 {object} SuccessResponse{data=services.UserPerformance}
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /test-series/{id}/leaderboard/me [get]
func (h *LeaderboardHandler) GetMyPerformance(c *gin.Context) {
	viewer := viewerFromContext(c)
	h.respondWithPerformance(c, viewer.UserID, viewer)
}

// GetUserPerformance returns one user's entry. Students may only read their own.
// @Summary Get user leaderboard performance
// @Tags leaderboard
// @Produce json
// @Param id path string true "Test series ID"
// @Param user_id path string true "User ID"
// @Success 200 {object} SuccessResponse{data=services.UserPerformance}
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /test-series/{id}/leaderboard/users/{user_id} [get]
func (h *LeaderboardHandler) GetUserPerformance(c *gin.Context) {
	h.respondWithPerformance(c, pathParam(c, "user_id"), viewerFromContext(c))
}

func (h *LeaderboardHandler) respondWithPerformance(c *gin.Context, userID string, viewer services.Viewer) {
	seriesID := pathParam(c, "id")
	perf, err := h.leaderboardService.GetUserPerformance(c.Request.Context(), seriesID, userID, viewer)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Performance retrieved", perf, "test_series_id", seriesID)
}

// UpdateMyEntry recomputes the caller's entry after a quiz submission and re-ranks the series
// @Summary Update leaderboard after quiz completion
// @Tags leaderboard
// @Produce json
// @Param id path string true "Test series ID"
// @Success 200 {object} SuccessResponse{data=services.UserPerformance}
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /test-series/{id}/leaderboard/update [post]
func (h *LeaderboardHandler) UpdateMyEntry(c *gin.Context) {
	seriesID := pathParam(c, "id")
	h.LogRequest(c, "Updating leaderboard entry", "test_series_id", seriesID)

	perf, err := h.leaderboardService.UpdateAfterQuizCompletion(c.Request.Context(), seriesID, viewerFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Leaderboard updated", perf,
		"test_series_id", seriesID,
		"rank", perf.Rank)
}
