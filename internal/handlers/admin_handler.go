package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/SAP-F-2025/leaderboard-service/internal/services"
	"github.com/SAP-F-2025/leaderboard-service/internal/utils"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminHandler serves the administrative leaderboard operations. Routes are
// mounted behind the admin middleware; the service checks the role again.
type AdminHandler struct {
	BaseHandler
	leaderboardService services.LeaderboardService
}

func NewAdminHandler(leaderboardService services.LeaderboardService, logger utils.Logger) *AdminHandler {
	return &AdminHandler{
		BaseHandler:        NewBaseHandler(logger),
		leaderboardService: leaderboardService,
	}
}

// Debug reports drift between the series references and the quiz store
// @Summary Leaderboard diagnostics
// @Tags admin
// @Produce json
// @Param id path string true "Test series ID"
// @Success 200 {object} SuccessResponse{data=services.LeaderboardDiagnostics}
// @Router /admin/test-series/{id}/leaderboard/debug [get]
func (h *AdminHandler) Debug(c *gin.Context) {
	seriesID := pathParam(c, "id")
	diag, err := h.leaderboardService.Debug(c.Request.Context(), seriesID, viewerFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Leaderboard diagnostics", diag, "test_series_id", seriesID)
}

// EnsureEntry creates or recomputes one user's entry
// @Summary Ensure leaderboard entry
// @Tags admin
// @Produce json
// @Param id path string true "Test series ID"
// @Param user_id path string true "User ID"
// @Success 200 {object} SuccessResponse{data=services.EnsureEntryResult}
// @Router /admin/test-series/{id}/leaderboard/ensure/{user_id} [post]
func (h *AdminHandler) EnsureEntry(c *gin.Context) {
	seriesID := pathParam(c, "id")
	userID := pathParam(c, "user_id")
	h.LogRequest(c, "Ensuring leaderboard entry", "test_series_id", seriesID, "target_user_id", userID)

	result, err := h.leaderboardService.EnsureEntry(c.Request.Context(), seriesID, userID, viewerFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Leaderboard entry ensured", result,
		"test_series_id", seriesID,
		"created", result.Created)
}

// Refresh rebuilds every entry of the series. Per-user failures are reported
// in the summary and do not change the status code.
// @Summary Refresh leaderboard
// @Tags admin
// @Produce json
// @Param id path string true "Test series ID"
// @Success 200 {object} SuccessResponse{data=services.RefreshSummary}
// @Router /admin/test-series/{id}/leaderboard/refresh [post]
func (h *AdminHandler) Refresh(c *gin.Context) {
	seriesID := pathParam(c, "id")
	h.LogRequest(c, "Refreshing leaderboard", "test_series_id", seriesID)

	summary, err := h.leaderboardService.RefreshSeries(c.Request.Context(), seriesID, viewerFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	message := "Leaderboard refreshed"
	if summary.Errors > 0 {
		message = fmt.Sprintf("Leaderboard refreshed with %d errors", summary.Errors)
	}
	h.RespondWithSuccess(c, http.StatusOK, message, summary,
		"test_series_id", seriesID,
		"processed", summary.Processed,
		"errors", summary.Errors)
}

// Export downloads the ranked leaderboard as an XLSX workbook
// @Summary Export leaderboard
// @Tags admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Test series ID"
// @Router /admin/test-series/{id}/leaderboard/export [get]
func (h *AdminHandler) Export(c *gin.Context) {
	seriesID := pathParam(c, "id")

	// Buffer first so a failure can still be reported as JSON.
	var buf bytes.Buffer
	if err := h.leaderboardService.ExportLeaderboard(c.Request.Context(), seriesID, viewerFromContext(c), &buf); err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("leaderboard-%s-%s.xlsx", seriesID, time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())

	h.LogInfo(c, "Leaderboard exported", "test_series_id", seriesID, "bytes", buf.Len())
}
