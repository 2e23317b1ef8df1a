package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SAP-F-2025/leaderboard-service/internal/auth"
	apperrors "github.com/SAP-F-2025/leaderboard-service/internal/errors"
	"github.com/SAP-F-2025/leaderboard-service/internal/models"
	"github.com/SAP-F-2025/leaderboard-service/internal/services"
	"github.com/SAP-F-2025/leaderboard-service/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const seriesID = "64b7f0c2a1b2c3d4e5f60718"

// MockLeaderboardService is a mock implementation of services.LeaderboardService
type MockLeaderboardService struct {
	mock.Mock
}

func (m *MockLeaderboardService) UpdateUserStats(ctx context.Context, testSeriesID, userID string) (*models.LeaderboardEntry, error) {
	args := m.Called(ctx, testSeriesID, userID)
	if e := args.Get(0); e != nil {
		return e.(*models.LeaderboardEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLeaderboardService) UpdateRanks(ctx context.Context, testSeriesID string) ([]*models.LeaderboardEntry, error) {
	args := m.Called(ctx, testSeriesID)
	if e := args.Get(0); e != nil {
		return e.([]*models.LeaderboardEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLeaderboardService) UpdateAfterQuizCompletion(ctx context.Context, testSeriesID string, viewer services.Viewer) (*services.UserPerformance, error) {
	args := m.Called(ctx, testSeriesID, viewer)
	if p := args.Get(0); p != nil {
		return p.(*services.UserPerformance), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLeaderboardService) GetLeaderboard(ctx context.Context, testSeriesID string, query services.LeaderboardQuery, viewer services.Viewer) (*services.LeaderboardPage, error) {
	args := m.Called(ctx, testSeriesID, query, viewer)
	if p := args.Get(0); p != nil {
		return p.(*services.LeaderboardPage), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLeaderboardService) GetUserPerformance(ctx context.Context, testSeriesID, userID string, viewer services.Viewer) (*services.UserPerformance, error) {
	args := m.Called(ctx, testSeriesID, userID, viewer)
	if p := args.Get(0); p != nil {
		return p.(*services.UserPerformance), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLeaderboardService) EnsureEntry(ctx context.Context, testSeriesID, userID string, viewer services.Viewer) (*services.EnsureEntryResult, error) {
	args := m.Called(ctx, testSeriesID, userID, viewer)
	if r := args.Get(0); r != nil {
		return r.(*services.EnsureEntryResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLeaderboardService) RefreshSeries(ctx context.Context, testSeriesID string, viewer services.Viewer) (*services.RefreshSummary, error) {
	args := m.Called(ctx, testSeriesID, viewer)
	if r := args.Get(0); r != nil {
		return r.(*services.RefreshSummary), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLeaderboardService) Debug(ctx context.Context, testSeriesID string, viewer services.Viewer) (*services.LeaderboardDiagnostics, error) {
	args := m.Called(ctx, testSeriesID, viewer)
	if d := args.Get(0); d != nil {
		return d.(*services.LeaderboardDiagnostics), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLeaderboardService) ExportLeaderboard(ctx context.Context, testSeriesID string, viewer services.Viewer, w io.Writer) error {
	args := m.Called(ctx, testSeriesID, viewer, w)
	if args.Error(0) == nil {
		_, _ = w.Write([]byte("xlsx-bytes"))
	}
	return args.Error(0)
}

// stubVerifier accepts the tokens it knows
type stubVerifier map[string]*auth.Claims

func (s stubVerifier) Verify(token string) (*auth.Claims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, auth.ErrInvalidToken
}

var (
	studentViewer = services.Viewer{UserID: "user-1", Role: models.RoleStudent}
	adminViewer   = services.Viewer{UserID: "admin-1", Role: models.RoleAdmin}
)

func setupRouter(t *testing.T) (*gin.Engine, *MockLeaderboardService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := &MockLeaderboardService{}
	verifier := stubVerifier{
		"student-token": {UserID: "user-1", Role: models.RoleStudent},
		"admin-token":   {UserID: "admin-1", Role: models.RoleAdmin},
	}
	logger := utils.NewDiscardLogger()

	router := gin.New()
	router.Use(utils.ContextLogger(logger))
	NewHandlerManager(services.NewServiceManager(svc), verifier, prometheus.NewRegistry(), logger).SetupRoutes(router)

	return router, svc
}

func doRequest(router *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestGetLeaderboard_Anonymous(t *testing.T) {
	router, svc := setupRouter(t)
	svc.On("GetLeaderboard", mock.Anything, seriesID, services.LeaderboardQuery{Page: 2, Limit: 30}, services.Viewer{}).
		Return(&services.LeaderboardPage{TestSeriesID: seriesID, Tier: services.TierPublic, Page: 1, Limit: 10}, nil)

	w := doRequest(router, http.MethodGet, "/api/v1/test-series/"+seriesID+"/leaderboard?page=2&limit=30", "")

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "public", data["tier"])
	assert.NotEmpty(t, w.Header().Get(utils.RequestIDHeader))
	svc.AssertExpectations(t)
}

func TestGetLeaderboard_AuthenticatedViewerIsPassedThrough(t *testing.T) {
	router, svc := setupRouter(t)
	svc.On("GetLeaderboard", mock.Anything, seriesID, services.LeaderboardQuery{}, studentViewer).
		Return(&services.LeaderboardPage{Tier: services.TierEnrolled}, nil)

	w := doRequest(router, http.MethodGet, "/api/v1/test-series/"+seriesID+"/leaderboard", "student-token")

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestGetLeaderboard_BadRequests(t *testing.T) {
	router, svc := setupRouter(t)

	w := doRequest(router, http.MethodGet, "/api/v1/test-series/"+seriesID+"/leaderboard?page=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/test-series/"+seriesID+"/leaderboard", "forged-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, CodeUnauthorized, decodeBody(t, w)["code"])

	svc.AssertNotCalled(t, "GetLeaderboard", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"series not found", services.ErrTestSeriesNotFound, http.StatusNotFound, CodeNotFound},
		{"entry not found", services.ErrLeaderboardEntryNotFound, http.StatusNotFound, CodeNotFound},
		{"validation", apperrors.ValidationErrors{{Field: "test_series_id", Message: "must be a valid 24 character hex identifier"}}, http.StatusBadRequest, CodeValidation},
		{"permission", services.NewPermissionError("user-1", "user-2", "leaderboard_entry", "read", "not owner"), http.StatusForbidden, CodeForbidden},
		{"unauthorized", services.ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized},
		{"unexpected", errors.New("db down"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, svc := setupRouter(t)
			svc.On("GetUserPerformance", mock.Anything, seriesID, "user-2", studentViewer).Return(nil, tt.err)

			w := doRequest(router, http.MethodGet, "/api/v1/test-series/"+seriesID+"/leaderboard/users/user-2", "student-token")

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeBody(t, w)["code"])
		})
	}
}

func TestMyPerformance(t *testing.T) {
	router, svc := setupRouter(t)

	w := doRequest(router, http.MethodGet, "/api/v1/test-series/"+seriesID+"/leaderboard/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	svc.On("GetUserPerformance", mock.Anything, seriesID, "user-1", studentViewer).
		Return(&services.UserPerformance{UserID: "user-1", Rank: 4, Ranked: true}, nil)

	w = doRequest(router, http.MethodGet, "/api/v1/test-series/"+seriesID+"/leaderboard/me", "student-token")
	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(4), data["rank"])
}

func TestUpdateMyEntry(t *testing.T) {
	router, svc := setupRouter(t)
	svc.On("UpdateAfterQuizCompletion", mock.Anything, seriesID, studentViewer).
		Return(&services.UserPerformance{UserID: "user-1", Rank: 1, Ranked: true}, nil)

	w := doRequest(router, http.MethodPost, "/api/v1/test-series/"+seriesID+"/leaderboard/update", "student-token")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Leaderboard updated", decodeBody(t, w)["message"])
	svc.AssertExpectations(t)
}

func TestAdminRoutes_RequireAdmin(t *testing.T) {
	router, svc := setupRouter(t)

	w := doRequest(router, http.MethodPost, "/api/v1/admin/test-series/"+seriesID+"/leaderboard/refresh", "student-token")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(router, http.MethodPost, "/api/v1/admin/test-series/"+seriesID+"/leaderboard/refresh", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	svc.AssertNotCalled(t, "RefreshSeries", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminRefresh_PartialFailureIsStillOK(t *testing.T) {
	router, svc := setupRouter(t)
	svc.On("RefreshSeries", mock.Anything, seriesID, adminViewer).Return(&services.RefreshSummary{
		TestSeriesID: seriesID,
		UsersFound:   3,
		Processed:    2,
		Errors:       1,
		Failures:     []services.UserFailure{{UserID: "u2", Error: "timeout"}},
	}, nil)

	w := doRequest(router, http.MethodPost, "/api/v1/admin/test-series/"+seriesID+"/leaderboard/refresh", "admin-token")

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Leaderboard refreshed with 1 errors", body["message"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["processed"])
	assert.Equal(t, float64(1), data["errors"])
}

func TestAdminEnsureAndDebug(t *testing.T) {
	router, svc := setupRouter(t)
	svc.On("EnsureEntry", mock.Anything, seriesID, "user-9", adminViewer).
		Return(&services.EnsureEntryResult{Created: true, Performance: &services.UserPerformance{UserID: "user-9"}}, nil)
	svc.On("Debug", mock.Anything, seriesID, adminViewer).
		Return(&services.LeaderboardDiagnostics{TestSeriesID: seriesID, SkippedReferences: 2}, nil)

	w := doRequest(router, http.MethodPost, "/api/v1/admin/test-series/"+seriesID+"/leaderboard/ensure/user-9", "admin-token")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["data"].(map[string]interface{})["created"])

	w = doRequest(router, http.MethodGet, "/api/v1/admin/test-series/"+seriesID+"/leaderboard/debug", "admin-token")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decodeBody(t, w)["data"].(map[string]interface{})["skipped_references"])
	svc.AssertExpectations(t)
}

func TestAdminExport(t *testing.T) {
	router, svc := setupRouter(t)
	svc.On("ExportLeaderboard", mock.Anything, seriesID, adminViewer, mock.Anything).Return(nil)

	w := doRequest(router, http.MethodGet, "/api/v1/admin/test-series/"+seriesID+"/leaderboard/export", "admin-token")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "leaderboard-"+seriesID)
	assert.Equal(t, "xlsx-bytes", w.Body.String())
}

func TestAdminExport_Failure(t *testing.T) {
	router, svc := setupRouter(t)
	svc.On("ExportLeaderboard", mock.Anything, seriesID, adminViewer, mock.Anything).Return(services.ErrTestSeriesNotFound)

	w := doRequest(router, http.MethodGet, "/api/v1/admin/test-series/"+seriesID+"/leaderboard/export", "admin-token")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, CodeNotFound, decodeBody(t, w)["code"])
}

func TestHealthAndMetrics(t *testing.T) {
	router, _ := setupRouter(t)

	w := doRequest(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decodeBody(t, w)["status"])

	w = doRequest(router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Basic abc", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.Header.Set("Authorization", tt.header)

		token, ok := bearerToken(c)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.token, token, tt.header)
	}
}
