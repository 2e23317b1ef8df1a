package services

import (
	"context"
	"io"
	"time"

	"github.com/SAP-F-2025/leaderboard-service/internal/models"
)

// ServiceManager exposes the services the HTTP layer depends on
type ServiceManager interface {
	Leaderboard() LeaderboardService
}

type serviceManager struct {
	leaderboard LeaderboardService
}

func NewServiceManager(leaderboard LeaderboardService) ServiceManager {
	return &serviceManager{leaderboard: leaderboard}
}

func (m *serviceManager) Leaderboard() LeaderboardService {
	return m.leaderboard
}

// ===== LEADERBOARD SERVICE =====

type LeaderboardService interface {
	// UpdateUserStats recomputes one user's entry from their attempts. The entry
	// is created when missing. Ranks are not touched.
	UpdateUserStats(ctx context.Context, testSeriesID, userID string) (*models.LeaderboardEntry, error)

	// UpdateRanks re-ranks every entry of the series and returns the ranked
	// entries in rank order.
	UpdateRanks(ctx context.Context, testSeriesID string) ([]*models.LeaderboardEntry, error)

	// UpdateAfterQuizCompletion is the per-user update: stats for the viewer,
	// then a series-wide rank pass.
	UpdateAfterQuizCompletion(ctx context.Context, testSeriesID string, viewer Viewer) (*UserPerformance, error)

	GetLeaderboard(ctx context.Context, testSeriesID string, query LeaderboardQuery, viewer Viewer) (*LeaderboardPage, error)
	GetUserPerformance(ctx context.Context, testSeriesID, userID string, viewer Viewer) (*UserPerformance, error)

	// Administrative operations
	EnsureEntry(ctx context.Context, testSeriesID, userID string, viewer Viewer) (*EnsureEntryResult, error)
	RefreshSeries(ctx context.Context, testSeriesID string, viewer Viewer) (*RefreshSummary, error)
	Debug(ctx context.Context, testSeriesID string, viewer Viewer) (*LeaderboardDiagnostics, error)
	ExportLeaderboard(ctx context.Context, testSeriesID string, viewer Viewer, w io.Writer) error
}

// ===== CALLER =====

// Viewer is the authenticated caller. The zero value is an anonymous viewer.
type Viewer struct {
	UserID string
	Role   models.UserRole
}

func (v Viewer) IsAuthenticated() bool {
	return v.UserID != ""
}

func (v Viewer) IsAdmin() bool {
	return v.IsAuthenticated() && v.Role == models.RoleAdmin
}

// Tier is the visibility a viewer gets on a leaderboard
type Tier string

const (
	TierPublic   Tier = "public"
	TierEnrolled Tier = "enrolled"
	TierAdmin    Tier = "admin"
)

// ===== REQUEST DTOs =====

type LeaderboardQuery struct {
	Page  int `form:"page" validate:"omitempty,min=1"`
	Limit int `form:"limit" validate:"omitempty,min=1,max=100"`
}

// ===== RESPONSE DTOs =====

type LeaderboardRow struct {
	Rank                 int       `json:"rank"`
	UserID               string    `json:"user_id"`
	FullName             string    `json:"full_name,omitempty"`
	AvatarURL            *string   `json:"avatar_url,omitempty"`
	AveragePercentage    int       `json:"average_percentage"`
	CompletionPercentage int       `json:"completion_percentage"`
	CompletedQuizzes     int       `json:"completed_quizzes"`
	TotalQuizzes         int       `json:"total_quizzes"`
	TotalScore           float64   `json:"total_score"`
	TotalTimeSpent       int       `json:"total_time_spent"`
	LastUpdated          time.Time `json:"last_updated"`
}

type LeaderboardPage struct {
	TestSeriesID      string           `json:"test_series_id"`
	Tier              Tier             `json:"tier"`
	Page              int              `json:"page"`
	Limit             int              `json:"limit"`
	TotalParticipants int64            `json:"total_participants"`
	TotalPages        int              `json:"total_pages"`
	Entries           []LeaderboardRow `json:"entries"`
	CurrentUser       *UserPerformance `json:"current_user,omitempty"`
	// Truncated is set when the public tier hides entries past the top.
	Truncated bool `json:"truncated"`
}

type UserPerformance struct {
	TestSeriesID         string               `json:"test_series_id"`
	UserID               string               `json:"user_id"`
	Rank                 int                  `json:"rank"`
	Ranked               bool                 `json:"ranked"`
	TotalParticipants    int64                `json:"total_participants"`
	TotalScore           float64              `json:"total_score"`
	TotalMaxScore        float64              `json:"total_max_score"`
	AveragePercentage    int                  `json:"average_percentage"`
	CompletedQuizzes     int                  `json:"completed_quizzes"`
	TotalQuizzes         int                  `json:"total_quizzes"`
	CompletionPercentage int                  `json:"completion_percentage"`
	TotalTimeSpent       int                  `json:"total_time_spent"`
	AverageTimePerQuiz   int                  `json:"average_time_per_quiz"`
	BestAttempts         []models.BestAttempt `json:"best_attempts"`
	LastUpdated          time.Time            `json:"last_updated"`
}

type EnsureEntryResult struct {
	Created     bool             `json:"created"`
	Performance *UserPerformance `json:"performance"`
}

// RefreshSummary reports a series-wide refresh. Per-user failures are listed,
// they never fail the refresh itself.
type RefreshSummary struct {
	TestSeriesID   string        `json:"test_series_id"`
	QuizCount      int           `json:"quiz_count"`
	UsersFound     int           `json:"users_found"`
	EntriesCreated int           `json:"entries_created"`
	Processed      int           `json:"processed"`
	Errors         int           `json:"errors"`
	Ranked         int           `json:"ranked"`
	Failures       []UserFailure `json:"failures,omitempty"`
}

// LeaderboardDiagnostics compares what the series references with what the
// quiz store holds, and summarizes the stored entries.
type LeaderboardDiagnostics struct {
	TestSeriesID        string   `json:"test_series_id"`
	ReferencedQuizIDs   []string `json:"referenced_quiz_ids"`
	SkippedReferences   int      `json:"skipped_references"`
	StoredQuizIDs       []string `json:"stored_quiz_ids"`
	MissingFromStore    []string `json:"missing_from_store"`
	UnreferencedQuizIDs []string `json:"unreferenced_quiz_ids"`
	UsersWithAttempts   int      `json:"users_with_attempts"`
	EntryCount          int      `json:"entry_count"`
	RankedCount         int      `json:"ranked_count"`
	ZeroCompletedCount  int      `json:"zero_completed_count"`
}

func newLeaderboardRow(e *models.LeaderboardEntry) LeaderboardRow {
	row := LeaderboardRow{
		Rank:                 e.Rank,
		UserID:               e.UserID,
		AveragePercentage:    e.AveragePercentage,
		CompletionPercentage: e.CompletionPercentage,
		CompletedQuizzes:     e.CompletedQuizzes,
		TotalQuizzes:         e.TotalQuizzes,
		TotalScore:           e.TotalScore,
		TotalTimeSpent:       e.TotalTimeSpent,
		LastUpdated:          e.LastUpdated,
	}
	if e.User != nil {
		row.FullName = e.User.FullName
		row.AvatarURL = e.User.AvatarURL
	}
	return row
}

func newUserPerformance(e *models.LeaderboardEntry, participants int64) *UserPerformance {
	best := make([]models.BestAttempt, 0, len(e.BestAttempts))
	best = append(best, e.BestAttempts...)

	return &UserPerformance{
		TestSeriesID:         e.TestSeriesID,
		UserID:               e.UserID,
		Rank:                 e.Rank,
		Ranked:               e.IsRanked() && e.CompletedQuizzes > 0,
		TotalParticipants:    participants,
		TotalScore:           e.TotalScore,
		TotalMaxScore:        e.TotalMaxScore,
		AveragePercentage:    e.AveragePercentage,
		CompletedQuizzes:     e.CompletedQuizzes,
		TotalQuizzes:         e.TotalQuizzes,
		CompletionPercentage: e.CompletionPercentage,
		TotalTimeSpent:       e.TotalTimeSpent,
		AverageTimePerQuiz:   e.AverageTimePerQuiz,
		BestAttempts:         best,
		LastUpdated:          e.LastUpdated,
	}
}
