package repositories

import (
	"context"

	"github.com/SAP-F-2025/leaderboard-service/internal/models"
	"gorm.io/gorm"
)

// LeaderboardRepository persists leaderboard entries, one per (test series, user).
type LeaderboardRepository interface {
	GetByKey(ctx context.Context, tx *gorm.DB, testSeriesID, userID string) (*models.LeaderboardEntry, error)

	// SaveStats writes every derived column of entry in one statement. An entry
	// without an ID is upserted on (test series, user), so a row inserted
	// concurrently is updated instead of duplicated. Rank is never touched.
	SaveStats(ctx context.Context, tx *gorm.DB, entry *models.LeaderboardEntry) error

	ListBySeries(ctx context.Context, tx *gorm.DB, testSeriesID string) ([]*models.LeaderboardEntry, error)
	ListRanked(ctx context.Context, tx *gorm.DB, testSeriesID string, filters LeaderboardFilters) ([]*models.LeaderboardEntry, int64, error)
	UpdateRank(ctx context.Context, tx *gorm.DB, id uint, rank int) error
}
