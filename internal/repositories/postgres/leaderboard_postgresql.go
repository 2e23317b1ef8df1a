package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/leaderboard-service/internal/models"
	"github.com/SAP-F-2025/leaderboard-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// statColumns are rewritten on every stats update. rank is deliberately absent.
var statColumns = []string{
	"total_score",
	"total_max_score",
	"average_percentage",
	"completed_quizzes",
	"total_quizzes",
	"completion_percentage",
	"total_time_spent",
	"average_time_per_quiz",
	"best_attempts",
	"last_updated",
	"updated_at",
}

type LeaderboardPostgreSQL struct {
	db *gorm.DB
}

func NewLeaderboardPostgreSQL(db *gorm.DB) repositories.LeaderboardRepository {
	return &LeaderboardPostgreSQL{db: db}
}

func (l *LeaderboardPostgreSQL) GetByKey(ctx context.Context, tx *gorm.DB, testSeriesID, userID string) (*models.LeaderboardEntry, error) {
	var entry models.LeaderboardEntry
	if err := getDB(l.db, tx).WithContext(ctx).
		Where("test_series_id = ? AND user_id = ?", testSeriesID, userID).
		Preload("User").
		First(&entry).Error; err != nil {
		return nil, fmt.Errorf("failed to get leaderboard entry: %w", err)
	}
	return &entry, nil
}

func (l *LeaderboardPostgreSQL) SaveStats(ctx context.Context, tx *gorm.DB, entry *models.LeaderboardEntry) error {
	db := getDB(l.db, tx).WithContext(ctx)

	if entry.ID != 0 {
		if err := db.Model(entry).Select(statColumns).Updates(entry).Error; err != nil {
			return fmt.Errorf("failed to save leaderboard stats: %w", err)
		}
		return nil
	}

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "test_series_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns(statColumns),
	}).Create(entry).Error
	if err != nil {
		return fmt.Errorf("failed to upsert leaderboard stats: %w", err)
	}
	return nil
}

func (l *LeaderboardPostgreSQL) ListBySeries(ctx context.Context, tx *gorm.DB, testSeriesID string) ([]*models.LeaderboardEntry, error) {
	var entries []*models.LeaderboardEntry
	if err := getDB(l.db, tx).WithContext(ctx).
		Where("test_series_id = ?", testSeriesID).
		Order("id ASC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list leaderboard entries: %w", err)
	}
	return entries, nil
}

func (l *LeaderboardPostgreSQL) ListRanked(ctx context.Context, tx *gorm.DB, testSeriesID string, filters repositories.LeaderboardFilters) ([]*models.LeaderboardEntry, int64, error) {
	var entries []*models.LeaderboardEntry
	var total int64

	query := getDB(l.db, tx).WithContext(ctx).
		Model(&models.LeaderboardEntry{}).
		Where("test_series_id = ? AND completed_quizzes > 0 AND rank > 0", testSeriesID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count ranked entries: %w", err)
	}

	// Same ordering as the rank pass so tied entries keep their sort position.
	query = query.Order("rank ASC").Order("total_time_spent ASC").Order("id ASC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Preload("User").Find(&entries).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list ranked entries: %w", err)
	}

	return entries, total, nil
}

func (l *LeaderboardPostgreSQL) UpdateRank(ctx context.Context, tx *gorm.DB, id uint, rank int) error {
	if err := getDB(l.db, tx).WithContext(ctx).
		Model(&models.LeaderboardEntry{}).
		Where("id = ?", id).
		Update("rank", rank).Error; err != nil {
		return fmt.Errorf("failed to update rank of entry %d: %w", id, err)
	}
	return nil
}
