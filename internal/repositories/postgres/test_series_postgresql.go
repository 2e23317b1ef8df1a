package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/leaderboard-service/internal/models"
	"github.com/SAP-F-2025/leaderboard-service/internal/repositories"
	"gorm.io/gorm"
)

type TestSeriesPostgreSQL struct {
	db *gorm.DB
}

func NewTestSeriesPostgreSQL(db *gorm.DB) repositories.TestSeriesRepository {
	return &TestSeriesPostgreSQL{db: db}
}

func (t *TestSeriesPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.TestSeries, error) {
	var series models.TestSeries
	if err := getDB(t.db, tx).WithContext(ctx).First(&series, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to get test series: %w", err)
	}
	return &series, nil
}

type QuizPostgreSQL struct {
	db *gorm.DB
}

func NewQuizPostgreSQL(db *gorm.DB) repositories.QuizRepository {
	return &QuizPostgreSQL{db: db}
}

func (q *QuizPostgreSQL) GetIDsByTestSeries(ctx context.Context, tx *gorm.DB, testSeriesID string) ([]string, error) {
	var ids []string
	if err := getDB(q.db, tx).WithContext(ctx).
		Model(&models.Quiz{}).
		Where("test_series_id = ?", testSeriesID).
		Order("created_at ASC").
		Order("id ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to get quizzes of test series: %w", err)
	}
	return ids, nil
}

type UserPostgreSQL struct {
	db *gorm.DB
}

func NewUserPostgreSQL(db *gorm.DB) repositories.UserRepository {
	return &UserPostgreSQL{db: db}
}

func (u *UserPostgreSQL) IsEnrolled(ctx context.Context, tx *gorm.DB, userID, testSeriesID string) (bool, error) {
	var count int64
	if err := getDB(u.db, tx).WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("user_id = ? AND test_series_id = ?", userID, testSeriesID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check enrollment: %w", err)
	}
	return count > 0, nil
}
