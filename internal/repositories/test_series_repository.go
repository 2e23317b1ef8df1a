package repositories

import (
	"context"

	"github.com/SAP-F-2025/leaderboard-service/internal/models"
	"gorm.io/gorm"
)

type TestSeriesRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.TestSeries, error)
}

type QuizRepository interface {
	// GetIDsByTestSeries lists quizzes by their own test_series_id column,
	// independent of the references stored on the test series.
	GetIDsByTestSeries(ctx context.Context, tx *gorm.DB, testSeriesID string) ([]string, error)
}

type UserRepository interface {
	IsEnrolled(ctx context.Context, tx *gorm.DB, userID, testSeriesID string) (bool, error)
}
