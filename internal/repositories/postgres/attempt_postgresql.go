package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/leaderboard-service/internal/models"
	"github.com/SAP-F-2025/leaderboard-service/internal/repositories"
	"gorm.io/gorm"
)

type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{db: db}
}

func (a *AttemptPostgreSQL) GetCompletedByUser(ctx context.Context, tx *gorm.DB, userID string, quizIDs []string) ([]*models.QuizAttempt, error) {
	var attempts []*models.QuizAttempt
	if len(quizIDs) == 0 {
		return attempts, nil
	}

	if err := getDB(a.db, tx).WithContext(ctx).
		Where("user_id = ? AND completed = ? AND quiz_id IN ?", userID, true, quizIDs).
		Order("created_at ASC").
		Order("id ASC").
		Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("failed to get completed attempts: %w", err)
	}

	return attempts, nil
}

func (a *AttemptPostgreSQL) GetUsersWithCompleted(ctx context.Context, tx *gorm.DB, quizIDs []string) ([]string, error) {
	var userIDs []string
	if len(quizIDs) == 0 {
		return userIDs, nil
	}

	if err := getDB(a.db, tx).WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Where("completed = ? AND quiz_id IN ?", true, quizIDs).
		Distinct().
		Order("user_id ASC").
		Pluck("user_id", &userIDs).Error; err != nil {
		return nil, fmt.Errorf("failed to get users with completed attempts: %w", err)
	}

	return userIDs, nil
}
