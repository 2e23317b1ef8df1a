package repositories

import (
	"context"

	"github.com/SAP-F-2025/leaderboard-service/internal/models"
	"gorm.io/gorm"
)

// AttemptRepository reads quiz attempts. It never writes.
type AttemptRepository interface {
	// GetCompletedByUser returns the user's completed attempts restricted to
	// quizIDs, oldest first.
	GetCompletedByUser(ctx context.Context, tx *gorm.DB, userID string, quizIDs []string) ([]*models.QuizAttempt, error)

	// GetUsersWithCompleted returns the distinct users having at least one
	// completed attempt on any of quizIDs.
	GetUsersWithCompleted(ctx context.Context, tx *gorm.DB, quizIDs []string) ([]string, error)
}
