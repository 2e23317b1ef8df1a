package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository groups the stores the leaderboard reads from and writes to.
type Repository interface {
	Leaderboard() LeaderboardRepository
	Attempt() AttemptRepository
	TestSeries() TestSeriesRepository
	Quiz() QuizRepository
	User() UserRepository

	// WithTransaction runs fn inside a database transaction. fn receives the
	// transaction handle to pass to the individual repository calls.
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ===== SHARED FILTER STRUCTS =====

type LeaderboardFilters struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ===== ERROR HELPERS =====

// IsNotFoundError reports whether err means the record does not exist.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
