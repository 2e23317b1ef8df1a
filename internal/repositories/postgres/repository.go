package postgres

import (
	"context"

	"github.com/SAP-F-2025/leaderboard-service/internal/repositories"
	"gorm.io/gorm"
)

type postgresRepository struct {
	db          *gorm.DB
	leaderboard repositories.LeaderboardRepository
	attempt     repositories.AttemptRepository
	testSeries  repositories.TestSeriesRepository
	quiz        repositories.QuizRepository
	user        repositories.UserRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &postgresRepository{
		db:          db,
		leaderboard: NewLeaderboardPostgreSQL(db),
		attempt:     NewAttemptPostgreSQL(db),
		testSeries:  NewTestSeriesPostgreSQL(db),
		quiz:        NewQuizPostgreSQL(db),
		user:        NewUserPostgreSQL(db),
	}
}

func (r *postgresRepository) Leaderboard() repositories.LeaderboardRepository { return r.leaderboard }
func (r *postgresRepository) Attempt() repositories.AttemptRepository         { return r.attempt }
func (r *postgresRepository) TestSeries() repositories.TestSeriesRepository   { return r.testSeries }
func (r *postgresRepository) Quiz() repositories.QuizRepository               { return r.quiz }
func (r *postgresRepository) User() repositories.UserRepository               { return r.user }

func (r *postgresRepository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func getDB(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}
