package services

import (
	"context"

	"github.com/SAP-F-2025/leaderboard-service/internal/models"
	"github.com/SAP-F-2025/leaderboard-service/internal/repositories"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// MockRepository wires the individual repository mocks together. WithTransaction
// runs fn directly with a nil transaction.
type MockRepository struct {
	leaderboard *MockLeaderboardRepository
	attempt     *MockAttemptRepository
	testSeries  *MockTestSeriesRepository
	quiz        *MockQuizRepository
	user        *MockUserRepository
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		leaderboard: &MockLeaderboardRepository{},
		attempt:     &MockAttemptRepository{},
		testSeries:  &MockTestSeriesRepository{},
		quiz:        &MockQuizRepository{},
		user:        &MockUserRepository{},
	}
}

func (m *MockRepository) Leaderboard() repositories.LeaderboardRepository { return m.leaderboard }
func (m *MockRepository) Attempt() repositories.AttemptRepository         { return m.attempt }
func (m *MockRepository) TestSeries() repositories.TestSeriesRepository   { return m.testSeries }
func (m *MockRepository) Quiz() repositories.QuizRepository               { return m.quiz }
func (m *MockRepository) User() repositories.UserRepository               { return m.user }

func (m *MockRepository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

// MockLeaderboardRepository is a mock implementation of LeaderboardRepository
type MockLeaderboardRepository struct {
	mock.Mock
}

func (m *MockLeaderboardRepository) GetByKey(ctx context.Context, tx *gorm.DB, testSeriesID, userID string) (*models.LeaderboardEntry, error) {
	args := m.Called(ctx, tx, testSeriesID, userID)
	if e := args.Get(0); e != nil {
		return e.(*models.LeaderboardEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLeaderboardRepository) SaveStats(ctx context.Context, tx *gorm.DB, entry *models.LeaderboardEntry) error {
	args := m.Called(ctx, tx, entry)
	return args.Error(0)
}

func (m *MockLeaderboardRepository) ListBySeries(ctx context.Context, tx *gorm.DB, testSeriesID string) ([]*models.LeaderboardEntry, error) {
	args := m.Called(ctx, tx, testSeriesID)
	if e := args.Get(0); e != nil {
		return e.([]*models.LeaderboardEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLeaderboardRepository) ListRanked(ctx context.Context, tx *gorm.DB, testSeriesID string, filters repositories.LeaderboardFilters) ([]*models.LeaderboardEntry, int64, error) {
	args := m.Called(ctx, tx, testSeriesID, filters)
	if e := args.Get(0); e != nil {
		return e.([]*models.LeaderboardEntry), args.Get(1).(int64), args.Error(2)
	}
	return nil, args.Get(1).(int64), args.Error(2)
}

func (m *MockLeaderboardRepository) UpdateRank(ctx context.Context, tx *gorm.DB, id uint, rank int) error {
	args := m.Called(ctx, tx, id, rank)
	return args.Error(0)
}

// MockAttemptRepository is a mock implementation of AttemptRepository
type MockAttemptRepository struct {
	mock.Mock
}

func (m *MockAttemptRepository) GetCompletedByUser(ctx context.Context, tx *gorm.DB, userID string, quizIDs []string) ([]*models.QuizAttempt, error) {
	args := m.Called(ctx, tx, userID, quizIDs)
	if a := args.Get(0); a != nil {
		return a.([]*models.QuizAttempt), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAttemptRepository) GetUsersWithCompleted(ctx context.Context, tx *gorm.DB, quizIDs []string) ([]string, error) {
	args := m.Called(ctx, tx, quizIDs)
	if u := args.Get(0); u != nil {
		return u.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockTestSeriesRepository is a mock implementation of TestSeriesRepository
type MockTestSeriesRepository struct {
	mock.Mock
}

func (m *MockTestSeriesRepository) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.TestSeries, error) {
	args := m.Called(ctx, tx, id)
	if s := args.Get(0); s != nil {
		return s.(*models.TestSeries), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockQuizRepository is a mock implementation of QuizRepository
type MockQuizRepository struct {
	mock.Mock
}

func (m *MockQuizRepository) GetIDsByTestSeries(ctx context.Context, tx *gorm.DB, testSeriesID string) ([]string, error) {
	args := m.Called(ctx, tx, testSeriesID)
	if ids := args.Get(0); ids != nil {
		return ids.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) IsEnrolled(ctx context.Context, tx *gorm.DB, userID, testSeriesID string) (bool, error) {
	args := m.Called(ctx, tx, userID, testSeriesID)
	return args.Bool(0), args.Error(1)
}
