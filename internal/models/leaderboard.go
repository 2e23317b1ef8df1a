package models

import (
	"time"

	"gorm.io/datatypes"
)

// LeaderboardEntry is the denormalized performance of one user inside one test
// series. Every stat column is recomputed from the attempts on each update;
// Rank is only written by the series-wide rank pass.
type LeaderboardEntry struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	TestSeriesID string `json:"test_series_id" gorm:"size:24;not null;uniqueIndex:idx_leaderboard_series_user"`
	UserID       string `json:"user_id" gorm:"size:255;not null;uniqueIndex:idx_leaderboard_series_user"`

	TotalScore           float64 `json:"total_score" gorm:"not null;default:0"`
	TotalMaxScore        float64 `json:"total_max_score" gorm:"not null;default:0"`
	AveragePercentage    int     `json:"average_percentage" gorm:"not null;default:0"`
	CompletedQuizzes     int     `json:"completed_quizzes" gorm:"not null;default:0"`
	TotalQuizzes         int     `json:"total_quizzes" gorm:"not null;default:0"`
	CompletionPercentage int     `json:"completion_percentage" gorm:"not null;default:0"`
	TotalTimeSpent       int     `json:"total_time_spent" gorm:"not null;default:0"`
	AverageTimePerQuiz   int     `json:"average_time_per_quiz" gorm:"not null;default:0"`

	BestAttempts datatypes.JSONSlice[BestAttempt] `json:"best_attempts" gorm:"type:jsonb"`

	// 0 means the entry has never been ranked.
	Rank        int       `json:"rank" gorm:"not null;default:0;index"`
	LastUpdated time.Time `json:"last_updated"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID;references:ID"`
}

func (LeaderboardEntry) TableName() string {
	return "leaderboard_entries"
}

// BestAttempt is the highest-percentage completed attempt for one quiz.
type BestAttempt struct {
	QuizID     string  `json:"quiz"`
	AttemptID  string  `json:"attempt"`
	Score      float64 `json:"score"`
	Percentage float64 `json:"percentage"`
	TimeSpent  int     `json:"time_spent"`
}

// LeaderboardStats holds the derived columns of an entry. It is computed in
// full before anything is written.
type LeaderboardStats struct {
	TotalScore           float64
	TotalMaxScore        float64
	AveragePercentage    int
	CompletedQuizzes     int
	TotalQuizzes         int
	CompletionPercentage int
	TotalTimeSpent       int
	AverageTimePerQuiz   int
	BestAttempts         []BestAttempt
	LastUpdated          time.Time
}

// ApplyStats overwrites every derived column. Rank is left alone.
func (e *LeaderboardEntry) ApplyStats(s LeaderboardStats) {
	e.TotalScore = s.TotalScore
	e.TotalMaxScore = s.TotalMaxScore
	e.AveragePercentage = s.AveragePercentage
	e.CompletedQuizzes = s.CompletedQuizzes
	e.TotalQuizzes = s.TotalQuizzes
	e.CompletionPercentage = s.CompletionPercentage
	e.TotalTimeSpent = s.TotalTimeSpent
	e.AverageTimePerQuiz = s.AverageTimePerQuiz
	e.BestAttempts = datatypes.JSONSlice[BestAttempt](s.BestAttempts)
	e.LastUpdated = s.LastUpdated
}

// IsRanked reports whether the entry took part in a rank pass.
func (e *LeaderboardEntry) IsRanked() bool {
	return e.Rank > 0
}
