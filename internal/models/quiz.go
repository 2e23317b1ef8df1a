package models

import "time"

type Quiz struct {
	ID           string    `json:"id" gorm:"primaryKey;size:24"`
	TestSeriesID string    `json:"test_series_id" gorm:"size:24;index"`
	Title        string    `json:"title" gorm:"size:200"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// QuizAttempt is written by the quiz runner. Numeric results are nullable
// because older attempts were stored without them.
type QuizAttempt struct {
	ID         string   `json:"id" gorm:"primaryKey;size:24"`
	UserID     string   `json:"user_id" gorm:"size:255;not null;index:idx_attempt_user_quiz"`
	QuizID     string   `json:"quiz_id" gorm:"size:24;not null;index:idx_attempt_user_quiz"`
	Completed  bool     `json:"completed" gorm:"default:false;index"`
	Score      *float64 `json:"score"`
	MaxScore   *float64 `json:"max_score"`
	Percentage *float64 `json:"percentage"`
	TimeSpent  *int     `json:"time_spent"` // seconds

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

func (a *QuizAttempt) ScoreValue() float64 {
	if a.Score == nil {
		return 0
	}
	return *a.Score
}

func (a *QuizAttempt) MaxScoreValue() float64 {
	if a.MaxScore == nil {
		return 0
	}
	return *a.MaxScore
}

func (a *QuizAttempt) PercentageValue() float64 {
	if a.Percentage == nil {
		return 0
	}
	return *a.Percentage
}

func (a *QuizAttempt) TimeSpentValue() int {
	if a.TimeSpent == nil {
		return 0
	}
	return *a.TimeSpent
}
