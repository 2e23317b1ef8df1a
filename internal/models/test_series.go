package models

import (
	"time"

	"gorm.io/datatypes"
)

// TestSeries is owned by the course catalogue; this service only reads it.
//
// Quizzes and Sections are kept as raw JSON because historical migrations left
// the references in mixed shapes (plain ids, embedded documents, garbage).
type TestSeries struct {
	ID       string         `json:"id" gorm:"primaryKey;size:24"`
	Title    string         `json:"title" gorm:"size:200"`
	Quizzes  datatypes.JSON `json:"quizzes" gorm:"type:jsonb"`  // [ref, ref, ...]
	Sections datatypes.JSON `json:"sections" gorm:"type:jsonb"` // [{"title": "...", "quizzes": [ref, ...]}]

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (TestSeries) TableName() string {
	return "test_series"
}

// Enrollment links a user to a test series they purchased or were granted.
type Enrollment struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UserID       string    `json:"user_id" gorm:"size:255;not null;index:idx_enrollment_user_series"`
	TestSeriesID string    `json:"test_series_id" gorm:"size:24;not null;index:idx_enrollment_user_series"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
