package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents different types of leaderboard events
type EventType string

const (
	// EventLeaderboardUpdated follows a per-user update and the rank pass after it.
	EventLeaderboardUpdated EventType = "leaderboard.updated"
	// EventLeaderboardRefreshed follows an administrative series-wide refresh.
	EventLeaderboardRefreshed EventType = "leaderboard.refreshed"
)

const (
	eventSource  = "leaderboard-service"
	eventVersion = "1.0"
)

// LeaderboardEvent is the envelope of every event the service publishes
type LeaderboardEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type LeaderboardUpdatedEvent struct {
	TestSeriesID      string `json:"test_series_id"`
	UserID            string `json:"user_id"`
	Rank              int    `json:"rank"`
	AveragePercentage int    `json:"average_percentage"`
	RankedEntries     int    `json:"ranked_entries"`
}

type LeaderboardRefreshedEvent struct {
	TestSeriesID   string `json:"test_series_id"`
	UsersFound     int    `json:"users_found"`
	EntriesCreated int    `json:"entries_created"`
	Processed      int    `json:"processed"`
	Errors         int    `json:"errors"`
	RankedEntries  int    `json:"ranked_entries"`
}

// NewLeaderboardEvent wraps data in an envelope with a fresh id.
func NewLeaderboardEvent(eventType EventType, data interface{}) *LeaderboardEvent {
	return &LeaderboardEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}
