package events

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLeaderboardEvent(t *testing.T) {
	e := NewLeaderboardEvent(EventLeaderboardUpdated, LeaderboardUpdatedEvent{TestSeriesID: "s1", UserID: "u1", Rank: 2})

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, EventLeaderboardUpdated, e.Type)
	assert.Equal(t, eventSource, e.Source)
	assert.False(t, e.Timestamp.IsZero())

	other := NewLeaderboardEvent(EventLeaderboardUpdated, nil)
	assert.NotEqual(t, e.ID, other.ID)
}

func TestToMessage(t *testing.T) {
	e := NewLeaderboardEvent(EventLeaderboardRefreshed, LeaderboardRefreshedEvent{TestSeriesID: "s1", Processed: 3})

	msg, err := toMessage(e)
	require.NoError(t, err)

	assert.Equal(t, e.ID, msg.UUID)
	assert.Equal(t, string(EventLeaderboardRefreshed), msg.Metadata.Get("event_type"))
	assert.Equal(t, eventVersion, msg.Metadata.Get("version"))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
	assert.Equal(t, "leaderboard.refreshed", decoded["type"])
	data := decoded["data"].(map[string]interface{})
	assert.Equal(t, "s1", data["test_series_id"])
	assert.Equal(t, float64(3), data["processed"])
}

func TestMockEventPublisher(t *testing.T) {
	p := NewMockEventPublisher(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	require.NoError(t, p.PublishLeaderboardEvent(ctx, NewLeaderboardEvent(EventLeaderboardUpdated, nil)))
	require.NoError(t, p.PublishLeaderboardEvent(ctx, NewLeaderboardEvent(EventLeaderboardRefreshed, nil)))

	published := p.GetPublishedEvents()
	require.Len(t, published, 2)
	assert.Equal(t, EventLeaderboardUpdated, published[0].Type)
	assert.Equal(t, EventLeaderboardRefreshed, published[1].Type)

	p.ClearEvents()
	assert.Empty(t, p.GetPublishedEvents())
	assert.NoError(t, p.Close())
}
