package postgres

import (
	"context"
	"testing"

	"github.com/SAP-F-2025/leaderboard-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newDryRunDB builds statements without a server and records the last one.
func newDryRunDB(t *testing.T) (*gorm.DB, *string) {
	t.Helper()

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=leaderboard dbname=leaderboard sslmode=disable",
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	var lastSQL string
	capture := func(tx *gorm.DB) { lastSQL = tx.Statement.SQL.String() }
	require.NoError(t, db.Callback().Create().After("gorm:create").Register("test:capture_create", capture))
	require.NoError(t, db.Callback().Update().After("gorm:update").Register("test:capture_update", capture))

	return db, &lastSQL
}

func TestSaveStats_NewEntryIsUpsertedOnSeriesAndUser(t *testing.T) {
	db, lastSQL := newDryRunDB(t)
	repo := NewLeaderboardPostgreSQL(db)

	err := repo.SaveStats(context.Background(), nil, &models.LeaderboardEntry{
		TestSeriesID:     "64b7f0c2a1b2c3d4e5f60718",
		UserID:           "user-1",
		CompletedQuizzes: 2,
	})

	require.NoError(t, err)
	assert.Contains(t, *lastSQL, `INSERT INTO "leaderboard_entries"`)
	assert.Contains(t, *lastSQL, `ON CONFLICT ("test_series_id","user_id") DO UPDATE SET`)
	assert.Contains(t, *lastSQL, `"completed_quizzes"="excluded"."completed_quizzes"`)
	assert.NotContains(t, *lastSQL, `"rank"="excluded"."rank"`)
}

func TestSaveStats_StoredEntryUpdatesStatColumnsOnly(t *testing.T) {
	db, lastSQL := newDryRunDB(t)
	repo := NewLeaderboardPostgreSQL(db)

	err := repo.SaveStats(context.Background(), nil, &models.LeaderboardEntry{
		ID:               7,
		TestSeriesID:     "64b7f0c2a1b2c3d4e5f60718",
		UserID:           "user-1",
		CompletedQuizzes: 2,
		Rank:             4,
	})

	require.NoError(t, err)
	assert.Contains(t, *lastSQL, `UPDATE "leaderboard_entries" SET`)
	assert.Contains(t, *lastSQL, `"completed_quizzes"=`)
	assert.NotContains(t, *lastSQL, `"rank"=`)
	assert.NotContains(t, *lastSQL, "ON CONFLICT")
}
