package pkg

import (
	"fmt"

	"github.com/SAP-F-2025/leaderboard-service/internal/config"
	"github.com/SAP-F-2025/leaderboard-service/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	logLevel := logger.Warn
	if cfg.IsProduction() {
		logLevel = logger.Error
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		// Maps driver errors onto gorm sentinels such as gorm.ErrDuplicatedKey
		TranslateError: true,
		// users, quizzes and attempts belong to other services
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// MigrateLeaderboard creates or updates the only table this service owns.
func MigrateLeaderboard(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.LeaderboardEntry{}); err != nil {
		return fmt.Errorf("failed to migrate leaderboard entries: %w", err)
	}
	return nil
}
