package services

import (
	"context"
	"fmt"
	"io"

	"github.com/SAP-F-2025/leaderboard-service/internal/models"
	"github.com/SAP-F-2025/leaderboard-service/internal/repositories"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Leaderboard"

var exportHeaders = []string{
	"Rank", "User ID", "Name", "Average %", "Completion %", "Completed Quizzes",
	"Total Quizzes", "Total Score", "Total Max Score", "Total Time (s)", "Avg Time per Quiz (s)", "Last Updated",
}

// ExportLeaderboard writes every ranked entry of the series as an XLSX workbook.
func (s *leaderboardService) ExportLeaderboard(ctx context.Context, testSeriesID string, viewer Viewer, w io.Writer) error {
	if err := s.requireAdmin(viewer, testSeriesID, "export"); err != nil {
		return err
	}
	if err := s.validateSeriesID(testSeriesID); err != nil {
		return err
	}

	if _, err := s.getTestSeries(ctx, testSeriesID); err != nil {
		return err
	}

	entries, _, err := s.repo.Leaderboard().ListRanked(ctx, nil, testSeriesID, repositories.LeaderboardFilters{})
	if err != nil {
		return fmt.Errorf("failed to list leaderboard: %w", err)
	}

	f, err := buildLeaderboardWorkbook(entries)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.InfoContext(ctx, "Leaderboard exported",
		"test_series_id", testSeriesID,
		"entries", len(entries),
		"admin_id", viewer.UserID)
	return nil
}

func buildLeaderboardWorkbook(entries []*models.LeaderboardEntry) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	// Drop the default sheet so the workbook opens on the leaderboard.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	if err := setRow(f, 1, toAnySlice(exportHeaders)); err != nil {
		f.Close()
		return nil, err
	}

	for i, e := range entries {
		name := ""
		if e.User != nil {
			name = e.User.FullName
		}
		row := []interface{}{
			e.Rank, e.UserID, name, e.AveragePercentage, e.CompletionPercentage, e.CompletedQuizzes,
			e.TotalQuizzes, e.TotalScore, e.TotalMaxScore, e.TotalTimeSpent, e.AverageTimePerQuiz,
			e.LastUpdated.UTC().Format("2006-01-02 15:04:05"),
		}
		if err := setRow(f, i+2, row); err != nil {
			f.Close()
			return nil, err
		}
	}

	return f, nil
}

func setRow(f *excelize.File, rowNum int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("invalid row %d: %w", rowNum, err)
	}
	if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNum, err)
	}
	return nil
}

func toAnySlice(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
