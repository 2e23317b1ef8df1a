package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SAP-F-2025/leaderboard-service/internal/cache"
	"github.com/SAP-F-2025/leaderboard-service/internal/config"
	"github.com/SAP-F-2025/leaderboard-service/internal/events"
	"github.com/SAP-F-2025/leaderboard-service/internal/metrics"
	"github.com/SAP-F-2025/leaderboard-service/internal/models"
	"github.com/SAP-F-2025/leaderboard-service/internal/repositories"
	"github.com/SAP-F-2025/leaderboard-service/internal/utils"
	"github.com/SAP-F-2025/leaderboard-service/internal/validator"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// LeaderboardServiceConfig wires the service. Repo is required; every other
// field may be left zero.
type LeaderboardServiceConfig struct {
	Repo      repositories.Repository
	Cache     cache.CacheService    // nil disables page caching
	Publisher events.EventPublisher // nil disables events
	Metrics   *metrics.Metrics      // defaults to a private registry
	Logger    utils.Logger          // defaults to a discarding logger
	Validator *validator.Validator
	Settings  config.LeaderboardConfig
	Now       func() time.Time // defaults to time.Now
}

type leaderboardService struct {
	repo      repositories.Repository
	cache     cache.CacheService
	publisher events.EventPublisher
	metrics   *metrics.Metrics
	logger    utils.Logger
	svcLogger *ServiceLogger
	validator *validator.Validator
	settings  config.LeaderboardConfig
	now       func() time.Time
}

func NewLeaderboardService(cfg LeaderboardServiceConfig) LeaderboardService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Validator == nil {
		cfg.Validator = validator.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = utils.NewDiscardLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New(prometheus.NewRegistry())
	}
	if cfg.Settings.PublicLimit < 1 {
		cfg.Settings.PublicLimit = 10
	}
	if cfg.Settings.DefaultPageSize < 1 {
		cfg.Settings.DefaultPageSize = 20
	}
	if cfg.Settings.MaxPageSize < 1 {
		cfg.Settings.MaxPageSize = 100
	}

	return &leaderboardService{
		repo:      cfg.Repo,
		cache:     cfg.Cache,
		publisher: cfg.Publisher,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		svcLogger: NewServiceLogger(cfg.Logger.Slog(), LogConfig{Service: "leaderboard", Component: "leaderboard_service"}),
		validator: cfg.Validator,
		settings:  cfg.Settings,
		now:       cfg.Now,
	}
}

// cachedPage is what the page cache stores. The viewer's own entry is never cached.
type cachedPage struct {
	Entries []LeaderboardRow `json:"entries"`
	Total   int64            `json:"total"`
}

// ===== STATS AND RANKS =====

func (s *leaderboardService) UpdateUserStats(ctx context.Context, testSeriesID, userID string) (*models.LeaderboardEntry, error) {
	if err := s.validateIDs(testSeriesID, userID); err != nil {
		return nil, err
	}

	series, err := s.getTestSeries(ctx, testSeriesID)
	if err != nil {
		s.countStatsUpdate(err)
		return nil, err
	}

	resolved := ResolveQuizIDs(series.Quizzes, series.Sections)
	if resolved.Skipped > 0 {
		s.logger.WarnContext(ctx, "Skipped malformed quiz references",
			"test_series_id", testSeriesID,
			"skipped", resolved.Skipped)
	}

	entry, _, err := s.recomputeEntry(ctx, testSeriesID, userID, resolved.IDs)
	s.countStatsUpdate(err)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// recomputeEntry computes the stats in full before anything is written. A new
// entry only exists in memory until SaveStats inserts it together with its
// stats, so a failed read or write never leaves a row behind.
func (s *leaderboardService) recomputeEntry(ctx context.Context, testSeriesID, userID string, quizIDs []string) (*models.LeaderboardEntry, bool, error) {
	attempts, err := s.repo.Attempt().GetCompletedByUser(ctx, nil, userID, quizIDs)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load attempts: %w", err)
	}

	best := SelectBestAttempts(attempts, quizIDs)
	stats := ComputeStats(best, len(quizIDs), s.now())

	entry, created, err := s.loadOrNewEntry(ctx, testSeriesID, userID)
	if err != nil {
		return nil, false, err
	}

	entry.ApplyStats(stats)
	if err := s.repo.Leaderboard().SaveStats(ctx, nil, entry); err != nil {
		return nil, false, fmt.Errorf("failed to save stats: %w", err)
	}

	return entry, created, nil
}

// loadOrNewEntry returns the stored entry, or an unsaved one when the user has
// none yet. A concurrent creator is absorbed by the SaveStats upsert on the
// (test series, user) index.
func (s *leaderboardService) loadOrNewEntry(ctx context.Context, testSeriesID, userID string) (*models.LeaderboardEntry, bool, error) {
	entry, err := s.repo.Leaderboard().GetByKey(ctx, nil, testSeriesID, userID)
	if err == nil {
		return entry, false, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, false, fmt.Errorf("failed to get leaderboard entry: %w", err)
	}

	return &models.LeaderboardEntry{
		TestSeriesID: testSeriesID,
		UserID:       userID,
	}, true, nil
}

func (s *leaderboardService) UpdateRanks(ctx context.Context, testSeriesID string) ([]*models.LeaderboardEntry, error) {
	if err := s.validateSeriesID(testSeriesID); err != nil {
		return nil, err
	}

	entries, err := s.repo.Leaderboard().ListBySeries(ctx, nil, testSeriesID)
	if err != nil {
		return nil, fmt.Errorf("failed to list leaderboard entries: %w", err)
	}

	ranked := AssignRanks(entries)

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		for _, e := range ranked {
			if err := s.repo.Leaderboard().UpdateRank(ctx, tx, e.ID, e.Rank); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write ranks: %w", err)
	}

	s.metrics.RankPasses.Inc()
	s.metrics.RankedEntries.Set(float64(len(ranked)))
	cache.SafeDeletePattern(ctx, s.cache, s.logger, cache.LeaderboardPattern(testSeriesID))

	s.logger.InfoContext(ctx, "Leaderboard ranks updated",
		"test_series_id", testSeriesID,
		"entries", len(entries),
		"ranked", len(ranked))

	return ranked, nil
}

func (s *leaderboardService) UpdateAfterQuizCompletion(ctx context.Context, testSeriesID string, viewer Viewer) (*UserPerformance, error) {
	op := s.svcLogger.WithOperation(ctx, "update_after_quiz_completion", viewer.UserID)

	perf, err := s.updateAfterQuizCompletion(ctx, testSeriesID, viewer)
	op.LogResult(testSeriesID, "test_series", err)
	return perf, err
}

func (s *leaderboardService) updateAfterQuizCompletion(ctx context.Context, testSeriesID string, viewer Viewer) (*UserPerformance, error) {
	if !viewer.IsAuthenticated() {
		return nil, ErrUnauthorized
	}

	entry, err := s.UpdateUserStats(ctx, testSeriesID, viewer.UserID)
	if err != nil {
		return nil, err
	}

	ranked, err := s.UpdateRanks(ctx, testSeriesID)
	if err != nil {
		return nil, err
	}

	syncRank(entry, ranked)

	s.publish(ctx, events.NewLeaderboardEvent(events.EventLeaderboardUpdated, events.LeaderboardUpdatedEvent{
		TestSeriesID:      testSeriesID,
		UserID:            viewer.UserID,
		Rank:              entry.Rank,
		AveragePercentage: entry.AveragePercentage,
		RankedEntries:     len(ranked),
	}))

	return newUserPerformance(entry, int64(len(ranked))), nil
}

// syncRank copies the rank the pass assigned to entry, which was loaded
// before the pass re-read the series.
func syncRank(entry *models.LeaderboardEntry, ranked []*models.LeaderboardEntry) {
	for _, r := range ranked {
		if r.UserID == entry.UserID {
			entry.Rank = r.Rank
			return
		}
	}
}

// ===== READS =====

func (s *leaderboardService) GetLeaderboard(ctx context.Context, testSeriesID string, query LeaderboardQuery, viewer Viewer) (*LeaderboardPage, error) {
	if err := s.validateSeriesID(testSeriesID); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(query); err != nil {
		return nil, err
	}

	tier, err := s.resolveTier(ctx, testSeriesID, viewer)
	if err != nil {
		return nil, err
	}

	page, limit := s.pageWindow(tier, query)

	cached, err := s.loadPage(ctx, testSeriesID, page, limit)
	if err != nil {
		return nil, err
	}

	result := &LeaderboardPage{
		TestSeriesID:      testSeriesID,
		Tier:              tier,
		Page:              page,
		Limit:             limit,
		TotalParticipants: cached.Total,
		TotalPages:        totalPages(cached.Total, limit),
		Entries:           cached.Entries,
	}
	if tier == TierPublic {
		result.Truncated = cached.Total > int64(limit)
		result.TotalPages = min(1, result.TotalPages)
	}

	if viewer.IsAuthenticated() {
		entry, err := s.repo.Leaderboard().GetByKey(ctx, nil, testSeriesID, viewer.UserID)
		switch {
		case err == nil:
			result.CurrentUser = newUserPerformance(entry, cached.Total)
		case !repositories.IsNotFoundError(err):
			return nil, fmt.Errorf("failed to get viewer entry: %w", err)
		}
	}

	return result, nil
}

// resolveTier runs before anything is read from the leaderboard.
func (s *leaderboardService) resolveTier(ctx context.Context, testSeriesID string, viewer Viewer) (Tier, error) {
	if viewer.IsAdmin() {
		return TierAdmin, nil
	}
	if !viewer.IsAuthenticated() {
		return TierPublic, nil
	}

	enrolled, err := s.repo.User().IsEnrolled(ctx, nil, viewer.UserID, testSeriesID)
	if err != nil {
		return "", fmt.Errorf("failed to check enrollment: %w", err)
	}
	if enrolled {
		return TierEnrolled, nil
	}
	return TierPublic, nil
}

func (s *leaderboardService) pageWindow(tier Tier, query LeaderboardQuery) (int, int) {
	if tier == TierPublic {
		limit := s.settings.PublicLimit
		if query.Limit > 0 && query.Limit < limit {
			limit = query.Limit
		}
		return 1, limit
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	limit := query.Limit
	if limit < 1 {
		limit = s.settings.DefaultPageSize
	}
	if limit > s.settings.MaxPageSize {
		limit = s.settings.MaxPageSize
	}
	return page, limit
}

func (s *leaderboardService) loadPage(ctx context.Context, testSeriesID string, page, limit int) (*cachedPage, error) {
	key := cache.LeaderboardPageKey(testSeriesID, page, limit)

	if s.cache != nil {
		var cached cachedPage
		err := s.cache.Get(ctx, key, &cached)
		switch {
		case err == nil:
			s.metrics.CacheLookups.WithLabelValues("hit").Inc()
			return &cached, nil
		case errors.Is(err, cache.ErrCacheMiss):
			s.metrics.CacheLookups.WithLabelValues("miss").Inc()
		default:
			s.metrics.CacheLookups.WithLabelValues("error").Inc()
			s.logger.WarnContext(ctx, "Leaderboard cache read failed", "key", key, "error", err)
		}
	}

	if _, err := s.getTestSeries(ctx, testSeriesID); err != nil {
		return nil, err
	}

	entries, total, err := s.repo.Leaderboard().ListRanked(ctx, nil, testSeriesID, repositories.LeaderboardFilters{
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list leaderboard: %w", err)
	}

	result := &cachedPage{Entries: make([]LeaderboardRow, 0, len(entries)), Total: total}
	for _, e := range entries {
		result.Entries = append(result.Entries, newLeaderboardRow(e))
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result, s.settings.CacheTTL); err != nil {
			s.logger.WarnContext(ctx, "Leaderboard cache write failed", "key", key, "error", err)
		}
	}

	return result, nil
}

func totalPages(total int64, limit int) int {
	if limit <= 0 || total == 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

func (s *leaderboardService) GetUserPerformance(ctx context.Context, testSeriesID, userID string, viewer Viewer) (*UserPerformance, error) {
	if err := s.validateIDs(testSeriesID, userID); err != nil {
		return nil, err
	}
	if !viewer.IsAuthenticated() {
		return nil, ErrUnauthorized
	}
	if viewer.UserID != userID && !viewer.IsAdmin() {
		return nil, NewPermissionError(viewer.UserID, userID, "leaderboard_entry", "read", "only the owner or an administrator can view this entry")
	}

	entry, err := s.repo.Leaderboard().GetByKey(ctx, nil, testSeriesID, userID)
	if err != nil {
		if !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to get leaderboard entry: %w", err)
		}
		if _, err := s.getTestSeries(ctx, testSeriesID); err != nil {
			return nil, err
		}
		return nil, ErrLeaderboardEntryNotFound
	}

	participants, err := s.countParticipants(ctx, testSeriesID)
	if err != nil {
		return nil, err
	}

	return newUserPerformance(entry, participants), nil
}

func (s *leaderboardService) countParticipants(ctx context.Context, testSeriesID string) (int64, error) {
	_, total, err := s.repo.Leaderboard().ListRanked(ctx, nil, testSeriesID, repositories.LeaderboardFilters{Limit: 1})
	if err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return total, nil
}

// ===== ADMINISTRATION =====

func (s *leaderboardService) EnsureEntry(ctx context.Context, testSeriesID, userID string, viewer Viewer) (*EnsureEntryResult, error) {
	if err := s.requireAdmin(viewer, testSeriesID, "ensure"); err != nil {
		return nil, err
	}
	if err := s.validateIDs(testSeriesID, userID); err != nil {
		return nil, err
	}

	series, err := s.getTestSeries(ctx, testSeriesID)
	if err != nil {
		return nil, err
	}

	resolved := ResolveQuizIDs(series.Quizzes, series.Sections)
	entry, created, err := s.recomputeEntry(ctx, testSeriesID, userID, resolved.IDs)
	s.countStatsUpdate(err)
	if err != nil {
		return nil, err
	}

	ranked, err := s.UpdateRanks(ctx, testSeriesID)
	if err != nil {
		return nil, err
	}
	syncRank(entry, ranked)

	s.logger.InfoContext(ctx, "Leaderboard entry ensured",
		"test_series_id", testSeriesID,
		"user_id", userID,
		"created", created,
		"admin_id", viewer.UserID)

	return &EnsureEntryResult{
		Created:     created,
		Performance: newUserPerformance(entry, int64(len(ranked))),
	}, nil
}

// RefreshSeries rebuilds a series from the quiz store rather than the series'
// own references, which may have drifted. One user failing does not stop the
// others.
func (s *leaderboardService) RefreshSeries(ctx context.Context, testSeriesID string, viewer Viewer) (*RefreshSummary, error) {
	if err := s.requireAdmin(viewer, testSeriesID, "refresh"); err != nil {
		return nil, err
	}
	if err := s.validateSeriesID(testSeriesID); err != nil {
		return nil, err
	}

	start := time.Now()
	summary, err := s.refreshSeries(ctx, testSeriesID)
	if err != nil {
		result := metrics.ResultError
		if IsNotFound(err) {
			result = metrics.ResultNotFound
		}
		s.metrics.Refreshes.WithLabelValues(result).Inc()
		return nil, err
	}

	s.metrics.Refreshes.WithLabelValues(metrics.ResultSuccess).Inc()
	s.metrics.RefreshUserFails.Add(float64(summary.Errors))
	s.svcLogger.LogBatchSummary(ctx, "refresh", testSeriesID, summary.Processed, summary.Errors, time.Since(start))

	s.publish(ctx, events.NewLeaderboardEvent(events.EventLeaderboardRefreshed, events.LeaderboardRefreshedEvent{
		TestSeriesID:   testSeriesID,
		UsersFound:     summary.UsersFound,
		EntriesCreated: summary.EntriesCreated,
		Processed:      summary.Processed,
		Errors:         summary.Errors,
		RankedEntries:  summary.Ranked,
	}))

	return summary, nil
}

func (s *leaderboardService) refreshSeries(ctx context.Context, testSeriesID string) (*RefreshSummary, error) {
	if _, err := s.getTestSeries(ctx, testSeriesID); err != nil {
		return nil, err
	}

	quizIDs, err := s.repo.Quiz().GetIDsByTestSeries(ctx, nil, testSeriesID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}

	users, err := s.repo.Attempt().GetUsersWithCompleted(ctx, nil, quizIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list users with attempts: %w", err)
	}

	existing, err := s.repo.Leaderboard().ListBySeries(ctx, nil, testSeriesID)
	if err != nil {
		return nil, fmt.Errorf("failed to list leaderboard entries: %w", err)
	}

	summary := &RefreshSummary{
		TestSeriesID: testSeriesID,
		QuizCount:    len(quizIDs),
		UsersFound:   len(users),
	}

	// Users whose attempts left the quiz set still hold stale stats; recompute them too.
	targets := users
	seen := make(map[string]struct{}, len(users))
	for _, u := range users {
		seen[u] = struct{}{}
	}
	for _, e := range existing {
		if _, ok := seen[e.UserID]; !ok {
			seen[e.UserID] = struct{}{}
			targets = append(targets, e.UserID)
		}
	}

	for _, userID := range targets {
		_, created, err := s.recomputeEntry(ctx, testSeriesID, userID, quizIDs)
		s.countStatsUpdate(err)
		if err != nil {
			summary.Errors++
			summary.Failures = append(summary.Failures, UserFailure{UserID: userID, Error: err.Error()})
			s.logger.WarnContext(ctx, "Failed to refresh leaderboard entry",
				"test_series_id", testSeriesID,
				"user_id", userID,
				"error", err)
			continue
		}

		summary.Processed++
		if created {
			summary.EntriesCreated++
		}
	}

	ranked, err := s.UpdateRanks(ctx, testSeriesID)
	if err != nil {
		return nil, err
	}
	summary.Ranked = len(ranked)

	return summary, nil
}

func (s *leaderboardService) Debug(ctx context.Context, testSeriesID string, viewer Viewer) (*LeaderboardDiagnostics, error) {
	if err := s.requireAdmin(viewer, testSeriesID, "debug"); err != nil {
		return nil, err
	}
	if err := s.validateSeriesID(testSeriesID); err != nil {
		return nil, err
	}

	series, err := s.getTestSeries(ctx, testSeriesID)
	if err != nil {
		return nil, err
	}
	resolved := ResolveQuizIDs(series.Quizzes, series.Sections)

	stored, err := s.repo.Quiz().GetIDsByTestSeries(ctx, nil, testSeriesID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}

	users, err := s.repo.Attempt().GetUsersWithCompleted(ctx, nil, resolved.IDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list users with attempts: %w", err)
	}

	entries, err := s.repo.Leaderboard().ListBySeries(ctx, nil, testSeriesID)
	if err != nil {
		return nil, fmt.Errorf("failed to list leaderboard entries: %w", err)
	}

	diag := &LeaderboardDiagnostics{
		TestSeriesID:        testSeriesID,
		ReferencedQuizIDs:   resolved.IDs,
		SkippedReferences:   resolved.Skipped,
		StoredQuizIDs:       stored,
		MissingFromStore:    difference(resolved.IDs, stored),
		UnreferencedQuizIDs: difference(stored, resolved.IDs),
		UsersWithAttempts:   len(users),
		EntryCount:          len(entries),
	}
	for _, e := range entries {
		switch {
		case e.CompletedQuizzes == 0:
			diag.ZeroCompletedCount++
		case e.IsRanked():
			diag.RankedCount++
		}
	}

	return diag, nil
}

// difference returns the elements of a missing from b, in a's order.
func difference(a, b []string) []string {
	in := make(map[string]struct{}, len(b))
	for _, v := range b {
		in[v] = struct{}{}
	}
	out := make([]string, 0)
	for _, v := range a {
		if _, ok := in[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}

// ===== HELPERS =====

func (s *leaderboardService) getTestSeries(ctx context.Context, testSeriesID string) (*models.TestSeries, error) {
	series, err := s.repo.TestSeries().GetByID(ctx, nil, testSeriesID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestSeriesNotFound
		}
		return nil, fmt.Errorf("failed to get test series: %w", err)
	}
	return series, nil
}

func (s *leaderboardService) requireAdmin(viewer Viewer, testSeriesID, action string) error {
	if !viewer.IsAuthenticated() {
		return ErrUnauthorized
	}
	if !viewer.IsAdmin() {
		return NewPermissionError(viewer.UserID, testSeriesID, "leaderboard", action, ErrAdminRequired.Error())
	}
	return nil
}

func (s *leaderboardService) validateSeriesID(testSeriesID string) error {
	return s.validator.ValidateVar("test_series_id", testSeriesID, "required,object_id")
}

func (s *leaderboardService) validateIDs(testSeriesID, userID string) error {
	if err := s.validateSeriesID(testSeriesID); err != nil {
		return err
	}
	return s.validator.ValidateVar("user_id", userID, "required,max=255")
}

func (s *leaderboardService) countStatsUpdate(err error) {
	result := metrics.ResultSuccess
	switch {
	case err == nil:
	case IsNotFound(err):
		result = metrics.ResultNotFound
	default:
		result = metrics.ResultError
	}
	s.metrics.StatsUpdates.WithLabelValues(result).Inc()
}

// publish never fails the caller: the leaderboard is already persisted.
func (s *leaderboardService) publish(ctx context.Context, event *events.LeaderboardEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLeaderboardEvent(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish leaderboard event",
			"event_type", event.Type,
			"event_id", event.ID,
			"error", err)
	}
}
