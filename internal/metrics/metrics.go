package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "leaderboard"

// Outcome labels
const (
	ResultSuccess  = "success"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// Metrics holds the counters the leaderboard service reports.
type Metrics struct {
	StatsUpdates     *prometheus.CounterVec
	RankPasses       prometheus.Counter
	RankedEntries    prometheus.Gauge
	Refreshes        *prometheus.CounterVec
	RefreshUserFails prometheus.Counter
	CacheLookups     *prometheus.CounterVec
}

// New registers the counters on reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		StatsUpdates: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stats_updates_total",
			Help:      "Leaderboard entry recomputations by result.",
		}, []string{"result"}),
		RankPasses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rank_passes_total",
			Help:      "Series-wide rank passes.",
		}),
		RankedEntries: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_rank_pass_entries",
			Help:      "Entries ranked by the most recent rank pass.",
		}),
		Refreshes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Administrative series refreshes by result.",
		}, []string{"result"}),
		RefreshUserFails: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_user_failures_total",
			Help:      "Users that failed to recompute during a refresh.",
		}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Leaderboard page cache lookups by outcome.",
		}, []string{"outcome"}),
	}
}
