package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ReqCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "app_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ReqDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "app_request_duration_seconds",
			Help: "Request duration seconds",
		},
		[]string{"method", "path"},
	)

	XPAwarded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "progression_xp_awarded_total",
			Help: "Total experience points awarded",
		},
	)

	LevelUps = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "progression_level_ups_total",
			Help: "Total level-up events",
		},
	)

	AchievementsUnlocked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progression_achievements_unlocked_total",
			Help: "Achievements unlocked",
		},
		[]string{"rarity"},
	)

	StreakTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progression_streak_transitions_total",
			Help: "Streak validator transitions",
		},
		[]string{"transition"},
	)

	LeagueRecomputations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "league_standings_recomputations_total",
			Help: "Cohort standings recomputations and the number of rows they rewrote",
		},
		[]string{"result"},
	)

	EventsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progression_events_processed_total",
			Help: "Change feed events handled by the dispatcher",
		},
		[]string{"type", "result"},
	)
)

var registerOnce sync.Once

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			ReqCount,
			ReqDuration,
			XPAwarded,
			LevelUps,
			AchievementsUnlocked,
			StreakTransitions,
			LeagueRecomputations,
			EventsProcessed,
		)
	})
}
