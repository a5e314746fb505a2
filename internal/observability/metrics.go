package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// VotesCast counts votes by outcome ("created" or "updated").
	VotesCast = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prekapavac_votes_cast_total",
		Help: "Total number of votes cast, by outcome",
	}, []string{"outcome"})

	// VoteConflictRetries counts inserts that lost a race on the vote key and were retried as updates.
	VoteConflictRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prekapavac_vote_conflict_retries_total",
		Help: "Total number of vote inserts retried as updates after a uniqueness conflict",
	})

	// SuggestionsCreated counts submitted suggestions.
	SuggestionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prekapavac_suggestions_created_total",
		Help: "Total number of suggestions submitted",
	})

	// StatusTransitions counts moderator status changes by target status.
	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prekapavac_suggestion_status_transitions_total",
		Help: "Total number of suggestion status transitions by target status",
	}, []string{"to"})

	// CacheLookups counts progress cache lookups by result ("hit", "miss", "error").
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prekapavac_cache_lookups_total",
		Help: "Total number of cache lookups by result",
	}, []string{"result"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "prekapavac_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// RedisErrors counts failed Redis commands by command name.
var RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "prekapavac_redis_errors_total",
	Help: "Total number of failed Redis commands",
}, []string{"command"})
