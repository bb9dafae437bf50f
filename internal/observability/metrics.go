package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// ModerationActionsTotal counts moderation actions recorded, by action type.
	ModerationActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tribunal_moderation_actions_total",
		Help: "Total number of moderation actions recorded by action type",
	}, []string{"action_type"})

	// ActionStatusChanges counts moderation action lifecycle transitions.
	ActionStatusChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tribunal_action_status_changes_total",
		Help: "Total number of moderation action status transitions",
	}, []string{"from", "to"})

	// AppealsSubmittedTotal counts appeals submitted.
	AppealsSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tribunal_appeals_submitted_total",
		Help: "Total number of appeals submitted",
	})

	// AppealsResolvedTotal counts appeals resolved, by terminal outcome.
	AppealsResolvedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tribunal_appeals_resolved_total",
		Help: "Total number of appeals resolved by outcome",
	}, []string{"outcome"})

	// AppealResolutionLatency records submission-to-resolution latency in seconds.
	AppealResolutionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tribunal_appeal_resolution_latency_seconds",
		Help:    "Time between appeal submission and terminal resolution in seconds",
		Buckets: prometheus.ExponentialBuckets(60, 4, 10),
	})

	// FlagReportsTotal counts flag reports submitted, by reason.
	FlagReportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tribunal_flag_reports_total",
		Help: "Total number of flag reports submitted by reason",
	}, []string{"reason"})

	// FlagTriageTotal counts flag-report triage decisions, by resulting status.
	FlagTriageTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tribunal_flag_triage_total",
		Help: "Total number of flag-report triage decisions by resulting status",
	}, []string{"status"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tribunal_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// RecordActionCreated increments the action counter for the given type.
func RecordActionCreated(actionType string) {
	ModerationActionsTotal.WithLabelValues(actionType).Inc()
}

// RecordActionTransition increments the status-transition counter.
func RecordActionTransition(from, to string) {
	ActionStatusChanges.WithLabelValues(from, to).Inc()
}

// RecordAppealResolved records a terminal appeal outcome and its latency.
func RecordAppealResolved(outcome string, submittedAt, resolvedAt time.Time) {
	AppealsResolvedTotal.WithLabelValues(outcome).Inc()
	if resolvedAt.After(submittedAt) {
		AppealResolutionLatency.Observe(resolvedAt.Sub(submittedAt).Seconds())
	}
}

// DatabaseMetrics wraps DB access for recording query latency.
type DatabaseMetrics struct {
	db *gorm.DB
}

// NewDatabaseMetrics returns a new DatabaseMetrics instance.
func NewDatabaseMetrics(db *gorm.DB) *DatabaseMetrics {
	return &DatabaseMetrics{db: db}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation, table string, start time.Time) {
	latency := time.Since(start).Seconds()
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(latency)
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, table, start)
	}
}
