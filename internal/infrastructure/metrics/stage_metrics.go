package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StageRunsTotal counts collaborator calls
	// Labels: stage (transcription/name_inference/summary/chat), outcome (succeeded/failed/timeout/canceled/discarded)
	StageRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transcript_studio_stage_runs_total",
			Help: "Total number of collaborator calls by stage and outcome",
		},
		[]string{"stage", "outcome"},
	)

	// StageDuration observes collaborator latency in seconds
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "transcript_studio_stage_duration_seconds",
			Help:    "Collaborator call duration in seconds by stage",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"stage"},
	)

	// StaleResultsTotal counts results dropped because the session moved on
	StaleResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transcript_studio_stale_results_total",
			Help: "Total number of collaborator results discarded for a previous generation",
		},
		[]string{"stage"},
	)

	// ActiveSessions is the number of live sessions
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "transcript_studio_active_sessions",
			Help: "Number of live sessions",
		},
	)

	// UploadBytes observes accepted media sizes
	UploadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "transcript_studio_upload_bytes",
			Help:    "Size of accepted media uploads in bytes",
			Buckets: prometheus.ExponentialBuckets(64<<10, 4, 8),
		},
	)
)

// RecordStage records one finished collaborator call
func RecordStage(stage, outcome string, durationSeconds float64) {
	StageRunsTotal.WithLabelValues(stage, outcome).Inc()
	StageDuration.WithLabelValues(stage).Observe(durationSeconds)
}

// RecordStaleResult records a discarded result
func RecordStaleResult(stage string) {
	StaleResultsTotal.WithLabelValues(stage).Inc()
}

// SetActiveSessions sets the live session gauge
func SetActiveSessions(n int) {
	ActiveSessions.Set(float64(n))
}

// RecordUpload records an accepted upload size
func RecordUpload(size int) {
	UploadBytes.Observe(float64(size))
}
