// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	DestinationsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_destinations_dropped_total",
			Help: "Candidate destinations removed from the pipeline, by reason",
		},
		[]string{"reason"},
	)

	NoFitOutcomes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendation_no_fit_total",
			Help: "Recommendation runs that ended without any destination inside the budget bands",
		},
	)

	MissingSignals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_missing_signals_total",
			Help: "Signals replaced by the neutral value during scoring",
		},
		[]string{"signal"},
	)

	ProviderFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_fallbacks_total",
			Help: "Fallback substitutions per data provider",
		},
		[]string{"provider", "reason"},
	)

	InterviewQuestions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_questions_total",
			Help: "Interview questions served, by generator",
		},
		[]string{"source"},
	)

	ProviderCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_cache_hits_total",
			Help: "Provider responses served from Redis",
		},
		[]string{"provider"},
	)
)
