package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Generation metrics
	GenerationCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diligence_generation_calls_total",
			Help: "Total number of LLM generation calls",
		},
		[]string{"provider", "model", "status"}, // status: success|error|rate_limited
	)

	GenerationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "diligence_generation_latency_seconds",
			Help:    "LLM generation latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"provider", "model"},
	)

	GenerationTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diligence_generation_tokens_total",
			Help: "Total tokens used by generation calls",
		},
		[]string{"provider", "model", "type"}, // type: input|output
	)

	// Fetch cache metrics
	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diligence_fetch_cache_hits_total",
			Help: "Total fetch cache hits",
		},
		[]string{"tool"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diligence_fetch_cache_misses_total",
			Help: "Total fetch cache misses",
		},
		[]string{"tool"},
	)

	// Source fetch metrics
	SourceFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diligence_source_fetches_total",
			Help: "Total source fetch attempts",
		},
		[]string{"source_type", "status"}, // status: success|error
	)

	// Report pipeline metrics
	SectionOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diligence_section_outcomes_total",
			Help: "Per-section generation outcomes",
		},
		[]string{"section", "status"}, // status: success|error
	)

	SectionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "diligence_section_duration_seconds",
			Help:    "Section research and synthesis duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"section"},
	)

	OrganizerIterations = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "diligence_organizer_iterations",
			Help:    "Organize and quality-check iterations per run",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
		[]string{"accepted"}, // accepted: true|false
	)

	ReportRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diligence_report_runs_total",
			Help: "Total report generation runs",
		},
		[]string{"status"}, // status: completed|failed
	)

	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diligence_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "diligence_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 30, 60, 300, 600, 1800},
		},
		[]string{"worker"},
	)

	WorkerLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "diligence_worker_last_run_timestamp",
			Help: "Unix timestamp of last worker execution",
		},
		[]string{"worker"},
	)
)

// Init registers all metrics with the default registry
func Init() {
	prometheus.MustRegister(GenerationCalls)
	prometheus.MustRegister(GenerationLatency)
	prometheus.MustRegister(GenerationTokens)

	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(SourceFetches)

	prometheus.MustRegister(SectionOutcomes)
	prometheus.MustRegister(SectionDuration)
	prometheus.MustRegister(OrganizerIterations)
	prometheus.MustRegister(ReportRuns)

	prometheus.MustRegister(WorkerExecutions)
	prometheus.MustRegister(WorkerDuration)
	prometheus.MustRegister(WorkerLastRun)
}

// Handler returns the HTTP handler for the metrics endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordGeneration records an LLM generation call
func RecordGeneration(provider, model string, latency time.Duration, inputTokens, outputTokens int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	GenerationCalls.WithLabelValues(provider, model, status).Inc()
	GenerationLatency.WithLabelValues(provider, model).Observe(latency.Seconds())

	if inputTokens > 0 {
		GenerationTokens.WithLabelValues(provider, model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		GenerationTokens.WithLabelValues(provider, model, "output").Add(float64(outputTokens))
	}
}

// RecordCacheHit records a fetch cache hit or miss
func RecordCacheHit(tool string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(tool).Inc()
		return
	}
	CacheMisses.WithLabelValues(tool).Inc()
}

// RecordSourceFetch records a source fetch attempt
func RecordSourceFetch(sourceType string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	SourceFetches.WithLabelValues(sourceType, status).Inc()
}

// RecordSection records a section generation outcome
func RecordSection(section string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	SectionOutcomes.WithLabelValues(section, status).Inc()
	SectionDuration.WithLabelValues(section).Observe(duration.Seconds())
}

// RecordOrganizer records the organize loop outcome
func RecordOrganizer(iterations int, accepted bool) {
	label := "false"
	if accepted {
		label = "true"
	}
	OrganizerIterations.WithLabelValues(label).Observe(float64(iterations))
}

// RecordReportRun records a full pipeline run outcome
func RecordReportRun(err error) {
	status := "completed"
	if err != nil {
		status = "failed"
	}
	ReportRuns.WithLabelValues(status).Inc()
}

// RecordWorkerExecution records a worker execution
func RecordWorkerExecution(worker string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	WorkerExecutions.WithLabelValues(worker, status).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(duration.Seconds())
	WorkerLastRun.WithLabelValues(worker).SetToCurrentTime()
}
