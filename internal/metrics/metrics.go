package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Metrics holds all Prometheus collectors for the GapIntel backend.
var Metrics = struct {
	JobsSubmitted    prometheus.Counter
	JobsCompleted    prometheus.Counter
	JobsFailed       *prometheus.CounterVec
	JobsRequeued     prometheus.Counter
	StuckJobsAlerted prometheus.Counter

	PhaseDuration    *prometheus.HistogramVec
	PipelineDuration prometheus.Histogram

	PlatformCalls *prometheus.CounterVec
	LLMCalls      *prometheus.CounterVec

	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	DBPoolActive     prometheus.GaugeFunc
	DBPoolIdle       prometheus.GaugeFunc
}{}

// Init registers all Prometheus metrics. Call once at startup.
func Init(pool *pgxpool.Pool) {
	Metrics.JobsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gapintel_jobs_submitted_total",
			Help: "Total analysis jobs accepted by the submission API.",
		},
	)

	Metrics.JobsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gapintel_jobs_completed_total",
			Help: "Total analysis jobs that reached completed.",
		},
	)

	Metrics.JobsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gapintel_jobs_failed_total",
			Help: "Total analysis jobs that reached failed, by error code.",
		},
		[]string{"error_code"},
	)

	Metrics.JobsRequeued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gapintel_jobs_requeued_total",
			Help: "Total stuck jobs re-queued by the recovery sweep.",
		},
	)

	Metrics.StuckJobsAlerted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gapintel_stuck_jobs_alerted_total",
			Help: "Total jobs that crossed the alert threshold while processing.",
		},
	)

	Metrics.PhaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gapintel_pipeline_phase_duration_seconds",
			Help:    "Duration of each pipeline phase.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"phase"},
	)

	Metrics.PipelineDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gapintel_pipeline_duration_seconds",
			Help:    "End-to-end duration of one pipeline run.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	Metrics.PlatformCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gapintel_platform_calls_total",
			Help: "Total content-platform API calls, by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	Metrics.LLMCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gapintel_llm_calls_total",
			Help: "Total LLM service calls, by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	Metrics.RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gapintel_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by endpoint and method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	Metrics.RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gapintel_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		},
	)

	Metrics.CacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gapintel_cache_hits_total",
			Help: "Total Redis cache hits.",
		},
	)

	Metrics.CacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gapintel_cache_misses_total",
			Help: "Total Redis cache misses.",
		},
	)

	// DB pool gauges read live stats from pgxpool.
	if pool != nil {
		Metrics.DBPoolActive = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "gapintel_db_connection_pool_active",
				Help: "Number of active database connections.",
			},
			func() float64 {
				return float64(pool.Stat().AcquiredConns())
			},
		)

		Metrics.DBPoolIdle = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "gapintel_db_connection_pool_idle",
				Help: "Number of idle database connections.",
			},
			func() float64 {
				return float64(pool.Stat().IdleConns())
			},
		)

		prometheus.MustRegister(Metrics.DBPoolActive)
		prometheus.MustRegister(Metrics.DBPoolIdle)
	}

	prometheus.MustRegister(
		Metrics.JobsSubmitted,
		Metrics.JobsCompleted,
		Metrics.JobsFailed,
		Metrics.JobsRequeued,
		Metrics.StuckJobsAlerted,
		Metrics.PhaseDuration,
		Metrics.PipelineDuration,
		Metrics.PlatformCalls,
		Metrics.LLMCalls,
		Metrics.RequestDuration,
		Metrics.RequestsInFlight,
		Metrics.CacheHits,
		Metrics.CacheMisses,
	)
}

// Middleware records request duration and in-flight count for Prometheus.
func Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		// Don't instrument the /metrics endpoint itself
		if c.Path() == "/metrics" {
			return c.Next()
		}

		// Copy path and method into owned strings BEFORE c.Next() — Fiber
		// returns slices backed by the fasthttp buffer which can be reused
		// or overwritten by handlers (especially fasthttpadaptor).
		path := string([]byte(c.Path()))
		method := string([]byte(c.Method()))
		endpoint := sanitizeEndpoint(path)

		Metrics.RequestsInFlight.Inc()
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())

		Metrics.RequestDuration.WithLabelValues(endpoint, method, status).Observe(duration)
		Metrics.RequestsInFlight.Dec()

		return err
	}
}

// sanitizeEndpoint normalizes paths to avoid cardinality explosion.
func sanitizeEndpoint(path string) string {
	if len(path) > 10 && path[:10] == "/api/jobs/" {
		rest := path[10:]
		for i := 0; i < len(rest); i++ {
			if rest[i] == '/' {
				return "/api/jobs/:accessKey" + rest[i:]
			}
		}
		return "/api/jobs/:accessKey"
	}
	return path
}

// Handler serves the Prometheus /metrics endpoint via Fiber.
func Handler() fiber.Handler {
	httpHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c fiber.Ctx) error {
		httpHandler(c.RequestCtx())
		return nil
	}
}

// The helpers below are nil-safe so services and workers can record metrics
// without caring whether Init ran, which it does not in unit tests.

func ObservePhase(phase string, d time.Duration) {
	if Metrics.PhaseDuration != nil {
		Metrics.PhaseDuration.WithLabelValues(phase).Observe(d.Seconds())
	}
}

func ObservePipeline(d time.Duration) {
	if Metrics.PipelineDuration != nil {
		Metrics.PipelineDuration.Observe(d.Seconds())
	}
}

func JobSubmitted() {
	if Metrics.JobsSubmitted != nil {
		Metrics.JobsSubmitted.Inc()
	}
}

func JobCompleted() {
	if Metrics.JobsCompleted != nil {
		Metrics.JobsCompleted.Inc()
	}
}

func JobFailed(errorCode string) {
	if Metrics.JobsFailed != nil {
		Metrics.JobsFailed.WithLabelValues(errorCode).Inc()
	}
}

func JobsRequeued(n int) {
	if Metrics.JobsRequeued != nil {
		Metrics.JobsRequeued.Add(float64(n))
	}
}

func StuckJobAlerted(n int) {
	if Metrics.StuckJobsAlerted != nil {
		Metrics.StuckJobsAlerted.Add(float64(n))
	}
}

func CacheHit() {
	if Metrics.CacheHits != nil {
		Metrics.CacheHits.Inc()
	}
}

func CacheMiss() {
	if Metrics.CacheMisses != nil {
		Metrics.CacheMisses.Inc()
	}
}

func PlatformCall(operation string, err error) {
	if Metrics.PlatformCalls != nil {
		Metrics.PlatformCalls.WithLabelValues(operation, outcome(err)).Inc()
	}
}

func LLMCall(operation string, err error) {
	if Metrics.LLMCalls != nil {
		Metrics.LLMCalls.WithLabelValues(operation, outcome(err)).Inc()
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
