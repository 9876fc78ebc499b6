package metrics

import (
	"encoding/json"
	"net/http"

	"github.com/hireloop/engine/internal/health"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Lifecycle metrics

	IntroTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hireloop",
		Name:      "intro_transitions_total",
		Help:      "Introduction status transitions, by resulting status.",
	}, []string{"to"})

	TokenResolutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hireloop",
		Name:      "token_resolutions_total",
		Help:      "Response token resolutions, by outcome.",
	}, []string{"outcome"})

	ClaimAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hireloop",
		Name:      "claim_attempts_total",
		Help:      "Job claim attempts, by outcome.",
	}, []string{"outcome"})

	// Reaper metrics

	ReaperExpiredTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hireloop",
		Name:      "reaper_expired_total",
		Help:      "Records transitioned by the reaper, by kind.",
	}, []string{"kind"})

	ReaperCycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "hireloop",
		Name:      "reaper_cycle_duration_seconds",
		Help:      "Time taken for one reaper cycle.",
		Buckets:   prometheus.DefBuckets,
	})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "hireloop",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hireloop",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		IntroTransitionsTotal,
		TokenResolutionsTotal,
		ClaimAttemptsTotal,
		ReaperExpiredTotal,
		ReaperCycleDuration,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

// NewServer exposes /metrics plus the liveness and readiness probes on the
// internal port.
func NewServer(addr string, checker *health.Checker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, checker.Liveness(r.Context()), http.StatusOK)
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		result := checker.Readiness(r.Context())
		status := http.StatusOK
		if result.Status != "up" {
			status = http.StatusServiceUnavailable
		}
		writeHealth(w, result, status)
	})
	return &http.Server{Addr: addr, Handler: mux}
}

func writeHealth(w http.ResponseWriter, result health.HealthResult, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(result)
}
