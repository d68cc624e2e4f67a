package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns the dashboard's Prometheus collectors. A nil Recorder is a no-op,
// which keeps domain tests free of registry plumbing.
type Recorder struct {
	registry        *prometheus.Registry
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	profileFetches  *prometheus.CounterVec
	locationResults *prometheus.CounterVec
	staleCommits    prometheus.Counter
}

// New registers every collector on a private registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Recorder{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		profileFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_profile_fetches_total",
				Help: "Profile payload fetches by profile type and outcome",
			},
			[]string{"profile_type", "outcome"},
		),
		locationResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_location_resolutions_total",
				Help: "Location resolutions by status and fallback reason",
			},
			[]string{"status", "reason"},
		),
		staleCommits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_stale_commits_total",
			Help: "Pipeline results discarded because a newer profile entry superseded them",
		}),
	}
	reg.MustRegister(r.httpRequests, r.httpDuration, r.profileFetches, r.locationResults, r.staleCommits)
	return r
}

// ObserveHTTP records one served request.
func (r *Recorder) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// ProfileFetch records whether a fetch produced real data or the fallback payload.
func (r *Recorder) ProfileFetch(profileType string, failed bool) {
	if r == nil {
		return
	}
	outcome := "ok"
	if failed {
		outcome = "fallback"
	}
	r.profileFetches.WithLabelValues(profileType, outcome).Inc()
}

// LocationResolved records the resolver outcome.
func (r *Recorder) LocationResolved(status, reason string) {
	if r == nil {
		return
	}
	r.locationResults.WithLabelValues(status, reason).Inc()
}

// StaleCommit counts a discarded pipeline result.
func (r *Recorder) StaleCommit() {
	if r == nil {
		return
	}
	r.staleCommits.Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
