package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freightlink_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "freightlink_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	tenancyLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freightlink_tenancy_lookups_total",
		Help: "Company resolutions by outcome (cached, fetched, throttled)",
	}, []string{"outcome"})

	tenancyBackendErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freightlink_tenancy_backend_errors_total",
		Help: "Backend errors swallowed during company resolution",
	}, []string{"step"})

	searchQueries = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "freightlink_search_query_duration_seconds",
		Help:    "Duration of subcontractor search queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})

	searchStaleResults = promauto.NewCounter(prometheus.CounterOpts{
		Name: "freightlink_search_stale_results_total",
		Help: "Search results discarded because a newer filter superseded them",
	})

	liveSearchSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "freightlink_live_search_sessions",
		Help: "Open live search websocket sessions",
	})

	invitationAccepts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freightlink_invitation_accepts_total",
		Help: "Invitation acceptance attempts by result",
	}, []string{"result"})

	searchViewRefreshes = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "freightlink_search_view_refresh_duration_seconds",
		Help:    "Duration of search view refreshes",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})

	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freightlink_events_published_total",
		Help: "Domain events handed to the broker by type and result",
	}, []string{"type", "result"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveTenancyLookup counts a company resolution by outcome.
func ObserveTenancyLookup(outcome string) {
	tenancyLookups.WithLabelValues(outcome).Inc()
}

// ObserveTenancyError counts a swallowed backend error at the given lookup step.
func ObserveTenancyError(step string) {
	tenancyBackendErrors.WithLabelValues(step).Inc()
}

// ObserveSearch records the duration of a search query with a result label.
func ObserveSearch(result string, duration time.Duration) {
	searchQueries.WithLabelValues(result).Observe(duration.Seconds())
}

// ObserveStaleSearch counts a discarded out-of-order search result.
func ObserveStaleSearch() {
	searchStaleResults.Inc()
}

// LiveSearchOpened increments the live search session gauge.
func LiveSearchOpened() {
	liveSearchSessions.Inc()
}

// LiveSearchClosed decrements the live search session gauge.
func LiveSearchClosed() {
	liveSearchSessions.Dec()
}

// ObserveInvitationAccept counts an acceptance attempt.
func ObserveInvitationAccept(result string) {
	invitationAccepts.WithLabelValues(result).Inc()
}

// ObserveSearchViewRefresh records a materialized view refresh.
func ObserveSearchViewRefresh(result string, duration time.Duration) {
	searchViewRefreshes.WithLabelValues(result).Observe(duration.Seconds())
}

// ObserveEventPublished counts a domain event publish attempt.
func ObserveEventPublished(eventType, result string) {
	eventsPublished.WithLabelValues(eventType, result).Inc()
}
