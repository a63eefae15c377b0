// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatblast_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chatblast_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	sessionsIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatblast_sessions_issued_total",
		Help: "Sessions issued by profile kind",
	}, []string{"kind"})

	sessionsDeactivated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatblast_sessions_deactivated_total",
		Help: "Sessions deactivated by source (logout, sweep)",
	}, []string{"source"})

	realtimeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chatblast_realtime_connections",
		Help: "Live realtime connections",
	})

	realtimeDisconnects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatblast_realtime_forced_disconnects_total",
		Help: "Realtime connections closed by the server, by reason",
	}, []string{"reason"})

	presenceEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatblast_presence_events_total",
		Help: "Presence notifications emitted, by event",
	}, []string{"event"})

	verifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatblast_delegated_verifications_total",
		Help: "Delegated auth verification calls, by result",
	}, []string{"result"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTPRequest records an HTTP request metric.
func ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	s := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, s).Inc()
	httpRequestDuration.WithLabelValues(method, route, s).Observe(duration.Seconds())
}

func SessionIssued(kind string) {
	sessionsIssued.WithLabelValues(kind).Inc()
}

func SessionsDeactivated(source string, n int) {
	if n > 0 {
		sessionsDeactivated.WithLabelValues(source).Add(float64(n))
	}
}

func RealtimeConnected()    { realtimeConnections.Inc() }
func RealtimeDisconnected() { realtimeConnections.Dec() }

func RealtimeForcedDisconnects(reason string, n int) {
	if n > 0 {
		realtimeDisconnects.WithLabelValues(reason).Add(float64(n))
	}
}

func PresenceEvent(event string) {
	presenceEvents.WithLabelValues(event).Inc()
}

// Verification records a delegated auth outcome: ok, failed or circuit_open.
func Verification(result string) {
	verifications.WithLabelValues(result).Inc()
}
