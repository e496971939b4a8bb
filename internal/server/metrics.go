package server

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"eve/internal/auth"
)

const metricsNamespace = "eve"

// Metrics holds the proxy's Prometheus collectors. It implements
// auth.Observer so the session manager can report token activity.
type Metrics struct {
	registry *prometheus.Registry

	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	issued    *prometheus.CounterVec
	refreshed *prometheus.CounterVec
	evicted   *prometheus.CounterVec

	sessionsOnce sync.Once
}

var _ auth.Observer = (*Metrics)(nil)

// NewMetrics creates a registry with the proxy collectors and the standard
// Go and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "proxy",
			Name:      "requests_total",
			Help:      "HTTP requests served by the proxy.",
		}, []string{"route", "method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "proxy",
			Name:      "request_duration_seconds",
			Help:      "Time spent serving proxy requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		issued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "auth",
			Name:      "tokens_issued_total",
			Help:      "Tokens obtained by initial authentication.",
		}, []string{"auth_method"}),
		refreshed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "auth",
			Name:      "tokens_refreshed_total",
			Help:      "Tokens replaced by re-authentication.",
		}, []string{"auth_method"}),
		evicted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "auth",
			Name:      "sessions_evicted_total",
			Help:      "Sessions removed from the store.",
		}, []string{"reason"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.duration, m.issued, m.refreshed, m.evicted,
	)
	return m
}

// TokenIssued implements auth.Observer.
func (m *Metrics) TokenIssued(kind auth.CredentialKind) {
	m.issued.WithLabelValues(string(kind)).Inc()
}

// TokenRefreshed implements auth.Observer.
func (m *Metrics) TokenRefreshed(kind auth.CredentialKind) {
	m.refreshed.WithLabelValues(string(kind)).Inc()
}

// SessionEvicted implements auth.Observer.
func (m *Metrics) SessionEvicted(reason string) {
	m.evicted.WithLabelValues(reason).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// trackSessions exports the live session count of store. Only the first
// call registers the gauge.
func (m *Metrics) trackSessions(store *auth.MemoryStore) {
	m.sessionsOnce.Do(func() {
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "auth",
			Name:      "active_sessions",
			Help:      "Sessions currently held by the proxy.",
		}, func() float64 { return float64(store.Len()) }))
	})
}

func (m *Metrics) observeRequest(route, method string, code int, elapsed time.Duration) {
	m.requests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.duration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}
