// Package metrics exposes the console's session and routing counters to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/jrsteele09/go-lawfirm-console/guard"
	"github.com/jrsteele09/go-lawfirm-console/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lawfirm_console"

var (
	_ session.Recorder = (*Collector)(nil)
	_ guard.Recorder   = (*Collector)(nil)
)

// Collector implements the session and guard recorders on top of Prometheus.
type Collector struct {
	transitions  *prometheus.CounterVec
	authAttempts *prometheus.CounterVec
	checks       *prometheus.CounterVec
	staleResults prometheus.Counter
	decisions    *prometheus.CounterVec
	proxyStatus  *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_transitions_total",
			Help:      "Session status changes by target status.",
		}, []string{"to"}),
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_attempts_total",
			Help:      "Login and registration attempts by outcome.",
		}, []string{"operation", "result"}),
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_checks_total",
			Help:      "Identity checks by outcome.",
		}, []string{"outcome"}),
		staleResults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_results_discarded_total",
			Help:      "Session results dropped because a newer operation had started.",
		}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guard_decisions_total",
			Help:      "Route guard decisions by view.",
		}, []string{"view", "decision"}),
		proxyStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proxy_responses_total",
			Help:      "Backend responses relayed through the API proxy by status code.",
		}, []string{"status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency of requests served by the console.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(
		c.transitions,
		c.authAttempts,
		c.checks,
		c.staleResults,
		c.decisions,
		c.proxyStatus,
		c.httpLatency,
	)
	return c
}

func (c *Collector) RecordTransition(to string) {
	c.transitions.WithLabelValues(to).Inc()
}

func (c *Collector) RecordAuthAttempt(op string, success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.authAttempts.WithLabelValues(op, result).Inc()
}

func (c *Collector) RecordCheck(outcome string) {
	c.checks.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordStaleDiscard() {
	c.staleResults.Inc()
}

func (c *Collector) RecordDecision(view, decision string) {
	c.decisions.WithLabelValues(view, decision).Inc()
}

// RecordProxyStatus counts a status code returned by the backend through the proxy.
func (c *Collector) RecordProxyStatus(statusCode int) {
	c.proxyStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequest observes how long the console took to serve route.
func (c *Collector) RecordRequest(route string, d time.Duration) {
	c.httpLatency.WithLabelValues(route).Observe(d.Seconds())
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
