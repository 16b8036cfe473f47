// Package metrics holds the portal's Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "clubreg"

// Registry is the registry served on /metrics.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// WebhookEvents counts webhook deliveries by provider and outcome.
	WebhookEvents = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_events_total",
		Help:      "Payment webhook deliveries by outcome.",
	}, []string{"provider", "outcome"})

	RegistrationsPaid = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_paid_total",
		Help:      "Registrations moved to paid by reconciliation.",
	})

	PaymentFailures = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_failures_total",
		Help:      "Payment failure events reported by the processor.",
	})

	Notifications = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Confirmation emails and admin alerts by result.",
	}, []string{"kind", "result"})

	CheckoutSessions = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_sessions_total",
		Help:      "Checkout handoffs by result.",
	}, []string{"result"})

	AutosaveDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "draft_autosave_seconds",
		Help:      "Latency of wizard draft auto-saves.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"result"})

	ActiveSessions = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "wizard_sessions_active",
		Help:      "Registration wizard sessions held in memory.",
	})

	RPCRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rpc_requests_total",
		Help:      "Registration RPCs by procedure and code.",
	}, []string{"procedure", "code"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Result maps an error to a metric label.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveAutosave records one auto-save attempt.
func ObserveAutosave(err error, elapsed time.Duration) {
	AutosaveDuration.WithLabelValues(Result(err)).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
