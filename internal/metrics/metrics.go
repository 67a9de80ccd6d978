// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the registry with the HTTP and domain collectors.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec   // method, route, status
	HTTPLatency  *prometheus.HistogramVec // method, route

	OTPIssued           prometheus.Counter
	OTPDeliveryFailures prometheus.Counter
	OTPVerifications    *prometheus.CounterVec // result
	AccountsActivated   prometheus.Counter
	VotersAdded         prometheus.Counter
}

// New registers every collector on a private registry so tests can build
// as many instances as they like.
func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency of HTTP requests by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		OTPIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "otp_issued_total",
			Help:      "Total number of one-time codes issued.",
		}),
		OTPDeliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "otp_delivery_failures_total",
			Help:      "Total number of one-time code emails that failed or timed out.",
		}),
		OTPVerifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "otp_verifications_total",
			Help:      "One-time code verification attempts by result.",
		}, []string{"result"}),
		AccountsActivated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accounts_activated_total",
			Help:      "Total number of voter accounts activated.",
		}),
		VotersAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voters_added_total",
			Help:      "Total number of voter records provisioned by admins.",
		}),
	}

	registry.MustRegister(
		m.HTTPRequests,
		m.HTTPLatency,
		m.OTPIssued,
		m.OTPDeliveryFailures,
		m.OTPVerifications,
		m.AccountsActivated,
		m.VotersAdded,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
