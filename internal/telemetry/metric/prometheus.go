package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "avds"

// Registry holds all application metrics on a private prometheus registry.
type Registry struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseBytes   *prometheus.CounterVec
	ListenerUp      *prometheus.GaugeVec
}

// NewRegistry creates a registry with the application metrics plus the Go
// runtime and process collectors.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests served, by listener, method and status code.",
		}, []string{"listener", "method", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Request latency in seconds, by listener.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"listener"}),
		ResponseBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "response_bytes_total",
			Help:      "Response body bytes written, by listener.",
		}, []string{"listener"}),
		ListenerUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "listener_up",
			Help:      "Whether a listener is accepting connections (1) or not (0).",
		}, []string{"listener"}),
	}

	r.registry.MustRegister(
		r.RequestsTotal,
		r.RequestDuration,
		r.ResponseBytes,
		r.ListenerUp,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// RecordRequest counts one finished request.
func (r *Registry) RecordRequest(listener, method, code string) {
	r.RequestsTotal.WithLabelValues(listener, method, code).Inc()
}

// ObserveRequestDuration records a request latency in seconds.
func (r *Registry) ObserveRequestDuration(listener string, seconds float64) {
	r.RequestDuration.WithLabelValues(listener).Observe(seconds)
}

// AddResponseBytes adds n body bytes written on listener.
func (r *Registry) AddResponseBytes(listener string, n int64) {
	if n <= 0 {
		return
	}
	r.ResponseBytes.WithLabelValues(listener).Add(float64(n))
}

// SetListenerUp marks listener as running or stopped.
func (r *Registry) SetListenerUp(listener string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	r.ListenerUp.WithLabelValues(listener).Set(v)
}

// Handler returns an HTTP handler exposing this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
