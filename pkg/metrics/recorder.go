package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "vps_storefront"

// Recorder holds the operational counters. It is created once and passed to
// the handlers and clients that report into it.
type Recorder struct {
	gatherer        prometheus.Gatherer
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	billingCalls    *prometheus.CounterVec
	billingDuration *prometheus.HistogramVec
	placements      *prometheus.CounterVec
	started         time.Time
}

// New registers the storefront metrics on reg.
func New(reg *prometheus.Registry) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	r := &Recorder{
		gatherer: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		billingCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "billing_calls_total",
			Help:      "HostBill API calls by method and outcome.",
		}, []string{"method", "outcome"}),
		billingDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "billing_call_duration_seconds",
			Help:      "HostBill API call latency.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"method"}),
		placements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_placements_total",
			Help:      "Order placements by outcome.",
		}, []string{"outcome"}),
		started: time.Now(),
	}
	reg.MustRegister(r.requests, r.requestDuration, r.billingCalls, r.billingDuration, r.placements)
	return r
}

// ObserveRequest records one served HTTP request.
func (r *Recorder) ObserveRequest(method, route string, status int, duration time.Duration) {
	if r == nil {
		return
	}
	route = normalizeLabel(route)
	r.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveBillingCall records one HostBill call.
func (r *Recorder) ObserveBillingCall(method, outcome string, duration time.Duration) {
	if r == nil {
		return
	}
	r.billingCalls.WithLabelValues(normalizeLabel(method), normalizeLabel(outcome)).Inc()
	r.billingDuration.WithLabelValues(normalizeLabel(method)).Observe(duration.Seconds())
}

// ObservePlacement records a checkout outcome.
func (r *Recorder) ObservePlacement(outcome string) {
	if r == nil {
		return
	}
	r.placements.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}

// Snapshot is a point-in-time summary for the status dashboard.
type Snapshot struct {
	Requests        float64
	ClientErrors    float64
	ServerErrors    float64
	BillingCalls    float64
	BillingFailures float64
	Placements      map[string]float64
	Uptime          time.Duration
}

// Snapshot sums the counters currently held in the registry.
func (r *Recorder) Snapshot() (Snapshot, error) {
	snap := Snapshot{Placements: map[string]float64{}, Uptime: time.Since(r.started)}
	mfs, err := r.gatherer.Gather()
	if err != nil {
		return snap, err
	}
	for _, mf := range mfs {
		switch mf.GetName() {
		case namespace + "_http_requests_total":
			for _, m := range mf.GetMetric() {
				v := m.GetCounter().GetValue()
				snap.Requests += v
				switch status := labelValue(m, "status"); {
				case status >= "500":
					snap.ServerErrors += v
				case status >= "400":
					snap.ClientErrors += v
				}
			}
		case namespace + "_billing_calls_total":
			for _, m := range mf.GetMetric() {
				v := m.GetCounter().GetValue()
				snap.BillingCalls += v
				if labelValue(m, "outcome") != "success" {
					snap.BillingFailures += v
				}
			}
		case namespace + "_order_placements_total":
			for _, m := range mf.GetMetric() {
				snap.Placements[labelValue(m, "outcome")] += m.GetCounter().GetValue()
			}
		}
	}
	return snap, nil
}

func labelValue(m *dto.Metric, name string) string {
	for _, l := range m.GetLabel() {
		if l.GetName() == name {
			return l.GetValue()
		}
	}
	return ""
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
