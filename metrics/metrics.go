// Package metrics exposes settlement and HTTP metrics to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohitbudhwar0786/earning-website/settlement"
)

// Collector implements settlement.Metrics and middleware.HTTPMetrics.
type Collector struct {
	registry *prometheus.Registry

	runs        *prometheus.CounterVec
	users       *prometheus.CounterVec
	duration    prometheus.Histogram
	amount      *prometheus.CounterVec
	lastSuccess prometheus.Gauge

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Collector{
		registry: reg,
		runs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "earnd_settlement_runs_total",
				Help: "Settlement passes by result",
			},
			[]string{"result"},
		),
		users: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "earnd_settlement_users_total",
				Help: "Per-user settlement steps by outcome",
			},
			[]string{"outcome"},
		),
		duration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "earnd_settlement_duration_seconds",
				Help:    "Wall time of a settlement pass",
				Buckets: []float64{.1, .5, 1, 5, 15, 30, 60, 300, 900},
			},
		),
		amount: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "earnd_settlement_amount_total",
				Help: "Amount credited by settlement, by earning type",
			},
			[]string{"type"},
		),
		lastSuccess: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "earnd_settlement_last_success_timestamp_seconds",
				Help: "Finish time of the last settlement pass that was not aborted",
			},
		),
		requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "earnd_http_requests_total",
				Help: "HTTP requests by route and status",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "earnd_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2, 5, 30},
			},
			[]string{"route"},
		),
	}
}

func (c *Collector) UserSettled(o settlement.Outcome) {
	c.users.WithLabelValues(string(o)).Inc()
}

func (c *Collector) RunFinished(res settlement.Result, err error) {
	result := "ok"
	switch {
	case err != nil:
		result = "aborted"
	case res.Failed > 0:
		result = "partial"
	}
	c.runs.WithLabelValues(result).Inc()
	c.duration.Observe(res.Duration().Seconds())
	inv, _ := res.InvestmentTotal.Float64()
	ref, _ := res.ReferralTotal.Float64()
	c.amount.WithLabelValues("investment").Add(inv)
	c.amount.WithLabelValues("referral").Add(ref)
	if err == nil {
		c.lastSuccess.Set(float64(res.FinishedAt.Unix()))
	}
}

func (c *Collector) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

