// Package metrics counts the exchanges made through the requester.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/brizzai/requestkit/requester"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

const namespace = "requestkit"

// Collector is a requester.Hook recording one sample per exchange
type Collector struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
	started  sync.Map // *requester.Request -> time.Time
}

var _ requester.Hook = (*Collector)(nil)

// NewCollector registers the requester metrics on a private registry
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Collector{
		registry: reg,
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "client",
				Name:      "requests_total",
				Help:      "Requests sent, by method and outcome.",
			},
			[]string{"method", "outcome"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "client",
				Name:      "request_duration_seconds",
				Help:      "Time from sending a request to receiving its response.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		inFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "client",
				Name:      "requests_in_flight",
				Help:      "Requests waiting for a response.",
			},
		),
	}
}

func (c *Collector) Before(req *requester.Request) {
	c.inFlight.Inc()
	c.started.Store(req, time.Now())
}

func (c *Collector) After(req *requester.Request, resp *requester.Response, err error) {
	c.inFlight.Dec()
	method := string(req.Method)
	if v, ok := c.started.LoadAndDelete(req); ok {
		c.duration.WithLabelValues(method).Observe(time.Since(v.(time.Time)).Seconds())
	}
	c.requests.WithLabelValues(method, Outcome(resp, err)).Inc()
}

// Outcome labels an exchange: the status class ("2xx", "4xx", ...) or
// "transport_error" when no status came back
func Outcome(resp *requester.Response, err error) string {
	if resp == nil || resp.StatusCode == 0 {
		return "transport_error"
	}
	return strconv.Itoa(resp.StatusCode/100) + "xx"
}

// Handler serves the collected metrics in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry exposes the registry, e.g. to add process collectors
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Module provides the Collector
var Module = fx.Module("metrics",
	fx.Provide(NewCollector),
)
