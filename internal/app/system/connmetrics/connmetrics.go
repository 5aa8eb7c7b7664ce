// Package connmetrics exports connection manager activity as Prometheus
// metrics.
package connmetrics

import (
	"net/http"
	"time"

	"github.com/dalemusser/kaziocha/internal/app/system/connmgr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kaziocha"

var allStates = []connmgr.State{
	connmgr.Uninitialized,
	connmgr.Connecting,
	connmgr.Ready,
	connmgr.Failed,
}

// Collector implements connmgr.Observer.
type Collector struct {
	attempts *prometheus.CounterVec
	duration prometheus.Histogram
	state    *prometheus.GaugeVec
}

// New registers the store connection metrics on reg.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "connect_attempts_total",
			Help:      "Store connection attempts by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "connect_duration_seconds",
			Help:      "Duration of store connection attempts.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "connection_state",
			Help:      "1 for the current store connection state, 0 otherwise.",
		}, []string{"state"}),
	}
	reg.MustRegister(c.attempts, c.duration, c.state)

	for _, s := range allStates {
		c.state.WithLabelValues(s.String()).Set(0)
	}
	c.state.WithLabelValues(connmgr.Uninitialized.String()).Set(1)
	return c
}

// StateChanged implements connmgr.Observer.
func (c *Collector) StateChanged(from, to connmgr.State) {
	c.state.WithLabelValues(from.String()).Set(0)
	c.state.WithLabelValues(to.String()).Set(1)
}

// AttemptFinished implements connmgr.Observer.
func (c *Collector) AttemptFinished(err error, took time.Duration) {
	c.duration.Observe(took.Seconds())
	c.attempts.WithLabelValues(resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	if err == nil {
		return "success"
	}
	if kind := connmgr.KindName(err); kind != "" {
		return kind
	}
	return "error"
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
