// Package observability exposes the agent's prometheus metrics.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the agent's instruments. All methods are safe on a nil
// receiver so callers never need to guard the optional wiring.
type Metrics struct {
	readings  *prometheus.CounterVec
	cycles    *prometheus.CounterVec
	publishes *prometheus.CounterVec
	gestures  *prometheus.CounterVec
	mode      prometheus.Gauge

	gatherer prometheus.Gatherer
}

// NewMetrics registers the agent instruments on the default registry.
func NewMetrics() *Metrics {
	m := newMetrics(prometheus.DefaultRegisterer)
	m.gatherer = prometheus.DefaultGatherer
	return m
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		readings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "c210_readings_total",
			Help: "Total sensor readings by sensor and read status.",
		}, []string{"sensor", "status"}),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "c210_cycles_total",
			Help: "Total aggregation cycles by outcome.",
		}, []string{"outcome"}),
		publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "c210_publish_total",
			Help: "Total publish attempts by transport and result.",
		}, []string{"transport", "result"}),
		gestures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "c210_gestures_total",
			Help: "Total button gestures by button and outcome.",
		}, []string{"button", "outcome"}),
		mode: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "c210_aggregation_mode",
			Help: "Current aggregation mode (0 disabled, 1 wifi, 2 cellular).",
		}),
	}

	reg.MustRegister(m.readings, m.cycles, m.publishes, m.gestures, m.mode)
	m.mode.Set(0)

	return m
}

// Handler serves the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ReadingObserved counts one sensor reading.
func (m *Metrics) ReadingObserved(sensor, status string) {
	if m == nil {
		return
	}
	m.readings.WithLabelValues(sensor, status).Inc()
}

// CycleFinished counts one aggregation cycle.
func (m *Metrics) CycleFinished(outcome string) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(outcome).Inc()
}

// PublishAttempted counts one publish attempt.
func (m *Metrics) PublishAttempted(transport, result string) {
	if m == nil {
		return
	}
	m.publishes.WithLabelValues(transport, result).Inc()
}

// GestureObserved counts one button gesture.
func (m *Metrics) GestureObserved(button, outcome string) {
	if m == nil {
		return
	}
	m.gestures.WithLabelValues(button, outcome).Inc()
}

// SetAggregationMode records the current mode on the gauge.
func (m *Metrics) SetAggregationMode(v float64) {
	if m == nil {
		return
	}
	m.mode.Set(v)
}
