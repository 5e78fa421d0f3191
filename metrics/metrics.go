// Package metrics exposes the daemon's Prometheus instrumentation:
// sensor trigger outcomes, actuator writes, REST commands, and event
// queue depth. Grounded in the pack's prometheus/client_golang usage,
// adopted here since the teacher repo carries no metrics of its own.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the daemon's metrics handle, satisfying the smaller
// Metrics interfaces declared in ports and restapi.
type Metrics struct {
	triggers   *prometheus.CounterVec
	actuations *prometheus.CounterVec
	commands   *prometheus.CounterVec
	queueDepth prometheus.Gauge
	registry   *prometheus.Registry
}

// New builds a Metrics handle with its own registry, so tests can
// construct fresh instances without colliding on the global default
// registry's collector names.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		triggers: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "alarm_sensor_triggers_total",
			Help: "Sensor edge triggers observed by the edge watcher, labeled by outcome.",
		}, []string{"sensor", "outcome"}),
		actuations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "alarm_actuator_writes_total",
			Help: "Actuator level writes, labeled by actuator and level.",
		}, []string{"actuator", "level"}),
		commands: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "alarm_commands_total",
			Help: "Commands accepted by the REST front-end, labeled by event name.",
		}, []string{"event"}),
		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "alarm_event_queue_depth",
			Help: "Current depth of the interpreter's event queue.",
		}),
	}
}

// ObserveTrigger records a sensor edge-watcher outcome.
func (m *Metrics) ObserveTrigger(sensor, outcome string) {
	m.triggers.WithLabelValues(sensor, outcome).Inc()
}

// ObserveSetLevel records an actuator write.
func (m *Metrics) ObserveSetLevel(actuator string, level int) {
	state := "off"
	if level != 0 {
		state = "on"
	}
	m.actuations.WithLabelValues(actuator, state).Inc()
}

// ObserveCommand records a REST-accepted command event.
func (m *Metrics) ObserveCommand(event string) {
	m.commands.WithLabelValues(event).Inc()
}

// SetQueueDepth reports the event queue's current length.
func (m *Metrics) SetQueueDepth(depth int) {
	m.queueDepth.Set(float64(depth))
}

// Handler serves the Prometheus text exposition format for this
// Metrics instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
