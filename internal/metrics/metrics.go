package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Poll cycle results.
const (
	ResultOK                = "ok"
	ResultEmpty             = "empty"
	ResultExpectationFailed = "expectation_failed"
	ResultNetworkError      = "network_error"
	ResultError             = "error"
)

var (
	// Poll loop
	PollCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kumo_poll_cycles_total",
			Help: "Total number of poll cycles by result",
		},
		[]string{"result"},
	)

	PollCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "kumo_poll_cycle_duration_seconds",
			Help: "Duration of one poll cycle, long-poll included",
			// The router holds the long-poll open until something changes.
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kumo_notifications_total",
			Help: "Total number of notifications published to subscribers",
		},
		[]string{"kind"},
	)

	MalformedEvents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kumo_malformed_events_total",
			Help: "Total number of parameter events dropped as malformed",
		},
	)

	// Router state
	Connected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kumo_connected",
			Help: "1 while the router is reachable, 0 otherwise",
		},
	)

	PortCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kumo_port_count",
			Help: "Last known number of router sources",
		},
	)

	Temperature = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kumo_temperature_celsius",
			Help: "Last temperature reported by the router",
		},
	)

	// Bridge
	Commands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kumo_commands_total",
			Help: "Total number of bridge commands by result",
		},
		[]string{"command", "result"},
	)

	CircuitBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kumo_circuit_breaker_state",
			Help: "Command circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	BridgeClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kumo_bridge_clients",
			Help: "Number of connected websocket clients",
		},
	)
)

// RecordPollCycle records one poll cycle.
func RecordPollCycle(result string, duration time.Duration) {
	PollCycles.WithLabelValues(result).Inc()
	PollCycleDuration.Observe(duration.Seconds())
}

// RecordNotification counts a published notification.
func RecordNotification(kind string) {
	Notifications.WithLabelValues(kind).Inc()
}

// RecordMalformedEvents counts events the classifier dropped.
func RecordMalformedEvents(n int) {
	MalformedEvents.Add(float64(n))
}

// SetConnected sets the connectivity gauge.
func SetConnected(connected bool) {
	if connected {
		Connected.Set(1)
		return
	}
	Connected.Set(0)
}

// RecordCommand counts a bridge command.
func RecordCommand(command string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	Commands.WithLabelValues(command, result).Inc()
}

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
