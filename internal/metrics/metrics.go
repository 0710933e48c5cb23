// Package metrics exposes fleet, simulation, hub and intake counters in the
// Prometheus text format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"uld-tracker/internal/broadcast"
	"uld-tracker/internal/domain/alert"
	"uld-tracker/internal/ingestion"
	"uld-tracker/internal/simulation"
)

const namespace = "uld"

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	alertsRaised     *prometheus.CounterVec
	reports          *prometheus.CounterVec
	eventsPublished  *prometheus.CounterVec
	subscribersDrop  prometheus.Counter
	subscribers      prometheus.Gauge
	ticks            prometheus.Counter
	tickDuration     prometheus.Histogram
	unitsAdvanced    prometheus.Counter
	unitsFailed      prometheus.Counter
	ingestQueueDepth prometheus.Gauge
	ingestDropped    prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		alertsRaised: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_raised_total",
			Help:      "Alerts raised by the alert engine.",
		}, []string{"kind", "severity"}),
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telemetry_reports_total",
			Help:      "Inbound telemetry reports by intake and outcome.",
		}, []string{"source", "outcome"}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broadcast",
			Name:      "events_published_total",
			Help:      "Events published on the broadcast hub.",
		}, []string{"type"}),
		subscribersDrop: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broadcast",
			Name:      "subscribers_dropped_total",
			Help:      "Subscribers dropped because their buffer was full.",
		}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "broadcast",
			Name:      "subscribers",
			Help:      "Currently connected subscribers.",
		}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "ticks_total",
			Help:      "Simulation ticks executed.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "tick_duration_seconds",
			Help:      "Wall time of one simulation tick.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		unitsAdvanced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "units_advanced_total",
			Help:      "ULDs advanced by the simulator.",
		}),
		unitsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "units_failed_total",
			Help:      "ULDs the simulator failed to advance.",
		}),
		ingestQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "queue_depth",
			Help:      "Telemetry messages waiting for a worker.",
		}),
		ingestDropped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "messages_dropped",
			Help:      "Telemetry messages dropped since start.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.alertsRaised,
		m.reports,
		m.eventsPublished,
		m.subscribersDrop,
		m.subscribers,
		m.ticks,
		m.tickDuration,
		m.unitsAdvanced,
		m.unitsFailed,
		m.ingestQueueDepth,
		m.ingestDropped,
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// fleet.Recorder

func (m *Metrics) AlertRaised(kind alert.Kind, severity alert.Severity) {
	m.alertsRaised.WithLabelValues(string(kind), string(severity)).Inc()
}

func (m *Metrics) ReportApplied(source string, err error) {
	outcome := "applied"
	if err != nil {
		outcome = "rejected"
	}
	m.reports.WithLabelValues(source, outcome).Inc()
}

// broadcast.Observer

func (m *Metrics) EventPublished(kind broadcast.Kind) {
	m.eventsPublished.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) SubscriberDropped() {
	m.subscribersDrop.Inc()
}

func (m *Metrics) SubscribersChanged(n int) {
	m.subscribers.Set(float64(n))
}

// simulation.Observer

func (m *Metrics) TickCompleted(elapsed time.Duration, result simulation.TickResult) {
	m.ticks.Inc()
	m.tickDuration.Observe(elapsed.Seconds())
	m.unitsAdvanced.Add(float64(result.Advanced))
	m.unitsFailed.Add(float64(result.Failed))
}

// ObserveIngestion is registered with ingestion.MetricsTracker.OnChange.
func (m *Metrics) ObserveIngestion(snapshot ingestion.IngestMetrics) {
	m.ingestQueueDepth.Set(float64(snapshot.BufferSize))
	m.ingestDropped.Set(float64(snapshot.MessagesDropped))
}
