// Package metrics exposes the gateway core's activity as Prometheus
// metrics: connected sessions, dispatcher batch sizes, discovery duration,
// and event fan-out volume.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	dali "github.com/maginawin/go-dali-gateway"
)

const (
	namespace = "dali"
	subsystem = "gateway"
)

const labelGwSN = "gw_sn"
const labelCmd = "cmd"
const labelKind = "kind"

// Collector holds every Prometheus metric this module reports.
type Collector struct {
	// Sessions tracks currently connected sessions, labeled by gateway
	// serial number.
	Sessions *prometheus.GaugeVec

	// BatchSize observes the number of devices folded into each flushed
	// coalescing batch, labeled by command ("readDev"/"writeDev").
	BatchSize *prometheus.HistogramVec

	// DiscoveryDuration observes how long a full discovery pass took.
	DiscoveryDuration prometheus.Histogram

	// DiscoveryGatewaysFound observes how many distinct gateways a
	// discovery pass returned.
	DiscoveryGatewaysFound prometheus.Histogram

	// EventsDispatched counts inbound events dispatched to the registry,
	// labeled by event kind.
	EventsDispatched *prometheus.CounterVec
}

// NewCollector creates a Collector with every metric registered against
// reg. If reg is nil, prometheus.DefaultRegisterer is used.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := newMetrics()

	reg.MustRegister(
		c.Sessions,
		c.BatchSize,
		c.DiscoveryDuration,
		c.DiscoveryGatewaysFound,
		c.EventsDispatched,
	)

	return c
}

func newMetrics() *Collector {
	return &Collector{
		Sessions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sessions",
			Help:      "Currently connected gateway sessions.",
		}, []string{labelGwSN}),

		BatchSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "dispatcher_batch_size",
			Help:      "Number of devices folded into each flushed coalescing batch.",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64},
		}, []string{labelCmd}),

		DiscoveryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "discovery_duration_seconds",
			Help:      "Duration of a discovery pass, start to finish.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),

		DiscoveryGatewaysFound: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "discovery_gateways_found",
			Help:      "Number of distinct gateways returned by a discovery pass.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		}),

		EventsDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "events_dispatched_total",
			Help:      "Total inbound events dispatched, labeled by event kind.",
		}, []string{labelKind}),
	}
}

// SessionConnected implements dali.MetricsReporter.
func (c *Collector) SessionConnected(gwSN string, connected bool) {
	g := c.Sessions.WithLabelValues(gwSN)
	if connected {
		g.Set(1)
	} else {
		g.Set(0)
	}
}

// DispatcherBatchFlushed implements dali.MetricsReporter.
func (c *Collector) DispatcherBatchFlushed(cmd string, size int) {
	c.BatchSize.WithLabelValues(cmd).Observe(float64(size))
}

// DiscoveryCompleted implements dali.MetricsReporter.
func (c *Collector) DiscoveryCompleted(found int, duration time.Duration) {
	c.DiscoveryGatewaysFound.Observe(float64(found))
	c.DiscoveryDuration.Observe(duration.Seconds())
}

// EventDispatched implements dali.MetricsReporter.
func (c *Collector) EventDispatched(kind dali.EventKind) {
	c.EventsDispatched.WithLabelValues(string(kind)).Inc()
}
