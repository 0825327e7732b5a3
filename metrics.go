package quic

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the package's Prometheus collectors. Enabled per endpoint
// via Config.MetricsEnabled so library users who do not run a Prometheus
// registry pay nothing for it.
type metrics struct {
	packetsReceived  prometheus.Counter
	packetsDropped   prometheus.Counter
	connectionsOpen  prometheus.Gauge
	connectionsTotal prometheus.Counter

	datagramsRouted      prometheus.Counter
	cidTableSize         prometheus.Gauge
	connectionsPerWorker *prometheus.GaugeVec
}

var (
	metricsOnce   sync.Once
	sharedMetrics *metrics
)

// newMetrics returns the package's collectors, creating and registering
// them with the default Prometheus registry on the first call only.
func newMetrics() *metrics {
	metricsOnce.Do(func() { sharedMetrics = buildMetrics() })
	return sharedMetrics
}

func buildMetrics() *metrics {
	m := &metrics{
		packetsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quic",
			Name:      "packets_received_total",
			Help:      "UDP datagrams received by the endpoint.",
		}),
		packetsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quic",
			Name:      "packets_dropped_total",
			Help:      "UDP datagrams dropped because a worker's queue was full.",
		}),
		connectionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quic",
			Name:      "connections_open",
			Help:      "Connections currently established.",
		}),
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quic",
			Name:      "connections_total",
			Help:      "Connections accepted or dialed since start.",
		}),
		datagramsRouted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quic",
			Name:      "datagrams_routed_total",
			Help:      "Datagrams the dispatcher handed to a worker, by CID lookup or round-robin assignment.",
		}),
		cidTableSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quic",
			Name:      "cid_table_size",
			Help:      "Entries currently in the dispatcher's CID-to-worker routing table.",
		}),
		connectionsPerWorker: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "quic",
			Name:      "worker_connections_open",
			Help:      "Connections currently owned by each worker, labeled by the worker's tag.",
		}, []string{"worker"}),
	}
	prometheus.MustRegister(
		m.packetsReceived, m.packetsDropped, m.connectionsOpen, m.connectionsTotal,
		m.datagramsRouted, m.cidTableSize, m.connectionsPerWorker,
	)
	return m
}
