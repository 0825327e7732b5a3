package http3

import "github.com/prometheus/client_golang/prometheus"

// metrics holds the blocked-stream gauge the HTTP/3 stream layer drives
// directly: it is the only layer that knows a stream is stalled on a
// QPACK dynamic-table insert (spec §4.15.5).
type metrics struct {
	qpackBlockedStreams prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		qpackBlockedStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quic",
			Subsystem: "http3",
			Name:      "qpack_blocked_streams",
			Help:      "Request streams currently blocked waiting on QPACK dynamic table inserts.",
		}),
	}
	prometheus.MustRegister(m.qpackBlockedStreams)
	return m
}

func (m *metrics) incBlocked() { m.qpackBlockedStreams.Inc() }
func (m *metrics) decBlocked() { m.qpackBlockedStreams.Dec() }
