package quic

import (
	"crypto/tls"

	"github.com/goburrow/quic/transport"
)

// Config bundles everything an Endpoint needs: the transport.Config used
// for every Conn it manages, plus the process-level concerns (worker
// pool size, metrics, session resumption storage) that sit above a
// single connection.
type Config struct {
	TLS *tls.Config

	Params transport.Parameters

	// WorkerCount is the number of single-threaded connection workers to
	// run. 0 selects runtime.GOMAXPROCS(0).
	WorkerCount int

	// CongestionAlgorithm selects the controller new connections use.
	CongestionAlgorithm transport.CongestionAlgorithm

	// SessionCacheDir, if non-empty, enables file-backed TLS session
	// resumption (spec: session cache persisted across restarts).
	SessionCacheDir string

	// QlogDir, if non-empty, writes one qlog file per connection under
	// this directory.
	QlogDir string

	// MetricsEnabled registers the package's Prometheus collectors on
	// first NewServer/NewClient call.
	MetricsEnabled bool

	// ReusePort sets SO_REUSEPORT on the listening UDP socket, so several
	// dispatcher processes (or several Servers in one process) can bind
	// the same port and let the kernel spread datagrams across them.
	ReusePort bool
}

// NewConfig returns a Config with the same defaults as
// transport.NewConfig, suitable for overriding selectively.
func NewConfig() *Config {
	tc := transport.NewConfig()
	return &Config{
		Params:              tc.Params,
		CongestionAlgorithm: tc.CongestionAlgorithm,
	}
}

// transportConfig builds the transport.Config shared by every Conn this
// endpoint creates. sessionCache is built once by the endpoint (not here)
// since it owns on-disk state that should not be reopened per connection.
func (c *Config) transportConfig(alpn string, sessionCache tls.ClientSessionCache) *transport.Config {
	tlsConfig := c.TLS
	if tlsConfig != nil {
		clone := tlsConfig.Clone()
		if len(clone.NextProtos) == 0 && alpn != "" {
			clone.NextProtos = []string{alpn}
		}
		if clone.ClientSessionCache == nil && sessionCache != nil {
			clone.ClientSessionCache = sessionCache
		}
		tlsConfig = clone
	}
	return &transport.Config{
		Version:             0x00000001,
		Params:              c.Params,
		TLS:                 tlsConfig,
		CongestionAlgorithm: c.CongestionAlgorithm,
	}
}
