package transport

import "crypto/tls"

// SessionCache stores TLS session state for 0-RTT resumption, keyed by
// server name. It is the same shape as crypto/tls's own
// ClientSessionCache; Config.TLS.ClientSessionCache is set from it
// directly, so a SessionCache plugs straight into the standard handshake
// without any QUIC-specific ticket handling.
type SessionCache = tls.ClientSessionCache

// NewSessionCache returns an in-memory, capacity-bounded SessionCache.
func NewSessionCache(capacity int) SessionCache {
	return tls.NewLRUClientSessionCache(capacity)
}
