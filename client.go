package quic

import (
	"io"
	"net"

	"github.com/goburrow/quic/transport"
)

// Client dials outgoing QUIC connections over a single UDP socket, sharing
// the same worker-pool machinery as Server (spec §9 does not distinguish
// dialing from accepting once a connection is assigned to a worker).
type Client struct {
	ep *endpoint
}

// NewClient creates a Client from config. config.TLS should set ServerName
// (or InsecureSkipVerify, for testing) since the client drives the TLS
// handshake's verification.
func NewClient(config *Config) *Client {
	return &Client{ep: newEndpoint(config, "")}
}

func (c *Client) SetHandler(h Handler) { c.ep.SetHandler(h) }

func (c *Client) SetLogger(level int, w io.Writer) { c.ep.SetLogger(level, w) }

// ListenAndServe opens a local UDP socket to send and receive on. Clients
// still need a bound socket: QUIC has no distinct "connect" step at the
// transport layer, only at this library's Conn level.
func (c *Client) ListenAndServe(addr string) error {
	return c.ep.listen(addr)
}

// Connect starts a new connection to addr and returns once its first
// flight has been handed to a worker. It does not wait for the handshake
// to complete; EventConnAccept on the Handler signals that.
func (c *Client) Connect(addr string) error {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return err
	}
	scid := make([]byte, transport.MaxCIDLength)
	if _, err := cryptoRandRead(scid); err != nil {
		return err
	}
	conn, err := transport.Connect(scid, c.ep.transportConfig())
	if err != nil {
		return err
	}
	rc := newRemoteConn(scid, raddr, conn)
	w := c.ep.dispatcher.assign(scid)
	w.register <- rc
	return nil
}

func (c *Client) Close() error {
	return c.ep.close()
}
