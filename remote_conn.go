package quic

import (
	"net"
	"time"

	"github.com/goburrow/quic/transport"
)

// remoteConn is one worker's bookkeeping for a single QUIC connection: the
// transport state machine plus everything needed to route datagrams to and
// from it (spec §9: "the dispatcher looks up by CID; the worker is the
// sole owner of the Conn it dispatches to").
type remoteConn struct {
	scid []byte
	addr net.Addr

	conn *transport.Conn

	idleTimer *time.Timer
	qlog      *QlogWriter

	closing   bool
	announced bool
}

func newRemoteConn(scid []byte, addr net.Addr, conn *transport.Conn) *remoteConn {
	return &remoteConn{
		scid: scid,
		addr: addr,
		conn: conn,
	}
}

// Conn is the application-facing handle to a QUIC connection, handed to
// Handler.Serve. It never exposes the transport.Conn directly so that all
// access is serialized through the owning worker.
type Conn interface {
	// RemoteAddr returns the address of the connected peer.
	RemoteAddr() net.Addr
	// Stream returns the stream with the given id, creating a
	// locally-initiated one if it does not already exist.
	Stream(id uint64) Stream
	// Close starts closing the connection with the given application
	// error code.
	Close(errCode uint64, reason string)
}

// Stream is the application-facing handle to a single stream: reads and
// writes issued from a Handler are safe because Serve is only ever called
// from the connection's owning worker goroutine.
type Stream interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

type connHandle struct {
	rc *remoteConn
}

func (c connHandle) RemoteAddr() net.Addr { return c.rc.addr }

func (c connHandle) Stream(id uint64) Stream {
	st, err := c.rc.conn.Stream(id)
	if err != nil {
		return nil
	}
	return st
}

func (c connHandle) Close(errCode uint64, reason string) {
	c.rc.conn.Close(true, errCode, reason)
}
