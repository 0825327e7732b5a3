package quic

import "github.com/goburrow/quic/transport"

// Connection-level event types, continuing transport.EventType's
// enumeration: these are generated by the endpoint itself rather than by
// transport.Conn, since only the endpoint knows when a Conn was accepted
// or fully torn down.
const (
	EventConnAccept transport.EventType = iota + 100
	EventConnClose
)

// Handler processes connection and stream events delivered by a worker.
// Serve is always called from the goroutine that owns c, so handler code
// needs no locking around c itself.
type Handler interface {
	Serve(c Conn, events []transport.Event)
}

// HandlerFunc adapts a function to a Handler.
type HandlerFunc func(c Conn, events []transport.Event)

func (f HandlerFunc) Serve(c Conn, events []transport.Event) {
	f(c, events)
}
