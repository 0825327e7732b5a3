package http3

import (
	"github.com/goburrow/quic"
	"github.com/goburrow/quic/transport"
)

// Handler adapts one HTTP/3 endpoint (client or server) to quic.Handler,
// keeping one conn per QUIC connection (spec §4.16: mandatory streams,
// request/response mapping, GOAWAY).
type Handler struct {
	isClient bool
	// OnRequest is invoked once a request's HEADERS (and, once fully
	// received, its body) have arrived, on the server side.
	OnRequest func(c quic.Conn, st *Stream, req Request)
	// MetricsEnabled registers the QPACK blocked-stream gauge.
	MetricsEnabled bool

	metrics *metrics
	conns   map[quic.Conn]*conn
}

// NewServerHandler returns a Handler that dispatches incoming requests to
// onRequest.
func NewServerHandler(onRequest func(c quic.Conn, st *Stream, req Request)) *Handler {
	return &Handler{OnRequest: onRequest, conns: make(map[quic.Conn]*conn)}
}

// NewClientHandler returns a Handler suitable for a quic.Client: requests
// are issued with (*Handler).Request once the connection is in conns.
func NewClientHandler() *Handler {
	return &Handler{isClient: true, conns: make(map[quic.Conn]*conn)}
}

func (h *Handler) connFor(c quic.Conn) *conn {
	hc := h.conns[c]
	if hc != nil {
		return hc
	}
	if h.MetricsEnabled && h.metrics == nil {
		h.metrics = newMetrics()
	}
	hc = newConn(c, h.isClient, h.metrics)
	hc.onRequest = func(st *Stream, req Request) {
		if h.OnRequest != nil {
			h.OnRequest(c, st, req)
		}
	}
	h.conns[c] = hc
	return hc
}

func (h *Handler) Serve(c quic.Conn, events []transport.Event) {
	hc := h.connFor(c)
	hc.start()
	for _, e := range events {
		switch e.Type {
		case transport.EventStream:
			hc.onStreamReadable(e.StreamID)
		case transport.EventStreamReset, transport.EventStreamStop:
			hc.onStreamTerminated(e.StreamID)
		case quic.EventConnClose:
			delete(h.conns, c)
		}
	}
}

// Request issues req over c, which must be a connection already passed
// to Serve (i.e. dialed or accepted by the same endpoint this Handler is
// attached to).
func (h *Handler) Request(c quic.Conn, req Request, onResponse func(Response, []byte, error)) *Stream {
	hc := h.connFor(c)
	hc.start()
	return hc.Request(req, onResponse)
}

// Goaway sends GOAWAY on c's control stream, naming the highest stream id
// this endpoint will still process.
func (h *Handler) Goaway(c quic.Conn, streamID uint64) error {
	hc := h.conns[c]
	if hc == nil {
		return newError(ErrInternalError, "no http3 connection for c")
	}
	return hc.Goaway(streamID)
}

// Respond sends resp on st, completing a request the Handler's OnRequest
// callback was given.
func (h *Handler) Respond(c quic.Conn, st *Stream, resp Response) error {
	hc := h.conns[c]
	if hc == nil {
		return newError(ErrInternalError, "no http3 connection for c")
	}
	return hc.Respond(st.ID, resp)
}
