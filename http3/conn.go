package http3

import (
	"github.com/goburrow/quic"
	"github.com/goburrow/quic/qpack"
)

// Unidirectional stream type codes a receiver reads off the first byte of
// a peer-initiated unidirectional stream (RFC 9114 §6.2).
const (
	streamTypeControl      = 0x00
	streamTypePush         = 0x01
	streamTypeQPACKEncoder = 0x02
	streamTypeQPACKDecoder = 0x03
)

// Stream is the application-facing handle for one request (client) or one
// request being served (server): the underlying bidirectional QUIC stream
// plus its id, handed to Handler callbacks.
type Stream struct {
	ID uint64
	qs quic.Stream
}

// Write sends body bytes framed as a DATA frame.
func (s *Stream) Write(p []byte) (int, error) {
	return s.qs.Write(appendFrame(nil, frameTypeData, p))
}

// Close finishes the stream's send side (no more DATA/trailers follow).
func (s *Stream) Close() error {
	return s.qs.Close()
}

// conn is one HTTP/3 mapping instance over a QUIC connection: the three
// mandatory unidirectional streams, request-stream bookkeeping, and QPACK
// wiring (spec §4.16).
type conn struct {
	qc       quic.Conn
	isClient bool
	m        *metrics

	nextUni  uint64
	nextBidi uint64

	localControlID uint64
	localEncoderID uint64
	localDecoderID uint64
	started        bool

	peerControlID  uint64
	peerEncoderID  uint64
	peerDecoderID  uint64
	havePeerControl bool
	havePeerEncoder bool
	havePeerDecoder bool

	controlParser frameParser

	encoder *qpack.Encoder
	decoder *qpack.Decoder

	sentGoaway, recvGoaway bool
	goawayID               uint64

	peerSettings Settings

	requests map[uint64]*requestState

	onRequest func(*Stream, Request)
}

// requestState tracks one request/response stream's parse progress:
// HEADERS must arrive (and be QPACK-decodable) before any DATA is
// meaningful, and a section blocked on the dynamic table must be retried
// once more encoder-stream instructions land (spec §4.15.5).
type requestState struct {
	id           uint64
	qs           quic.Stream
	parser       frameParser
	headers      []byte // pending encoded field section while blocked
	decodedFields []qpack.HeaderField
	haveHeaders  bool
	blocked      bool
	body         []byte
	fin          bool
	responded    bool // on_response / on_request already fired (trailers ignored beyond that)

	// onResponse is set only for client-initiated request streams; it is
	// this request's own continuation, not shared across requests.
	onResponse func(Response, []byte, error)
}

func newConn(qc quic.Conn, isClient bool, m *metrics) *conn {
	return &conn{
		qc:       qc,
		isClient: isClient,
		m:        m,
		requests: make(map[uint64]*requestState),
	}
}

func (c *conn) uniKind() uint64 {
	if c.isClient {
		return 0x2
	}
	return 0x3
}

func (c *conn) openUni() (uint64, quic.Stream) {
	id := c.uniKind() | (c.nextUni << 2)
	c.nextUni++
	return id, c.qc.Stream(id)
}

// start opens the three mandatory unidirectional streams and sends the
// local SETTINGS frame, the first frame the control stream MUST carry.
func (c *conn) start() {
	if c.started {
		return
	}
	c.started = true

	var st quic.Stream
	c.localControlID, st = c.openUni()
	st.Write([]byte{streamTypeControl})
	settings := Settings{
		QPACKMaxTableCapacity: 4096,
		QPACKBlockedStreams:   16,
	}
	st.Write(appendFrame(nil, frameTypeSettings, encodeSettings(settings)))

	c.localEncoderID, st = c.openUni()
	st.Write([]byte{streamTypeQPACKEncoder})
	c.encoder = qpack.NewEncoder(st)

	c.localDecoderID, st = c.openUni()
	st.Write([]byte{streamTypeQPACKDecoder})
	c.decoder = qpack.NewDecoder(st)
}

// Request sends req on a freshly opened client-initiated bidirectional
// stream and registers onResponse to be called once the response is fully
// decoded (spec §6.3's request/on_response pair).
func (c *conn) Request(req Request, onResponse func(Response, []byte, error)) *Stream {
	id := c.nextBidi << 2
	if c.sentGoaway && id > c.goawayID {
		if onResponse != nil {
			onResponse(Response{}, nil, newError(ErrRequestRejected, "goaway sent"))
		}
		return nil
	}
	c.nextBidi++
	qs := c.qc.Stream(id)
	rs := &requestState{id: id, qs: qs, onResponse: onResponse}
	c.requests[id] = rs
	section := req.encodeFieldSection(c.encoder)
	qs.Write(appendFrame(nil, frameTypeHeaders, section))
	if len(req.Body) > 0 {
		qs.Write(appendFrame(nil, frameTypeData, req.Body))
	}
	qs.Close()
	return &Stream{ID: id, qs: qs}
}

// Respond sends resp on the request stream that id names, completing the
// server side of one request (spec §6.3: "server: on_request(req, respond)").
func (c *conn) Respond(id uint64, resp Response) error {
	rs := c.requests[id]
	if rs == nil {
		return newError(ErrIDError, "unknown request stream")
	}
	section := resp.encodeFieldSection(c.encoder)
	if _, err := rs.qs.Write(appendFrame(nil, frameTypeHeaders, section)); err != nil {
		return err
	}
	if len(resp.Body) > 0 {
		if _, err := rs.qs.Write(appendFrame(nil, frameTypeData, resp.Body)); err != nil {
			return err
		}
	}
	return rs.qs.Close()
}

// Goaway sends a GOAWAY naming the highest stream id this endpoint will
// still process (spec §4.16); the caller must not initiate any stream id
// above it afterwards.
func (c *conn) Goaway(streamID uint64) error {
	c.sentGoaway = true
	c.goawayID = streamID
	_, err := c.control().Write(appendFrame(nil, frameTypeGoaway, encodeGoaway(streamID)))
	return err
}

func (c *conn) control() quic.Stream {
	return c.qc.Stream(c.localControlID)
}

// onStreamReadable pulls newly available bytes from id and advances
// whichever role that stream plays (still-being-classified peer
// unidirectional stream, control, QPACK encoder/decoder, or a request).
func (c *conn) onStreamReadable(id uint64) {
	if isStreamBidiID(id) {
		c.onRequestReadable(id)
		return
	}
	c.onUniReadable(id)
}

func isStreamBidiID(id uint64) bool {
	return id&0x2 == 0
}

// readAll drains every byte currently buffered on qs, reporting fin if
// the peer's FIN was reached (io.EOF from Read).
func (c *conn) readAll(qs quic.Stream) (out []byte, fin bool) {
	buf := make([]byte, 4096)
	for {
		n, err := qs.Read(buf)
		if n > 0 {
			out = append(out, buf[:n]...)
		}
		if err != nil {
			return out, true
		}
		if n == 0 {
			return out, false
		}
	}
}

func (c *conn) onUniReadable(id uint64) {
	qs := c.qc.Stream(id)
	if !c.classified(id) {
		b, _ := c.readAll(qs)
		if len(b) == 0 {
			return
		}
		typ, n := getVarint(b)
		if n == 0 {
			return
		}
		rest := b[n:]
		switch typ {
		case streamTypeControl:
			c.peerControlID, c.havePeerControl = id, true
		case streamTypeQPACKEncoder:
			c.peerEncoderID, c.havePeerEncoder = id, true
		case streamTypeQPACKDecoder:
			c.peerDecoderID, c.havePeerDecoder = id, true
		case streamTypePush:
			// Server push is accepted for parsing but not surfaced to the
			// application; RFC 9114 permits rejecting it outright too, but
			// decoding keeps the stream's framing well-formed for peers
			// that assume a CANCEL_PUSH round trip.
		default:
			return
		}
		c.dispatchUni(id, typ, rest)
		return
	}
	b, _ := c.readAll(qs)
	typ := c.roleOf(id)
	c.dispatchUni(id, typ, b)
}

func (c *conn) classified(id uint64) bool {
	return (c.havePeerControl && id == c.peerControlID) ||
		(c.havePeerEncoder && id == c.peerEncoderID) ||
		(c.havePeerDecoder && id == c.peerDecoderID)
}

func (c *conn) roleOf(id uint64) uint64 {
	switch {
	case id == c.peerControlID:
		return streamTypeControl
	case id == c.peerEncoderID:
		return streamTypeQPACKEncoder
	case id == c.peerDecoderID:
		return streamTypeQPACKDecoder
	default:
		return streamTypePush
	}
}

func (c *conn) dispatchUni(id, typ uint64, b []byte) {
	switch typ {
	case streamTypeControl:
		c.controlParser.feed(b)
		for {
			f, ok, err := c.controlParser.next()
			if err != nil || !ok {
				return
			}
			c.handleControlFrame(f)
		}
	case streamTypeQPACKEncoder:
		for len(b) > 0 {
			n, err := c.decoder.ApplyInstruction(b)
			if err != nil || n == 0 {
				return
			}
			b = b[n:]
		}
		c.retryBlocked()
	case streamTypeQPACKDecoder:
		// Section Acknowledgement / Insert Count Increment / Stream
		// Cancellation instructions from the peer's decoder: this
		// encoder never blocks on them (never-index-inline policy), so
		// they are only consumed to keep the stream's flow control
		// moving.
	}
}

func (c *conn) handleControlFrame(f Frame) {
	switch f.Type {
	case frameTypeSettings:
		s, err := decodeSettings(f.Payload)
		if err != nil {
			c.qc.Close(uint64(ErrSettingsError), "malformed settings")
			return
		}
		c.peerSettings = s
		if c.encoder != nil && s.QPACKMaxTableCapacity > 0 {
			c.encoder.SetMaxTableCapacity(s.QPACKMaxTableCapacity)
		}
	case frameTypeGoaway:
		id, err := decodeGoaway(f.Payload)
		if err != nil {
			c.qc.Close(uint64(ErrFrameError), "malformed goaway")
			return
		}
		c.recvGoaway = true
		c.goawayID = id
		c.cancelAbove(id)
	case frameTypeMaxPushID, frameTypeCancelPush:
		// Parsed for framing correctness; push is not exercised further.
	default:
		if f.IsHeaders() || f.IsData() {
			c.qc.Close(uint64(ErrFrameUnexpected), "HEADERS/DATA on control stream")
		}
	}
}

// cancelAbove drops any tracked request whose stream id is above a
// peer-announced GOAWAY id: the peer has said it will not process those
// requests, so there is nothing left to wait for on them (spec §4.16).
func (c *conn) cancelAbove(id uint64) {
	for sid, rs := range c.requests {
		if sid > id {
			if rs.blocked {
				c.decoder.CancelStream(sid)
			}
			delete(c.requests, sid)
		}
	}
}

func (c *conn) onRequestReadable(id uint64) {
	rs := c.requests[id]
	qs := c.qc.Stream(id)
	if rs == nil {
		rs = &requestState{id: id, qs: qs}
		c.requests[id] = rs
	}
	b, fin := c.readAll(qs)
	if fin {
		rs.fin = true
	}
	rs.parser.feed(b)
	for {
		f, ok, err := rs.parser.next()
		if err != nil {
			delete(c.requests, id)
			return
		}
		if !ok {
			break
		}
		switch {
		case f.IsHeaders():
			rs.headers = f.Payload
			rs.haveHeaders = false
			c.decodeHeaders(rs)
		case f.IsData():
			rs.body = append(rs.body, f.Payload...)
		}
	}
	c.maybeComplete(rs)
}

// decodeHeaders attempts to QPACK-decode rs's pending field section,
// tracking blocked-stream state via m (spec §4.15.5). It only decodes;
// maybeComplete decides when enough of the stream has arrived to hand the
// result to the application.
func (c *conn) decodeHeaders(rs *requestState) {
	fields, err := c.decoder.DecodeFieldSection(rs.headers)
	if err == qpack.ErrBlocked {
		if !rs.blocked {
			rs.blocked = true
			if c.m != nil {
				c.m.incBlocked()
			}
		}
		return
	}
	if rs.blocked {
		rs.blocked = false
		if c.m != nil {
			c.m.decBlocked()
		}
	}
	if err != nil {
		delete(c.requests, rs.id)
		return
	}
	rs.haveHeaders = true
	rs.decodedFields = fields
	c.decoder.AckStream(rs.id)
}

// maybeComplete fires the request/response callback once the stream's
// FIN has been seen and its header section has decoded cleanly: the
// application API hands over the whole message at once rather than
// streaming it incrementally.
func (c *conn) maybeComplete(rs *requestState) {
	if rs.responded || !rs.fin || !rs.haveHeaders || rs.blocked {
		return
	}
	rs.responded = true
	if c.isClient {
		resp, err := decodeResponse(rs.decodedFields)
		if rs.onResponse != nil {
			rs.onResponse(resp, rs.body, err)
		}
		return
	}
	req, err := decodeRequest(rs.decodedFields)
	if err != nil {
		return
	}
	req.Body = rs.body
	if c.onRequest != nil {
		c.onRequest(&Stream{ID: rs.id, qs: rs.qs}, req)
	}
}

// retryBlocked re-attempts every request stream blocked on the dynamic
// table once new encoder-stream instructions have been applied.
func (c *conn) retryBlocked() {
	for _, rs := range c.requests {
		if rs.blocked {
			c.decodeHeaders(rs)
			c.maybeComplete(rs)
		}
	}
}

func (c *conn) onStreamTerminated(id uint64) {
	if rs, ok := c.requests[id]; ok {
		if rs.blocked {
			c.decoder.CancelStream(id)
		}
		delete(c.requests, id)
	}
}
