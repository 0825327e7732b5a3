package transport

import "io"

// Stream send-side states (spec §3.4).
type sendState int

const (
	sendStateReady sendState = iota
	sendStateSend
	sendStateDataSent
	sendStateResetSent
	sendStateResetRecvd
	sendStateDataRecvd
)

// Stream recv-side states (spec §3.4).
type recvState int

const (
	recvStateRecv recvState = iota
	recvStateSizeKnown
	recvStateDataRecvd
	recvStateDataRead
	recvStateResetRecvd
	recvStateResetRead
)

// Stream is one QUIC stream's complete send/recv state (spec §3.4). A
// connection is the sole owner; sent-packet records never hold a pointer
// to a Stream, only its id plus (offset, length), so dropping a record
// never needs a back-edge traversal (spec §9).
type Stream struct {
	id   uint64
	send sendBuffer
	recv recvReassembler
	flow flowControl

	// connFlow aggregates bytes received across every stream on the
	// connection against the connection-level MAX_DATA.
	connFlow *flowControl

	sendSt sendState
	recvSt recvState

	updateMaxData bool // a new MAX_STREAM_DATA needs sending
	resetCode     uint64
	resetFinalSize uint64 // final_size to carry on the RESET_STREAM frame
	resetSent     bool    // RESET_STREAM already placed into a packet
	stopCode      uint64
	stopped       bool
	stopSendingSent bool // STOP_SENDING already placed into a packet

	priority uint8 // lower value sends first; default 0
}

// SetPriority changes the order streams are visited when assembling STREAM
// frames: lower values are served first. Ties break by stream ID.
func (s *Stream) SetPriority(p uint8) {
	s.priority = p
}

func newStream(id uint64) *Stream {
	st := &Stream{id: id}
	st.send.init()
	st.recv.init()
	return st
}

// ID returns the stream's 62-bit identifier.
func (s *Stream) ID() uint64 { return s.id }

// Write appends bytes to the stream's send buffer. The bytes are not sent
// immediately; the connection's send-assembly loop (spec §4.12) pulls from
// the buffer subject to flow control and congestion allowance.
func (s *Stream) Write(p []byte) (int, error) {
	if s.sendSt == sendStateResetSent || s.sendSt == sendStateResetRecvd {
		return 0, newError(StreamStateError, "write to reset stream")
	}
	if err := s.send.write(p); err != nil {
		return 0, err
	}
	if s.sendSt == sendStateReady {
		s.sendSt = sendStateSend
	}
	return len(p), nil
}

// Close marks the stream's final size, causing a FIN to be sent once the
// remaining buffered bytes are flushed.
func (s *Stream) Close() error {
	s.send.closeWrite()
	if s.sendSt == sendStateReady {
		s.sendSt = sendStateSend
	}
	return nil
}

// Read copies already-reassembled, in-order bytes to p. It returns io.EOF
// once the peer's FIN has been reached and fully delivered (spec §3.4:
// DataRead).
func (s *Stream) Read(p []byte) (int, error) {
	if s.recvSt == recvStateResetRecvd || s.recvSt == recvStateResetRead {
		s.recvSt = recvStateResetRead
		return 0, newError(StreamStateError, "read from reset stream")
	}
	n, err := s.recv.read(p)
	if err == io.EOF {
		s.recvSt = recvStateDataRead
	}
	return n, err
}

// pushRecv inserts an incoming STREAM frame payload and advances the
// recv-side state machine.
func (s *Stream) pushRecv(data []byte, offset uint64, fin bool) error {
	if err := s.recv.pushRecv(data, offset, fin); err != nil {
		return err
	}
	if fin {
		s.recvSt = recvStateSizeKnown
	}
	return nil
}

// popSend returns up to max bytes ready to be placed in a STREAM frame.
func (s *Stream) popSend(max int) (data []byte, offset uint64, fin bool) {
	data, offset, fin = s.send.popSend(max)
	if len(data) == 0 && !fin {
		return nil, 0, false
	}
	if fin {
		s.sendSt = sendStateDataSent
	}
	return data, offset, fin
}

// ackMaxData commits a MAX_STREAM_DATA advertisement once it has actually
// been sent.
func (s *Stream) ackMaxData() {
	s.flow.commitMaxRecv()
	s.updateMaxData = false
}

// Reset abruptly terminates the send side (spec §5: application-initiated
// stream reset).
func (s *Stream) Reset(code uint64) {
	if s.sendSt == sendStateResetSent || s.sendSt == sendStateResetRecvd {
		return
	}
	s.resetCode = code
	s.resetFinalSize = s.send.base + uint64(len(s.send.buf))
	s.sendSt = sendStateResetSent
	s.resetSent = false
	s.send.buf = nil
}

// StopSending requests that the peer stop sending on this stream.
func (s *Stream) StopSending(code uint64) {
	s.stopped = true
	s.stopCode = code
}
