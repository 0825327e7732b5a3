package transport

import "io"

// sendBuffer is the per-stream (or per-crypto-level) outgoing byte buffer
// (spec §3.4, §4.3). Bytes are appended once by the application and may be
// popped for sending multiple times (retransmission reuses the same
// backing array by reference, never copying); acknowledged bytes are
// trimmed from the front once no longer needed.
type sendBuffer struct {
	buf       []byte
	base      uint64 // offset of buf[0]
	sendNext  uint64 // next byte offset to pop for a first transmission
	length    int64  // not set or read by sendBuffer's methods
	finalSize int64  // offset of the byte after the last one, -1 until closed
	finAcked  bool
}

func (s *sendBuffer) init() {
	s.finalSize = -1
}

// write appends to the stream; it is illegal to write after close.
func (s *sendBuffer) write(p []byte) error {
	if s.finalSize >= 0 {
		return newError(StreamStateError, "write after close")
	}
	s.buf = append(s.buf, p...)
	return nil
}

// closeWrite marks the final size as fixed at the current write offset.
func (s *sendBuffer) closeWrite() {
	if s.finalSize < 0 {
		s.finalSize = int64(s.base) + int64(len(s.buf))
	}
}

// popSend returns up to max unsent bytes starting at sendNext, advancing
// sendNext. fin is true when the returned span reaches the final size.
func (s *sendBuffer) popSend(max int) (data []byte, offset uint64, fin bool) {
	avail := s.base + uint64(len(s.buf)) - s.sendNext
	n := max
	if uint64(n) > avail {
		n = int(avail)
	}
	if n < 0 {
		n = 0
	}
	start := s.sendNext - s.base
	data = s.buf[start : start+uint64(n)]
	offset = s.sendNext
	s.sendNext += uint64(n)
	fin = s.finalSize >= 0 && int64(s.sendNext) == s.finalSize && n >= 0
	return data, offset, fin
}

// push re-queues a byte range for retransmission after loss: the bytes are
// still resident in buf (never evicted until acked), so this only rewinds
// sendNext when the lost range starts before it.
func (s *sendBuffer) push(data []byte, offset uint64, fin bool) error {
	if offset < s.sendNext {
		s.sendNext = offset
	}
	return nil
}

// ack discards acknowledged bytes from the front of the buffer once the
// acked range is contiguous with base.
func (s *sendBuffer) ack(offset, length uint64) {
	end := offset + length
	if offset <= s.base && end > s.base {
		trim := end - s.base
		if trim > uint64(len(s.buf)) {
			trim = uint64(len(s.buf))
		}
		s.buf = s.buf[trim:]
		s.base += trim
	}
	if s.finalSize >= 0 && end >= uint64(s.finalSize) {
		s.finAcked = true
	}
}

func (s *sendBuffer) complete() bool {
	return s.finalSize >= 0 && s.finAcked
}

// hasPending reports whether there is unsent data or an unsent FIN.
func (s *sendBuffer) hasPending() bool {
	avail := s.base + uint64(len(s.buf))
	if s.sendNext < avail {
		return true
	}
	return s.finalSize >= 0 && uint64(s.finalSize) > s.sendNext
}

// recvReassembler reorders received bytes by offset and exposes a
// contiguous, in-order prefix to the application (spec §3.4: "gaps buffer
// until filled").
type recvReassembler struct {
	ready     []byte // contiguous bytes beyond readOffset, not yet delivered
	readOffset uint64
	pending   map[uint64][]byte // offset -> data, for out-of-order arrivals
	finalSize int64             // -1 until FIN or RESET_STREAM received
	isReset   bool
}

func (s *recvReassembler) init() {
	s.finalSize = -1
	s.pending = make(map[uint64][]byte)
}

// pushRecv inserts a STREAM frame's payload, draining any now-contiguous
// pending fragments into ready.
func (s *recvReassembler) pushRecv(data []byte, offset uint64, fin bool) error {
	if s.isReset {
		return nil
	}
	end := offset + uint64(len(data))
	if fin {
		if s.finalSize >= 0 && uint64(s.finalSize) != end {
			return newError(FinalSizeError, "stream fin size mismatch")
		}
		s.finalSize = int64(end)
	} else if s.finalSize >= 0 && end > uint64(s.finalSize) {
		return newError(FinalSizeError, "stream data beyond final size")
	}
	contiguousEnd := s.readOffset + uint64(len(s.ready))
	switch {
	case offset > contiguousEnd:
		s.pending[offset] = append([]byte(nil), data...)
	case offset+uint64(len(data)) <= contiguousEnd:
		// Fully duplicate; nothing to do.
	default:
		skip := uint64(0)
		if offset < contiguousEnd {
			skip = contiguousEnd - offset
		}
		s.ready = append(s.ready, data[skip:]...)
		s.drainPending()
	}
	return nil
}

func (s *recvReassembler) drainPending() {
	for {
		contiguousEnd := s.readOffset + uint64(len(s.ready))
		chunk, ok := s.pending[contiguousEnd]
		if !ok {
			return
		}
		delete(s.pending, contiguousEnd)
		s.ready = append(s.ready, chunk...)
	}
}

// read copies ready bytes into p. It returns io.EOF once the final size has
// been reached and fully delivered, or once the stream has been reset.
func (s *recvReassembler) read(p []byte) (int, error) {
	if s.isReset {
		return 0, io.EOF
	}
	if len(s.ready) == 0 {
		if s.finalSize >= 0 && s.readOffset == uint64(s.finalSize) {
			return 0, io.EOF
		}
		return 0, nil
	}
	n := copy(p, s.ready)
	s.ready = s.ready[n:]
	s.readOffset += uint64(n)
	return n, nil
}

// reset discards buffered bytes on RESET_STREAM, returning the number of
// previously-buffered-but-undelivered bytes it discarded (spec §4.10:
// "RESET_STREAM sets final_size immediately and discards buffered recv
// bytes"). It does not touch flow control accounting itself.
func (s *recvReassembler) reset(finalSize uint64) (int, error) {
	if s.finalSize >= 0 && uint64(s.finalSize) != finalSize {
		return 0, newError(FinalSizeError, "reset_stream final size mismatch")
	}
	s.finalSize = int64(finalSize)
	s.isReset = true
	discarded := len(s.ready)
	for _, v := range s.pending {
		discarded += len(v)
	}
	s.ready = nil
	s.pending = make(map[uint64][]byte)
	return discarded, nil
}
