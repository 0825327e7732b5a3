package transport

// flowControl tracks both directions of flow control for a connection or a
// single stream (spec §4.10): how much the local side may still send
// (bounded by the peer's last-advertised MAX_DATA/MAX_STREAM_DATA) and how
// much credit the local side has advertised for the peer to send to it.
type flowControl struct {
	// Receive side: limits WE advertise to the peer.
	maxRecv     uint64
	maxRecvNext uint64
	recvBytes   uint64
	windowSize  uint64

	// Send side: limit the PEER has advertised to us.
	maxSend   uint64
	sendBytes uint64
}

func (f *flowControl) init(maxRecv, maxSend uint64) {
	f.maxRecv = maxRecv
	f.maxRecvNext = maxRecv
	f.windowSize = maxRecv
	f.maxSend = maxSend
}

// canRecv returns how many more bytes the peer may send us before hitting
// our currently advertised limit.
func (f *flowControl) canRecv() uint64 {
	if f.recvBytes >= f.maxRecv {
		return 0
	}
	return f.maxRecv - f.recvBytes
}

// addRecv records newly arrived bytes and, once more than half of the
// current window has been consumed, computes the next limit to advertise
// (spec §4.10: "advertises MAX_STREAM_DATA when half of the current
// per-stream window has been consumed").
func (f *flowControl) addRecv(n int) {
	f.recvBytes += uint64(n)
	if f.windowSize == 0 {
		return
	}
	half := f.windowSize / 2
	if f.maxRecv < half {
		return
	}
	if f.recvBytes >= f.maxRecv-half {
		next := f.recvBytes + f.windowSize
		if next > f.maxRecvNext {
			f.maxRecvNext = next
		}
	}
}

// shouldUpdateMaxRecv reports whether a new MAX_DATA/MAX_STREAM_DATA needs
// to be sent (send-once-per-new-limit, per spec §4.10).
func (f *flowControl) shouldUpdateMaxRecv() bool {
	return f.maxRecvNext > f.maxRecv
}

// commitMaxRecv is called once the MAX_DATA/MAX_STREAM_DATA frame carrying
// maxRecvNext has actually been placed into an outgoing packet.
func (f *flowControl) commitMaxRecv() {
	f.maxRecv = f.maxRecvNext
}

// forceUpdate schedules an immediate MAX_DATA/MAX_STREAM_DATA advertisement
// a full window ahead of the current limit, bypassing the half-window
// threshold in addRecv. Used when the peer reports DATA_BLOCKED/
// STREAM_DATA_BLOCKED: waiting for the next addRecv call to cross the
// threshold would needlessly stall it.
func (f *flowControl) forceUpdate() {
	next := f.recvBytes + f.windowSize
	if next > f.maxRecvNext {
		f.maxRecvNext = next
	}
}

// canSend returns how many more bytes we may send before hitting the
// peer's last-advertised limit.
func (f *flowControl) canSend() uint64 {
	if f.sendBytes >= f.maxSend {
		return 0
	}
	return f.maxSend - f.sendBytes
}

func (f *flowControl) addSend(n int) {
	f.sendBytes += uint64(n)
}

// setMaxSend installs a new peer-advertised limit; limits are monotonic; a
// peer may not legally lower MAX_DATA, so the smaller of duplicate/stale
// frames is simply ignored.
func (f *flowControl) setMaxSend(n uint64) {
	if n > f.maxSend {
		f.maxSend = n
	}
}
