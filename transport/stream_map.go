package transport

// isStreamLocal reports whether id was (or would be) opened by the local
// endpoint, given its role.
func isStreamLocal(id uint64, isClient bool) bool {
	clientInitiated := id&0x1 == 0
	return clientInitiated == isClient
}

// isStreamBidi reports whether id names a bidirectional stream (spec §4.10:
// "directionality = kind & 0x2").
func isStreamBidi(id uint64) bool {
	return id&0x2 == 0
}

// streamMap owns every Stream on a connection, keyed by id (spec §9: "the
// connection is the sole owner; streams are stored by id in a map").
type streamMap struct {
	streams map[uint64]*Stream

	localMaxBidi, localMaxUni uint64 // limit we grant to peer-initiated streams
	peerMaxBidi, peerMaxUni   uint64 // limit the peer grants to locally-opened streams

	nextLocalBidi, nextLocalUni uint64 // next raw index for locally opened streams

	updateMaxStreamsBidi, updateMaxStreamsUni bool // a new MAX_STREAMS needs sending
}

func (m *streamMap) init(maxStreamsBidi, maxStreamsUni uint64) {
	m.streams = make(map[uint64]*Stream)
	m.localMaxBidi = maxStreamsBidi
	m.localMaxUni = maxStreamsUni
}

func (m *streamMap) get(id uint64) *Stream {
	return m.streams[id]
}

// create allocates a new Stream for id; for a peer-initiated id it also
// implicitly creates any lower-numbered streams of the same kind that do
// not yet exist (spec §4.10: "the engine MUST implicitly create all
// intervening streams").
func (m *streamMap) create(id uint64, local, bidi bool) (*Stream, error) {
	kind := id & 0x3
	n := id >> 2
	if !local {
		limit := m.localMaxUni
		if bidi {
			limit = m.localMaxBidi
		}
		if n >= limit {
			return nil, newError(StreamLimitError, "stream limit exceeded")
		}
		for i := uint64(0); i < n; i++ {
			sid := kind | (i << 2)
			if _, ok := m.streams[sid]; !ok {
				m.streams[sid] = newStream(sid)
			}
		}
	} else {
		limit := m.peerMaxUni
		if bidi {
			limit = m.peerMaxBidi
		}
		if n >= limit {
			return nil, newError(StreamLimitError, "peer stream limit exceeded")
		}
	}
	st := newStream(id)
	m.streams[id] = st
	return st, nil
}

// openLocal allocates the next locally-initiated stream id of the given
// kind for the application (spec §6.3: open_stream).
func (m *streamMap) openLocal(isClient, bidi bool) (*Stream, error) {
	var kind uint64
	if !isClient {
		kind |= 0x1
	}
	var n *uint64
	var limit uint64
	if bidi {
		n = &m.nextLocalBidi
		limit = m.peerMaxBidi
	} else {
		kind |= 0x2
		n = &m.nextLocalUni
		limit = m.peerMaxUni
	}
	if *n >= limit {
		return nil, newError(StreamLimitError, "local stream limit exceeded")
	}
	id := kind | (*n << 2)
	*n++
	st := newStream(id)
	m.streams[id] = st
	return st, nil
}

func (m *streamMap) setPeerMaxStreamsBidi(max uint64) {
	if max > m.peerMaxBidi {
		m.peerMaxBidi = max
	}
}

func (m *streamMap) setPeerMaxStreamsUni(max uint64) {
	if max > m.peerMaxUni {
		m.peerMaxUni = max
	}
}

// bumpLocalMaxStreams raises the limit we grant the peer for one stream
// kind by one and schedules a MAX_STREAMS frame, in response to a
// STREAMS_BLOCKED frame reporting the peer is stalled at its current limit.
func (m *streamMap) bumpLocalMaxStreams(bidi bool) {
	if bidi {
		m.localMaxBidi++
		m.updateMaxStreamsBidi = true
	} else {
		m.localMaxUni++
		m.updateMaxStreamsUni = true
	}
}

// remove discards a stream's state once both directions have reached a
// terminal state (spec §3.4's "terminal states"); called from the
// connection once it determines neither side can produce or consume more
// data for id.
func (m *streamMap) remove(id uint64) {
	delete(m.streams, id)
}

// hasFlushable reports whether any stream has unsent bytes or an unsent
// FIN (used by the send-assembly loop, spec §4.12).
func (m *streamMap) hasFlushable() bool {
	for _, st := range m.streams {
		if st.send.hasPending() {
			return true
		}
	}
	return false
}
