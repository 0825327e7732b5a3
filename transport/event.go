package transport

// EventType identifies what an Event reports (spec §5: the application is
// notified of stream and connection activity through a flat event list
// rather than per-type callbacks).
type EventType int

const (
	// EventStream is sent when new data became available to read on a
	// stream, or the stream's reader has reached the end of a local FIN.
	EventStream EventType = iota + 1
	// EventStreamReset is sent when the peer abruptly terminated its
	// send side with RESET_STREAM.
	EventStreamReset
	// EventStreamStop is sent when the peer asked the local send side to
	// stop with STOP_SENDING.
	EventStreamStop
	// EventStreamComplete is sent once every byte written to a stream,
	// including its FIN, has been acknowledged.
	EventStreamComplete
)

func (t EventType) String() string {
	switch t {
	case EventStream:
		return "stream"
	case EventStreamReset:
		return "stream_reset"
	case EventStreamStop:
		return "stream_stop"
	case EventStreamComplete:
		return "stream_complete"
	default:
		return "unknown"
	}
}

// Event reports one piece of connection activity to the application,
// drained via Conn.Events.
type Event struct {
	Type      EventType
	StreamID  uint64
	ErrorCode uint64
}

func newStreamRecvEvent(streamID uint64) Event {
	return Event{Type: EventStream, StreamID: streamID}
}

func newStreamResetEvent(streamID, errorCode uint64) Event {
	return Event{Type: EventStreamReset, StreamID: streamID, ErrorCode: errorCode}
}

func newStreamStopEvent(streamID, errorCode uint64) Event {
	return Event{Type: EventStreamStop, StreamID: streamID, ErrorCode: errorCode}
}

func newStreamCompleteEvent(streamID uint64) Event {
	return Event{Type: EventStreamComplete, StreamID: streamID}
}
