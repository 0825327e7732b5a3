package transport

import "time"

// outgoingPacket collects the frames placed into one packet while it is
// being assembled, so that loss recovery can later retransmit or forget
// them as a unit (spec §4.7/§9: "sent-packet records hold (frames, size,
// ack-eliciting, time-sent), never a Stream pointer").
type outgoingPacket struct {
	packetNumber uint64
	frames       []frame
	size         uint64
	ackEliciting bool
	inFlight     bool
	timeSent     time.Time
}

func newOutgoingPacket(pn uint64, now time.Time) *outgoingPacket {
	return &outgoingPacket{
		packetNumber: pn,
		timeSent:     now,
	}
}

func (op *outgoingPacket) addFrame(f frame) {
	op.frames = append(op.frames, f)
	if isFrameAckEliciting(frameTypeOf(f)) {
		op.ackEliciting = true
		op.inFlight = true
	}
}

// frameTypeOf returns the wire type byte of f, used only to classify it as
// ack-eliciting when added to an outgoingPacket.
func frameTypeOf(f frame) uint64 {
	switch v := f.(type) {
	case *paddingFrame:
		return frameTypePadding
	case *pingFrame:
		return frameTypePing
	case *ackFrame:
		return frameTypeAck
	case *resetStreamFrame:
		return frameTypeResetStream
	case *stopSendingFrame:
		return frameTypeStopSending
	case *cryptoFrame:
		return frameTypeCrypto
	case *newTokenFrame:
		return frameTypeNewToken
	case *streamFrame:
		return v.typeByte()
	case *maxDataFrame:
		return frameTypeMaxData
	case *maxStreamDataFrame:
		return frameTypeMaxStreamData
	case *maxStreamsFrame:
		return v.typ()
	case *dataBlockedFrame:
		return frameTypeDataBlocked
	case *streamDataBlockedFrame:
		return frameTypeStreamDataBlocked
	case *streamsBlockedFrame:
		return v.typ()
	case *newConnectionIDFrame:
		return frameTypeNewConnectionID
	case *retireConnectionIDFrame:
		return frameTypeRetireConnectionID
	case *pathChallengeFrame:
		return frameTypePathChallenge
	case *pathResponseFrame:
		return frameTypePathResponse
	case *connectionCloseFrame:
		return v.typ()
	case *handshakeDoneFrame:
		return frameTypeHanshakeDone
	default:
		return frameTypePadding
	}
}
