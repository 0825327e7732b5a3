package transport

// Frame type codes (RFC 9000 §19).
const (
	frameTypePadding             = 0x00
	frameTypePing                = 0x01
	frameTypeAck                 = 0x02
	frameTypeAckECN              = 0x03
	frameTypeResetStream         = 0x04
	frameTypeStopSending         = 0x05
	frameTypeCrypto              = 0x06
	frameTypeNewToken            = 0x07
	frameTypeStream              = 0x08
	frameTypeStreamEnd           = 0x0f
	frameTypeMaxData             = 0x10
	frameTypeMaxStreamData       = 0x11
	frameTypeMaxStreamsBidi      = 0x12
	frameTypeMaxStreamsUni       = 0x13
	frameTypeDataBlocked         = 0x14
	frameTypeStreamDataBlocked   = 0x15
	frameTypeStreamsBlockedBidi  = 0x16
	frameTypeStreamsBlockedUni   = 0x17
	frameTypeNewConnectionID     = 0x18
	frameTypeRetireConnectionID  = 0x19
	frameTypePathChallenge       = 0x1a
	frameTypePathResponse        = 0x1b
	frameTypeConnectionClose     = 0x1c
	frameTypeApplicationClose    = 0x1d
	frameTypeHanshakeDone        = 0x1e
)

// isFrameAckEliciting reports whether receiving a frame of type typ requires
// the receiver to eventually send an ACK (every frame except ACK, PADDING
// and CONNECTION_CLOSE, per RFC 9000 §13.2).
func isFrameAckEliciting(typ uint64) bool {
	switch typ {
	case frameTypePadding, frameTypeAck, frameTypeAckECN,
		frameTypeConnectionClose, frameTypeApplicationClose:
		return false
	default:
		return true
	}
}
