package http3

// Frame type codes (RFC 9114 §7.2). Reserved types of the form 0x1f*N+0x21
// are GREASE and MUST be ignored by a compliant receiver.
const (
	frameTypeData        = 0x0
	frameTypeHeaders     = 0x1
	frameTypeCancelPush  = 0x3
	frameTypeSettings    = 0x4
	frameTypePushPromise = 0x5
	frameTypeGoaway      = 0x7
	frameTypeMaxPushID   = 0xd
)

// isGrease reports whether typ is a reserved frame type an endpoint must
// silently skip (RFC 9114 §7.2.8).
func isGrease(typ uint64) bool {
	return typ >= 0x21 && (typ-0x21)%0x1f == 0
}

// Frame is one decoded HTTP/3 frame: type plus raw payload. HEADERS and
// DATA payloads are opaque to the frame layer (QPACK-coded field sections
// and body bytes respectively); SETTINGS/GOAWAY/MAX_PUSH_ID/CANCEL_PUSH
// payloads are interpreted by their own decode helpers below.
type Frame struct {
	Type    uint64
	Payload []byte
}

// IsData reports whether f carries a DATA frame's body bytes.
func (f Frame) IsData() bool { return f.Type == frameTypeData }

// IsHeaders reports whether f carries a HEADERS frame's QPACK-coded field
// section.
func (f Frame) IsHeaders() bool { return f.Type == frameTypeHeaders }

// appendFrame appends typ's varint, payload's length varint, then payload.
func appendFrame(dst []byte, typ uint64, payload []byte) []byte {
	dst = appendVarint(dst, typ)
	dst = appendVarint(dst, uint64(len(payload)))
	dst = append(dst, payload...)
	return dst
}

// frameParser incrementally reassembles frames out of bytes fed across
// possibly many STREAM frame deliveries (a control or request stream's
// data arrives in arbitrarily-sized chunks relative to frame boundaries).
type frameParser struct {
	buf []byte
}

func (p *frameParser) feed(b []byte) {
	p.buf = append(p.buf, b...)
}

// next returns the next complete frame in the buffer, if one has fully
// arrived. ok is false (with no error) when more bytes are needed.
func (p *frameParser) next() (f Frame, ok bool, err error) {
	for {
		typ, n := getVarint(p.buf)
		if n == 0 {
			return Frame{}, false, nil
		}
		length, ln := getVarint(p.buf[n:])
		if ln == 0 {
			return Frame{}, false, nil
		}
		header := n + ln
		if uint64(len(p.buf)-header) < length {
			return Frame{}, false, nil
		}
		payload := p.buf[header : header+int(length)]
		p.buf = p.buf[header+int(length):]
		if isGrease(typ) {
			continue
		}
		out := make([]byte, len(payload))
		copy(out, payload)
		return Frame{Type: typ, Payload: out}, true, nil
	}
}
