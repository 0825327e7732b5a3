package transport

// frame is any QUIC frame that can be packed into a packet payload (spec
// §4.4). Decoding is single-pass with strict bound checking; any malformed
// input yields FrameEncodingError rather than partial state.
type frame interface {
	encodedLen() int
	encode(b []byte) (int, error)
}

func frameDecodeErr(msg string) error {
	return newError(FrameEncodingError, msg)
}

// --- PADDING ---

type paddingFrame struct {
	length int
}

func newPaddingFrame(n int) *paddingFrame { return &paddingFrame{length: n} }

func (f *paddingFrame) encodedLen() int { return f.length }

func (f *paddingFrame) encode(b []byte) (int, error) {
	if len(b) < f.length {
		return 0, errShortBuffer
	}
	for i := 0; i < f.length; i++ {
		b[i] = 0
	}
	return f.length, nil
}

func (f *paddingFrame) decode(b []byte) (int, error) {
	n := 0
	for n < len(b) && b[n] == frameTypePadding {
		n++
	}
	f.length = n
	if n == 0 {
		return 0, frameDecodeErr("empty padding")
	}
	return n, nil
}

// --- PING ---

type pingFrame struct{}

func (f *pingFrame) encodedLen() int { return 1 }

func (f *pingFrame) encode(b []byte) (int, error) {
	if len(b) < 1 {
		return 0, errShortBuffer
	}
	b[0] = frameTypePing
	return 1, nil
}

// --- ACK ---

type ackFrame struct {
	largestAck      uint64
	ackDelay        uint64
	firstAckRange   uint64
	ranges          []pnRange // additional ranges below the first, descending
}

func newAckFrame(ackDelay uint64, recv rangeSet) *ackFrame {
	desc := recv.descending()
	f := &ackFrame{ackDelay: ackDelay}
	if len(desc) == 0 {
		return f
	}
	f.largestAck = desc[0].end
	f.firstAckRange = desc[0].end - desc[0].start
	f.ranges = desc[1:]
	return f
}

func (f *ackFrame) encodedLen() int {
	n := varintLen(frameTypeAck) + varintLen(f.largestAck) + varintLen(f.ackDelay) +
		varintLen(uint64(len(f.ranges))) + varintLen(f.firstAckRange)
	prevSmallest := f.largestAck - f.firstAckRange
	for _, r := range f.ranges {
		gap := prevSmallest - r.end - 2
		n += varintLen(gap) + varintLen(r.end-r.start)
		prevSmallest = r.start
	}
	return n
}

func (f *ackFrame) encode(b []byte) (int, error) {
	if len(b) < f.encodedLen() {
		return 0, errShortBuffer
	}
	n := 0
	n += putVarint(b[n:], frameTypeAck)
	n += putVarint(b[n:], f.largestAck)
	n += putVarint(b[n:], f.ackDelay)
	n += putVarint(b[n:], uint64(len(f.ranges)))
	n += putVarint(b[n:], f.firstAckRange)
	prevSmallest := f.largestAck - f.firstAckRange
	for _, r := range f.ranges {
		gap := prevSmallest - r.end - 2
		n += putVarint(b[n:], gap)
		n += putVarint(b[n:], r.end-r.start)
		prevSmallest = r.start
	}
	return n, nil
}

func (f *ackFrame) decode(b []byte) (int, error) {
	pos := 0
	var typ uint64
	if k := getVarint(b, &typ); k == 0 {
		return 0, frameDecodeErr("ack: type")
	} else {
		pos += k
	}
	if k := getVarint(b[pos:], &f.largestAck); k == 0 {
		return 0, frameDecodeErr("ack: largest")
	} else {
		pos += k
	}
	if k := getVarint(b[pos:], &f.ackDelay); k == 0 {
		return 0, frameDecodeErr("ack: delay")
	} else {
		pos += k
	}
	var rangeCount uint64
	if k := getVarint(b[pos:], &rangeCount); k == 0 {
		return 0, frameDecodeErr("ack: range count")
	} else {
		pos += k
	}
	if k := getVarint(b[pos:], &f.firstAckRange); k == 0 {
		return 0, frameDecodeErr("ack: first range")
	} else {
		pos += k
	}
	if f.firstAckRange > f.largestAck {
		return 0, frameDecodeErr("ack: first range exceeds largest")
	}
	f.ranges = f.ranges[:0]
	smallest := f.largestAck - f.firstAckRange
	for i := uint64(0); i < rangeCount; i++ {
		var gap, length uint64
		if k := getVarint(b[pos:], &gap); k == 0 {
			return 0, frameDecodeErr("ack: gap")
		} else {
			pos += k
		}
		if k := getVarint(b[pos:], &length); k == 0 {
			return 0, frameDecodeErr("ack: length")
		} else {
			pos += k
		}
		if smallest < gap+2 {
			return 0, frameDecodeErr("ack: range underflow")
		}
		end := smallest - gap - 2
		if length > end {
			return 0, frameDecodeErr("ack: range underflow")
		}
		start := end - length
		f.ranges = append(f.ranges, pnRange{start: start, end: end})
		smallest = start
	}
	return pos, nil
}

// toRangeSet reconstructs the acknowledged packet-number set carried by the
// frame, descending-encoded per spec §4.4.
func (f *ackFrame) toRangeSet() *rangeSet {
	s := &rangeSet{}
	s.push(f.largestAck)
	smallest := f.largestAck - f.firstAckRange
	for pn := smallest; pn <= f.largestAck; pn++ {
		s.push(pn)
	}
	for _, r := range f.ranges {
		for pn := r.start; pn <= r.end; pn++ {
			s.push(pn)
		}
	}
	return s
}

func (f *ackFrame) String() string {
	return sprint("ack largest=", f.largestAck, " delay=", f.ackDelay)
}

// --- RESET_STREAM ---

type resetStreamFrame struct {
	streamID  uint64
	errorCode uint64
	finalSize uint64
}

func newResetStreamFrame(streamID, errorCode, finalSize uint64) *resetStreamFrame {
	return &resetStreamFrame{streamID: streamID, errorCode: errorCode, finalSize: finalSize}
}

func (f *resetStreamFrame) encodedLen() int {
	return varintLen(frameTypeResetStream) + varintLen(f.streamID) + varintLen(f.errorCode) + varintLen(f.finalSize)
}

func (f *resetStreamFrame) encode(b []byte) (int, error) {
	if len(b) < f.encodedLen() {
		return 0, errShortBuffer
	}
	n := putVarint(b, frameTypeResetStream)
	n += putVarint(b[n:], f.streamID)
	n += putVarint(b[n:], f.errorCode)
	n += putVarint(b[n:], f.finalSize)
	return n, nil
}

func (f *resetStreamFrame) decode(b []byte) (int, error) {
	pos := 0
	var typ uint64
	for _, pv := range []*uint64{&typ, &f.streamID, &f.errorCode, &f.finalSize} {
		k := getVarint(b[pos:], pv)
		if k == 0 {
			return 0, frameDecodeErr("reset_stream")
		}
		pos += k
	}
	return pos, nil
}

func (f *resetStreamFrame) String() string { return sprint("reset_stream id=", f.streamID) }

// --- STOP_SENDING ---

type stopSendingFrame struct {
	streamID  uint64
	errorCode uint64
}

func newStopSendingFrame(streamID, errorCode uint64) *stopSendingFrame {
	return &stopSendingFrame{streamID: streamID, errorCode: errorCode}
}

func (f *stopSendingFrame) encodedLen() int {
	return varintLen(frameTypeStopSending) + varintLen(f.streamID) + varintLen(f.errorCode)
}

func (f *stopSendingFrame) encode(b []byte) (int, error) {
	if len(b) < f.encodedLen() {
		return 0, errShortBuffer
	}
	n := putVarint(b, frameTypeStopSending)
	n += putVarint(b[n:], f.streamID)
	n += putVarint(b[n:], f.errorCode)
	return n, nil
}

func (f *stopSendingFrame) decode(b []byte) (int, error) {
	pos := 0
	var typ uint64
	for _, pv := range []*uint64{&typ, &f.streamID, &f.errorCode} {
		k := getVarint(b[pos:], pv)
		if k == 0 {
			return 0, frameDecodeErr("stop_sending")
		}
		pos += k
	}
	return pos, nil
}

func (f *stopSendingFrame) String() string { return sprint("stop_sending id=", f.streamID) }

// --- CRYPTO ---

type cryptoFrame struct {
	offset uint64
	data   []byte
}

func newCryptoFrame(data []byte, offset uint64) *cryptoFrame {
	return &cryptoFrame{data: data, offset: offset}
}

func (f *cryptoFrame) encodedLen() int {
	return varintLen(frameTypeCrypto) + varintLen(f.offset) + varintLen(uint64(len(f.data))) + len(f.data)
}

func (f *cryptoFrame) encode(b []byte) (int, error) {
	if len(b) < f.encodedLen() {
		return 0, errShortBuffer
	}
	n := putVarint(b, frameTypeCrypto)
	n += putVarint(b[n:], f.offset)
	n += putVarint(b[n:], uint64(len(f.data)))
	n += copy(b[n:], f.data)
	return n, nil
}

func (f *cryptoFrame) decode(b []byte) (int, error) {
	pos := 0
	var typ uint64
	if k := getVarint(b, &typ); k == 0 {
		return 0, frameDecodeErr("crypto: type")
	} else {
		pos += k
	}
	if k := getVarint(b[pos:], &f.offset); k == 0 {
		return 0, frameDecodeErr("crypto: offset")
	} else {
		pos += k
	}
	var length uint64
	if k := getVarint(b[pos:], &length); k == 0 {
		return 0, frameDecodeErr("crypto: length")
	} else {
		pos += k
	}
	if uint64(len(b)-pos) < length {
		return 0, frameDecodeErr("crypto: truncated")
	}
	f.data = b[pos : pos+int(length)]
	pos += int(length)
	return pos, nil
}

func (f *cryptoFrame) String() string { return sprint("crypto offset=", f.offset, " len=", len(f.data)) }

// --- NEW_TOKEN ---

type newTokenFrame struct {
	token []byte
}

func newNewTokenFrame(token []byte) *newTokenFrame { return &newTokenFrame{token: token} }

func (f *newTokenFrame) encodedLen() int {
	return varintLen(frameTypeNewToken) + varintLen(uint64(len(f.token))) + len(f.token)
}

func (f *newTokenFrame) encode(b []byte) (int, error) {
	if len(b) < f.encodedLen() {
		return 0, errShortBuffer
	}
	n := putVarint(b, frameTypeNewToken)
	n += putVarint(b[n:], uint64(len(f.token)))
	n += copy(b[n:], f.token)
	return n, nil
}

func (f *newTokenFrame) decode(b []byte) (int, error) {
	pos := 0
	var typ, length uint64
	if k := getVarint(b, &typ); k == 0 {
		return 0, frameDecodeErr("new_token: type")
	} else {
		pos += k
	}
	if k := getVarint(b[pos:], &length); k == 0 {
		return 0, frameDecodeErr("new_token: length")
	} else {
		pos += k
	}
	if uint64(len(b)-pos) < length {
		return 0, frameDecodeErr("new_token: truncated")
	}
	f.token = append([]byte(nil), b[pos:pos+int(length)]...)
	pos += int(length)
	return pos, nil
}

func (f *newTokenFrame) String() string { return "new_token" }

// --- STREAM ---

type streamFrame struct {
	streamID uint64
	offset   uint64
	data     []byte
	fin      bool
}

func newStreamFrame(streamID uint64, data []byte, offset uint64, fin bool) *streamFrame {
	return &streamFrame{streamID: streamID, data: data, offset: offset, fin: fin}
}

// typeByte encodes the OFF and LEN bits always set (offset and explicit
// length are always present; the FIN bit reflects f.fin).
func (f *streamFrame) typeByte() uint64 {
	t := uint64(frameTypeStream) | 0x04 /* OFF */ | 0x02 /* LEN */
	if f.fin {
		t |= 0x01
	}
	return t
}

func (f *streamFrame) encodedLen() int {
	return varintLen(f.typeByte()) + varintLen(f.streamID) + varintLen(f.offset) +
		varintLen(uint64(len(f.data))) + len(f.data)
}

func (f *streamFrame) encode(b []byte) (int, error) {
	if len(b) < f.encodedLen() {
		return 0, errShortBuffer
	}
	n := putVarint(b, f.typeByte())
	n += putVarint(b[n:], f.streamID)
	n += putVarint(b[n:], f.offset)
	n += putVarint(b[n:], uint64(len(f.data)))
	n += copy(b[n:], f.data)
	return n, nil
}

func (f *streamFrame) decode(b []byte) (int, error) {
	pos := 0
	var typ uint64
	if k := getVarint(b, &typ); k == 0 {
		return 0, frameDecodeErr("stream: type")
	} else {
		pos += k
	}
	f.fin = typ&0x01 != 0
	off := typ&0x04 != 0
	hasLen := typ&0x02 != 0
	if k := getVarint(b[pos:], &f.streamID); k == 0 {
		return 0, frameDecodeErr("stream: id")
	} else {
		pos += k
	}
	f.offset = 0
	if off {
		if k := getVarint(b[pos:], &f.offset); k == 0 {
			return 0, frameDecodeErr("stream: offset")
		} else {
			pos += k
		}
	}
	var length uint64
	if hasLen {
		if k := getVarint(b[pos:], &length); k == 0 {
			return 0, frameDecodeErr("stream: length")
		} else {
			pos += k
		}
	} else {
		length = uint64(len(b) - pos)
	}
	if uint64(len(b)-pos) < length {
		return 0, frameDecodeErr("stream: truncated")
	}
	f.data = b[pos : pos+int(length)]
	pos += int(length)
	return pos, nil
}

func (f *streamFrame) String() string {
	return sprint("stream id=", f.streamID, " offset=", f.offset, " len=", len(f.data), " fin=", f.fin)
}

// --- MAX_DATA ---

type maxDataFrame struct {
	maximumData uint64
}

func newMaxDataFrame(max uint64) *maxDataFrame { return &maxDataFrame{maximumData: max} }

func (f *maxDataFrame) encodedLen() int {
	return varintLen(frameTypeMaxData) + varintLen(f.maximumData)
}

func (f *maxDataFrame) encode(b []byte) (int, error) {
	if len(b) < f.encodedLen() {
		return 0, errShortBuffer
	}
	n := putVarint(b, frameTypeMaxData)
	n += putVarint(b[n:], f.maximumData)
	return n, nil
}

func (f *maxDataFrame) decode(b []byte) (int, error) {
	pos := 0
	var typ uint64
	if k := getVarint(b, &typ); k == 0 {
		return 0, frameDecodeErr("max_data: type")
	} else {
		pos += k
	}
	if k := getVarint(b[pos:], &f.maximumData); k == 0 {
		return 0, frameDecodeErr("max_data: value")
	} else {
		pos += k
	}
	return pos, nil
}

// --- MAX_STREAM_DATA ---

type maxStreamDataFrame struct {
	streamID    uint64
	maximumData uint64
}

func newMaxStreamDataFrame(streamID, max uint64) *maxStreamDataFrame {
	return &maxStreamDataFrame{streamID: streamID, maximumData: max}
}

func (f *maxStreamDataFrame) encodedLen() int {
	return varintLen(frameTypeMaxStreamData) + varintLen(f.streamID) + varintLen(f.maximumData)
}

func (f *maxStreamDataFrame) encode(b []byte) (int, error) {
	if len(b) < f.encodedLen() {
		return 0, errShortBuffer
	}
	n := putVarint(b, frameTypeMaxStreamData)
	n += putVarint(b[n:], f.streamID)
	n += putVarint(b[n:], f.maximumData)
	return n, nil
}

func (f *maxStreamDataFrame) decode(b []byte) (int, error) {
	pos := 0
	var typ uint64
	for _, pv := range []*uint64{&typ, &f.streamID, &f.maximumData} {
		k := getVarint(b[pos:], pv)
		if k == 0 {
			return 0, frameDecodeErr("max_stream_data")
		}
		pos += k
	}
	return pos, nil
}

// --- MAX_STREAMS ---

type maxStreamsFrame struct {
	maximumStreams uint64
	bidi           bool
}

func newMaxStreamsFrame(max uint64, bidi bool) *maxStreamsFrame {
	return &maxStreamsFrame{maximumStreams: max, bidi: bidi}
}

func (f *maxStreamsFrame) typ() uint64 {
	if f.bidi {
		return frameTypeMaxStreamsBidi
	}
	return frameTypeMaxStreamsUni
}

func (f *maxStreamsFrame) encodedLen() int {
	return varintLen(f.typ()) + varintLen(f.maximumStreams)
}

func (f *maxStreamsFrame) encode(b []byte) (int, error) {
	if len(b) < f.encodedLen() {
		return 0, errShortBuffer
	}
	n := putVarint(b, f.typ())
	n += putVarint(b[n:], f.maximumStreams)
	return n, nil
}

func (f *maxStreamsFrame) decode(b []byte) (int, error) {
	pos := 0
	var typ uint64
	if k := getVarint(b, &typ); k == 0 {
		return 0, frameDecodeErr("max_streams: type")
	} else {
		pos += k
	}
	f.bidi = typ == frameTypeMaxStreamsBidi
	if k := getVarint(b[pos:], &f.maximumStreams); k == 0 {
		return 0, frameDecodeErr("max_streams: value")
	} else {
		pos += k
	}
	return pos, nil
}

// --- DATA_BLOCKED ---

type dataBlockedFrame struct {
	dataLimit uint64
}

func newDataBlockedFrame(limit uint64) *dataBlockedFrame { return &dataBlockedFrame{dataLimit: limit} }

func (f *dataBlockedFrame) encodedLen() int {
	return varintLen(frameTypeDataBlocked) + varintLen(f.dataLimit)
}

func (f *dataBlockedFrame) encode(b []byte) (int, error) {
	if len(b) < f.encodedLen() {
		return 0, errShortBuffer
	}
	n := putVarint(b, frameTypeDataBlocked)
	n += putVarint(b[n:], f.dataLimit)
	return n, nil
}

func (f *dataBlockedFrame) decode(b []byte) (int, error) {
	pos := 0
	var typ uint64
	for _, pv := range []*uint64{&typ, &f.dataLimit} {
		k := getVarint(b[pos:], pv)
		if k == 0 {
			return 0, frameDecodeErr("data_blocked")
		}
		pos += k
	}
	return pos, nil
}

// --- STREAM_DATA_BLOCKED ---

type streamDataBlockedFrame struct {
	streamID  uint64
	dataLimit uint64
}

func newStreamDataBlockedFrame(streamID, limit uint64) *streamDataBlockedFrame {
	return &streamDataBlockedFrame{streamID: streamID, dataLimit: limit}
}

func (f *streamDataBlockedFrame) encodedLen() int {
	return varintLen(frameTypeStreamDataBlocked) + varintLen(f.streamID) + varintLen(f.dataLimit)
}

func (f *streamDataBlockedFrame) encode(b []byte) (int, error) {
	if len(b) < f.encodedLen() {
		return 0, errShortBuffer
	}
	n := putVarint(b, frameTypeStreamDataBlocked)
	n += putVarint(b[n:], f.streamID)
	n += putVarint(b[n:], f.dataLimit)
	return n, nil
}

func (f *streamDataBlockedFrame) decode(b []byte) (int, error) {
	pos := 0
	var typ uint64
	for _, pv := range []*uint64{&typ, &f.streamID, &f.dataLimit} {
		k := getVarint(b[pos:], pv)
		if k == 0 {
			return 0, frameDecodeErr("stream_data_blocked")
		}
		pos += k
	}
	return pos, nil
}

// --- STREAMS_BLOCKED ---

type streamsBlockedFrame struct {
	streamLimit uint64
	bidi        bool
}

func newStreamsBlockedFrame(limit uint64, bidi bool) *streamsBlockedFrame {
	return &streamsBlockedFrame{streamLimit: limit, bidi: bidi}
}

func (f *streamsBlockedFrame) typ() uint64 {
	if f.bidi {
		return frameTypeStreamsBlockedBidi
	}
	return frameTypeStreamsBlockedUni
}

func (f *streamsBlockedFrame) encodedLen() int {
	return varintLen(f.typ()) + varintLen(f.streamLimit)
}

func (f *streamsBlockedFrame) encode(b []byte) (int, error) {
	if len(b) < f.encodedLen() {
		return 0, errShortBuffer
	}
	n := putVarint(b, f.typ())
	n += putVarint(b[n:], f.streamLimit)
	return n, nil
}

func (f *streamsBlockedFrame) decode(b []byte) (int, error) {
	pos := 0
	var typ uint64
	if k := getVarint(b, &typ); k == 0 {
		return 0, frameDecodeErr("streams_blocked: type")
	} else {
		pos += k
	}
	f.bidi = typ == frameTypeStreamsBlockedBidi
	if k := getVarint(b[pos:], &f.streamLimit); k == 0 {
		return 0, frameDecodeErr("streams_blocked: value")
	} else {
		pos += k
	}
	return pos, nil
}

// --- NEW_CONNECTION_ID ---

type newConnectionIDFrame struct {
	sequenceNumber uint64
	retirePriorTo  uint64
	cid            []byte
	resetToken     [16]byte
}

func (f *newConnectionIDFrame) encodedLen() int {
	return varintLen(frameTypeNewConnectionID) + varintLen(f.sequenceNumber) + varintLen(f.retirePriorTo) +
		1 + len(f.cid) + 16
}

func (f *newConnectionIDFrame) encode(b []byte) (int, error) {
	if len(b) < f.encodedLen() {
		return 0, errShortBuffer
	}
	n := putVarint(b, frameTypeNewConnectionID)
	n += putVarint(b[n:], f.sequenceNumber)
	n += putVarint(b[n:], f.retirePriorTo)
	b[n] = byte(len(f.cid))
	n++
	n += copy(b[n:], f.cid)
	n += copy(b[n:], f.resetToken[:])
	return n, nil
}

func (f *newConnectionIDFrame) decode(b []byte) (int, error) {
	pos := 0
	var typ uint64
	for _, pv := range []*uint64{&typ, &f.sequenceNumber, &f.retirePriorTo} {
		k := getVarint(b[pos:], pv)
		if k == 0 {
			return 0, frameDecodeErr("new_connection_id")
		}
		pos += k
	}
	if pos >= len(b) {
		return 0, frameDecodeErr("new_connection_id: length")
	}
	l := int(b[pos])
	pos++
	if l > MaxCIDLength || len(b)-pos < l+16 {
		return 0, frameDecodeErr("new_connection_id: truncated")
	}
	f.cid = append([]byte(nil), b[pos:pos+l]...)
	pos += l
	copy(f.resetToken[:], b[pos:pos+16])
	pos += 16
	return pos, nil
}

// --- RETIRE_CONNECTION_ID ---

type retireConnectionIDFrame struct {
	sequenceNumber uint64
}

func (f *retireConnectionIDFrame) encodedLen() int {
	return varintLen(frameTypeRetireConnectionID) + varintLen(f.sequenceNumber)
}

func (f *retireConnectionIDFrame) encode(b []byte) (int, error) {
	if len(b) < f.encodedLen() {
		return 0, errShortBuffer
	}
	n := putVarint(b, frameTypeRetireConnectionID)
	n += putVarint(b[n:], f.sequenceNumber)
	return n, nil
}

func (f *retireConnectionIDFrame) decode(b []byte) (int, error) {
	pos := 0
	var typ uint64
	for _, pv := range []*uint64{&typ, &f.sequenceNumber} {
		k := getVarint(b[pos:], pv)
		if k == 0 {
			return 0, frameDecodeErr("retire_connection_id")
		}
		pos += k
	}
	return pos, nil
}

// --- PATH_CHALLENGE / PATH_RESPONSE ---

type pathChallengeFrame struct {
	data [8]byte
}

func (f *pathChallengeFrame) encodedLen() int { return 1 + 8 }

func (f *pathChallengeFrame) encode(b []byte) (int, error) {
	if len(b) < f.encodedLen() {
		return 0, errShortBuffer
	}
	b[0] = frameTypePathChallenge
	copy(b[1:], f.data[:])
	return f.encodedLen(), nil
}

func (f *pathChallengeFrame) decode(b []byte) (int, error) {
	if len(b) < 9 {
		return 0, frameDecodeErr("path_challenge: truncated")
	}
	copy(f.data[:], b[1:9])
	return 9, nil
}

type pathResponseFrame struct {
	data [8]byte
}

func (f *pathResponseFrame) encodedLen() int { return 1 + 8 }

func (f *pathResponseFrame) encode(b []byte) (int, error) {
	if len(b) < f.encodedLen() {
		return 0, errShortBuffer
	}
	b[0] = frameTypePathResponse
	copy(b[1:], f.data[:])
	return f.encodedLen(), nil
}

func (f *pathResponseFrame) decode(b []byte) (int, error) {
	if len(b) < 9 {
		return 0, frameDecodeErr("path_response: truncated")
	}
	copy(f.data[:], b[1:9])
	return 9, nil
}

// --- CONNECTION_CLOSE ---

type connectionCloseFrame struct {
	application  bool
	errorCode    uint64
	frameType    uint64 // trigger frame type, transport-close only
	reasonPhrase []byte
}

func newConnectionCloseFrame(errorCode, frameType uint64, reason []byte, application bool) *connectionCloseFrame {
	return &connectionCloseFrame{application: application, errorCode: errorCode, frameType: frameType, reasonPhrase: reason}
}

func (f *connectionCloseFrame) typ() uint64 {
	if f.application {
		return frameTypeApplicationClose
	}
	return frameTypeConnectionClose
}

func (f *connectionCloseFrame) encodedLen() int {
	n := varintLen(f.typ()) + varintLen(f.errorCode)
	if !f.application {
		n += varintLen(f.frameType)
	}
	n += varintLen(uint64(len(f.reasonPhrase))) + len(f.reasonPhrase)
	return n
}

func (f *connectionCloseFrame) encode(b []byte) (int, error) {
	if len(b) < f.encodedLen() {
		return 0, errShortBuffer
	}
	n := putVarint(b, f.typ())
	n += putVarint(b[n:], f.errorCode)
	if !f.application {
		n += putVarint(b[n:], f.frameType)
	}
	n += putVarint(b[n:], uint64(len(f.reasonPhrase)))
	n += copy(b[n:], f.reasonPhrase)
	return n, nil
}

func (f *connectionCloseFrame) decode(b []byte) (int, error) {
	pos := 0
	var typ uint64
	if k := getVarint(b, &typ); k == 0 {
		return 0, frameDecodeErr("connection_close: type")
	} else {
		pos += k
	}
	f.application = typ == frameTypeApplicationClose
	if k := getVarint(b[pos:], &f.errorCode); k == 0 {
		return 0, frameDecodeErr("connection_close: code")
	} else {
		pos += k
	}
	if !f.application {
		if k := getVarint(b[pos:], &f.frameType); k == 0 {
			return 0, frameDecodeErr("connection_close: frame type")
		} else {
			pos += k
		}
	}
	var length uint64
	if k := getVarint(b[pos:], &length); k == 0 {
		return 0, frameDecodeErr("connection_close: reason length")
	} else {
		pos += k
	}
	if uint64(len(b)-pos) < length {
		return 0, frameDecodeErr("connection_close: truncated")
	}
	f.reasonPhrase = append([]byte(nil), b[pos:pos+int(length)]...)
	pos += int(length)
	return pos, nil
}

func (f *connectionCloseFrame) String() string {
	space := "transport"
	if f.application {
		space = "application"
	}
	return sprint("connection_close space=", space, " code=", f.errorCode)
}

// --- HANDSHAKE_DONE ---

type handshakeDoneFrame struct{}

func (f *handshakeDoneFrame) encodedLen() int { return 1 }

func (f *handshakeDoneFrame) encode(b []byte) (int, error) {
	if len(b) < 1 {
		return 0, errShortBuffer
	}
	b[0] = frameTypeHanshakeDone
	return 1, nil
}

func (f *handshakeDoneFrame) decode(b []byte) (int, error) {
	if len(b) < 1 {
		return 0, frameDecodeErr("handshake_done")
	}
	return 1, nil
}

// encodeFrames encodes a sequence of frames back-to-back into b, returning
// the total number of bytes written.
func encodeFrames(b []byte, frames []frame) (int, error) {
	n := 0
	for _, f := range frames {
		m, err := f.encode(b[n:])
		if err != nil {
			return 0, err
		}
		n += m
	}
	return n, nil
}
