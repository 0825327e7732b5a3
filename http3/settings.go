package http3

// SETTINGS identifiers (RFC 9114 §7.2.4, RFC 9204 §7.2 for the QPACK pair).
const (
	SettingQPACKMaxTableCapacity = 0x1
	SettingMaxFieldSectionSize   = 0x6
	SettingQPACKBlockedStreams   = 0x7
)

// Settings is the set of parameters exchanged on each side's control
// stream, the first frame it must send (spec: "the first control-stream
// frame MUST be SETTINGS").
type Settings struct {
	QPACKMaxTableCapacity uint64
	MaxFieldSectionSize   uint64
	QPACKBlockedStreams   uint64

	// unknown carries any identifier this package does not recognize, so
	// a relay or future version can echo them unmodified; RFC 9114
	// requires unknown identifiers to be ignored, not rejected.
	unknown map[uint64]uint64
}

func encodeSettings(s Settings) []byte {
	var b []byte
	if s.QPACKMaxTableCapacity > 0 {
		b = appendVarint(b, SettingQPACKMaxTableCapacity)
		b = appendVarint(b, s.QPACKMaxTableCapacity)
	}
	if s.MaxFieldSectionSize > 0 {
		b = appendVarint(b, SettingMaxFieldSectionSize)
		b = appendVarint(b, s.MaxFieldSectionSize)
	}
	if s.QPACKBlockedStreams > 0 {
		b = appendVarint(b, SettingQPACKBlockedStreams)
		b = appendVarint(b, s.QPACKBlockedStreams)
	}
	for id, v := range s.unknown {
		b = appendVarint(b, id)
		b = appendVarint(b, v)
	}
	return b
}

func decodeSettings(b []byte) (Settings, error) {
	var s Settings
	for len(b) > 0 {
		id, n := getVarint(b)
		if n == 0 {
			return Settings{}, newError(ErrFrameError, "truncated settings identifier")
		}
		b = b[n:]
		v, vn := getVarint(b)
		if vn == 0 {
			return Settings{}, newError(ErrFrameError, "truncated settings value")
		}
		b = b[vn:]
		switch id {
		case SettingQPACKMaxTableCapacity:
			s.QPACKMaxTableCapacity = v
		case SettingMaxFieldSectionSize:
			s.MaxFieldSectionSize = v
		case SettingQPACKBlockedStreams:
			s.QPACKBlockedStreams = v
		default:
			if s.unknown == nil {
				s.unknown = make(map[uint64]uint64)
			}
			s.unknown[id] = v
		}
	}
	return s, nil
}

func encodeGoaway(streamID uint64) []byte {
	return appendVarint(nil, streamID)
}

func decodeGoaway(b []byte) (uint64, error) {
	id, n := getVarint(b)
	if n == 0 || n != len(b) {
		return 0, newError(ErrFrameError, "malformed goaway")
	}
	return id, nil
}

func encodeMaxPushID(id uint64) []byte {
	return appendVarint(nil, id)
}

func decodeMaxPushID(b []byte) (uint64, error) {
	id, n := getVarint(b)
	if n == 0 || n != len(b) {
		return 0, newError(ErrFrameError, "malformed max_push_id")
	}
	return id, nil
}
