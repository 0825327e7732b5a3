package transport

import (
	"encoding/binary"
)

// packetType is the long-header packet type, or packetTypeShort for the
// short (1-RTT) header (spec §4.5).
type packetType int

const (
	packetTypeInitial packetType = iota
	packetTypeZeroRTT
	packetTypeHandshake
	packetTypeRetry
	packetTypeVersionNegotiation
	packetTypeShort
)

func (t packetType) String() string {
	switch t {
	case packetTypeInitial:
		return "initial"
	case packetTypeZeroRTT:
		return "0-RTT"
	case packetTypeHandshake:
		return "handshake"
	case packetTypeRetry:
		return "retry"
	case packetTypeVersionNegotiation:
		return "version_negotiation"
	case packetTypeShort:
		return "1-RTT"
	default:
		return "unknown"
	}
}

func packetTypeFromSpace(space packetSpace) packetType {
	switch space {
	case packetSpaceInitial:
		return packetTypeInitial
	case packetSpaceHandshake:
		return packetTypeHandshake
	default:
		return packetTypeShort
	}
}

func (t packetType) longHeaderBits() byte {
	switch t {
	case packetTypeInitial:
		return 0x00
	case packetTypeZeroRTT:
		return 0x10
	case packetTypeHandshake:
		return 0x20
	case packetTypeRetry:
		return 0x30
	default:
		return 0
	}
}

// Limits from spec §4.5 / §6.4.
const (
	MaxCIDLength        = 20
	MinInitialPacketSize = 1200
	MaxPacketSize        = 65527
	minPayloadLength     = 4 // smallest packet number + minimal sample room
	maxCryptoFrameOverhead = 16
	maxStreamFrameOverhead = 24
	versionQUIC1         = uint32(0x00000001)
)

func versionSupported(v uint32) bool {
	return v == versionQUIC1
}

// packetHeader is the parsed long/short header fields common to all packet
// types (spec §4.5).
type packetHeader struct {
	version uint32
	dcid    []byte
	scid    []byte
	dcil    uint8 // expected DCID length for short-header parsing
}

// packet is a single QUIC packet, either freshly constructed for sending or
// freshly parsed from the wire.
type packet struct {
	typ               packetType
	header            packetHeader
	token             []byte
	packetNumber      uint64
	packetNumberLen   int
	payloadLen        int
	supportedVersions []uint32
	headerLen         int
}

func (p *packet) String() string {
	return sprint(p.typ, " dcid=", p.header.dcid, " scid=", p.header.scid, " pn=", p.packetNumber)
}

// decodeHeader parses the (unprotected) header fields that precede packet
// number protection: flags, version, CIDs, token, length. It does not
// remove header protection or decode the packet number itself -- that
// requires sampling ciphertext, done by packetNumberSpace.decryptPacket.
func (p *packet) decodeHeader(b []byte) (int, error) {
	if len(b) < 1 {
		return 0, frameDecodeErr("packet: empty")
	}
	first := b[0]
	pos := 1
	if first&0x80 != 0 {
		// Long header.
		if len(b) < 5 {
			return 0, frameDecodeErr("packet: short long-header")
		}
		version := binary.BigEndian.Uint32(b[1:5])
		pos = 5
		p.header.version = version
		if version == 0 {
			p.typ = packetTypeVersionNegotiation
		} else {
			switch first & 0x30 {
			case 0x00:
				p.typ = packetTypeInitial
			case 0x10:
				p.typ = packetTypeZeroRTT
			case 0x20:
				p.typ = packetTypeHandshake
			case 0x30:
				p.typ = packetTypeRetry
			}
		}
		if pos >= len(b) {
			return 0, frameDecodeErr("packet: truncated dcid len")
		}
		dcil := int(b[pos])
		pos++
		if dcil > MaxCIDLength || len(b)-pos < dcil {
			return 0, frameDecodeErr("packet: truncated dcid")
		}
		p.header.dcid = b[pos : pos+dcil]
		pos += dcil
		if pos >= len(b) {
			return 0, frameDecodeErr("packet: truncated scid len")
		}
		scil := int(b[pos])
		pos++
		if scil > MaxCIDLength || len(b)-pos < scil {
			return 0, frameDecodeErr("packet: truncated scid")
		}
		p.header.scid = b[pos : pos+scil]
		pos += scil
		if p.typ == packetTypeInitial {
			var tokenLen uint64
			k := getVarint(b[pos:], &tokenLen)
			if k == 0 {
				return 0, frameDecodeErr("packet: truncated token length")
			}
			pos += k
			if uint64(len(b)-pos) < tokenLen {
				return 0, frameDecodeErr("packet: truncated token")
			}
			p.token = b[pos : pos+int(tokenLen)]
			pos += int(tokenLen)
		}
		if p.typ != packetTypeRetry && p.typ != packetTypeVersionNegotiation {
			// Initial, 0-RTT and Handshake packets carry a Length field
			// covering everything from the packet number to the end of
			// the packet (spec §4.5); this implementation always encodes
			// a 4-byte packet number, so the end offset is known without
			// first removing header protection.
			var length uint64
			k := getVarint(b[pos:], &length)
			if k == 0 {
				return 0, frameDecodeErr("packet: truncated length")
			}
			pos += k
			p.headerLen = pos
			p.payloadLen = pos + 4 + int(length)
			if p.payloadLen > len(b) {
				return 0, frameDecodeErr("packet: length exceeds datagram")
			}
			return pos, nil
		}
		p.headerLen = pos
		return pos, nil
	}
	// Short header: fixed-length local DCID, no explicit length prefix; a
	// 1-RTT packet always runs to the end of the datagram (spec §4.5).
	p.typ = packetTypeShort
	dcil := int(p.header.dcil)
	if len(b)-pos < dcil {
		return 0, frameDecodeErr("packet: truncated short dcid")
	}
	p.header.dcid = b[pos : pos+dcil]
	pos += dcil
	p.headerLen = pos
	p.payloadLen = len(b)
	return pos, nil
}

// decodeBody parses type-specific fields that follow the common header for
// Version Negotiation and Retry packets (no packet-number space involved).
func (p *packet) decodeBody(b []byte) (int, error) {
	pos := p.headerLen
	switch p.typ {
	case packetTypeVersionNegotiation:
		p.supportedVersions = p.supportedVersions[:0]
		for pos+4 <= len(b) {
			p.supportedVersions = append(p.supportedVersions, binary.BigEndian.Uint32(b[pos:pos+4]))
			pos += 4
		}
		return pos - p.headerLen, nil
	case packetTypeRetry:
		// Remainder up to the last 16 bytes (integrity tag) is the token.
		if len(b)-pos < retryIntegrityTagLen {
			return 0, frameDecodeErr("retry: truncated")
		}
		p.token = append([]byte(nil), b[pos:len(b)-retryIntegrityTagLen]...)
		return len(b) - p.headerLen, nil
	default:
		return 0, nil
	}
}

const retryIntegrityTagLen = 16

// verifyRetryIntegrity checks the Retry Integrity Tag per RFC 9001 §5.8.
// The tag authenticates the retry pseudo-packet under a fixed AEAD key; a
// full implementation additionally reconstructs the pseudo-packet with the
// original DCID prepended. This performs that reconstruction and AEAD
// verification.
func verifyRetryIntegrity(b []byte, odcid []byte) bool {
	if len(b) < retryIntegrityTagLen {
		return false
	}
	pseudo := make([]byte, 0, len(b)+1+len(odcid))
	pseudo = append(pseudo, byte(len(odcid)))
	pseudo = append(pseudo, odcid...)
	pseudo = append(pseudo, b[:len(b)-retryIntegrityTagLen]...)
	keys := deriveAEADKeys(retryIntegritySecret)
	nonce := retryIntegrityNonce
	want := keys.aead.Seal(nil, nonce, nil, pseudo)
	got := b[len(b)-retryIntegrityTagLen:]
	if len(want) < retryIntegrityTagLen {
		return false
	}
	want = want[len(want)-retryIntegrityTagLen:]
	if len(want) != len(got) {
		return false
	}
	ok := true
	for i := range want {
		if want[i] != got[i] {
			ok = false
		}
	}
	return ok
}

// RFC 9001 §5.8: fixed key/nonce used to compute the Retry Integrity Tag.
var (
	retryIntegritySecret = []byte{
		0xcc, 0xce, 0x18, 0x7e, 0xd0, 0x9a, 0x09, 0xd0,
		0x57, 0x28, 0x15, 0x5a, 0x6c, 0xb9, 0x6b, 0xe1,
	}
	retryIntegrityNonce = []byte{
		0xe5, 0x49, 0x30, 0xf9, 0x7f, 0x21, 0x36, 0xf0, 0x53, 0x0a, 0x8c, 0x1c,
	}
)

// encodedLen returns the number of bytes the header (not including payload)
// will occupy once encoded, assuming a 4-byte packet number.
func (p *packet) encodedLen() int {
	switch p.typ {
	case packetTypeShort:
		return 1 + len(p.header.dcid) + 4
	default:
		n := 1 + 4 + 1 + len(p.header.dcid) + 1 + len(p.header.scid)
		if p.typ == packetTypeInitial {
			n += varintLen(uint64(len(p.token))) + len(p.token)
		}
		n += varintLen(uint64(p.payloadLen)) // length field covers PN+payload
		n += 4                                // packet number, always encoded as 4 bytes pre-protection
		return n
	}
}

// encode writes the packet header (PN length fixed at 4 bytes, unprotected)
// and returns the offset at which the payload (to be filled by the caller
// and then sealed in place) begins.
func (p *packet) encode(b []byte) (int, error) {
	if len(b) < p.encodedLen() {
		return 0, errShortBuffer
	}
	pos := 0
	p.packetNumberLen = 4
	if p.typ == packetTypeShort {
		b[0] = 0x40 | byte(p.packetNumberLen-1)
		pos = 1
		pos += copy(b[pos:], p.header.dcid)
	} else {
		b[0] = 0x80 | 0x40 | p.typ.longHeaderBits() | byte(p.packetNumberLen-1)
		pos = 1
		binary.BigEndian.PutUint32(b[pos:], p.header.version)
		pos += 4
		b[pos] = byte(len(p.header.dcid))
		pos++
		pos += copy(b[pos:], p.header.dcid)
		b[pos] = byte(len(p.header.scid))
		pos++
		pos += copy(b[pos:], p.header.scid)
		if p.typ == packetTypeInitial {
			pos += putVarint(b[pos:], uint64(len(p.token)))
			pos += copy(b[pos:], p.token)
		}
		pos += putVarint(b[pos:], uint64(p.payloadLen))
	}
	p.headerLen = pos
	binary.BigEndian.PutUint32(b[pos:], uint32(p.packetNumber))
	pos += 4
	return pos, nil
}
