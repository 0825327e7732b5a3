package transport

import (
	"bytes"
	"testing"
)

// R1: a packet header encoded for sending decodes back to the same type,
// version, and connection IDs.
func TestPacketHeaderRoundTripLongHeader(t *testing.T) {
	p := &packet{
		typ: packetTypeInitial,
		header: packetHeader{
			version: versionQUIC1,
			dcid:    []byte{1, 2, 3, 4, 5, 6, 7, 8},
			scid:    []byte{9, 9, 9, 9},
		},
		token:      []byte("retry-token"),
		payloadLen: 42,
	}
	b := make([]byte, p.encodedLen()+p.payloadLen)
	n, err := p.encode(b)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if n != p.headerLen+4 {
		t.Fatalf("encode returned %d, headerLen = %d (want headerLen + 4-byte packet number)", n, p.headerLen)
	}

	var got packet
	hn, err := got.decodeHeader(b)
	if err != nil {
		t.Fatalf("decodeHeader: %v", err)
	}
	if hn != p.headerLen {
		t.Fatalf("decodeHeader consumed %d, want %d", hn, p.headerLen)
	}
	if got.typ != packetTypeInitial {
		t.Fatalf("typ = %v, want initial", got.typ)
	}
	if got.header.version != versionQUIC1 {
		t.Fatalf("version = %x, want %x", got.header.version, versionQUIC1)
	}
	if !bytes.Equal(got.header.dcid, p.header.dcid) {
		t.Fatalf("dcid = %v, want %v", got.header.dcid, p.header.dcid)
	}
	if !bytes.Equal(got.header.scid, p.header.scid) {
		t.Fatalf("scid = %v, want %v", got.header.scid, p.header.scid)
	}
	if !bytes.Equal(got.token, p.token) {
		t.Fatalf("token = %q, want %q", got.token, p.token)
	}
	if got.payloadLen != len(b) {
		t.Fatalf("payloadLen = %d, want %d (absolute end of packet)", got.payloadLen, len(b))
	}
}

func TestPacketHeaderRoundTripShortHeader(t *testing.T) {
	p := &packet{
		typ: packetTypeShort,
		header: packetHeader{
			dcid: []byte{1, 2, 3, 4, 5, 6, 7, 8},
		},
	}
	b := make([]byte, p.encodedLen()+16)
	_, err := p.encode(b)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var got packet
	got.header.dcil = uint8(len(p.header.dcid))
	_, err = got.decodeHeader(b)
	if err != nil {
		t.Fatalf("decodeHeader: %v", err)
	}
	if got.typ != packetTypeShort {
		t.Fatalf("typ = %v, want short", got.typ)
	}
	if !bytes.Equal(got.header.dcid, p.header.dcid) {
		t.Fatalf("dcid = %v, want %v", got.header.dcid, p.header.dcid)
	}
}

func TestPacketHeaderVersionNegotiationBody(t *testing.T) {
	p := &packet{
		typ: packetTypeVersionNegotiation,
		header: packetHeader{
			dcid: []byte{1, 2, 3, 4},
			scid: []byte{5, 6, 7, 8},
		},
	}
	var b bytes.Buffer
	b.WriteByte(0x80)
	b.Write([]byte{0, 0, 0, 0}) // version negotiation uses version 0
	b.WriteByte(byte(len(p.header.dcid)))
	b.Write(p.header.dcid)
	b.WriteByte(byte(len(p.header.scid)))
	b.Write(p.header.scid)
	b.Write([]byte{0, 0, 0, 1}) // one supported version
	b.Write([]byte{0xaa, 0xbb, 0xcc, 0xdd})

	var got packet
	raw := b.Bytes()
	hn, err := got.decodeHeader(raw)
	if err != nil {
		t.Fatalf("decodeHeader: %v", err)
	}
	if got.typ != packetTypeVersionNegotiation {
		t.Fatalf("typ = %v, want version_negotiation", got.typ)
	}
	got.headerLen = hn
	if _, err := got.decodeBody(raw); err != nil {
		t.Fatalf("decodeBody: %v", err)
	}
	if len(got.supportedVersions) != 2 {
		t.Fatalf("supportedVersions = %v, want 2 entries", got.supportedVersions)
	}
	if got.supportedVersions[0] != versionQUIC1 {
		t.Fatalf("supportedVersions[0] = %x, want %x", got.supportedVersions[0], versionQUIC1)
	}
	if got.supportedVersions[1] != 0xaabbccdd {
		t.Fatalf("supportedVersions[1] = %x, want aabbccdd", got.supportedVersions[1])
	}
}
