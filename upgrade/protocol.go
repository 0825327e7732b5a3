// Package upgrade detects which protocol a plain TCP connection is
// speaking and drives the client toward HTTP/3, the front-end described
// at interface level: TCP accept, protocol sniff, Alt-Svc/101 advertisement,
// and ALPN selection for the HTTPS listener.
package upgrade

import (
	"bytes"
)

// Protocol is the result of sniffing a connection's first bytes.
type Protocol int

const (
	ProtocolUnknown Protocol = iota
	ProtocolHTTP1
	ProtocolHTTP2
)

var http2Preface = []byte("PRI * HTTP/2.0\r\n\r\nSM\r\n\r\n")

// DetectProtocol classifies the first bytes read off a freshly accepted
// TCP connection, grounded on the same two signatures a browser's
// connection-coalescing logic relies on: the HTTP/2 preface (or a
// SETTINGS frame opening the stream) and an HTTP/1.1 request line ending
// in a blank header line. It returns ProtocolUnknown, not an error, when
// fewer bytes have arrived than needed to decide; callers should call it
// again once more bytes are buffered.
func DetectProtocol(data []byte) Protocol {
	if len(data) == 0 {
		return ProtocolUnknown
	}
	if isHTTP2(data) {
		return ProtocolHTTP2
	}
	if isHTTP1(data) {
		return ProtocolHTTP1
	}
	return ProtocolUnknown
}

func isHTTP2(data []byte) bool {
	if len(data) >= len(http2Preface) && bytes.Equal(data[:len(http2Preface)], http2Preface) {
		return true
	}
	if len(data) < 9 {
		return false
	}
	length := uint32(data[0])<<16 | uint32(data[1])<<8 | uint32(data[2])
	typ := data[3]
	streamID := uint32(data[4])<<24 | uint32(data[5])<<16 | uint32(data[6])<<8 | uint32(data[7])
	streamID &^= 1 << 31
	if len(data) != 9+int(length) {
		return false
	}
	switch {
	case typ == 0x04 && streamID == 0: // SETTINGS
		return true
	case typ == 0x06 && streamID == 0: // PING
		return true
	case typ == 0x03 && streamID != 0: // RST_STREAM
		return true
	case typ == 0x08: // WINDOW_UPDATE
		return true
	}
	return false
}

var httpMethods = [][]byte{
	[]byte("get "), []byte("post "), []byte("put "),
	[]byte("delete "), []byte("head "), []byte("options "),
}

// isHTTP1 requires the end of the header block (a CRLF-terminated blank
// line) to have arrived, so a request split across several TCP segments
// stays unknown until its header block is complete.
func isHTTP1(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	first := bytes.Index(data, []byte("\r\n"))
	if first < 0 {
		return false
	}
	if !bytes.Contains(data[first:], []byte("\r\n\r\n")) {
		return false
	}

	scanLen := first
	if scanLen > 64 {
		scanLen = 64
	}
	line := bytes.ToLower(bytes.TrimLeft(data[:scanLen], " \t"))

	for _, m := range httpMethods {
		if bytes.HasPrefix(line, m) {
			return bytes.Contains(line, []byte("http/1.1"))
		}
	}
	return bytes.HasPrefix(line, []byte("http/"))
}
