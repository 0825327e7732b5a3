package upgrade

import "testing"

func TestDetectProtocolHTTP1(t *testing.T) {
	req := []byte("GET / HTTP/1.1\r\nHost: example.com\r\n\r\n")
	if got := DetectProtocol(req); got != ProtocolHTTP1 {
		t.Fatalf("DetectProtocol() = %v, want ProtocolHTTP1", got)
	}
}

func TestDetectProtocolHTTP1Response(t *testing.T) {
	resp := []byte("HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n")
	if got := DetectProtocol(resp); got != ProtocolHTTP1 {
		t.Fatalf("DetectProtocol() = %v, want ProtocolHTTP1", got)
	}
}

func TestDetectProtocolHTTP2Preface(t *testing.T) {
	preface := []byte("PRI * HTTP/2.0\r\n\r\nSM\r\n\r\n")
	if got := DetectProtocol(preface); got != ProtocolHTTP2 {
		t.Fatalf("DetectProtocol() = %v, want ProtocolHTTP2", got)
	}
}

func TestDetectProtocolHTTP2SettingsFrame(t *testing.T) {
	frame := []byte{0, 0, 0, 0x04, 0, 0, 0, 0, 0}
	if got := DetectProtocol(frame); got != ProtocolHTTP2 {
		t.Fatalf("DetectProtocol() = %v, want ProtocolHTTP2", got)
	}
}

func TestDetectProtocolUnknown(t *testing.T) {
	if got := DetectProtocol([]byte{0x01, 0x02, 0x03}); got != ProtocolUnknown {
		t.Fatalf("DetectProtocol() = %v, want ProtocolUnknown", got)
	}
	if got := DetectProtocol(nil); got != ProtocolUnknown {
		t.Fatalf("DetectProtocol(nil) = %v, want ProtocolUnknown", got)
	}
}

func TestDetectProtocolIncompleteHeaders(t *testing.T) {
	partial := []byte("GET / HTTP/1.1\r\nHost: example.com\r\n")
	if got := DetectProtocol(partial); got != ProtocolUnknown {
		t.Fatalf("DetectProtocol(partial) = %v, want ProtocolUnknown", got)
	}
}
