package http3

import (
	"bytes"
	"testing"

	"github.com/goburrow/quic/qpack"
)

func TestRequestFieldSectionRoundTrip(t *testing.T) {
	enc := qpack.NewEncoder(new(bytes.Buffer))
	dec := qpack.NewDecoder(new(bytes.Buffer))

	req := Request{
		Method:    "GET",
		Scheme:    "https",
		Authority: "example.com",
		Path:      "/index",
		Headers:   []qpack.HeaderField{{Name: "user-agent", Value: "quince"}},
	}
	section := req.encodeFieldSection(enc)
	fields, err := dec.DecodeFieldSection(section)
	if err != nil {
		t.Fatalf("DecodeFieldSection: %v", err)
	}
	got, err := decodeRequest(fields)
	if err != nil {
		t.Fatalf("decodeRequest: %v", err)
	}
	if got.Method != req.Method || got.Scheme != req.Scheme || got.Authority != req.Authority || got.Path != req.Path {
		t.Fatalf("decodeRequest() = %+v, want %+v", got, req)
	}
	if len(got.Headers) != 1 || got.Headers[0] != req.Headers[0] {
		t.Fatalf("decodeRequest().Headers = %+v", got.Headers)
	}
}

func TestDecodeRequestMissingPseudoHeader(t *testing.T) {
	_, err := decodeRequest([]qpack.HeaderField{{Name: ":method", Value: "GET"}})
	if err == nil {
		t.Fatal("expected error for missing :path")
	}
}

func TestResponseFieldSectionRoundTrip(t *testing.T) {
	enc := qpack.NewEncoder(new(bytes.Buffer))
	dec := qpack.NewDecoder(new(bytes.Buffer))

	resp := Response{
		Status:  "200",
		Headers: []qpack.HeaderField{{Name: "content-type", Value: "text/plain"}},
	}
	section := resp.encodeFieldSection(enc)
	fields, err := dec.DecodeFieldSection(section)
	if err != nil {
		t.Fatalf("DecodeFieldSection: %v", err)
	}
	got, err := decodeResponse(fields)
	if err != nil {
		t.Fatalf("decodeResponse: %v", err)
	}
	if got.Status != resp.Status || len(got.Headers) != 1 || got.Headers[0] != resp.Headers[0] {
		t.Fatalf("decodeResponse() = %+v, want %+v", got, resp)
	}
}

func TestDecodeResponseMissingStatus(t *testing.T) {
	_, err := decodeResponse([]qpack.HeaderField{{Name: "content-type", Value: "text/plain"}})
	if err == nil {
		t.Fatal("expected error for missing :status")
	}
}
