package http3

import (
	"bytes"
	"testing"
)

func TestFrameParserSingleFrame(t *testing.T) {
	var p frameParser
	p.feed(appendFrame(nil, frameTypeData, []byte("hello")))
	f, ok, err := p.next()
	if err != nil || !ok {
		t.Fatalf("next() = %v, %v, %v", f, ok, err)
	}
	if f.Type != frameTypeData || !bytes.Equal(f.Payload, []byte("hello")) {
		t.Fatalf("unexpected frame: %+v", f)
	}
	if _, ok, _ := p.next(); ok {
		t.Fatal("expected no more frames")
	}
}

func TestFrameParserSplitAcrossFeeds(t *testing.T) {
	whole := appendFrame(nil, frameTypeHeaders, []byte("field-section"))
	var p frameParser
	p.feed(whole[:3])
	if _, ok, _ := p.next(); ok {
		t.Fatal("expected incomplete frame to not parse")
	}
	p.feed(whole[3:])
	f, ok, err := p.next()
	if err != nil || !ok {
		t.Fatalf("next() = %v, %v, %v", f, ok, err)
	}
	if string(f.Payload) != "field-section" {
		t.Fatalf("payload = %q", f.Payload)
	}
}

func TestFrameParserSkipsGrease(t *testing.T) {
	var buf []byte
	buf = appendFrame(buf, 0x21, []byte("ignored"))
	buf = appendFrame(buf, frameTypeData, []byte("real"))
	var p frameParser
	p.feed(buf)
	f, ok, err := p.next()
	if err != nil || !ok {
		t.Fatalf("next() = %v, %v, %v", f, ok, err)
	}
	if f.Type != frameTypeData || string(f.Payload) != "real" {
		t.Fatalf("expected the non-grease frame, got %+v", f)
	}
}

func TestIsGrease(t *testing.T) {
	cases := map[uint64]bool{
		0x21:  true,
		0x40:  true,
		0x22:  false,
		0x0:   false,
		0x100: false,
	}
	for typ, want := range cases {
		if got := isGrease(typ); got != want {
			t.Errorf("isGrease(0x%x) = %v, want %v", typ, got, want)
		}
	}
}
