package qpack

import (
	"bytes"
	"testing"

	"github.com/go-test/deep"
)

func TestPrefixedIntRoundTrip(t *testing.T) {
	cases := []uint64{0, 5, 30, 31, 32, 127, 128, 1337, 1 << 20}
	for _, n := range cases {
		buf := appendPrefixedInt([]byte{0}, 5, n)
		got, consumed, err := decodePrefixedInt(buf, 5)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		if got != n {
			t.Fatalf("n=%d: got %d", n, got)
		}
		if consumed != len(buf) {
			t.Fatalf("n=%d: consumed %d, want %d", n, consumed, len(buf))
		}
	}
}

func TestHuffmanRoundTrip(t *testing.T) {
	cases := []string{"", "www.example.com", "GET", "gzip, deflate, br", "no-cache"}
	for _, s := range cases {
		enc := appendHuffman(nil, s)
		dec, err := huffmanDecode(enc, len(enc))
		if err != nil {
			t.Fatalf("%q: %v", s, err)
		}
		if dec != s {
			t.Fatalf("%q: decoded %q", s, dec)
		}
	}
}

func TestHuffmanEncodedLenMatchesOutput(t *testing.T) {
	s := "www.example.com"
	if got := huffmanEncodedLen(s); got != len(appendHuffman(nil, s)) {
		t.Fatalf("huffmanEncodedLen=%d, actual=%d", got, len(appendHuffman(nil, s)))
	}
}

func TestEncodeStaticIndex(t *testing.T) {
	enc := NewEncoder(&bytes.Buffer{})
	got := enc.EncodeFieldSection([]HeaderField{{":method", "GET"}})
	want := []byte{0x00, 0x00, 0xc0 | 17}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % x, want % x", got, want)
	}
}

func TestEncodeDecodeFieldSection(t *testing.T) {
	var encStream, decStream bytes.Buffer
	enc := NewEncoder(&encStream)
	dec := NewDecoder(&decStream)

	fields := []HeaderField{
		{":method", "GET"},
		{":path", "/index.html"},
		{"user-agent", "quince/1.0"},
		{"accept-encoding", "gzip, deflate, br"},
	}
	section := enc.EncodeFieldSection(fields)

	got, err := dec.DecodeFieldSection(section)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := deep.Equal(got, fields); diff != nil {
		t.Fatalf("round trip mismatch: %v", diff)
	}
}

func TestEncodeDecodeWithDynamicInsert(t *testing.T) {
	var encStream bytes.Buffer
	enc := NewEncoder(&encStream)
	if err := enc.SetMaxTableCapacity(4096); err != nil {
		t.Fatalf("set capacity: %v", err)
	}
	custom := HeaderField{"x-request-id", "abc-123"}
	if err := enc.Insert(custom); err != nil {
		t.Fatalf("insert: %v", err)
	}

	dec := NewDecoder(nil)
	consumed := 0
	for consumed < encStream.Len() {
		n, err := dec.ApplyInstruction(encStream.Bytes()[consumed:])
		if err != nil {
			t.Fatalf("apply instruction: %v", err)
		}
		consumed += n
	}

	fields := []HeaderField{custom, {":method", "GET"}}
	section := enc.EncodeFieldSection(fields)
	got, err := dec.DecodeFieldSection(section)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := deep.Equal(got, fields); diff != nil {
		t.Fatalf("round trip mismatch: %v", diff)
	}
}

func TestDynamicTableEviction(t *testing.T) {
	tbl := newDynamicTable()
	if err := tbl.setCapacity(entrySize(HeaderField{"a", "b"})); err != nil {
		t.Fatalf("set capacity: %v", err)
	}
	if _, err := tbl.insert(HeaderField{"a", "b"}); err != nil {
		t.Fatalf("insert 1: %v", err)
	}
	if _, err := tbl.insert(HeaderField{"c", "d"}); err != nil {
		t.Fatalf("insert 2 (should evict 1): %v", err)
	}
	if e := tbl.byAbsoluteIndex(1); e != nil {
		t.Fatalf("expected entry 1 evicted, got %v", e)
	}
	if e := tbl.byAbsoluteIndex(2); e == nil || e.Name != "c" {
		t.Fatalf("expected entry 2 present, got %v", e)
	}
}

func TestDynamicTableBlockedEviction(t *testing.T) {
	tbl := newDynamicTable()
	size := entrySize(HeaderField{"a", "b"})
	if err := tbl.setCapacity(size); err != nil {
		t.Fatalf("set capacity: %v", err)
	}
	tbl.insert(HeaderField{"a", "b"})
	e := tbl.byAbsoluteIndex(1)
	tbl.ref(e)
	if _, err := tbl.insert(HeaderField{"c", "d"}); err != ErrDynamicTableFull {
		t.Fatalf("expected ErrDynamicTableFull while referenced, got %v", err)
	}
	tbl.unref(e)
	if _, err := tbl.insert(HeaderField{"c", "d"}); err != nil {
		t.Fatalf("insert after unref: %v", err)
	}
}
