package transport

import "testing"

func TestVarintRoundTrip(t *testing.T) {
	values := []uint64{
		0, 1, 37, 63,
		64, 300, 16383,
		16384, 65535, 1073741823,
		1073741824, 1 << 40, maxVarint,
	}
	for _, v := range values {
		b := appendVarint(nil, v)
		if len(b) != varintLen(v) {
			t.Fatalf("appendVarint(%d): len = %d, want %d", v, len(b), varintLen(v))
		}
		var got uint64
		n := getVarint(b, &got)
		if n != len(b) {
			t.Fatalf("getVarint(%d): consumed %d, want %d", v, n, len(b))
		}
		if got != v {
			t.Fatalf("getVarint(%d): got %d", v, got)
		}
	}
}

func TestVarintLengthBoundaries(t *testing.T) {
	cases := []struct {
		v    uint64
		want int
	}{
		{0, 1},
		{63, 1},
		{64, 2},
		{16383, 2},
		{16384, 4},
		{1073741823, 4},
		{1073741824, 8},
		{maxVarint, 8},
	}
	for _, c := range cases {
		if got := varintLen(c.v); got != c.want {
			t.Errorf("varintLen(%d) = %d, want %d", c.v, got, c.want)
		}
		var tmp [8]byte
		if got := putVarint(tmp[:], c.v); got != c.want {
			t.Errorf("putVarint(%d) wrote %d bytes, want %d", c.v, got, c.want)
		}
	}
}

func TestVarintLengthTagBits(t *testing.T) {
	// The two MSBs of the first byte must match the encoded length class,
	// regardless of value magnitude within the class.
	tagOf := func(v uint64) byte {
		b := appendVarint(nil, v)
		return b[0] >> 6
	}
	if got := tagOf(0); got != 0 {
		t.Errorf("tag(0) = %d, want 0", got)
	}
	if got := tagOf(64); got != 1 {
		t.Errorf("tag(64) = %d, want 1", got)
	}
	if got := tagOf(16384); got != 2 {
		t.Errorf("tag(16384) = %d, want 2", got)
	}
	if got := tagOf(1073741824); got != 3 {
		t.Errorf("tag(1073741824) = %d, want 3", got)
	}
}

func TestGetVarintIncomplete(t *testing.T) {
	// A 2-byte encoding with only its first byte present must report no
	// bytes consumed rather than read out of bounds.
	full := appendVarint(nil, 300)
	var v uint64
	if n := getVarint(full[:1], &v); n != 0 {
		t.Fatalf("getVarint(truncated) = %d, want 0", n)
	}
	if n := getVarint(nil, &v); n != 0 {
		t.Fatalf("getVarint(nil) = %d, want 0", n)
	}
}

func TestVarintOverflowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("varintLen(maxVarint+1) did not panic")
		}
	}()
	varintLen(maxVarint + 1)
}
