package http3

import "testing"

func TestVarintRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 63, 64, 16383, 16384, 1073741823, 1073741824, maxVarint}
	for _, v := range values {
		buf := appendVarint(nil, v)
		if len(buf) != varintLen(v) {
			t.Fatalf("varintLen(%d)=%d, encoded %d bytes", v, varintLen(v), len(buf))
		}
		got, n := getVarint(buf)
		if n != len(buf) || got != v {
			t.Fatalf("getVarint(%v) = %d, %d; want %d, %d", buf, got, n, v, len(buf))
		}
	}
}

func TestVarintTruncated(t *testing.T) {
	buf := appendVarint(nil, 16384)
	_, n := getVarint(buf[:1])
	if n != 0 {
		t.Fatalf("expected 0 for truncated varint, got %d", n)
	}
}
