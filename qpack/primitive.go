// Package qpack implements QPACK (RFC 9204), the header compression
// format used by HTTP/3 in place of HPACK. It provides the static and
// dynamic tables, the Huffman and prefixed-integer codecs, and an
// Encoder/Decoder pair driven by the encoder/decoder instruction streams.
package qpack

import "errors"

// ErrIntegerOverflow is returned when a prefixed integer's continuation
// bytes (RFC 7541 §5.1, reused unmodified by QPACK) take its value above
// 2^62, the QUIC varint cap.
var ErrIntegerOverflow = errors.New("qpack: integer overflow")

// errNeedMoreData signals that b does not yet hold a complete field; the
// caller should wait for more bytes to arrive rather than treating this as
// malformed input, since QPACK instructions can be split across
// datagrams/stream reads.
var errNeedMoreData = errors.New("qpack: incomplete input")

// appendPrefixedInt appends n as an N-bit prefixed integer (RFC 7541
// §5.1) to dst. prefixBits is the number of low bits of dst's last byte
// (already written by the caller, e.g. with flag bits) available for n;
// dst must be non-empty.
func appendPrefixedInt(dst []byte, prefixBits uint8, n uint64) []byte {
	max := uint64(1)<<prefixBits - 1
	last := len(dst) - 1
	if n < max {
		dst[last] |= byte(n)
		return dst
	}
	dst[last] |= byte(max)
	n -= max
	for n >= 128 {
		dst = append(dst, byte(n%128+128))
		n /= 128
	}
	dst = append(dst, byte(n))
	return dst
}

// decodePrefixedInt decodes an N-bit prefixed integer starting at b[0],
// returning the value, the number of bytes consumed, and an error.
func decodePrefixedInt(b []byte, prefixBits uint8) (uint64, int, error) {
	if len(b) == 0 {
		return 0, 0, errNeedMoreData
	}
	max := uint64(1)<<prefixBits - 1
	n := uint64(b[0]) & max
	if n < max {
		return n, 1, nil
	}
	var m uint64
	for i := 1; ; i++ {
		if i >= len(b) {
			return 0, 0, errNeedMoreData
		}
		octet := b[i]
		n += uint64(octet&0x7f) << m
		if n > 1<<62 {
			return 0, 0, ErrIntegerOverflow
		}
		m += 7
		if octet&0x80 == 0 {
			return n, i + 1, nil
		}
	}
}
