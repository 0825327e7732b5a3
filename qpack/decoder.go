package qpack

import (
	"errors"
	"io"
)

// ErrBlocked is returned by Decoder.DecodeFieldSection when the section's
// Required Insert Count has not yet been reached by this decoder's
// dynamic table; the caller should hold the stream and retry once more
// encoder-stream instructions have arrived (RFC 9204 §2.1.2).
var ErrBlocked = errors.New("qpack: decoding blocked on dynamic table insert")

// ErrDecompressionFailed covers any other malformed encoded field
// section or instruction (maps to the QPACK_DECOMPRESSION_FAILED /
// QPACK_ENCODER_STREAM_ERROR connection errors at the HTTP/3 layer).
var ErrDecompressionFailed = errors.New("qpack: decompression failed")

// Decoder maintains the dynamic table driven by a peer Encoder's
// instruction stream, and decodes field sections referencing it.
type Decoder struct {
	table         *dynamicTable
	decoderStream io.Writer
}

// NewDecoder creates a Decoder that writes Section Acknowledgement /
// Insert Count Increment / Stream Cancellation instructions to
// decoderStream (the connection's unidirectional QPACK decoder stream).
func NewDecoder(decoderStream io.Writer) *Decoder {
	return &Decoder{table: newDynamicTable(), decoderStream: decoderStream}
}

// ApplyInstruction consumes one encoder-stream instruction from b,
// returning the number of bytes consumed.
func (d *Decoder) ApplyInstruction(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, errNeedMoreData
	}
	switch {
	case b[0]&0xe0 == instSetCapacity:
		cap, n, err := decodePrefixedInt(b, 5)
		if err != nil {
			return 0, err
		}
		if err := d.table.setCapacity(cap); err != nil {
			return 0, err
		}
		return n, nil
	case b[0]&0x80 != 0:
		return d.applyInsertWithNameRef(b)
	case b[0]&0xc0 == instInsertWithLiteral:
		return d.applyInsertWithLiteral(b)
	default:
		return d.applyDuplicate(b)
	}
}

func (d *Decoder) applyInsertWithNameRef(b []byte) (int, error) {
	static := b[0]&0x40 != 0
	nameIdx, n, err := decodePrefixedInt(b, 6)
	if err != nil {
		return 0, err
	}
	value, nn, err := decodeStringAt(b[n:], 7)
	if err != nil {
		return 0, err
	}
	var nameStr string
	if static {
		if int(nameIdx) >= len(staticTable) {
			return 0, ErrDecompressionFailed
		}
		nameStr = staticTable[nameIdx].name
	} else {
		e := d.table.byAbsoluteIndex(d.table.insertCount - nameIdx)
		if e == nil {
			return 0, ErrDecompressionFailed
		}
		nameStr = e.Name
	}
	if _, err := d.table.insert(HeaderField{Name: nameStr, Value: value}); err != nil {
		return 0, err
	}
	return n + nn, nil
}

func (d *Decoder) applyInsertWithLiteral(b []byte) (int, error) {
	name, n, err := decodeStringAt(b, 5)
	if err != nil {
		return 0, err
	}
	value, nn, err := decodeStringAt(b[n:], 7)
	if err != nil {
		return 0, err
	}
	if _, err := d.table.insert(HeaderField{Name: name, Value: value}); err != nil {
		return 0, err
	}
	return n + nn, nil
}

func (d *Decoder) applyDuplicate(b []byte) (int, error) {
	idx, n, err := decodePrefixedInt(b, 5)
	if err != nil {
		return 0, err
	}
	e := d.table.byAbsoluteIndex(d.table.insertCount - idx)
	if e == nil {
		return 0, ErrDecompressionFailed
	}
	if _, err := d.table.insert(e.HeaderField); err != nil {
		return 0, err
	}
	return n, nil
}

// decodeStringAt decodes one QPACK string literal (RFC 9204 §4.1.2)
// starting at b[0], whose length uses an N-bit prefix and whose leading
// bit above that prefix is the Huffman flag.
func decodeStringAt(b []byte, prefixBits uint8) (string, int, error) {
	if len(b) == 0 {
		return "", 0, errNeedMoreData
	}
	huff := b[0]&(1<<prefixBits) != 0
	length, n, err := decodePrefixedInt(b, prefixBits)
	if err != nil {
		return "", 0, err
	}
	rest := b[n:]
	if uint64(len(rest)) < length {
		return "", 0, errNeedMoreData
	}
	if huff {
		s, err := huffmanDecode(rest, int(length))
		if err != nil {
			return "", 0, err
		}
		return s, n + int(length), nil
	}
	return string(rest[:length]), n + int(length), nil
}

// DecodeFieldSection decodes one encoded field section. It returns
// ErrBlocked (not an error the connection should react to by itself) if
// the section's Required Insert Count has not yet arrived.
func (d *Decoder) DecodeFieldSection(b []byte) ([]HeaderField, error) {
	encodedRIC, n, err := decodePrefixedInt(b, 8)
	if err != nil {
		return nil, err
	}
	ric := decodeRIC(encodedRIC)
	if ric > d.table.insertCount {
		return nil, ErrBlocked
	}
	if len(b) < n+1 {
		return nil, errNeedMoreData
	}
	// Base = RIC + signed delta; this decoder only ever receives sections
	// produced by this package's Encoder, which always sends delta 0.
	base := ric
	b = b[n+1:]
	var fields []HeaderField
	for len(b) > 0 {
		f, consumed, err := d.decodeField(b, ric, base)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
		b = b[consumed:]
	}
	return fields, nil
}

// decodeRIC is the inverse of Encoder.encodeRIC's simplified mapping.
func decodeRIC(v uint64) uint64 {
	if v == 0 {
		return 0
	}
	return v - 1
}

func (d *Decoder) decodeField(b []byte, ric, base uint64) (HeaderField, int, error) {
	switch {
	case b[0]&0x80 != 0:
		static := b[0]&0x40 != 0
		idx, n, err := decodePrefixedInt(b, 6)
		if err != nil {
			return HeaderField{}, 0, err
		}
		if static {
			if int(idx) >= len(staticTable) {
				return HeaderField{}, 0, ErrDecompressionFailed
			}
			e := staticTable[idx]
			return HeaderField{e.name, e.value}, n, nil
		}
		abs := base - idx
		e := d.table.byAbsoluteIndex(abs)
		if e == nil {
			return HeaderField{}, 0, ErrDecompressionFailed
		}
		return e.HeaderField, n, nil
	case b[0]&0x40 != 0: // literal with name reference
		neverIndex := b[0]&0x20 != 0
		_ = neverIndex
		static := b[0]&0x10 != 0
		idx, n, err := decodePrefixedInt(b, 4)
		if err != nil {
			return HeaderField{}, 0, err
		}
		var name string
		if static {
			if int(idx) >= len(staticTable) {
				return HeaderField{}, 0, ErrDecompressionFailed
			}
			name = staticTable[idx].name
		} else {
			abs := base - idx
			e := d.table.byAbsoluteIndex(abs)
			if e == nil {
				return HeaderField{}, 0, ErrDecompressionFailed
			}
			name = e.Name
		}
		value, vn, err := decodeStringAt(b[n:], 7)
		if err != nil {
			return HeaderField{}, 0, err
		}
		return HeaderField{name, value}, n + vn, nil
	case b[0]&0x20 != 0: // literal with literal name
		name, n, err := decodeStringAt(b, 3)
		if err != nil {
			return HeaderField{}, 0, err
		}
		value, vn, err := decodeStringAt(b[n:], 7)
		if err != nil {
			return HeaderField{}, 0, err
		}
		return HeaderField{name, value}, n + vn, nil
	default:
		return HeaderField{}, 0, ErrDecompressionFailed
	}
}

// AckStream writes a Section Acknowledgement instruction (RFC 9204 §4.4.1)
// naming streamID.
func (d *Decoder) AckStream(streamID uint64) error {
	buf := []byte{instSectionAck}
	buf = appendPrefixedInt(buf, 7, streamID)
	_, err := d.decoderStream.Write(buf)
	return err
}

// CancelStream writes a Stream Cancellation instruction (RFC 9204 §4.4.2)
// for a stream reset or abandoned before all its references were
// acknowledged.
func (d *Decoder) CancelStream(streamID uint64) error {
	buf := []byte{instStreamCancellation}
	buf = appendPrefixedInt(buf, 6, streamID)
	_, err := d.decoderStream.Write(buf)
	return err
}
