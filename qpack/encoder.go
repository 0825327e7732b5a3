package qpack

import "io"

// Encoder turns header field lists into QPACK-encoded field sections. It
// owns one dynamic table and writes encoder-stream instructions to
// encoderStream as entries are inserted.
//
// Policy: new entries are added to the dynamic table only through an
// explicit call to Insert, never implicitly while encoding a field
// section. This keeps the Required Insert Count of every encoded section
// equal to the table's insert count at call time (no post-base indices,
// no just-inserted-this-section bookkeeping), at the cost of never
// opportunistically indexing one-off headers. Frequently repeated
// headers (a fixed set of response headers, for example) should be
// inserted once up front with Insert and then referenced from every
// subsequent EncodeFieldSection call.
type Encoder struct {
	table         *dynamicTable
	encoderStream io.Writer

	// maxBlockedStreams is not set or read anywhere in this package; Insert
	// and EncodeFieldSection do not limit how many of the peer's streams may
	// be blocked.
	maxBlockedStreams uint64
}

// NewEncoder creates an Encoder that writes dynamic-table updates to
// encoderStream (the connection's unidirectional QPACK encoder stream).
func NewEncoder(encoderStream io.Writer) *Encoder {
	return &Encoder{table: newDynamicTable(), encoderStream: encoderStream}
}

// SetMaxTableCapacity applies the peer's SETTINGS_QPACK_MAX_TABLE_CAPACITY
// and tells it so via a Set Dynamic Table Capacity instruction.
func (e *Encoder) SetMaxTableCapacity(capacity uint64) error {
	if err := e.table.setCapacity(capacity); err != nil {
		return err
	}
	buf := []byte{instSetCapacity}
	buf = appendPrefixedInt(buf, 5, capacity)
	_, err := e.encoderStream.Write(buf)
	return err
}

// Insert adds f to the dynamic table and announces it on the encoder
// stream so EncodeFieldSection can reference it afterwards.
func (e *Encoder) Insert(f HeaderField) error {
	if _, err := e.table.insert(f); err != nil {
		return err
	}
	var buf []byte
	if nameIdx, ok := staticNameIndex[f.Name]; ok {
		buf = []byte{instInsertWithNameRef | 0x40} // T=1: static name
		buf = appendPrefixedInt(buf, 6, uint64(nameIdx))
	} else {
		buf = []byte{instInsertWithLiteral}
		buf = appendString(buf, 5, f.Name)
	}
	buf = append(buf, 0)
	buf = appendString(buf, 7, f.Value)
	_, err := e.encoderStream.Write(buf)
	return err
}

// appendString appends a QPACK string literal (RFC 9204 §4.1.2) whose
// first byte is dst's last byte, already written by the caller: it sets the
// H bit there when Huffman coding is shorter, writes the length into that
// byte's low prefixBits bits, then appends the (possibly Huffman-coded)
// bytes.
func appendString(dst []byte, prefixBits uint8, s string) []byte {
	hLen := huffmanEncodedLen(s)
	if hLen < len(s) {
		dst[len(dst)-1] |= huffmanStringFlag(prefixBits)
		dst = appendPrefixedInt(dst, prefixBits, uint64(hLen))
		dst = appendHuffman(dst, s)
		return dst
	}
	dst = appendPrefixedInt(dst, prefixBits, uint64(len(s)))
	dst = append(dst, s...)
	return dst
}

// huffmanStringFlag returns the H-bit mask for a string literal whose
// length prefix uses prefixBits bits: the H bit sits directly above the
// length prefix.
func huffmanStringFlag(prefixBits uint8) byte {
	return 1 << prefixBits
}

// EncodeFieldSection encodes fields as one QPACK field section (RFC 9204
// §4.5): a 2-byte-minimum prefix (Required Insert Count, Base, both
// currently equal to the table's insert count under this Encoder's
// never-index-inline policy) followed by one field line per field.
func (e *Encoder) EncodeFieldSection(fields []HeaderField) []byte {
	ric := e.table.insertCount
	var buf []byte
	buf = appendRequiredInsertCount(buf, ric)
	// Base == RIC here (sign bit 0, delta 0).
	buf = append(buf, 0)
	for _, f := range fields {
		buf = e.encodeField(buf, f, ric)
	}
	return buf
}

func appendRequiredInsertCount(dst []byte, ric uint64) []byte {
	dst = append(dst, 0)
	return appendPrefixedInt(dst, 8, encodeRIC(ric))
}

// encodeRIC is a simplified form of RFC 9204 §4.5.1.1's encoding that
// skips the modulo 2*MaxEntries wraparound: this package's Decoder only
// ever reads sections produced by this package's Encoder, and the two
// stay within range of each other for the lifetime of a connection, so
// the wraparound case never arises in practice here.
func encodeRIC(ric uint64) uint64 {
	if ric == 0 {
		return 0
	}
	return ric + 1
}

func (e *Encoder) encodeField(buf []byte, f HeaderField, ric uint64) []byte {
	if idx, ok := staticFullIndex[f]; ok {
		buf = append(buf, fieldIndexedStatic)
		return appendPrefixedInt(buf, 6, uint64(idx))
	}
	if idx, ok := e.dynamicFullIndex(f); ok {
		rel := ric - idx // relative index into the dynamic table, RFC 9204 §4.5.1
		buf = append(buf, 0x80)
		return appendPrefixedInt(buf, 6, rel)
	}
	// Literal. Prefer a name reference (static or dynamic) over a fully
	// literal name when possible; never index (N=1).
	if nameIdx, ok := staticNameIndex[f.Name]; ok {
		buf = append(buf, fieldLiteralNameRef|0x30) // N=1, T=1 (static)
		buf = appendPrefixedInt(buf, 4, uint64(nameIdx))
		buf = append(buf, 0)
		return appendString(buf, 7, f.Value)
	}
	if idx, ok := e.dynamicNameIndex(f.Name); ok {
		rel := ric - idx
		buf = append(buf, fieldLiteralNameRef|0x10) // N=1, T=0 (dynamic)
		buf = appendPrefixedInt(buf, 4, rel)
		buf = append(buf, 0)
		return appendString(buf, 7, f.Value)
	}
	flag := byte(fieldLiteralLiteralName | 0x10) // N=1
	buf = append(buf, flag)
	buf = appendString(buf, 3, f.Name)
	buf = append(buf, 0)
	return appendString(buf, 7, f.Value)
}

func (e *Encoder) dynamicFullIndex(f HeaderField) (uint64, bool) {
	for i := len(e.table.entries) - 1; i >= 0; i-- {
		en := e.table.entries[i]
		if en.Name == f.Name && en.Value == f.Value {
			return en.insertCount, true
		}
	}
	return 0, false
}

func (e *Encoder) dynamicNameIndex(name string) (uint64, bool) {
	for i := len(e.table.entries) - 1; i >= 0; i-- {
		en := e.table.entries[i]
		if en.Name == name {
			return en.insertCount, true
		}
	}
	return 0, false
}
