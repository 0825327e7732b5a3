package qpack

// Encoder stream instructions (RFC 9204 §4.3), written by an Encoder and
// read by the peer's Decoder to keep its copy of the dynamic table in
// sync.
const (
	instSetCapacity        = 0x20 // 001xxxxx
	instInsertWithNameRef   = 0x80 // 1Txxxxxx, T=1 static / T=0 dynamic
	instInsertWithLiteral   = 0x40 // 01Hxxxxx
	instDuplicate           = 0x00 // 000xxxxx
)

// Decoder stream instructions (RFC 9204 §4.4), written by a Decoder and
// read by the peer's Encoder.
const (
	instSectionAck          = 0x80 // 1xxxxxxx
	instStreamCancellation  = 0x40 // 01xxxxxx
	instInsertCountIncrement = 0x00 // 00xxxxxx
)

// Field line representation prefixes within an encoded field section
// (RFC 9204 §4.5).
const (
	fieldIndexedStatic      = 0xc0 // 1Txxxxxx, indexed, T=1 static
	fieldIndexedPostBase    = 0x10 // 0001xxxx, indexed, dynamic post-base
	fieldLiteralNameRef     = 0x40 // 01NTxxxx, literal with name reference
	fieldLiteralPostBase    = 0x08 // 0000 1xxx, literal with post-base name reference
	fieldLiteralLiteralName = 0x20 // 001Nxxxx, literal with literal name
)
