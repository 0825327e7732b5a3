package transport

// cryptoStream is the in-order reassembly buffer for CRYPTO frames carried
// in one packet-number space (spec §4.2). It feeds the TLS adapter and
// carries its outgoing handshake bytes back out as CRYPTO frames.
type cryptoStream struct {
	send sendBuffer
	recv recvReassembler
}

func (c *cryptoStream) init() {
	c.send.init()
	c.recv.init()
}

// pushRecv reassembles an incoming CRYPTO frame's payload. fin is always
// false for CRYPTO frames (they have no explicit end marker).
func (c *cryptoStream) pushRecv(data []byte, offset uint64, fin bool) error {
	return c.recv.pushRecv(data, offset, fin)
}

// popRecv drains every contiguous byte currently available, handing it to
// the TLS adapter.
func (c *cryptoStream) popRecv() []byte {
	if len(c.recv.ready) == 0 {
		return nil
	}
	b := c.recv.ready
	c.recv.ready = nil
	c.recv.readOffset += uint64(len(b))
	return b
}

// pushSend appends TLS-library-produced handshake bytes to be sent as
// CRYPTO frames.
func (c *cryptoStream) pushSend(data []byte) {
	c.send.write(data)
}

// popSend returns up to max unsent bytes for a CRYPTO frame.
func (c *cryptoStream) popSend(max int) ([]byte, uint64, bool) {
	return c.send.popSend(max)
}
