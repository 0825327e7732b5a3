package transport

import "time"

// packetNumberSpace holds everything specific to one of the three packet
// number spaces (spec §4.2/§4.7): its own keys, its own packet-number
// sequence, its own ack bookkeeping and its own CRYPTO stream.
type packetNumberSpace struct {
	opener aeadKeys // decrypts packets from the peer
	sealer aeadKeys // encrypts packets to the peer

	nextPacketNumber uint64
	largestRecvPN    uint64
	recvPacketNums   rangeSet // packet numbers seen, for duplicate detection

	ackElicited           bool
	firstPacketAcked      bool
	largestRecvPacketTime time.Time
	recvPacketNeedAck     rangeSet

	cryptoStream cryptoStream

	dropped bool
}

func (p *packetNumberSpace) init() {
	p.cryptoStream.init()
}

func (p *packetNumberSpace) canDecrypt() bool {
	return !p.dropped && p.opener.aead != nil
}

func (p *packetNumberSpace) canEncrypt() bool {
	return !p.dropped && p.sealer.aead != nil
}

// decryptPacket removes header protection, decodes the now-plain packet
// number and decrypts the payload in place (spec §4.2, RFC 9001 §5.4-5.5).
func (p *packetNumberSpace) decryptPacket(b []byte, pkt *packet) ([]byte, int, error) {
	pnOffset := pkt.headerLen
	if len(b) < pnOffset+4+16 {
		return nil, 0, errShortBuffer
	}
	sampleOffset := pnOffset + 4
	sample := b[sampleOffset : sampleOffset+16]
	mask := headerProtectionMask(p.opener.hp, sample)
	if b[0]&0x80 != 0 {
		b[0] ^= mask[0] & 0x0f
	} else {
		b[0] ^= mask[0] & 0x1f
	}
	pnLen := int(b[0]&0x03) + 1
	for i := 0; i < pnLen; i++ {
		b[pnOffset+i] ^= mask[1+i]
	}
	pn := decodePacketNumber(b[pnOffset:pnOffset+pnLen], p.largestRecvPN)
	pkt.packetNumber = pn
	pkt.packetNumberLen = pnLen
	headerEnd := pnOffset + pnLen
	header := b[:headerEnd]
	ciphertext := b[headerEnd:pkt.payloadLen]
	nonce := packetNonce(p.opener.iv, pn)
	plain, err := p.opener.aead.Open(ciphertext[:0], nonce, ciphertext, header)
	if err != nil {
		return nil, 0, newError(CryptoBufferExceeded, "packet protection decrypt failed")
	}
	return plain, pkt.payloadLen, nil
}

// encryptPacket applies packet protection and header protection in place
// (RFC 9001 §5.3-5.4). pkt.payloadLen includes the AEAD tag.
func (p *packetNumberSpace) encryptPacket(b []byte, pkt *packet) {
	pnOffset := pkt.headerLen
	pnLen := pkt.packetNumberLen
	headerEnd := pnOffset + pnLen
	header := b[:headerEnd]
	nonce := packetNonce(p.sealer.iv, pkt.packetNumber)
	plainEnd := len(b) - p.sealer.aead.Overhead()
	payload := b[headerEnd:plainEnd]
	p.sealer.aead.Seal(payload[:0], nonce, payload, header)
	sampleOffset := pnOffset + 4
	sample := b[sampleOffset : sampleOffset+16]
	mask := headerProtectionMask(p.sealer.hp, sample)
	if b[0]&0x80 != 0 {
		b[0] ^= mask[0] & 0x0f
	} else {
		b[0] ^= mask[0] & 0x1f
	}
	for i := 0; i < pnLen; i++ {
		b[pnOffset+i] ^= mask[1+i]
	}
}

func (p *packetNumberSpace) isPacketReceived(pn uint64) bool {
	return p.recvPacketNums.contains(pn)
}

func (p *packetNumberSpace) onPacketReceived(pn uint64, now time.Time) {
	p.recvPacketNums.push(pn)
	p.recvPacketNeedAck.push(pn)
	if pn >= p.largestRecvPN {
		p.largestRecvPN = pn
		p.largestRecvPacketTime = now
	}
}

// ready reports whether there is an ACK, or anything buffered in the
// CRYPTO stream, waiting to go out in this space.
func (p *packetNumberSpace) ready() bool {
	if p.ackElicited {
		return true
	}
	return p.cryptoStream.send.hasPending()
}

// drop discards all state for the space once it is no longer needed (spec
// §4.7: Initial and Handshake keys are discarded after use).
func (p *packetNumberSpace) drop() {
	p.dropped = true
	p.opener = aeadKeys{}
	p.sealer = aeadKeys{}
	p.cryptoStream = cryptoStream{}
	p.recvPacketNeedAck = rangeSet{}
}

// reset reinitializes a space for a fresh round of Initial packets after
// Retry or Version Negotiation.
func (p *packetNumberSpace) reset() {
	p.nextPacketNumber = 0
	p.ackElicited = false
	p.firstPacketAcked = false
	p.cryptoStream = cryptoStream{}
	p.cryptoStream.init()
	p.recvPacketNeedAck = rangeSet{}
}

// decodePacketNumber reconstructs the full packet number from its
// truncated wire encoding given the largest packet number seen so far
// (RFC 9000 Appendix A).
func decodePacketNumber(trunc []byte, largest uint64) uint64 {
	var truncated uint64
	for _, b := range trunc {
		truncated = truncated<<8 | uint64(b)
	}
	pnLen := uint(len(trunc)) * 8
	pnWin := uint64(1) << pnLen
	pnHalfWin := pnWin / 2
	pnMask := pnWin - 1
	expected := largest + 1
	candidate := (expected &^ pnMask) | truncated
	switch {
	case candidate+pnHalfWin <= expected && candidate < (uint64(1)<<62)-pnWin:
		return candidate + pnWin
	case candidate > expected+pnHalfWin && candidate >= pnWin:
		return candidate - pnWin
	default:
		return candidate
	}
}
