package transport

import (
	"context"
	"crypto/tls"
)

// tlsHandshake drives the TLS 1.3 handshake through crypto/tls's QUIC
// integration (added to the standard library specifically so QUIC
// implementations do not need to embed a TLS stack of their own). It
// translates QUICEvents into packet-number-space key installs and feeds
// CRYPTO stream bytes in both directions.
type tlsHandshake struct {
	conn     *Conn
	tlsConfig *tls.Config
	qconn    *tls.QUICConn

	started  bool
	complete bool
	peerParams *Parameters
}

func (h *tlsHandshake) init(c *Conn, config *tls.Config) {
	h.conn = c
	h.tlsConfig = config
	if c.isClient {
		h.qconn = tls.QUICClient(&tls.QUICConfig{TLSConfig: config})
	} else {
		h.qconn = tls.QUICServer(&tls.QUICConfig{TLSConfig: config})
	}
}

func (h *tlsHandshake) setTransportParams(p *Parameters) {
	if h.qconn != nil {
		h.qconn.SetTransportParameters(encodeTransportParameters(p))
	}
}

// doHandshake starts the handshake on first call, feeds it any newly
// reassembled CRYPTO bytes, and drains its event queue until it has
// nothing more to do right now.
func (h *tlsHandshake) doHandshake() error {
	if h.qconn == nil {
		return newError(InternalError, "handshake not initialized")
	}
	if !h.started {
		h.started = true
		if err := h.qconn.Start(context.Background()); err != nil {
			return tlsHandshakeErr(err)
		}
		if err := h.drainEvents(); err != nil {
			return err
		}
	}
	for space := packetSpaceInitial; space < packetSpaceCount; space++ {
		pnSpace := &h.conn.packetNumberSpaces[space]
		data := pnSpace.cryptoStream.popRecv()
		if len(data) == 0 {
			continue
		}
		level := quicLevelForSpace(space)
		if err := h.qconn.HandleData(level, data); err != nil {
			return tlsHandshakeErr(err)
		}
		if err := h.drainEvents(); err != nil {
			return err
		}
	}
	return nil
}

func (h *tlsHandshake) drainEvents() error {
	for {
		ev := h.qconn.NextEvent()
		switch ev.Kind {
		case tls.QUICNoEvent:
			return nil
		case tls.QUICSetReadSecret:
			space := packetSpaceForQUICLevel(ev.Level)
			h.conn.packetNumberSpaces[space].opener = deriveAEADKeys(ev.Data)
		case tls.QUICSetWriteSecret:
			space := packetSpaceForQUICLevel(ev.Level)
			h.conn.packetNumberSpaces[space].sealer = deriveAEADKeys(ev.Data)
		case tls.QUICWriteData:
			space := packetSpaceForQUICLevel(ev.Level)
			h.conn.packetNumberSpaces[space].cryptoStream.pushSend(ev.Data)
		case tls.QUICTransportParameters:
			params, err := decodeTransportParameters(ev.Data)
			if err != nil {
				return err
			}
			h.peerParams = params
		case tls.QUICHandshakeDone:
			h.complete = true
		case tls.QUICTransportParametersRequired:
			h.setTransportParams(&h.conn.localParams)
		}
	}
}

func (h *tlsHandshake) HandshakeComplete() bool {
	return h.complete
}

func (h *tlsHandshake) peerTransportParams() *Parameters {
	return h.peerParams
}

// writeSpace returns the packet-number space matching the handshake's
// current write level, used when the connection must send a probe and no
// space is otherwise ready.
func (h *tlsHandshake) writeSpace() packetSpace {
	if h.complete {
		return packetSpaceApplication
	}
	for space := packetSpaceApplication - 1; space >= packetSpaceInitial; space-- {
		if h.conn.packetNumberSpaces[space].canEncrypt() {
			return space
		}
	}
	return packetSpaceInitial
}

// reset restarts the handshake object after Retry or Version Negotiation,
// since crypto/tls's QUICConn cannot be reused once started.
func (h *tlsHandshake) reset() {
	config := h.tlsConfig
	c := h.conn
	*h = tlsHandshake{}
	h.init(c, config)
}

func quicLevelForSpace(space packetSpace) tls.QUICEncryptionLevel {
	switch space {
	case packetSpaceInitial:
		return tls.QUICEncryptionLevelInitial
	case packetSpaceHandshake:
		return tls.QUICEncryptionLevelHandshake
	default:
		return tls.QUICEncryptionLevelApplication
	}
}

func packetSpaceForQUICLevel(level tls.QUICEncryptionLevel) packetSpace {
	switch level {
	case tls.QUICEncryptionLevelInitial:
		return packetSpaceInitial
	case tls.QUICEncryptionLevelHandshake:
		return packetSpaceHandshake
	default:
		return packetSpaceApplication
	}
}

// tlsHandshakeErr wraps a crypto/tls QUIC handshake failure as a
// CRYPTO_ERROR (RFC 9000 §20.1 treats every TLS alert as 0x100+alert; the
// actual alert number is folded into crypto/tls's QUICError.Error text
// rather than parsed back out here).
func tlsHandshakeErr(err error) error {
	return newError(CryptoError(0x28), err.Error())
}
