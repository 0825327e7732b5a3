package transport

import "time"

// Transport parameter identifiers (RFC 9000 §18.2).
const (
	paramOriginalDestinationCID = 0x00
	paramMaxIdleTimeout         = 0x01
	paramStatelessResetToken    = 0x02
	paramMaxUDPPayloadSize      = 0x03
	paramInitialMaxData         = 0x04
	paramInitialMaxStreamDataBidiLocal  = 0x05
	paramInitialMaxStreamDataBidiRemote = 0x06
	paramInitialMaxStreamDataUni        = 0x07
	paramInitialMaxStreamsBidi          = 0x08
	paramInitialMaxStreamsUni           = 0x09
	paramAckDelayExponent               = 0x0a
	paramMaxAckDelay                    = 0x0b
	paramDisableActiveMigration         = 0x0c
	paramActiveConnectionIDLimit        = 0x0e
	paramInitialSourceCID               = 0x0f
	paramRetrySourceCID                 = 0x10
)

func appendParamBytes(b []byte, id uint64, v []byte) []byte {
	b = appendVarint(b, id)
	b = appendVarint(b, uint64(len(v)))
	return append(b, v...)
}

func appendParamVarint(b []byte, id uint64, v uint64) []byte {
	b = appendVarint(b, id)
	b = appendVarint(b, uint64(varintLen(v)))
	return appendVarint(b, v)
}

func appendParamEmpty(b []byte, id uint64) []byte {
	b = appendVarint(b, id)
	return appendVarint(b, 0)
}

// encodeTransportParameters serializes p into the wire format carried
// inside the TLS quic_transport_parameters extension (RFC 9000 §18.1).
func encodeTransportParameters(p *Parameters) []byte {
	var b []byte
	if len(p.OriginalDestinationCID) > 0 {
		b = appendParamBytes(b, paramOriginalDestinationCID, p.OriginalDestinationCID)
	}
	if p.MaxIdleTimeout > 0 {
		b = appendParamVarint(b, paramMaxIdleTimeout, uint64(p.MaxIdleTimeout.Milliseconds()))
	}
	if len(p.StatelessResetToken) > 0 {
		b = appendParamBytes(b, paramStatelessResetToken, p.StatelessResetToken)
	}
	if p.MaxUDPPayloadSize > 0 {
		b = appendParamVarint(b, paramMaxUDPPayloadSize, p.MaxUDPPayloadSize)
	}
	b = appendParamVarint(b, paramInitialMaxData, p.InitialMaxData)
	b = appendParamVarint(b, paramInitialMaxStreamDataBidiLocal, p.InitialMaxStreamDataBidiLocal)
	b = appendParamVarint(b, paramInitialMaxStreamDataBidiRemote, p.InitialMaxStreamDataBidiRemote)
	b = appendParamVarint(b, paramInitialMaxStreamDataUni, p.InitialMaxStreamDataUni)
	b = appendParamVarint(b, paramInitialMaxStreamsBidi, p.InitialMaxStreamsBidi)
	b = appendParamVarint(b, paramInitialMaxStreamsUni, p.InitialMaxStreamsUni)
	if p.AckDelayExponent != 3 {
		b = appendParamVarint(b, paramAckDelayExponent, uint64(p.AckDelayExponent))
	}
	if p.MaxAckDelay > 0 {
		b = appendParamVarint(b, paramMaxAckDelay, uint64(p.MaxAckDelay.Milliseconds()))
	}
	if p.DisableActiveMigration {
		b = appendParamEmpty(b, paramDisableActiveMigration)
	}
	if p.ActiveConnectionIDLimit > 0 {
		b = appendParamVarint(b, paramActiveConnectionIDLimit, p.ActiveConnectionIDLimit)
	}
	if p.InitialSourceCID != nil {
		b = appendParamBytes(b, paramInitialSourceCID, p.InitialSourceCID)
	}
	if len(p.RetrySourceCID) > 0 {
		b = appendParamBytes(b, paramRetrySourceCID, p.RetrySourceCID)
	}
	return b
}

// decodeTransportParameters parses the peer's quic_transport_parameters
// extension payload.
func decodeTransportParameters(b []byte) (*Parameters, error) {
	p := &Parameters{AckDelayExponent: 3}
	for len(b) > 0 {
		var id, length uint64
		n := getVarint(b, &id)
		if n == 0 {
			return nil, newError(TransportParameterError, "param id")
		}
		b = b[n:]
		n = getVarint(b, &length)
		if n == 0 {
			return nil, newError(TransportParameterError, "param length")
		}
		b = b[n:]
		if uint64(len(b)) < length {
			return nil, newError(TransportParameterError, "param value")
		}
		v := b[:length]
		b = b[length:]
		switch id {
		case paramOriginalDestinationCID:
			p.OriginalDestinationCID = append([]byte(nil), v...)
		case paramMaxIdleTimeout:
			p.MaxIdleTimeout = decodeParamDuration(v)
		case paramStatelessResetToken:
			p.StatelessResetToken = append([]byte(nil), v...)
		case paramMaxUDPPayloadSize:
			p.MaxUDPPayloadSize = decodeParamVarint(v)
		case paramInitialMaxData:
			p.InitialMaxData = decodeParamVarint(v)
		case paramInitialMaxStreamDataBidiLocal:
			p.InitialMaxStreamDataBidiLocal = decodeParamVarint(v)
		case paramInitialMaxStreamDataBidiRemote:
			p.InitialMaxStreamDataBidiRemote = decodeParamVarint(v)
		case paramInitialMaxStreamDataUni:
			p.InitialMaxStreamDataUni = decodeParamVarint(v)
		case paramInitialMaxStreamsBidi:
			p.InitialMaxStreamsBidi = decodeParamVarint(v)
		case paramInitialMaxStreamsUni:
			p.InitialMaxStreamsUni = decodeParamVarint(v)
		case paramAckDelayExponent:
			p.AckDelayExponent = uint8(decodeParamVarint(v))
		case paramMaxAckDelay:
			p.MaxAckDelay = decodeParamDuration(v)
		case paramDisableActiveMigration:
			p.DisableActiveMigration = true
		case paramActiveConnectionIDLimit:
			p.ActiveConnectionIDLimit = decodeParamVarint(v)
		case paramInitialSourceCID:
			p.InitialSourceCID = append([]byte(nil), v...)
		case paramRetrySourceCID:
			p.RetrySourceCID = append([]byte(nil), v...)
		}
	}
	return p, nil
}

func decodeParamVarint(v []byte) uint64 {
	var x uint64
	getVarint(v, &x)
	return x
}

func decodeParamDuration(v []byte) time.Duration {
	return time.Duration(decodeParamVarint(v)) * time.Millisecond
}
