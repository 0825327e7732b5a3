package transport

import (
	"errors"
	"fmt"
)

// ErrorCode is a QUIC transport error code (RFC 9000 §20.1).
type ErrorCode uint64

// Transport error codes.
const (
	NoError                ErrorCode = 0x0
	InternalError          ErrorCode = 0x1
	ConnectionRefused      ErrorCode = 0x2
	FlowControlError       ErrorCode = 0x3
	StreamLimitError       ErrorCode = 0x4
	StreamStateError       ErrorCode = 0x5
	FinalSizeError         ErrorCode = 0x6
	FrameEncodingError     ErrorCode = 0x7
	TransportParameterError ErrorCode = 0x8
	ConnectionIDLimitError ErrorCode = 0x9
	ProtocolViolation      ErrorCode = 0xa
	InvalidToken           ErrorCode = 0xb
	ApplicationError       ErrorCode = 0xc
	CryptoBufferExceeded   ErrorCode = 0xd
	KeyUpdateError         ErrorCode = 0xe
	AEADLimitReached       ErrorCode = 0xf
	NoViablePath           ErrorCode = 0x10
	cryptoErrorBase        ErrorCode = 0x100
)

// CryptoError wraps a TLS alert into a transport error code.
func CryptoError(alert uint8) ErrorCode {
	return cryptoErrorBase + ErrorCode(alert)
}

func (e ErrorCode) String() string {
	if e >= cryptoErrorBase {
		return fmt.Sprintf("crypto_error_%d", e-cryptoErrorBase)
	}
	switch e {
	case NoError:
		return "no_error"
	case InternalError:
		return "internal_error"
	case ConnectionRefused:
		return "connection_refused"
	case FlowControlError:
		return "flow_control_error"
	case StreamLimitError:
		return "stream_limit_error"
	case StreamStateError:
		return "stream_state_error"
	case FinalSizeError:
		return "final_size_error"
	case FrameEncodingError:
		return "frame_encoding_error"
	case TransportParameterError:
		return "transport_parameter_error"
	case ConnectionIDLimitError:
		return "connection_id_limit_error"
	case ProtocolViolation:
		return "protocol_violation"
	case InvalidToken:
		return "invalid_token"
	case ApplicationError:
		return "application_error"
	case CryptoBufferExceeded:
		return "crypto_buffer_exceeded"
	case KeyUpdateError:
		return "key_update_error"
	case AEADLimitReached:
		return "aead_limit_reached"
	case NoViablePath:
		return "no_viable_path"
	default:
		return fmt.Sprintf("error_0x%x", uint64(e))
	}
}

func errorCodeString(e uint64) string {
	return ErrorCode(e).String()
}

// quicError is a transport-level error carrying an error code and reason.
type quicError struct {
	code   ErrorCode
	reason string
}

func newError(code ErrorCode, reason string) error {
	return &quicError{code: code, reason: reason}
}

func (e *quicError) Error() string {
	if e.reason == "" {
		return e.code.String()
	}
	return e.code.String() + ": " + e.reason
}

// Code returns the transport error code carried by err, if any.
func Code(err error) (ErrorCode, bool) {
	var qe *quicError
	if errors.As(err, &qe) {
		return qe.code, true
	}
	return 0, false
}

var (
	errInvalidToken = newError(InvalidToken, "invalid retry token")
	errFlowControl  = newError(FlowControlError, "flow control limit exceeded")
	errShortBuffer  = newError(InternalError, "buffer too short")
)
