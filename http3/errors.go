package http3

import "fmt"

// ErrorCode is an HTTP/3 application error code (RFC 9114 §8.1) or one of
// the QPACK stream error codes it shares a namespace with (RFC 9204 §8.1).
type ErrorCode uint64

const (
	ErrNoError            ErrorCode = 0x100
	ErrGeneralProtocol    ErrorCode = 0x101
	ErrInternalError      ErrorCode = 0x102
	ErrStreamCreation     ErrorCode = 0x103
	ErrClosedCriticalStream ErrorCode = 0x104
	ErrFrameUnexpected    ErrorCode = 0x105
	ErrFrameError         ErrorCode = 0x106
	ErrExcessiveLoad      ErrorCode = 0x107
	ErrIDError            ErrorCode = 0x108
	ErrSettingsError      ErrorCode = 0x109
	ErrMissingSettings    ErrorCode = 0x10a
	ErrRequestRejected    ErrorCode = 0x10b
	ErrRequestCancelled   ErrorCode = 0x10c
	ErrRequestIncomplete  ErrorCode = 0x10d
	ErrMessageError       ErrorCode = 0x10e
	ErrConnectError       ErrorCode = 0x10f
	ErrVersionFallback    ErrorCode = 0x110

	ErrQPACKDecompressionFailed ErrorCode = 0x200
	ErrQPACKEncoderStreamError  ErrorCode = 0x201
	ErrQPACKDecoderStreamError  ErrorCode = 0x202
)

func (e ErrorCode) String() string {
	switch e {
	case ErrNoError:
		return "h3_no_error"
	case ErrGeneralProtocol:
		return "h3_general_protocol_error"
	case ErrInternalError:
		return "h3_internal_error"
	case ErrStreamCreation:
		return "h3_stream_creation_error"
	case ErrClosedCriticalStream:
		return "h3_closed_critical_stream"
	case ErrFrameUnexpected:
		return "h3_frame_unexpected"
	case ErrFrameError:
		return "h3_frame_error"
	case ErrExcessiveLoad:
		return "h3_excessive_load"
	case ErrIDError:
		return "h3_id_error"
	case ErrSettingsError:
		return "h3_settings_error"
	case ErrMissingSettings:
		return "h3_missing_settings"
	case ErrRequestRejected:
		return "h3_request_rejected"
	case ErrRequestCancelled:
		return "h3_request_cancelled"
	case ErrRequestIncomplete:
		return "h3_request_incomplete"
	case ErrMessageError:
		return "h3_message_error"
	case ErrConnectError:
		return "h3_connect_error"
	case ErrVersionFallback:
		return "h3_version_fallback"
	case ErrQPACKDecompressionFailed:
		return "qpack_decompression_failed"
	case ErrQPACKEncoderStreamError:
		return "qpack_encoder_stream_error"
	case ErrQPACKDecoderStreamError:
		return "qpack_decoder_stream_error"
	default:
		return fmt.Sprintf("h3_error_0x%x", uint64(e))
	}
}

// h3Error pairs an ErrorCode with a human-readable reason, matching the
// shape of transport's own error type.
type h3Error struct {
	code   ErrorCode
	reason string
}

func newError(code ErrorCode, reason string) error {
	return &h3Error{code: code, reason: reason}
}

func (e *h3Error) Error() string {
	if e.reason == "" {
		return e.code.String()
	}
	return e.code.String() + ": " + e.reason
}

// Code returns the HTTP/3 error code carried by err, if any.
func Code(err error) (ErrorCode, bool) {
	he, ok := err.(*h3Error)
	if !ok {
		return 0, false
	}
	return he.code, true
}
