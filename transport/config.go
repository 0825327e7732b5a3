package transport

import (
	"crypto/tls"
	"time"
)

// CongestionAlgorithm names a pluggable congestion controller (spec §6.4).
type CongestionAlgorithm string

const (
	CongestionNewReno CongestionAlgorithm = "new_reno"
	CongestionCubic   CongestionAlgorithm = "cubic"
)

// Parameters is the set of QUIC transport parameters exchanged in the TLS
// handshake (RFC 9000 §18.2, spec §6.2/§6.4).
type Parameters struct {
	OriginalDestinationCID []byte
	InitialSourceCID       []byte
	RetrySourceCID         []byte
	StatelessResetToken    []byte

	MaxIdleTimeout              time.Duration
	MaxUDPPayloadSize           uint64
	InitialMaxData              uint64
	InitialMaxStreamDataBidiLocal  uint64
	InitialMaxStreamDataBidiRemote uint64
	InitialMaxStreamDataUni        uint64
	InitialMaxStreamsBidi       uint64
	InitialMaxStreamsUni        uint64
	AckDelayExponent            uint8
	MaxAckDelay                 time.Duration
	DisableActiveMigration      bool
	ActiveConnectionIDLimit     uint64
}

// defaultParameters returns the parameters a Config starts from before any
// application overrides (spec §6.4's enumerated defaults).
func defaultParameters() Parameters {
	return Parameters{
		MaxIdleTimeout:                 30 * time.Second,
		MaxUDPPayloadSize:              1452,
		InitialMaxData:                 1 << 20,
		InitialMaxStreamDataBidiLocal:  1 << 18,
		InitialMaxStreamDataBidiRemote: 1 << 18,
		InitialMaxStreamDataUni:        1 << 18,
		InitialMaxStreamsBidi:          100,
		InitialMaxStreamsUni:           100,
		AckDelayExponent:               3,
		MaxAckDelay:                    25 * time.Millisecond,
		ActiveConnectionIDLimit:        4,
	}
}

// Config is everything a Conn needs for its lifetime: the QUIC version to
// speak, the local transport parameters to offer, the TLS configuration
// (with the QUIC extension data the handshake adapter installs), and the
// congestion controller to run.
type Config struct {
	Version              uint32
	Params               Parameters
	TLS                  *tls.Config
	CongestionAlgorithm  CongestionAlgorithm
	QlogWriter           func(LogEvent)
}

// NewConfig returns a Config with spec-mandated defaults, ready for the
// caller to override specific fields.
func NewConfig() *Config {
	return &Config{
		Version:             versionQUIC1,
		Params:              defaultParameters(),
		CongestionAlgorithm: CongestionNewReno,
	}
}
