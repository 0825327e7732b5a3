package quic

import "io"

// Server accepts incoming QUIC connections over a UDP socket and
// dispatches their events to a Handler.
type Server struct {
	ep *endpoint
}

// NewServer creates a Server from config. The TLS certificate(s) to
// present must already be set on config.TLS.
func NewServer(config *Config) *Server {
	return &Server{ep: newEndpoint(config, "")}
}

func (s *Server) SetHandler(h Handler) { s.ep.SetHandler(h) }

func (s *Server) SetLogger(level int, w io.Writer) { s.ep.SetLogger(level, w) }

// ListenAndServe opens addr and starts serving connections in the
// background; it returns once the socket is bound.
func (s *Server) ListenAndServe(addr string) error {
	return s.ep.listen(addr)
}

func (s *Server) Close() error {
	return s.ep.close()
}
