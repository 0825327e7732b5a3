package upgrade

import (
	"bufio"
	"crypto/tls"
	"net"
)

// Handler is told which protocol a freshly accepted connection sniffed
// to, along with the bytes already consumed while detecting it; conn's
// remaining, unread bytes still belong to the handler. Detection-level
// parsing stops here: what HTTP1/HTTP2/H3 actually do with the
// connection is outside this package.
type Handler interface {
	ServeHTTP1(conn net.Conn, peeked []byte)
	ServeHTTP2(conn net.Conn, peeked []byte)
}

// Server runs the plain-HTTP and HTTPS front doors described in spec
// §6.2: sniff the first bytes of every accepted TCP connection (or, on
// the HTTPS listener, negotiate ALPN during the handshake) and hand the
// connection to Handler once its protocol is known, advertising HTTP/3
// along the way.
type Server struct {
	// H3Port is the UDP port advertised via Alt-Svc and the ALTSVC frame.
	H3Port int
	// TLSConfig is used for ListenAndServeHTTPS; its NextProtos is
	// overwritten with Protocols.
	TLSConfig *tls.Config
	Handler   Handler
}

// ListenAndServeHTTP runs the plain-HTTP front door: it sniffs each
// connection's protocol, replies 101 in place when a client asked to
// upgrade, writes an ALTSVC frame before handing an HTTP/2 connection to
// Handler, and hands any other HTTP/1.1 connection to Handler as is; no
// Alt-Svc header is added to that connection's responses.
func (s *Server) ListenAndServeHTTP(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	go s.acceptLoop(ln, s.servePlain)
	return nil
}

// ListenAndServeHTTPS runs the HTTPS front door: ALPN, not byte
// sniffing, decides the protocol (spec §6.2: "HTTPS ALPN: offer
// {h3, h2, http/1.1} in order; selected protocol dictates handler").
func (s *Server) ListenAndServeHTTPS(addr string) error {
	cfg := ConfigureALPN(s.TLSConfig, nil)
	ln, err := tls.Listen("tcp", addr, cfg)
	if err != nil {
		return err
	}
	go s.acceptLoop(ln, s.serveTLS)
	return nil
}

func (s *Server) acceptLoop(ln net.Listener, serve func(net.Conn)) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		go serve(conn)
	}
}

// servePlain sniffs the protocol off a plain-TCP connection and
// dispatches it. HTTP/3 is advertised by a 101 response or an ALTSVC
// frame; the HTTP/1.1 hand-off path adds no Alt-Svc header.
func (s *Server) servePlain(conn net.Conn) {
	br := bufio.NewReaderSize(conn, 4096)
	peeked, proto := s.detect(br)
	switch proto {
	case ProtocolHTTP1:
		if WantsUpgrade(peeked) {
			conn.Write(SwitchingProtocolsResponse(s.H3Port))
			conn.Close()
			return
		}
		s.Handler.ServeHTTP1(&peekedConn{Conn: conn, br: br}, peeked)
	case ProtocolHTTP2:
		conn.Write(AltSvcFrame("", AltSvcHeader(s.H3Port)))
		s.Handler.ServeHTTP2(&peekedConn{Conn: conn, br: br}, peeked)
	default:
		conn.Close()
	}
}

// serveTLS dispatches a connection whose protocol was already decided
// by ALPN during the handshake.
func (s *Server) serveTLS(conn net.Conn) {
	tlsConn, ok := conn.(*tls.Conn)
	if !ok {
		conn.Close()
		return
	}
	if err := tlsConn.Handshake(); err != nil {
		conn.Close()
		return
	}
	switch tlsConn.ConnectionState().NegotiatedProtocol {
	case "h2":
		s.Handler.ServeHTTP2(conn, nil)
	case "http/1.1", "":
		s.Handler.ServeHTTP1(conn, nil)
	default:
		// "h3" is negotiated by the QUIC/UDP endpoint directly; a TLS-
		// over-TCP connection that somehow selected it has nothing left
		// to do here.
		conn.Close()
	}
}

// detect blocks until enough bytes have arrived to classify the
// connection, or the peer closes before that happens.
func (s *Server) detect(br *bufio.Reader) (peeked []byte, proto Protocol) {
	for n := 4; n <= br.Size(); n *= 2 {
		b, err := br.Peek(n)
		proto = DetectProtocol(b)
		if proto != ProtocolUnknown || err != nil {
			return b, proto
		}
	}
	b, _ := br.Peek(br.Size())
	return b, DetectProtocol(b)
}

// peekedConn lets a Handler keep reading a connection through the
// bufio.Reader detect() already buffered bytes into, instead of losing
// them.
type peekedConn struct {
	net.Conn
	br *bufio.Reader
}

func (c *peekedConn) Read(p []byte) (int, error) { return c.br.Read(p) }
