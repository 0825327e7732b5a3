package transport

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"
)

func generateTestCert(t *testing.T) tls.Certificate {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		t.Fatalf("rand.Int: %v", err)
	}
	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: "localhost"},
		DNSNames:              []string{"localhost"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IsCA:                  true,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("CreateCertificate: %v", err)
	}
	return tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  key,
	}
}

// R1/B2: a full client/server handshake over real crypto/tls QUIC
// integration, asserting the client's first outgoing datagram is an
// Initial packet padded to the RFC 9000 §14.1 minimum and that both
// sides reach the active state from exchanging only the produced
// datagrams (no packet content is hand-crafted).
func TestHandshakeRoundTrip(t *testing.T) {
	cert := generateTestCert(t)
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		t.Fatalf("ParseCertificate: %v", err)
	}
	pool := x509.NewCertPool()
	pool.AddCert(leaf)

	clientConfig := NewConfig()
	clientConfig.TLS = &tls.Config{
		ServerName: "localhost",
		RootCAs:    pool,
		NextProtos: []string{"test"},
	}
	serverConfig := NewConfig()
	serverConfig.TLS = &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{"test"},
	}

	client, err := Connect([]byte("client-scid-01"), clientConfig)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	server, err := Accept([]byte("server-scid-01"), nil, serverConfig)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}

	buf := make([]byte, MaxPacketSize)
	firstClientDatagram := true
	for round := 0; round < 20 && !(client.IsEstablished() && server.IsEstablished()); round++ {
		for {
			n, err := client.Read(buf)
			if err != nil {
				t.Fatalf("client.Read: %v", err)
			}
			if n == 0 {
				break
			}
			if firstClientDatagram {
				if n < MinInitialPacketSize {
					t.Fatalf("first client datagram is %d bytes, want >= %d (RFC 9000 padding)", n, MinInitialPacketSize)
				}
				firstClientDatagram = false
			}
			if _, err := server.Write(buf[:n]); err != nil {
				t.Fatalf("server.Write: %v", err)
			}
		}
		for {
			n, err := server.Read(buf)
			if err != nil {
				t.Fatalf("server.Read: %v", err)
			}
			if n == 0 {
				break
			}
			if _, err := client.Write(buf[:n]); err != nil {
				t.Fatalf("client.Write: %v", err)
			}
		}
	}
	if firstClientDatagram {
		t.Fatal("client never produced an outgoing datagram")
	}
	if !client.IsEstablished() {
		t.Fatal("client handshake did not complete")
	}
	if !server.IsEstablished() {
		t.Fatal("server handshake did not complete")
	}
}
