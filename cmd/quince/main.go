// Command quince is a minimal QUIC client/server built on
// github.com/goburrow/quic, useful for manual interop testing.
package main

import (
	"crypto/tls"
	"fmt"
	"log"
	"os"

	"github.com/goburrow/quic"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "client":
		err = clientCommand(os.Args[2:])
	case "server":
		err = serverCommand(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: quince <client|server> [options] <address>")
}

// newConfig returns the quic.Config shared by both commands: TLS 1.3 at
// minimum and ALPN "quince".
func newConfig() *quic.Config {
	config := quic.NewConfig()
	config.TLS = &tls.Config{
		NextProtos: []string{"quince"},
		MinVersion: tls.VersionTLS13,
	}
	return config
}
