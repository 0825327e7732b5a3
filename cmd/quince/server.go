package main

import (
	"crypto/tls"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/goburrow/quic"
	"github.com/goburrow/quic/transport"
)

func serverCommand(args []string) error {
	cmd := flag.NewFlagSet("server", flag.ExitOnError)
	listenAddr := cmd.String("listen", ":4433", "listen on the given IP:port")
	certFile := cmd.String("cert", "", "TLS certificate file")
	keyFile := cmd.String("key", "", "TLS private key file")
	logLevel := cmd.Int("v", 2, "log verbose: 0=off 1=error 2=info 3=debug 4=trace")
	metrics := cmd.Bool("metrics", false, "enable Prometheus collectors")
	reusePort := cmd.Bool("reuseport", false, "set SO_REUSEPORT on the listening socket")
	cmd.Parse(args)

	if *certFile == "" || *keyFile == "" {
		fmt.Fprintln(cmd.Output(), "Usage: quince server -cert <file> -key <file> [options]")
		cmd.PrintDefaults()
		return nil
	}
	cert, err := tls.LoadX509KeyPair(*certFile, *keyFile)
	if err != nil {
		return err
	}
	config := newConfig()
	config.TLS.Certificates = []tls.Certificate{cert}
	config.MetricsEnabled = *metrics
	config.ReusePort = *reusePort

	server := quic.NewServer(config)
	server.SetHandler(&echoHandler{})
	server.SetLogger(*logLevel, os.Stdout)
	if err := server.ListenAndServe(*listenAddr); err != nil {
		return err
	}
	log.Printf("listening on %s", *listenAddr)
	select {}
}

// echoHandler writes every received stream's data back to its sender,
// closing the stream once the peer is done writing.
type echoHandler struct{}

func (echoHandler) Serve(c quic.Conn, events []transport.Event) {
	for _, e := range events {
		switch e.Type {
		case transport.EventStream:
			st := c.Stream(e.StreamID)
			if st == nil {
				continue
			}
			buf := make([]byte, 4096)
			n, err := st.Read(buf)
			if n > 0 {
				st.Write(buf[:n])
			}
			if err != nil {
				st.Close()
			}
		case transport.EventStreamComplete:
			if st := c.Stream(e.StreamID); st != nil {
				st.Close()
			}
		}
	}
}
