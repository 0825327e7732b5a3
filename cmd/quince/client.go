package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/goburrow/quic"
	"github.com/goburrow/quic/http3"
	"github.com/goburrow/quic/transport"
)

func clientCommand(args []string) error {
	cmd := flag.NewFlagSet("client", flag.ExitOnError)
	listenAddr := cmd.String("listen", "0.0.0.0:0", "listen on the given IP:port")
	insecure := cmd.Bool("insecure", false, "skip verifying server certificate")
	method := cmd.String("method", "GET", "HTTP/3 request method")
	path := cmd.String("path", "/", "HTTP/3 request path")
	logLevel := cmd.Int("v", 2, "log verbose: 0=off 1=error 2=info 3=debug 4=trace")
	cmd.Parse(args)

	addr := cmd.Arg(0)
	if addr == "" {
		fmt.Fprintln(cmd.Output(), "Usage: quince client [options] <address>")
		cmd.PrintDefaults()
		return nil
	}
	authority := serverName(addr)
	config := newConfig()
	config.TLS.ServerName = authority
	config.TLS.InsecureSkipVerify = *insecure
	handler := &clientHandler{
		h3: http3.NewClientHandler(),
		req: http3.Request{
			Method:    *method,
			Scheme:    "https",
			Authority: authority,
			Path:      *path,
		},
	}
	client := quic.NewClient(config)
	client.SetHandler(handler)
	client.SetLogger(*logLevel, os.Stdout)
	if err := client.ListenAndServe(*listenAddr); err != nil {
		return err
	}
	handler.wg.Add(1)
	if err := client.Connect(addr); err != nil {
		return err
	}
	handler.wg.Wait()
	return client.Close()
}

// clientHandler drives one HTTP/3 request per connection: it lets the
// http3.Handler open the mandatory streams and QPACK wiring, then issues
// a single request as soon as the handshake completes and waits for
// either the response or the connection closing first.
type clientHandler struct {
	h3  *http3.Handler
	req http3.Request

	wg        sync.WaitGroup
	requested bool
	done      bool
}

func (s *clientHandler) Serve(c quic.Conn, events []transport.Event) {
	s.h3.Serve(c, events)
	for _, e := range events {
		log.Printf("%s connection event: %v", c.RemoteAddr(), e.Type)
		switch e.Type {
		case quic.EventConnAccept:
			if s.requested {
				continue
			}
			s.requested = true
			s.h3.Request(c, s.req, func(resp http3.Response, body []byte, err error) {
				if err != nil {
					log.Printf("request failed: %v", err)
				} else {
					log.Printf("response %s:\n%s", resp.Status, body)
				}
				s.finish()
			})
		case quic.EventConnClose:
			s.finish()
		}
	}
}

func (s *clientHandler) finish() {
	if s.done {
		return
	}
	s.done = true
	s.wg.Done()
}

func serverName(s string) string {
	colon := strings.LastIndex(s, ":")
	if colon > 0 {
		bracket := strings.LastIndex(s, "]")
		if colon > bracket {
			return s[:colon]
		}
	}
	return s
}
