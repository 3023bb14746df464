// Command spdy3get is a minimal example client: it dials a host over
// TLS, negotiates spdy/3 via NPN/ALPN, issues a single GET, and prints
// the response headers and body to stdout. It exists to exercise
// Connection against a real transport; none of its TLS-dialing or
// flag-parsing logic is part of the core.
package main

import (
	"crypto/tls"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"time"

	"github.com/mkch/spdy3"
	"github.com/mkch/spdy3/internal/logging"
)

// tlsTransport adapts a *tls.Conn to spdy3.Transport.
type tlsTransport struct {
	conn net.Conn
}

func (t *tlsTransport) Read(buf []byte, deadline time.Time) (int, error) {
	if err := t.conn.SetReadDeadline(deadline); err != nil {
		return 0, err
	}
	return t.conn.Read(buf)
}

func (t *tlsTransport) Write(buf []byte) (int, error) {
	return t.conn.Write(buf)
}

func (t *tlsTransport) Close() error {
	return t.conn.Close()
}

func main() {
	host := flag.String("host", "", "host:port to connect to")
	path := flag.String("path", "/", "request path")
	debug := flag.Bool("debug", false, "verbose logging")
	flag.Parse()

	if *host == "" {
		fmt.Fprintln(os.Stderr, "usage: spdy3get -host host:port [-path /]")
		os.Exit(2)
	}

	logger, err := logging.New(*debug)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer logger.Sync()

	rawConn, err := net.DialTimeout("tcp", *host, 10*time.Second)
	if err != nil {
		logger.Sugar().Fatalf("dial: %v", err)
	}

	tlsConn := tls.Client(rawConn, &tls.Config{
		NextProtos: []string{"spdy/3.1", "spdy/3"},
		ServerName: hostOnly(*host),
	})
	if err := tlsConn.Handshake(); err != nil {
		logger.Sugar().Fatalf("tls handshake: %v", err)
	}
	if p := tlsConn.ConnectionState().NegotiatedProtocol; p != "spdy/3" && p != "spdy/3.1" {
		logger.Sugar().Fatalf("peer did not negotiate spdy/3 (got %q)", p)
	}

	conn := spdy3.NewConnection(hostOnly(*host), &tlsTransport{conn: tlsConn}, spdy3.WithLogger(logger))
	defer conn.Close()

	streamID, err := conn.OpenRequest("GET", *path, nil)
	if err != nil {
		logger.Sugar().Fatalf("open request: %v", err)
	}
	if err := conn.SendPending(streamID); err != nil {
		logger.Sugar().Fatalf("send pending: %v", err)
	}

	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		events, err := conn.Poll(time.Now().Add(time.Second))
		if err != nil {
			logger.Sugar().Fatalf("poll: %v", err)
		}
		for _, ev := range events {
			switch ev.Kind {
			case spdy3.EventHeadersReceived:
				for _, name := range ev.Headers.Names() {
					value, _ := ev.Headers.Get(name)
					fmt.Printf("%s: %s\n", name, value)
				}
			case spdy3.EventDataReceived:
				os.Stdout.Write(ev.Data)
			case spdy3.EventStreamClosed:
				return
			case spdy3.EventConnectionGoAway:
				return
			}
		}
	}
}

func hostOnly(hostport string) string {
	h, _, err := net.SplitHostPort(hostport)
	if err != nil {
		return hostport
	}
	return h
}
