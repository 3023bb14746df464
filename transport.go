package spdy3

import "time"

// Transport is the opaque collaborator Connection drives its bytes
// through. The core assumes it is already an established TLS
// connection that negotiated "spdy/3" (or "spdy/3.1") via NPN/ALPN;
// negotiating and dialing that connection is outside the core's
// scope and lives in cmd/spdy3get.
type Transport interface {
	// Read behaves like io.Reader but honours deadline: it returns
	// (0, os.ErrDeadlineExceeded) if no bytes arrive before deadline.
	Read(buf []byte, deadline time.Time) (int, error)
	Write(buf []byte) (int, error)
	Close() error
}
