package framing

import "github.com/pkg/errors"

// Error kinds returned by the frame codec and NV codec. Callers
// switch on these with errors.Is; most are returned wrapped with
// additional context via github.com/pkg/errors, while ErrShortBuffer
// is returned unwrapped and may also be compared with ==.
var (
	// ErrShortBuffer means the parser needs more bytes before a
	// complete frame can be produced. The caller must buffer and
	// retry; it is not a protocol violation.
	ErrShortBuffer = errors.New("framing: short buffer")

	// ErrProtocolError means the peer violated the SPDY/3 wire
	// format (illegal flags, out-of-range status code, bad length).
	ErrProtocolError = errors.New("framing: protocol error")

	// ErrBadHeaderBlock means the compressed name/value block failed
	// to decode. Because the zlib state is shared connection-wide,
	// this error is always connection-fatal.
	ErrBadHeaderBlock = errors.New("framing: bad header block")

	// ErrUnsupportedVersion means the frame's version field was not 3.
	ErrUnsupportedVersion = errors.New("framing: unsupported version")
)

// protocolErrorf wraps ErrProtocolError with a human-readable reason,
// so callers comparing with errors.Is(err, ErrProtocolError) still work.
func protocolErrorf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrProtocolError, format, args...)
}

func badHeaderBlockf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrBadHeaderBlock, format, args...)
}
