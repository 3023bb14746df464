// Package framing implements the SPDY/3 wire format: parsing a byte
// buffer into a typed Frame and serialising a Frame back to bytes,
// bit-exact per the SPDY/3 draft. It owns the connection-global NV
// codec (see nv.go) since header-block compression state cannot be
// separated from frame parsing without risking desynchronisation.
package framing

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Version is the only SPDY version this codec understands.
const Version = 3

// Control frame type codes.
const (
	TypeSynStream    uint16 = 1
	TypeSynReply     uint16 = 2
	TypeRstStream    uint16 = 3
	TypeSettings     uint16 = 4
	TypePing         uint16 = 6
	TypeGoAway       uint16 = 7
	TypeHeaders      uint16 = 8
	TypeWindowUpdate uint16 = 9
)

// Flag bits. Legality depends on the frame variant; see legalFlags.
const (
	FlagFin                  byte = 0x01
	FlagUnidirectional       byte = 0x02
	FlagClearSettings        byte = 0x01 // SETTINGS only, distinct bit namespace
	FlagSettingsPersistValue byte = 0x01 // per-setting-entry flag, distinct namespace
	FlagSettingsPersisted    byte = 0x02 // per-setting-entry flag, distinct namespace
)

// RstStatus is a RST_STREAM status code, 1..11. It is a distinct type
// from GoAwayStatus: both namespaces assign different meanings to the
// value 2, and the two must never be compared or stored interchangeably.
type RstStatus uint32

const (
	StatusProtocolError       RstStatus = 1
	StatusInvalidStream       RstStatus = 2
	StatusRefusedStream       RstStatus = 3
	StatusUnsupportedVersion  RstStatus = 4
	StatusCancel              RstStatus = 5
	StatusInternalError       RstStatus = 6
	StatusFlowControlError    RstStatus = 7
	StatusStreamInUse         RstStatus = 8
	StatusStreamAlreadyClosed RstStatus = 9
	StatusInvalidCredentials  RstStatus = 10
	StatusFrameTooLarge       RstStatus = 11
)

// GoAwayStatus is a GOAWAY status code: a much smaller, separately
// namespaced set than RstStatus, starting at OK=0.
type GoAwayStatus uint32

const (
	GoAwayOK            GoAwayStatus = 0
	GoAwayProtocolError GoAwayStatus = 1
	GoAwayInternalError GoAwayStatus = 2
)

const controlBit uint16 = 0x8000
const frameHeaderLen = 8

var (
	// ErrInvalidStatusCode is returned when a RstStream status code
	// falls outside [1,11]. It wraps ErrProtocolError, so
	// errors.Is(err, ErrProtocolError) also holds for it.
	ErrInvalidStatusCode = errors.Wrap(ErrProtocolError, "framing: rst_stream status code out of range")
)

// legalFlags reports which flag bits a variant may legally carry. A
// frame carrying a bit outside this set is a ProtocolError.
func legalFlags(t uint16) byte {
	switch t {
	case TypeSynStream:
		return FlagFin | FlagUnidirectional
	case TypeSynReply, TypeHeaders:
		return FlagFin
	case TypeSettings:
		return FlagClearSettings
	case TypeRstStream, TypePing, TypeGoAway, TypeWindowUpdate:
		return 0
	default:
		// Unknown control type: the draft requires ignoring it, not
		// validating its flags.
		return 0xFF
	}
}

// Frame is the tagged-variant interface every SPDY/3 frame satisfies.
// Concrete types live in frames3.go; a type switch on the concrete
// type recovers variant-specific fields (there is no virtual dispatch
// beyond this single interface).
type Frame interface {
	// Control reports whether this is a control frame (true) or a
	// data frame (false).
	Control() bool
	// Flags returns the raw flag byte as carried on the wire.
	Flags() byte
	// StreamID returns the frame's stream id, or 0 for frames not
	// addressed to a stream (Settings, Ping, GoAway).
	StreamID() uint32
}

// OpaqueFrame preserves an unrecognised control frame type verbatim.
// The SPDY/3 draft requires peers to ignore frame types they don't
// understand rather than failing the connection.
type OpaqueFrame struct {
	Type   uint16
	Flags_ byte
	Body   []byte
}

func (f *OpaqueFrame) Control() bool    { return true }
func (f *OpaqueFrame) Flags() byte      { return f.Flags_ }
func (f *OpaqueFrame) StreamID() uint32 { return 0 }

// ParseResult is returned by ReadFrame: the decoded frame plus the
// number of bytes consumed from the buffer.
type ParseResult struct {
	Frame    Frame
	Consumed int
}

// ReadFrame parses a single frame from buf. It never blocks and never
// allocates an io.Reader over buf that could read past buf's bounds:
// on short input it returns ErrShortBuffer and the caller must buffer
// more bytes and retry. nv is the connection's shared NV codec, used
// to decompress any header block this frame carries.
func ReadFrame(buf []byte, nv *nvCodec) (*ParseResult, error) {
	if len(buf) < frameHeaderLen {
		return nil, ErrShortBuffer
	}

	firstWord := binary.BigEndian.Uint16(buf[0:2])
	control := firstWord&controlBit != 0
	flags := buf[4]
	length := uint32(buf[5])<<16 | uint32(buf[6])<<8 | uint32(buf[7])
	total := frameHeaderLen + int(length)
	if len(buf) < total {
		return nil, ErrShortBuffer
	}
	body := buf[frameHeaderLen:total]

	if !control {
		streamID := binary.BigEndian.Uint32(buf[0:4]) &^ controlStreamIDMask
		f := &DataFrame{StreamID_: streamID, Flags_: flags, Payload: append([]byte(nil), body...)}
		if flags&^FlagFin != 0 {
			return nil, protocolErrorf("data frame: illegal flags 0x%02x", flags)
		}
		if streamID == 0 {
			return nil, protocolErrorf("data frame: stream id must be > 0")
		}
		return &ParseResult{Frame: f, Consumed: total}, nil
	}

	version := firstWord &^ controlBit
	if version != Version {
		return nil, errors.Wrapf(ErrUnsupportedVersion, "version %d", version)
	}
	typ := binary.BigEndian.Uint16(buf[2:4])

	if flags&^legalFlags(typ) != 0 {
		return nil, protocolErrorf("frame type %d: illegal flags 0x%02x", typ, flags)
	}

	frame, err := decodeControlBody(typ, flags, body, nv)
	if err != nil {
		return nil, err
	}
	return &ParseResult{Frame: frame, Consumed: total}, nil
}

const controlStreamIDMask uint32 = 0x80000000

func decodeControlBody(typ uint16, flags byte, body []byte, nv *nvCodec) (Frame, error) {
	switch typ {
	case TypeSynStream:
		return decodeSynStream(flags, body, nv)
	case TypeSynReply:
		return decodeSynReply(flags, body, nv)
	case TypeRstStream:
		return decodeRstStream(body)
	case TypeSettings:
		return decodeSettings(flags, body)
	case TypePing:
		return decodePing(body)
	case TypeGoAway:
		return decodeGoAway(body)
	case TypeHeaders:
		return decodeHeaders(flags, body, nv)
	case TypeWindowUpdate:
		return decodeWindowUpdate(body)
	default:
		return &OpaqueFrame{Type: typ, Flags_: flags, Body: append([]byte(nil), body...)}, nil
	}
}

// WriteFrame serialises frame to w. For frames carrying a header
// block, nv's shared compressor produces the compressed bytes; it is
// never re-seeded, so retransmitting the same Frame value produces a
// fresh (but decoder-compatible) compressed block rather than
// replaying the original bytes.
func WriteFrame(w io.Writer, frame Frame, nv *nvCodec) error {
	switch f := frame.(type) {
	case *DataFrame:
		if f.Flags_&^FlagFin != 0 {
			return protocolErrorf("data frame: illegal flags 0x%02x", f.Flags_)
		}
		if f.StreamID_ == 0 {
			return protocolErrorf("data frame: stream id must be > 0")
		}
		return writeDataFrame(w, f)
	case *SynStreamFrame:
		return writeControlFrame(w, TypeSynStream, f.Flags_, legalFlags(TypeSynStream), func() ([]byte, error) {
			return encodeSynStream(f, nv)
		})
	case *SynReplyFrame:
		return writeControlFrame(w, TypeSynReply, f.Flags_, legalFlags(TypeSynReply), func() ([]byte, error) {
			return encodeSynReply(f, nv)
		})
	case *RstStreamFrame:
		return writeControlFrame(w, TypeRstStream, 0, 0, func() ([]byte, error) { return encodeRstStream(f) })
	case *SettingsFrame:
		return writeControlFrame(w, TypeSettings, f.Flags_, legalFlags(TypeSettings), func() ([]byte, error) { return encodeSettings(f) })
	case *PingFrame:
		return writeControlFrame(w, TypePing, 0, 0, func() ([]byte, error) { return encodePing(f) })
	case *GoAwayFrame:
		return writeControlFrame(w, TypeGoAway, 0, 0, func() ([]byte, error) { return encodeGoAway(f) })
	case *HeadersFrame:
		return writeControlFrame(w, TypeHeaders, f.Flags_, legalFlags(TypeHeaders), func() ([]byte, error) {
			return encodeHeadersFrame(f, nv)
		})
	case *WindowUpdateFrame:
		return writeControlFrame(w, TypeWindowUpdate, 0, 0, func() ([]byte, error) { return encodeWindowUpdate(f) })
	case *OpaqueFrame:
		return writeControlFrame(w, f.Type, f.Flags_, 0xFF, func() ([]byte, error) { return f.Body, nil })
	default:
		return errors.Errorf("framing: unknown frame type %T", frame)
	}
}

func writeControlFrame(w io.Writer, typ uint16, flags, allowed byte, body func() ([]byte, error)) error {
	if flags&^allowed != 0 {
		return protocolErrorf("frame type %d: illegal flags 0x%02x on write", typ, flags)
	}
	payload, err := body()
	if err != nil {
		return err
	}
	if len(payload) > 0xFFFFFF {
		return protocolErrorf("frame type %d: body too large (%d bytes)", typ, len(payload))
	}
	var hdr [8]byte
	binary.BigEndian.PutUint16(hdr[0:2], controlBit|Version)
	binary.BigEndian.PutUint16(hdr[2:4], typ)
	hdr[4] = flags
	hdr[5] = byte(len(payload) >> 16)
	hdr[6] = byte(len(payload) >> 8)
	hdr[7] = byte(len(payload))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

func writeDataFrame(w io.Writer, f *DataFrame) error {
	if len(f.Payload) > 0xFFFFFF {
		return protocolErrorf("data frame: body too large (%d bytes)", len(f.Payload))
	}
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[0:4], f.StreamID_&^controlStreamIDMask)
	hdr[4] = f.Flags_
	hdr[5] = byte(len(f.Payload) >> 16)
	hdr[6] = byte(len(f.Payload) >> 8)
	hdr[7] = byte(len(f.Payload))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(f.Payload)
	return err
}
