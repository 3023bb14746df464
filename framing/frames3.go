package framing

import (
	"bytes"
	"encoding/binary"

	"github.com/mkch/spdy3/framing/fields"
	"github.com/pkg/errors"
)

// DataFrame carries a chunk of a stream's body. It is the only
// variant with no control bit set.
type DataFrame struct {
	StreamID_ uint32
	Flags_    byte
	Payload   []byte
}

func (f *DataFrame) Control() bool    { return false }
func (f *DataFrame) Flags() byte      { return f.Flags_ }
func (f *DataFrame) StreamID() uint32 { return f.StreamID_ }

// SynStreamFrame opens a new stream, carrying its initial request
// headers and priority.
type SynStreamFrame struct {
	Flags_        byte
	StreamID_     uint32
	AssociatedTo_ uint32
	Priority_     byte
	Slot_         byte
	Headers       *Headers
}

func (f *SynStreamFrame) Control() bool    { return true }
func (f *SynStreamFrame) Flags() byte      { return f.Flags_ }
func (f *SynStreamFrame) StreamID() uint32 { return f.StreamID_ }

// SynReplyFrame carries the response headers for a stream the peer
// opened with SynStreamFrame.
type SynReplyFrame struct {
	Flags_    byte
	StreamID_ uint32
	Headers   *Headers
}

func (f *SynReplyFrame) Control() bool    { return true }
func (f *SynReplyFrame) Flags() byte      { return f.Flags_ }
func (f *SynReplyFrame) StreamID() uint32 { return f.StreamID_ }

// RstStreamFrame aborts a stream with a status code.
type RstStreamFrame struct {
	StreamID_  uint32
	StatusCode RstStatus
}

func (f *RstStreamFrame) Control() bool    { return true }
func (f *RstStreamFrame) Flags() byte      { return 0 }
func (f *RstStreamFrame) StreamID() uint32 { return f.StreamID_ }

// SettingEntry is one (id, flags, value) tuple inside a Settings frame.
type SettingEntry struct {
	ID    uint32
	Flags byte
	Value uint32
}

// SettingsFrame conveys connection-tuning parameters. It is never
// addressed to a stream.
type SettingsFrame struct {
	Flags_  byte
	Entries []SettingEntry
}

func (f *SettingsFrame) Control() bool    { return true }
func (f *SettingsFrame) Flags() byte      { return f.Flags_ }
func (f *SettingsFrame) StreamID() uint32 { return 0 }

// ClearSettings reports whether the CLEAR_SETTINGS flag was set,
// meaning the receiver must wipe its settings map before merging
// Entries.
func (f *SettingsFrame) ClearSettings() bool { return f.Flags_&FlagClearSettings != 0 }

// PingFrame is a liveness probe, echoed verbatim by whichever side did
// not originate it.
type PingFrame struct {
	PingID uint32
}

func (f *PingFrame) Control() bool    { return true }
func (f *PingFrame) Flags() byte      { return 0 }
func (f *PingFrame) StreamID() uint32 { return 0 }

// GoAwayFrame announces that the sender will not initiate or accept
// new streams above LastGoodStreamID.
type GoAwayFrame struct {
	LastGoodStreamID uint32
	StatusCode       GoAwayStatus
}

func (f *GoAwayFrame) Control() bool    { return true }
func (f *GoAwayFrame) Flags() byte      { return 0 }
func (f *GoAwayFrame) StreamID() uint32 { return 0 }

// HeadersFrame carries additional headers for an already-open stream.
type HeadersFrame struct {
	Flags_    byte
	StreamID_ uint32
	Headers   *Headers
}

func (f *HeadersFrame) Control() bool    { return true }
func (f *HeadersFrame) Flags() byte      { return f.Flags_ }
func (f *HeadersFrame) StreamID() uint32 { return f.StreamID_ }

// WindowUpdateFrame advises the peer of additional flow-control
// window. This core treats flow control as advisory: the value is
// parsed and stored but never blocks writes.
type WindowUpdateFrame struct {
	StreamID_       uint32
	DeltaWindowSize uint32
}

func (f *WindowUpdateFrame) Control() bool    { return true }
func (f *WindowUpdateFrame) Flags() byte      { return 0 }
func (f *WindowUpdateFrame) StreamID() uint32 { return f.StreamID_ }

const streamIDMask = 0x7FFFFFFF

func decodeSynStream(flags byte, body []byte, nv *nvCodec) (*SynStreamFrame, error) {
	if len(body) < 10 {
		return nil, protocolErrorf("syn_stream: invalid length %d", len(body))
	}
	word1 := binary.BigEndian.Uint32(body[0:4])
	word2 := binary.BigEndian.Uint32(body[4:8])
	headers, err := nv.DecodeHeaders(body[10:])
	if err != nil {
		return nil, err
	}
	return &SynStreamFrame{
		Flags_:        flags,
		StreamID_:     word1 & streamIDMask,
		AssociatedTo_: word2 & streamIDMask,
		Priority_:     body[8] >> 5,
		Slot_:         body[9],
		Headers:       headers,
	}, nil
}

func encodeSynStream(f *SynStreamFrame, nv *nvCodec) ([]byte, error) {
	var buf bytes.Buffer
	var word [4]byte
	binary.BigEndian.PutUint32(word[:], f.StreamID_&streamIDMask)
	buf.Write(word[:])
	binary.BigEndian.PutUint32(word[:], f.AssociatedTo_&streamIDMask)
	buf.Write(word[:])
	buf.WriteByte(f.Priority_ << 5)
	buf.WriteByte(f.Slot_)
	hdrs, err := nv.EncodeHeaders(f.Headers)
	if err != nil {
		return nil, err
	}
	buf.Write(hdrs)
	return buf.Bytes(), nil
}

func decodeSynReply(flags byte, body []byte, nv *nvCodec) (*SynReplyFrame, error) {
	if len(body) < 4 {
		return nil, protocolErrorf("syn_reply: invalid length %d", len(body))
	}
	streamID := binary.BigEndian.Uint32(body[0:4]) & streamIDMask
	headers, err := nv.DecodeHeaders(body[4:])
	if err != nil {
		return nil, err
	}
	return &SynReplyFrame{Flags_: flags, StreamID_: streamID, Headers: headers}, nil
}

func encodeSynReply(f *SynReplyFrame, nv *nvCodec) ([]byte, error) {
	var buf bytes.Buffer
	var word [4]byte
	binary.BigEndian.PutUint32(word[:], f.StreamID_&streamIDMask)
	buf.Write(word[:])
	hdrs, err := nv.EncodeHeaders(f.Headers)
	if err != nil {
		return nil, err
	}
	buf.Write(hdrs)
	return buf.Bytes(), nil
}

func decodeRstStream(body []byte) (*RstStreamFrame, error) {
	if len(body) != 8 {
		return nil, protocolErrorf("rst_stream: invalid length %d", len(body))
	}
	streamID := binary.BigEndian.Uint32(body[0:4]) & streamIDMask
	status := RstStatus(binary.BigEndian.Uint32(body[4:8]))
	if status < StatusProtocolError || status > StatusFrameTooLarge {
		return nil, errors.Wrapf(ErrInvalidStatusCode, "status %d", status)
	}
	return &RstStreamFrame{StreamID_: streamID, StatusCode: status}, nil
}

func encodeRstStream(f *RstStreamFrame) ([]byte, error) {
	if f.StatusCode < StatusProtocolError || f.StatusCode > StatusFrameTooLarge {
		return nil, errors.Wrapf(ErrInvalidStatusCode, "status %d", f.StatusCode)
	}
	var buf [8]byte
	binary.BigEndian.PutUint32(buf[0:4], f.StreamID_&streamIDMask)
	binary.BigEndian.PutUint32(buf[4:8], uint32(f.StatusCode))
	return buf[:], nil
}

// settingEntryWire is the reflection-codec view of one Settings
// entry: an 8-bit flags byte packed with a 24-bit id into one 32-bit
// word, followed by a 32-bit value.
type settingEntryWire struct {
	Flags_ byte   `field:"bits:8"`
	ID_    uint32 `field:"bits:24"`
	Value_ uint32 `field:"bits:32"`
}

type settingsBody struct {
	Entries []settingEntryWire `field:"lenbits:32"`
}

func decodeSettings(flags byte, body []byte) (*SettingsFrame, error) {
	var sb settingsBody
	if err := fields.NewDecoder(bytes.NewReader(body)).Decode(&sb); err != nil {
		return nil, protocolErrorf("settings: %v", err)
	}
	entries := make([]SettingEntry, len(sb.Entries))
	for i, e := range sb.Entries {
		entries[i] = SettingEntry{ID: e.ID_, Flags: e.Flags_, Value: e.Value_}
	}
	return &SettingsFrame{Flags_: flags, Entries: entries}, nil
}

func encodeSettings(f *SettingsFrame) ([]byte, error) {
	sb := settingsBody{Entries: make([]settingEntryWire, len(f.Entries))}
	for i, e := range f.Entries {
		sb.Entries[i] = settingEntryWire{Flags_: e.Flags, ID_: e.ID, Value_: e.Value}
	}
	var buf bytes.Buffer
	if err := fields.NewEncoder(&buf).Encode(&sb); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodePing(body []byte) (*PingFrame, error) {
	if len(body) != 4 {
		return nil, protocolErrorf("ping: invalid length %d", len(body))
	}
	return &PingFrame{PingID: binary.BigEndian.Uint32(body)}, nil
}

func encodePing(f *PingFrame) ([]byte, error) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], f.PingID)
	return buf[:], nil
}

func decodeGoAway(body []byte) (*GoAwayFrame, error) {
	if len(body) != 8 {
		return nil, protocolErrorf("go_away: invalid length %d", len(body))
	}
	return &GoAwayFrame{
		LastGoodStreamID: binary.BigEndian.Uint32(body[0:4]) & streamIDMask,
		StatusCode:       GoAwayStatus(binary.BigEndian.Uint32(body[4:8])),
	}, nil
}

func encodeGoAway(f *GoAwayFrame) ([]byte, error) {
	var buf [8]byte
	binary.BigEndian.PutUint32(buf[0:4], f.LastGoodStreamID&streamIDMask)
	binary.BigEndian.PutUint32(buf[4:8], uint32(f.StatusCode))
	return buf[:], nil
}

func decodeHeaders(flags byte, body []byte, nv *nvCodec) (*HeadersFrame, error) {
	if len(body) < 4 {
		return nil, protocolErrorf("headers: invalid length %d", len(body))
	}
	streamID := binary.BigEndian.Uint32(body[0:4]) & streamIDMask
	headers, err := nv.DecodeHeaders(body[4:])
	if err != nil {
		return nil, err
	}
	return &HeadersFrame{Flags_: flags, StreamID_: streamID, Headers: headers}, nil
}

func encodeHeadersFrame(f *HeadersFrame, nv *nvCodec) ([]byte, error) {
	var buf bytes.Buffer
	var word [4]byte
	binary.BigEndian.PutUint32(word[:], f.StreamID_&streamIDMask)
	buf.Write(word[:])
	hdrs, err := nv.EncodeHeaders(f.Headers)
	if err != nil {
		return nil, err
	}
	buf.Write(hdrs)
	return buf.Bytes(), nil
}

func decodeWindowUpdate(body []byte) (*WindowUpdateFrame, error) {
	if len(body) != 8 {
		return nil, protocolErrorf("window_update: invalid length %d", len(body))
	}
	return &WindowUpdateFrame{
		StreamID_:       binary.BigEndian.Uint32(body[0:4]) & streamIDMask,
		DeltaWindowSize: binary.BigEndian.Uint32(body[4:8]) & streamIDMask,
	}, nil
}

func encodeWindowUpdate(f *WindowUpdateFrame) ([]byte, error) {
	var buf [8]byte
	binary.BigEndian.PutUint32(buf[0:4], f.StreamID_&streamIDMask)
	binary.BigEndian.PutUint32(buf[4:8], f.DeltaWindowSize&streamIDMask)
	return buf[:], nil
}
