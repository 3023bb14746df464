// Package spdy3 implements the client side of a SPDY/3 connection: a
// frame codec, a per-stream state machine, and the multiplexer that
// turns request operations into ordered frames and reassembles
// inbound frames back into per-stream events.
package spdy3

import (
	"bytes"
	"time"

	"github.com/google/uuid"
	"github.com/mkch/spdy3/framing"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// maxClientStreamID is the largest odd 31-bit value; allocating past
// it is fatal and the caller must open a new connection.
const maxClientStreamID = 0x7FFFFFFF

// ErrGoneAway is returned by OpenRequest once the peer has sent
// GoAway; the connection refuses new streams from then on.
var ErrGoneAway = errors.New("spdy3: connection received GOAWAY, refusing new streams")

// ErrStreamIDExhausted is returned by OpenRequest if the next client
// stream id would overflow 31 bits.
var ErrStreamIDExhausted = errors.New("spdy3: client stream id space exhausted")

// Connection owns the transport-adjacent concerns of the core: the
// single shared NV compressor/decompressor, the stream table, and
// stream-id allocation. It is single-threaded and synchronous: every
// method must be called from one goroutine at a time (see
// DESIGN.md's concurrency note). Multiple connections may run in
// parallel on separate goroutines.
type Connection struct {
	// id correlates this connection's log lines; it has no wire
	// presence and is never sent to the peer.
	id        string
	host      string
	transport Transport

	nv *nvCodec

	streams        map[uint32]*Stream
	nextStreamID   uint32
	lastAccepted   uint32
	goneAway       bool
	remoteLastID   uint32
	closed         bool

	settings map[uint32]framing.SettingEntry

	outbox *outboundQueue

	readBuf    []byte
	readBufCap int

	pendingPings map[uint32]time.Time

	log     *zap.Logger
	metrics Recorder
}

// NewConnection creates a Connection for requests to host, driven
// over transport. transport must already be an established TLS
// connection that negotiated spdy/3 via NPN/ALPN.
func NewConnection(host string, transport Transport, opts ...Option) *Connection {
	c := &Connection{
		id:           uuid.NewString(),
		host:         host,
		transport:    transport,
		nv:           newNVCodec(),
		streams:      make(map[uint32]*Stream),
		nextStreamID: 1,
		settings:     make(map[uint32]framing.SettingEntry),
		outbox:       newOutboundQueue(),
		readBufCap:   4096,
		pendingPings: make(map[uint32]time.Time),
		log:          zap.NewNop(),
		metrics:      noopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.readBuf = make([]byte, 0, c.readBufCap)
	c.log.Debug("connection created", zap.String("conn_id", c.id), zap.String("host", host))
	return c
}

// OpenRequest allocates a new client stream, queues its SynStream
// frame carrying the SPDY/3 mandatory pseudo-headers plus any extra
// headers the caller supplied, and returns the new stream id. The
// frame is not written to the transport until SendPending is called.
func (c *Connection) OpenRequest(method, path string, extra *framing.Headers) (uint32, error) {
	if c.goneAway {
		return 0, ErrGoneAway
	}
	if c.nextStreamID > maxClientStreamID {
		return 0, ErrStreamIDExhausted
	}

	id := c.nextStreamID
	c.nextStreamID += 2

	headers := framing.NewHeaders()
	headers.Set(":method", method)
	headers.Set(":path", path)
	headers.Set(":version", "HTTP/1.1")
	headers.Set(":host", c.host)
	headers.Set(":scheme", "https")
	if extra != nil {
		for _, name := range extra.Names() {
			headers.SetValues(name, extra.Values(name))
		}
	}

	s := newStream(id, 0)
	if err := s.open(0, false, headers); err != nil {
		return 0, err
	}
	c.streams[id] = s
	c.lastAccepted = id
	c.metrics.StreamOpened()
	c.log.Debug("stream opened", zap.String("conn_id", c.id), zap.Uint32("stream_id", id), zap.String("method", method), zap.String("path", path))
	return id, nil
}

// AddHeader appends a header to streamID's most recently queued
// header-bearing frame (its SynStream, or a Headers frame queued
// before draining). Useful for trailers-style metadata decided after
// OpenRequest but before SendPending drains the stream.
func (c *Connection) AddHeader(streamID uint32, name, value string) error {
	s, ok := c.streams[streamID]
	if !ok {
		return errors.Errorf("spdy3: unknown stream %d", streamID)
	}
	return s.addHeader(name, value)
}

// SendBody queues a Data frame for stream id. last marks the end of
// the locally-sent half of the stream.
func (c *Connection) SendBody(streamID uint32, payload []byte, last bool) error {
	s, ok := c.streams[streamID]
	if !ok {
		return errors.Errorf("spdy3: unknown stream %d", streamID)
	}
	return s.prepareData(payload, last)
}

// SendPending serialises and writes every queued outbound frame for
// streamID (or, if streamID is 0, every stream in priority order) to
// the transport. All NV-bearing frames in a single call go through
// the shared compressor in the exact order they are written, which is
// why draining happens under one call rather than per-stream.
func (c *Connection) SendPending(streamID uint32) error {
	if streamID != 0 {
		s, ok := c.streams[streamID]
		if !ok {
			return errors.Errorf("spdy3: unknown stream %d", streamID)
		}
		for _, f := range s.drainOutbound() {
			c.outbox.push(s.Priority, f)
		}
	} else {
		for _, s := range c.streams {
			for _, f := range s.drainOutbound() {
				c.outbox.push(s.Priority, f)
			}
		}
	}

	var buf bytes.Buffer
	for _, f := range c.outbox.popAll() {
		if err := framing.WriteFrame(&buf, f, c.nv); err != nil {
			return err
		}
		c.metrics.FrameSent(frameTypeName(f))
	}
	if buf.Len() == 0 {
		return nil
	}
	_, err := c.transport.Write(buf.Bytes())
	return errors.Wrap(err, "spdy3: transport write")
}

// Poll performs one read from the transport, bounded by deadline, then
// parses every frame that is fully available and dispatches it either to its
// owning stream or to connection-scoped handling. It never returns a
// partial frame: bytes belonging to a frame still in flight remain in
// the internal read buffer for the next Poll call.
func (c *Connection) Poll(deadline time.Time) ([]Event, error) {
	buf := make([]byte, 4096)
	n, err := c.transport.Read(buf, deadline)
	if n > 0 {
		c.readBuf = append(c.readBuf, buf[:n]...)
	}
	if err != nil && n == 0 {
		if isTimeout(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "spdy3: transport read")
	}

	var events []Event
	for {
		result, perr := framing.ReadFrame(c.readBuf, c.nv)
		if perr == framing.ErrShortBuffer {
			break
		}
		if perr != nil {
			return events, perr
		}
		c.readBuf = c.readBuf[result.Consumed:]
		c.metrics.FrameReceived(frameTypeName(result.Frame))
		ev, err := c.dispatch(result.Frame)
		if err != nil {
			return events, err
		}
		if ev != nil {
			events = append(events, *ev)
		}
	}
	return events, nil
}

func (c *Connection) dispatch(frame framing.Frame) (*Event, error) {
	switch f := frame.(type) {
	case *framing.SettingsFrame:
		return c.handleSettings(f)
	case *framing.PingFrame:
		return c.handlePing(f)
	case *framing.GoAwayFrame:
		return c.handleGoAway(f)
	case *framing.OpaqueFrame:
		// Unknown control frame types are ignored.
		return nil, nil
	default:
		return c.dispatchToStream(frame)
	}
}

func (c *Connection) dispatchToStream(frame framing.Frame) (*Event, error) {
	id := frame.StreamID()
	s, ok := c.streams[id]
	if !ok {
		// Stream no longer in the table: discard and, per the error
		// taxonomy, ask the peer to stop sending on it.
		c.queueRstStream(id, framing.StatusInvalidStream)
		return nil, nil
	}

	prevState := s.state
	if err := s.acceptInbound(frame); err != nil {
		if err == ErrWrongFrameForStream {
			return nil, errors.Wrap(framing.ErrProtocolError, err.Error())
		}
		return nil, err
	}

	switch f := frame.(type) {
	case *framing.SynReplyFrame:
		ev := &Event{Kind: EventHeadersReceived, StreamID: id, Headers: f.Headers}
		c.maybeCloseEvent(s, prevState, ev)
		return ev, nil
	case *framing.HeadersFrame:
		ev := &Event{Kind: EventHeadersReceived, StreamID: id, Headers: f.Headers}
		c.maybeCloseEvent(s, prevState, ev)
		return ev, nil
	case *framing.DataFrame:
		ev := &Event{Kind: EventDataReceived, StreamID: id, Data: f.Payload}
		c.maybeCloseEvent(s, prevState, ev)
		return ev, nil
	case *framing.RstStreamFrame:
		c.metrics.StreamClosed("rst_stream")
		return &Event{Kind: EventStreamClosed, StreamID: id, Status: uint32(f.StatusCode)}, nil
	case *framing.WindowUpdateFrame:
		return nil, nil
	}
	return nil, nil
}

// maybeCloseEvent records the stream-closed metric when accepting a
// frame's FIN moved the stream to Closed. No separate StreamClosed
// event is emitted for such a close: this core reports at most one
// event per inbound frame, so the caller sees only the
// HeadersReceived/DataReceived event of the frame that carried FIN.
// EventStreamClosed is produced only for an inbound RstStream.
func (c *Connection) maybeCloseEvent(s *Stream, prevState State, ev *Event) {
	if prevState != StateClosed && s.state == StateClosed {
		c.metrics.StreamClosed("fin")
	}
}

func (c *Connection) handleSettings(f *framing.SettingsFrame) (*Event, error) {
	if f.ClearSettings() {
		c.settings = make(map[uint32]framing.SettingEntry)
	}
	for _, e := range f.Entries {
		c.settings[e.ID] = e
	}
	out := make(map[uint32]framing.SettingEntry, len(c.settings))
	for k, v := range c.settings {
		out[k] = v
	}
	return &Event{Kind: EventSettingsReceived, Settings: out}, nil
}

func (c *Connection) handlePing(f *framing.PingFrame) (*Event, error) {
	if f.PingID%2 == 0 {
		// Server-initiated: echo verbatim.
		c.outbox.push(maxFramePriority, &framing.PingFrame{PingID: f.PingID})
		return nil, nil
	}
	// Reply to a ping we initiated: record RTT.
	sentAt, ok := c.pendingPings[f.PingID]
	if ok {
		delete(c.pendingPings, f.PingID)
		c.metrics.PingRTT(time.Since(sentAt))
	}
	return &Event{Kind: EventPingReply, PingID: f.PingID}, nil
}

func (c *Connection) handleGoAway(f *framing.GoAwayFrame) (*Event, error) {
	c.log.Warn("peer sent GOAWAY", zap.String("conn_id", c.id), zap.Uint32("last_good_stream_id", f.LastGoodStreamID), zap.Uint32("status", uint32(f.StatusCode)))
	c.goneAway = true
	c.remoteLastID = f.LastGoodStreamID
	for id, s := range c.streams {
		if id > f.LastGoodStreamID && id%2 == 1 {
			s.state = StateClosed
			s.closeErr = errors.Wrap(framing.ErrProtocolError, "spdy3: connection going away")
		}
	}
	return &Event{Kind: EventConnectionGoAway, LastID: f.LastGoodStreamID, Status: uint32(f.StatusCode)}, nil
}

func (c *Connection) queueRstStream(streamID uint32, status framing.RstStatus) {
	c.outbox.push(maxFramePriority, &framing.RstStreamFrame{StreamID_: streamID, StatusCode: status})
}

// Ping enqueues a client-initiated ping with a fresh odd id derived
// from the next client stream id counter's parity space; the id is
// returned so the caller can correlate the eventual PingReply event.
func (c *Connection) Ping() (uint32, error) {
	id := c.nextStreamID
	c.nextStreamID += 2
	if id%2 == 0 {
		id++
	}
	c.pendingPings[id] = time.Now()
	c.outbox.push(maxFramePriority, &framing.PingFrame{PingID: id})
	return id, nil
}

// Close flushes any already-queued outbound frames, then makes a
// best-effort attempt to tell the peer this connection is going away
// before tearing down the transport. The GOAWAY write's result is
// discarded: by the time a caller closes, the transport may already
// be unusable, and Close must still release it.
func (c *Connection) Close() error {
	if !c.closed {
		c.closed = true
		c.flushOutbox()
		var buf bytes.Buffer
		goAway := &framing.GoAwayFrame{LastGoodStreamID: c.lastAccepted, StatusCode: framing.GoAwayOK}
		if err := framing.WriteFrame(&buf, goAway, c.nv); err == nil {
			c.transport.Write(buf.Bytes())
		}
	}
	c.log.Debug("connection closing",
		zap.String("conn_id", c.id),
		zap.Bool("peer_gone_away", c.goneAway),
		zap.Uint32("remote_last_good_stream_id", c.remoteLastID),
	)
	return c.transport.Close()
}

// flushOutbox writes every frame still sitting in the outbound
// priority queue, if any, ignoring transport errors: it exists so
// Close doesn't silently drop frames a caller queued (e.g. an echoed
// PING) but never got around to draining with SendPending.
func (c *Connection) flushOutbox() {
	if c.outbox.empty() {
		return
	}
	var buf bytes.Buffer
	for _, f := range c.outbox.popAll() {
		if err := framing.WriteFrame(&buf, f, c.nv); err != nil {
			return
		}
	}
	if buf.Len() > 0 {
		c.transport.Write(buf.Bytes())
	}
}

func frameTypeName(f framing.Frame) string {
	switch f.(type) {
	case *framing.SynStreamFrame:
		return "syn_stream"
	case *framing.SynReplyFrame:
		return "syn_reply"
	case *framing.RstStreamFrame:
		return "rst_stream"
	case *framing.SettingsFrame:
		return "settings"
	case *framing.PingFrame:
		return "ping"
	case *framing.GoAwayFrame:
		return "go_away"
	case *framing.HeadersFrame:
		return "headers"
	case *framing.WindowUpdateFrame:
		return "window_update"
	case *framing.DataFrame:
		return "data"
	default:
		return "opaque"
	}
}

func isTimeout(err error) bool {
	type timeouter interface{ Timeout() bool }
	if t, ok := errors.Cause(err).(timeouter); ok {
		return t.Timeout()
	}
	return false
}
