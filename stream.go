package spdy3

import (
	"github.com/mkch/spdy3/framing"
	"github.com/pkg/errors"
)

// State is one node of a Stream's lifecycle.
type State int

const (
	StateIdle State = iota
	StateOpen
	StateHalfClosedLocal
	StateHalfClosedRemote
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpen:
		return "open"
	case StateHalfClosedLocal:
		return "half_closed_local"
	case StateHalfClosedRemote:
		return "half_closed_remote"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ErrWrongFrameForStream is returned by Stream.acceptInbound when a
// connection-scoped frame (Settings, Ping, GoAway) is routed to a
// stream. A stream-scoped frame arriving in a state that forbids it
// instead closes the stream and yields a wrapped framing.ErrProtocolError.
var ErrWrongFrameForStream = errors.New("spdy3: frame not valid for stream in its current state")

// DataHandler receives payload bytes from inbound Data frames.
type DataHandler func(stream *Stream, payload []byte)

// Stream owns one logical request/response exchange: its queue of
// not-yet-serialised outbound frames, its accumulated inbound
// headers, and its state machine. A Stream never outlives the
// Connection that created it and holds no codec state of its own —
// serialisation always borrows the Connection's shared NV codec.
type Stream struct {
	ID             uint32
	Version        uint16
	Priority       byte
	AssociatedID   uint32
	HasAssociated  bool
	state          State
	outbound       []framing.Frame
	Headers        *framing.Headers
	OnData         DataHandler
	closeErr       error
	finSentOnFrame int // index into outbound carrying the locally-sent FIN, or -1
}

func newStream(id uint32, priority byte) *Stream {
	return &Stream{
		ID:             id,
		Version:        framing.Version,
		Priority:       priority,
		state:          StateIdle,
		Headers:        framing.NewHeaders(),
		finSentOnFrame: -1,
	}
}

// State returns the stream's current lifecycle state.
func (s *Stream) State() State { return s.state }

// Err returns the terminal error that closed the stream, if any
// (set by RstStream or an enclosing GoAway).
func (s *Stream) Err() error { return s.closeErr }

// open enqueues the stream's SynStream frame. FIN is set provisionally
// so a header-only request naturally terminates the stream locally;
// prepare_data clears it if a body follows.
func (s *Stream) open(assocID uint32, hasAssoc bool, headers *framing.Headers) error {
	if s.state != StateIdle {
		return errors.Errorf("spdy3: open called on stream %d in state %v", s.ID, s.state)
	}
	s.AssociatedID = assocID
	s.HasAssociated = hasAssoc
	f := &framing.SynStreamFrame{
		Flags_:        framing.FlagFin,
		StreamID_:     s.ID,
		AssociatedTo_: assocID,
		Priority_:     s.Priority,
		Headers:       headers,
	}
	s.finSentOnFrame = len(s.outbound)
	s.outbound = append(s.outbound, f)
	s.state = StateOpen
	return nil
}

// addHeader appends a header to the last queued outbound frame that
// carries headers (the SynStream, or a later Headers frame added by
// the caller). It is the caller's responsibility to have queued such
// a frame first; open() always does.
func (s *Stream) addHeader(name, value string) error {
	for i := len(s.outbound) - 1; i >= 0; i-- {
		switch f := s.outbound[i].(type) {
		case *framing.SynStreamFrame:
			f.Headers.Set(name, value)
			return nil
		case *framing.SynReplyFrame:
			f.Headers.Set(name, value)
			return nil
		case *framing.HeadersFrame:
			f.Headers.Set(name, value)
			return nil
		}
	}
	return errors.Errorf("spdy3: stream %d has no queued header-bearing frame", s.ID)
}

// prepareData clears FIN from whichever previously queued frame held
// it, then enqueues a Data frame with its FIN bit set from last. This
// preserves the invariant that at most one locally-sent frame ever
// carries FIN: the final one.
func (s *Stream) prepareData(payload []byte, last bool) error {
	if s.state != StateOpen && s.state != StateHalfClosedRemote {
		return errors.Errorf("spdy3: prepare_data called on stream %d in state %v", s.ID, s.state)
	}
	s.clearPendingFin()
	var flags byte
	if last {
		flags = framing.FlagFin
	}
	s.outbound = append(s.outbound, &framing.DataFrame{StreamID_: s.ID, Flags_: flags, Payload: payload})
	if last {
		s.finSentOnFrame = len(s.outbound) - 1
	}
	return nil
}

func (s *Stream) clearPendingFin() {
	if s.finSentOnFrame < 0 || s.finSentOnFrame >= len(s.outbound) {
		return
	}
	switch f := s.outbound[s.finSentOnFrame].(type) {
	case *framing.SynStreamFrame:
		f.Flags_ &^= framing.FlagFin
	case *framing.SynReplyFrame:
		f.Flags_ &^= framing.FlagFin
	case *framing.HeadersFrame:
		f.Flags_ &^= framing.FlagFin
	case *framing.DataFrame:
		f.Flags_ &^= framing.FlagFin
	}
	s.finSentOnFrame = -1
}

// drainOutbound returns every queued outbound frame in enqueue order
// and clears the queue. It is the caller's (Connection's)
// responsibility to serialise each one through the shared NV codec
// before any other stream's frames are serialised, preserving
// compressor-call ordering. After a FIN-carrying frame is drained,
// the stream transitions locally.
func (s *Stream) drainOutbound() []framing.Frame {
	out := s.outbound
	s.outbound = nil
	for _, f := range out {
		if f.Flags()&framing.FlagFin != 0 {
			s.localFin()
		}
	}
	return out
}

func (s *Stream) localFin() {
	switch s.state {
	case StateOpen:
		s.state = StateHalfClosedLocal
	case StateHalfClosedRemote:
		s.state = StateClosed
	}
}

func (s *Stream) remoteFin() {
	switch s.state {
	case StateOpen:
		s.state = StateHalfClosedRemote
	case StateHalfClosedLocal:
		s.state = StateClosed
	}
}

// acceptInbound dispatches an inbound frame already routed to this
// stream by the Connection. Settings, Ping, and GoAway never reach
// here; the Connection handles them itself.
func (s *Stream) acceptInbound(frame framing.Frame) error {
	switch f := frame.(type) {
	case *framing.SynReplyFrame:
		if s.state != StateOpen && s.state != StateHalfClosedLocal {
			return s.protocolViolation()
		}
		mergeHeaders(s.Headers, f.Headers)
		if f.Flags_&framing.FlagFin != 0 {
			s.remoteFin()
		}
		return nil
	case *framing.HeadersFrame:
		if s.state == StateClosed || s.state == StateHalfClosedRemote {
			return s.protocolViolation()
		}
		mergeHeaders(s.Headers, f.Headers)
		if f.Flags_&framing.FlagFin != 0 {
			s.remoteFin()
		}
		return nil
	case *framing.DataFrame:
		if s.state == StateClosed || s.state == StateHalfClosedRemote {
			return s.protocolViolation()
		}
		if s.OnData != nil {
			s.OnData(s, f.Payload)
		}
		if f.Flags_&framing.FlagFin != 0 {
			s.remoteFin()
		}
		return nil
	case *framing.WindowUpdateFrame:
		// Flow control is advisory in this core; nothing to store
		// beyond what the caller inspects on the frame itself.
		return nil
	case *framing.RstStreamFrame:
		s.state = StateClosed
		s.closeErr = errors.Errorf("spdy3: stream %d reset, status %d", s.ID, f.StatusCode)
		return nil
	default:
		return ErrWrongFrameForStream
	}
}

func (s *Stream) protocolViolation() error {
	prevState := s.state
	s.state = StateClosed
	s.closeErr = errors.Wrapf(framing.ErrProtocolError, "stream %d: frame illegal in state %v", s.ID, prevState)
	return s.closeErr
}

// mergeHeaders applies the spec's defensive duplicate-replaces rule:
// the wire format forbids duplicate names within one NV block, but a
// misbehaving peer is handled by last-write-wins rather than a panic.
func mergeHeaders(into, from *framing.Headers) {
	for _, name := range from.Names() {
		into.SetValues(name, from.Values(name))
	}
}
