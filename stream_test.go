package spdy3

import (
	"testing"

	"github.com/mkch/spdy3/framing"
)

// After prepare_data(..., last=true) on a stream whose SynStream was
// queued with FIN, exactly one queued frame carries FIN, and it is
// the Data frame.
func TestPrepareDataMovesFinToDataFrame(t *testing.T) {
	s := newStream(1, 0)
	headers := framing.NewHeaders()
	headers.Set(":method", "POST")
	if err := s.open(0, false, headers); err != nil {
		t.Fatal(err)
	}

	syn := s.outbound[0].(*framing.SynStreamFrame)
	if syn.Flags_&framing.FlagFin == 0 {
		t.Fatal("SynStream should carry FIN provisionally before any data is queued")
	}

	if err := s.prepareData([]byte("body"), true); err != nil {
		t.Fatal(err)
	}

	finCount := 0
	var finFrame framing.Frame
	for _, f := range s.outbound {
		if f.Flags()&framing.FlagFin != 0 {
			finCount++
			finFrame = f
		}
	}
	if finCount != 1 {
		t.Fatalf("got %d frames with FIN, want exactly 1", finCount)
	}
	if _, ok := finFrame.(*framing.DataFrame); !ok {
		t.Fatalf("got FIN on %T, want *framing.DataFrame", finFrame)
	}
}

func TestOpenFailsIfNotIdle(t *testing.T) {
	s := newStream(1, 0)
	headers := framing.NewHeaders()
	if err := s.open(0, false, headers); err != nil {
		t.Fatal(err)
	}
	if err := s.open(0, false, headers); err == nil {
		t.Fatal("expected second open() to fail: stream is no longer Idle")
	}
}

func TestDrainOutboundTransitionsToHalfClosedLocal(t *testing.T) {
	s := newStream(1, 0)
	if err := s.open(0, false, framing.NewHeaders()); err != nil {
		t.Fatal(err)
	}
	frames := s.drainOutbound()
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if s.State() != StateHalfClosedLocal {
		t.Fatalf("got state %v, want half_closed_local", s.State())
	}
}

func TestAcceptInboundSynReplyOpensHeaders(t *testing.T) {
	s := newStream(1, 0)
	if err := s.open(0, false, framing.NewHeaders()); err != nil {
		t.Fatal(err)
	}
	s.drainOutbound() // -> HalfClosedLocal

	reply := &framing.SynReplyFrame{StreamID_: 1, Headers: headersWith("status", "200")}
	if err := s.acceptInbound(reply); err != nil {
		t.Fatal(err)
	}
	if v, ok := s.Headers.Get("status"); !ok || v != "200" {
		t.Fatalf("got %q %v, want 200 true", v, ok)
	}
}

func TestAcceptInboundDataFinClosesStream(t *testing.T) {
	s := newStream(1, 0)
	if err := s.open(0, false, framing.NewHeaders()); err != nil {
		t.Fatal(err)
	}
	s.drainOutbound() // -> HalfClosedLocal

	var got []byte
	s.OnData = func(stream *Stream, payload []byte) { got = payload }

	data := &framing.DataFrame{StreamID_: 1, Flags_: framing.FlagFin, Payload: []byte("hi")}
	if err := s.acceptInbound(data); err != nil {
		t.Fatal(err)
	}
	if string(got) != "hi" {
		t.Fatalf("got %q, want hi", got)
	}
	if s.State() != StateClosed {
		t.Fatalf("got state %v, want closed", s.State())
	}
}

func TestAcceptInboundRstStreamSurfacesStatus(t *testing.T) {
	s := newStream(1, 0)
	if err := s.open(0, false, framing.NewHeaders()); err != nil {
		t.Fatal(err)
	}
	rst := &framing.RstStreamFrame{StreamID_: 1, StatusCode: framing.StatusCancel}
	if err := s.acceptInbound(rst); err != nil {
		t.Fatal(err)
	}
	if s.State() != StateClosed {
		t.Fatalf("got state %v, want closed", s.State())
	}
	if s.Err() == nil {
		t.Fatal("expected a terminal error to be recorded")
	}
}

func TestAcceptInboundRejectsSettingsOnStream(t *testing.T) {
	s := newStream(1, 0)
	if err := s.acceptInbound(&framing.SettingsFrame{}); err != ErrWrongFrameForStream {
		t.Fatalf("got %v, want ErrWrongFrameForStream", err)
	}
}

func headersWith(name, value string) *framing.Headers {
	h := framing.NewHeaders()
	h.Set(name, value)
	return h
}
