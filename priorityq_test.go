package spdy3

import (
	"testing"

	"github.com/mkch/spdy3/framing"
)

func TestOutboundQueueOrdersByPriorityThenFIFO(t *testing.T) {
	oq := newOutboundQueue()
	low := &framing.DataFrame{StreamID_: 1, Payload: []byte("low")}
	high := &framing.DataFrame{StreamID_: 3, Payload: []byte("high")}
	firstAtSamePriority := &framing.DataFrame{StreamID_: 5, Payload: []byte("first")}
	secondAtSamePriority := &framing.DataFrame{StreamID_: 5, Payload: []byte("second")}

	oq.push(7, low)
	oq.push(0, high)
	oq.push(3, firstAtSamePriority)
	oq.push(3, secondAtSamePriority)

	out := oq.popAll()
	if len(out) != 4 {
		t.Fatalf("got %d frames, want 4", len(out))
	}
	if out[0] != framing.Frame(high) {
		t.Fatalf("got %v first, want the priority-0 frame first", out[0])
	}
	if out[1].(*framing.DataFrame).Payload[0] != 'f' {
		t.Fatalf("got %v, want the earlier-enqueued same-priority frame second", out[1])
	}
	if out[3] != framing.Frame(low) {
		t.Fatalf("got %v last, want the priority-7 frame last", out[3])
	}
	if !oq.empty() {
		t.Fatal("queue should be empty after popAll")
	}
}
