package spdy3

import (
	"container/heap"

	"github.com/mkch/spdy3/framing"
)

// maxFramePriority sorts after every real stream priority (0..7). It
// is used for connection-originated frames not tied to a stream's
// priority (an echoed or client-initiated Ping, a RstStream for an
// unknown stream); within one drain they are written after any stream
// frames queued alongside them.
const maxFramePriority = 0xFF

// queuedFrame is one entry in a Connection's outbound priority queue.
type queuedFrame struct {
	priority byte
	seq      uint64
	frame    framing.Frame
}

// framePriorityQ orders queued frames by ascending priority number
// (0 = highest) and, within a priority, by enqueue order. It
// implements container/heap.Interface; Connection.SendPending pops it
// synchronously while draining outbound frames to the transport, so
// unlike the teacher's blockingFramePriorityQ there is no semaphore:
// the core never blocks internally, only on transport I/O (see
// DESIGN.md).
type framePriorityQ []*queuedFrame

func (q framePriorityQ) Len() int { return len(q) }

func (q framePriorityQ) Less(i, j int) bool {
	if q[i].priority == q[j].priority {
		return q[i].seq < q[j].seq
	}
	return q[i].priority < q[j].priority
}

func (q framePriorityQ) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *framePriorityQ) Push(x interface{}) {
	*q = append(*q, x.(*queuedFrame))
}

func (q *framePriorityQ) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// outboundQueue is a thin, non-blocking wrapper around framePriorityQ
// plus a monotonic sequence counter, giving FIFO order among
// equal-priority frames.
type outboundQueue struct {
	q       framePriorityQ
	nextSeq uint64
}

func newOutboundQueue() *outboundQueue {
	oq := &outboundQueue{}
	heap.Init(&oq.q)
	return oq
}

func (oq *outboundQueue) push(priority byte, frame framing.Frame) {
	heap.Push(&oq.q, &queuedFrame{priority: priority, seq: oq.nextSeq, frame: frame})
	oq.nextSeq++
}

func (oq *outboundQueue) popAll() []framing.Frame {
	out := make([]framing.Frame, 0, oq.q.Len())
	for oq.q.Len() > 0 {
		out = append(out, heap.Pop(&oq.q).(*queuedFrame).frame)
	}
	return out
}

func (oq *outboundQueue) empty() bool { return oq.q.Len() == 0 }
