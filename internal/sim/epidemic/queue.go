package epidemic

import "container/heap"

// eventKind is what happens to an individual when its wake time arrives.
type eventKind uint8

const (
	// evBegin starts a lifecycle: initial cohort at time 0, newborns at
	// their birth time. Nothing is applied; the first real event is armed.
	evBegin eventKind = iota
	evContact
	evRecover
	evEpidemicDeath
	evImmunityLoss
)

// scheduledEvent is one pending wake in the simulation's timeline.
type scheduledEvent struct {
	at   float64
	seq  uint64 // FIFO tie-break for equal times
	ind  *individual
	kind eventKind
}

// eventQueue is a min-heap on (at, seq). The scheduler is its only owner.
type eventQueue []scheduledEvent

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	return q[i].seq < q[j].seq
}

func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x any) { *q = append(*q, x.(scheduledEvent)) }

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	ev := old[n-1]
	*q = old[:n-1]
	return ev
}

var _ heap.Interface = (*eventQueue)(nil)
