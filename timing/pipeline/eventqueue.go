package pipeline

import "container/heap"

// event schedules a stage notification for one micro-operation.
type event struct {
	cycle uint64
	seqNo uint64
	piece uint8
	// order breaks ties between events due at the same cycle: they fire in
	// insertion order.
	order uint64
}

// decodeQueue holds decode events. Decode cycles are fetch plus a constant,
// and fetch never decreases, so the queue is FIFO.
type decodeQueue struct {
	events []event
	head   int
}

func (q *decodeQueue) push(e event) {
	q.events = append(q.events, e)
}

func (q *decodeQueue) len() int {
	return len(q.events) - q.head
}

func (q *decodeQueue) front() *event {
	if q.len() == 0 {
		return nil
	}
	return &q.events[q.head]
}

func (q *decodeQueue) pop() event {
	e := q.events[q.head]
	q.head++
	if q.head == len(q.events) {
		q.events = q.events[:0]
		q.head = 0
	}
	return e
}

// executeHeap is a min-heap of execute events ordered by (cycle, order).
type executeHeap []event

func (h executeHeap) Len() int { return len(h) }

func (h executeHeap) Less(i, j int) bool {
	if h[i].cycle != h[j].cycle {
		return h[i].cycle < h[j].cycle
	}
	return h[i].order < h[j].order
}

func (h executeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *executeHeap) Push(x any) { *h = append(*h, x.(event)) }

func (h *executeHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// executeQueue wraps executeHeap with typed accessors.
type executeQueue struct {
	h     executeHeap
	count uint64
}

func (q *executeQueue) push(e event) {
	e.order = q.count
	q.count++
	heap.Push(&q.h, e)
}

func (q *executeQueue) len() int {
	return q.h.Len()
}

func (q *executeQueue) front() *event {
	if q.h.Len() == 0 {
		return nil
	}
	return &q.h[0]
}

func (q *executeQueue) pop() event {
	return heap.Pop(&q.h).(event)
}
