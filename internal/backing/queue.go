package backing

import "sort"

// pendingQueue tracks the backing store's in-flight transaction completions
// and derives stall cycles when the queue fills up, mirroring
// read_port.service_reads / write_port.service_reads in scale-sim-v3.
//
// stall accumulates across one ServiceReads call and must be drained (via
// takeStall) at the end of that call; it is not persisted across calls.
type pendingQueue struct {
	entries  []int64
	capacity int
	stall    int64
}

func newPendingQueue(capacity int) *pendingQueue {
	return &pendingQueue{capacity: capacity}
}

// currentStall is the stall to fold into the transaction about to be
// issued, before record() has a chance to grow it for the *next*
// transaction.
func (q *pendingQueue) currentStall() int64 {
	return q.stall
}

// record appends a transaction's completion cycle, issued while the
// caller's clock read `arrival`, and grows q.stall for subsequent
// transactions once the queue is full.
func (q *pendingQueue) record(completion, arrival int64) {
	stallAtIssue := q.stall
	q.entries = append(q.entries, completion)
	if len(q.entries) < q.capacity {
		return
	}

	sort.Slice(q.entries, func(i, j int) bool { return q.entries[i] < q.entries[j] })

	updatedArrival := arrival + stallAtIssue
	if q.entries[0] >= updatedArrival {
		q.stall += q.entries[0] - updatedArrival
		q.entries = q.entries[1:]
		return
	}

	idx := sort.Search(len(q.entries), func(i int) bool { return q.entries[i] >= updatedArrival })
	if idx == len(q.entries) {
		q.entries = q.entries[:0]
	} else {
		q.entries = q.entries[idx:]
	}
}

// takeStall returns and resets the accumulated stall; call once at the end
// of a ServiceReads call.
func (q *pendingQueue) takeStall() int64 {
	s := q.stall
	q.stall = 0
	return s
}
