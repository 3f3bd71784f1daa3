package hooks

import "fmt"

// Policy selects the data structure backing a slot's pending queue.
type Policy int

const (
	// PolicyCircular links changes into a circular singly-linked list whose
	// anchor points at the newest entry; anchor.next is the oldest.
	PolicyCircular Policy = iota
	// PolicyAppend keeps changes in an ordered slice.
	PolicyAppend
)

func (p Policy) String() string {
	switch p {
	case PolicyCircular:
		return "circular"
	case PolicyAppend:
		return "append"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy maps a configuration name to a Policy.
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "", "circular":
		return PolicyCircular, nil
	case "append":
		return PolicyAppend, nil
	default:
		return 0, fmt.Errorf("unknown queue policy %q", name)
	}
}

// Queue holds the pending changes of one state slot in dispatch order.
//
// Fold is non-destructive: a render reads the queue, and the changes it
// consumed are dropped with Discard only once that render is committed.
// Changes dispatched after the read stay queued for the next render.
type Queue interface {
	// Push appends a change as the newest entry.
	Push(change PendingChange)
	// Fold applies every queued change to base, oldest first.
	Fold(base any) any
	// Discard drops the n oldest entries.
	Discard(n int)
	// Len reports the number of queued changes.
	Len() int
}

// NewQueue returns an empty queue for the given policy.
func NewQueue(policy Policy) Queue {
	if policy == PolicyAppend {
		return &appendQueue{}
	}
	return &circularQueue{}
}

type update struct {
	change PendingChange
	next   *update
}

type circularQueue struct {
	last *update
	n    int
}

func (q *circularQueue) Push(change PendingChange) {
	u := &update{change: change}
	if q.last == nil {
		u.next = u
	} else {
		u.next = q.last.next
		q.last.next = u
	}
	q.last = u
	q.n++
}

func (q *circularQueue) Fold(base any) any {
	if q.last == nil {
		return base
	}
	first := q.last.next
	u := first
	for {
		base = u.change.Apply(base)
		u = u.next
		if u == first {
			return base
		}
	}
}

func (q *circularQueue) Discard(n int) {
	if n <= 0 || q.last == nil {
		return
	}
	if n >= q.n {
		q.last = nil
		q.n = 0
		return
	}
	first := q.last.next
	for range n {
		first = first.next
	}
	q.last.next = first
	q.n -= n
}

func (q *circularQueue) Len() int {
	return q.n
}

type appendQueue struct {
	changes []PendingChange
}

func (q *appendQueue) Push(change PendingChange) {
	q.changes = append(q.changes, change)
}

func (q *appendQueue) Fold(base any) any {
	for _, c := range q.changes {
		base = c.Apply(base)
	}
	return base
}

func (q *appendQueue) Discard(n int) {
	if n <= 0 {
		return
	}
	if n >= len(q.changes) {
		q.changes = nil
		return
	}
	q.changes = append([]PendingChange(nil), q.changes[n:]...)
}

func (q *appendQueue) Len() int {
	return len(q.changes)
}
