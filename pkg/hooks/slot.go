package hooks

// Scheduler is notified whenever a dispatched change needs a new render.
type Scheduler interface {
	ScheduleRender()
}

// cell is the part of a slot shared by every generation of the same
// positional slot: the pending queue and the stable dispatch function.
type cell struct {
	queue    Queue
	dispatch any
}

// Slot is one positional state cell of a component unit. A new Slot is
// built for every generation; it shares its queue with the slot it was
// derived from.
type Slot struct {
	value    any
	cell     *cell
	consumed int
}

// Value returns the state held by the slot for its generation.
func (s *Slot) Value() any {
	return s.value
}

// Pending reports how many dispatched changes are still queued, including
// ones already folded into Value but not yet committed.
func (s *Slot) Pending() int {
	return s.cell.queue.Len()
}

// Commit drops the queued changes that were folded into this slot's value.
// The engine calls it once the slot's generation is applied to the host.
func (s *Slot) Commit() {
	s.cell.queue.Discard(s.consumed)
	s.consumed = 0
}
