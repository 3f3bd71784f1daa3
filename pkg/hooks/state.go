package hooks

// SetState queues a change for the slot it was returned with and schedules
// a render. The same function is returned for a slot on every render.
type SetState[T any] func(change Change[T])

// UseState returns the current value of the next positional slot and its
// dispatch function. On the first invocation of a unit the slot starts at
// initial; on later invocations initial is ignored and the value is the
// previous generation's value with all queued changes applied in order.
//
// UseState panics with *errors.StateAlignmentError when the call sequence
// differs from the previous generation.
func UseState[T any](c *Cursor, initial T) (T, SetState[T]) {
	index := len(c.slots)

	var slot *Slot
	if c.update {
		if index >= len(c.previous) {
			panic(c.misaligned(index, "more state calls than the previous render"))
		}
		prev := c.previous[index]
		if _, ok := prev.cell.dispatch.(SetState[T]); !ok {
			err := c.misaligned(index, "state type changed between renders")
			err.Current = -1
			panic(err)
		}
		slot = &Slot{
			value:    prev.cell.queue.Fold(prev.value),
			cell:     prev.cell,
			consumed: prev.cell.queue.Len(),
		}
	} else {
		slot = &Slot{value: initial, cell: newCell[T](c.policy, c.scheduler)}
	}
	c.slots = append(c.slots, slot)

	value, _ := slot.value.(T)
	return value, slot.cell.dispatch.(SetState[T])
}

func newCell[T any](policy Policy, scheduler Scheduler) *cell {
	cl := &cell{queue: NewQueue(policy)}
	cl.dispatch = SetState[T](func(change Change[T]) {
		if change.op == 0 {
			return
		}
		cl.queue.Push(change.pending())
		if scheduler != nil {
			scheduler.ScheduleRender()
		}
	})
	return cl
}
