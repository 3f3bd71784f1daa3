// Package hooks implements positional per-component state.
//
// A component body obtains state by calling UseState through the Cursor it
// is invoked with. The Nth UseState call of an invocation always maps to the
// Nth slot recorded by the previous generation of the same unit, so the number
// and order of UseState calls must be identical on every invocation. Breaking
// that rule panics with a *errors.StateAlignmentError, which the engine
// recovers and reports.
//
// # Pending changes
//
// Dispatching a Change appends a PendingChange to the slot's queue and asks
// the Scheduler for a new render. The queue is folded in dispatch order the
// next time the slot is read:
//
//	count, setCount := hooks.UseState(c, 0)
//	setCount(hooks.Transform(func(n int) int { return n + 1 }))
//	setCount(hooks.Replace(10))
//
// Two queue policies with identical observable behaviour are provided:
// PolicyCircular keeps a circular singly-linked list anchored at the newest
// entry, PolicyAppend keeps a plain ordered slice.
package hooks
