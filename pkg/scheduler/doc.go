// Package scheduler provides the cooperative scheduling primitives that drive
// a render session.
//
// Work is expressed as a Task: a resumable function that receives a Deadline,
// performs units of work until the deadline asks it to yield, and reports
// whether it is Done or Yielded. A Scheduler re-invokes yielded tasks later.
// Nothing in the engine assumes a particular Scheduler: Immediate runs tasks
// to completion on the caller's goroutine, Loop time-slices them on a single
// dedicated goroutine and interleaves externally posted events between turns.
package scheduler
