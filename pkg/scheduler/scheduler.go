package scheduler

// Status is the result of one task turn.
type Status int

const (
	// Done means the task has no more work until it is scheduled again.
	Done Status = iota
	// Yielded means the task gave up its turn and must be re-invoked.
	Yielded
)

func (s Status) String() string {
	if s == Yielded {
		return "yielded"
	}
	return "done"
}

// Task is resumable work. All of its state lives outside the call, so it
// can stop at any unit boundary and continue on the next invocation.
type Task func(d Deadline) Status

// Scheduler runs tasks cooperatively, re-invoking each yielded task until
// it reports Done.
type Scheduler interface {
	Schedule(task Task)
}

// Immediate runs scheduled tasks to completion on the calling goroutine with
// an unlimited deadline. A task scheduled while another is running is queued
// and run afterwards instead of nesting.
type Immediate struct {
	running bool
	pending []Task
}

// Schedule runs task, and anything it schedules, before returning.
func (s *Immediate) Schedule(task Task) {
	s.pending = append(s.pending, task)
	if s.running {
		return
	}
	s.running = true
	defer func() { s.running = false }()

	for len(s.pending) > 0 {
		next := s.pending[0]
		s.pending = s.pending[1:]
		for next(Unlimited()) == Yielded {
		}
	}
}
