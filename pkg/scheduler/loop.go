package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-drift/fiber/pkg/errors"
)

// DefaultSlice is the time budget of one Loop turn.
const DefaultSlice = 5 * time.Millisecond

// Loop is a single-goroutine cooperative scheduler. Tasks run in turns of at
// most one slice each; between turns the loop runs functions handed to Post,
// which is how events from other goroutines reach the render thread.
type Loop struct {
	clock    Clock
	slice    time.Duration
	maxUnits int

	mu    sync.Mutex
	tasks []Task
	posts []func()
	wake  chan struct{}
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithClock sets the clock used to measure slices.
func WithClock(clock Clock) LoopOption {
	return func(l *Loop) {
		l.clock = clock
	}
}

// WithSlice sets the time budget of one turn. Slices no longer than
// MinRemaining would never fit a unit and keep the default.
func WithSlice(slice time.Duration) LoopOption {
	return func(l *Loop) {
		if slice > MinRemaining {
			l.slice = slice
		}
	}
}

// WithMaxUnits caps the number of units a task may run in one turn, on top
// of the time slice. Zero means no cap.
func WithMaxUnits(n int) LoopOption {
	return func(l *Loop) {
		if n >= 0 {
			l.maxUnits = n
		}
	}
}

// NewLoop creates a stopped loop.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		clock: SystemClock(),
		slice: DefaultSlice,
		wake:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Schedule queues task for the next turn. Safe from any goroutine.
func (l *Loop) Schedule(task Task) {
	l.mu.Lock()
	l.tasks = append(l.tasks, task)
	l.mu.Unlock()
	l.signal()
}

// Post queues fn to run on the loop goroutine between turns. Safe from any
// goroutine.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.posts = append(l.posts, fn)
	l.mu.Unlock()
	l.signal()
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run processes posts and tasks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if l.step() {
			if err := ctx.Err(); err != nil {
				return err
			}
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// RunUntilIdle processes posts and tasks on the calling goroutine until both
// queues are empty or ctx is cancelled.
func (l *Loop) RunUntilIdle(ctx context.Context) error {
	for l.step() {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// Step runs pending posts and one turn of the oldest task on the calling
// goroutine. It reports whether any work was done.
func (l *Loop) Step() bool {
	return l.step()
}

// Idle reports whether no posts or tasks are queued.
func (l *Loop) Idle() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.posts) == 0 && len(l.tasks) == 0
}

// step runs pending posts, then one turn of the oldest task. It reports
// whether any work was done.
func (l *Loop) step() bool {
	l.mu.Lock()
	posts := l.posts
	l.posts = nil
	var task Task
	if len(l.tasks) > 0 {
		task = l.tasks[0]
		l.tasks = l.tasks[1:]
	}
	l.mu.Unlock()

	for _, fn := range posts {
		l.runPost(fn)
	}
	if task == nil {
		return len(posts) > 0
	}
	if l.runTurn(task) == Yielded {
		l.mu.Lock()
		l.tasks = append(l.tasks, task)
		l.mu.Unlock()
	}
	return true
}

func (l *Loop) runPost(fn func()) {
	defer errors.Recover("scheduler.Loop.post")
	fn()
}

func (l *Loop) runTurn(task Task) (status Status) {
	defer errors.Recover("scheduler.Loop.turn")
	var deadline Deadline = NewTimeBudget(l.clock, l.slice)
	if l.maxUnits > 0 {
		deadline = Earliest(deadline, NewStepBudget(l.maxUnits))
	}
	return task(deadline)
}
