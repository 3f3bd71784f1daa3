package fiber

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/go-drift/fiber/pkg/core"
	fibererrors "github.com/go-drift/fiber/pkg/errors"
	"github.com/go-drift/fiber/pkg/hooks"
	"github.com/go-drift/fiber/pkg/host"
	"github.com/go-drift/fiber/pkg/scheduler"
)

// ErrTooManyRenders aborts a render whose component bodies keep dispatching
// state changes while they run.
var ErrTooManyRenders = errors.New("too many renders restarted from component bodies")

// Session is one render root: a host, a container node, and the committed and
// in-progress trees rendered into it.
//
// A Session is not safe for concurrent use. Render, Resume, ScheduleRender
// and listener callbacks that dispatch state changes must all run on the
// same goroutine, usually a scheduler.Loop.
type Session struct {
	id        string
	host      host.Host
	logger    zerolog.Logger
	policy    hooks.Policy
	scheduler scheduler.Scheduler
	observer  observers
	maxNested int

	target     []*core.Element
	container  host.Handle
	generation uint64
	committed  *tree
	wip        *tree
	nextUnit   *WorkUnit
	deletions  []*WorkUnit
	stats      RenderStats

	performing      bool
	committing      bool
	renderRequested bool
	nested          int
	nestedErr       error
	taskScheduled   bool
}

// NewSession creates a session that renders through h.
func NewSession(h host.Host, opts ...Option) *Session {
	s := &Session{
		id:        uuid.NewString(),
		host:      h,
		logger:    zerolog.Nop(),
		policy:    hooks.PolicyCircular,
		scheduler: &scheduler.Immediate{},
		maxNested: DefaultMaxNestedRenders,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("session", s.id).Logger()
	return s
}

// ID returns the session identifier used in logs and errors.
func (s *Session) ID() string { return s.id }

// Host returns the host the session renders through.
func (s *Session) Host() host.Host { return s.host }

// Policy returns the queue policy of the session's state slots.
func (s *Session) Policy() hooks.Policy { return s.policy }

// Render starts rendering element into container. Any in-flight render is
// discarded. The work runs on the session's scheduler; with the default
// scheduler it completes before Render returns.
func (s *Session) Render(element *core.Element, container host.Handle) {
	var elements []*core.Element
	if element != nil {
		elements = []*core.Element{element}
	}
	if s.container != nil && s.container != container {
		s.logger.Debug().Msg("render target changed container")
	}
	s.target = elements
	s.container = container
	s.begin()
}

// ScheduleRender starts a new render of the current target from its root.
// It is called by state setters after they queue a change. A render already
// in flight is discarded and rebuilt, so the new generation sees every
// queued change.
func (s *Session) ScheduleRender() {
	if s.container == nil {
		return
	}
	if s.committing {
		s.renderRequested = true
		return
	}
	if s.performing {
		s.nested++
		if s.maxNested > 0 && s.nested > s.maxNested {
			s.nestedErr = ErrTooManyRenders
			return
		}
	}
	s.begin()
}

// begin discards any in-progress tree and prepares a new generation rooted at
// the container.
func (s *Session) begin() {
	if s.wip != nil {
		s.logger.Debug().Uint64("generation", s.wip.generation).Msg("discarding in-progress render")
		s.observer.Discarded(s.wip.generation)
	}

	s.generation++
	t := newTree(s.generation)
	root := &WorkUnit{
		kind:     RootKind,
		props:    core.Props{},
		elements: s.target,
		node:     s.container,
	}
	if s.committed != nil && s.committed.root.node == s.container {
		root.previous = s.committed.root.ref
	}
	t.add(root)
	t.root = root

	s.wip = t
	s.nextUnit = root
	s.deletions = nil
	s.stats = RenderStats{Generation: t.generation, Started: time.Now()}
	if s.performing {
		s.stats.Turns = 1
	}
	s.logger.Debug().Uint64("generation", t.generation).Msg("render started")
	s.requestTask()
}

func (s *Session) requestTask() {
	if s.taskScheduled {
		return
	}
	s.taskScheduled = true
	s.scheduler.Schedule(s.runTask)
}

// Task returns the session's render task for callers that drive Resume from
// their own scheduler.
func (s *Session) Task() scheduler.Task {
	return s.runTask
}

func (s *Session) runTask(d scheduler.Deadline) (status scheduler.Status) {
	defer fibererrors.Recover("fiber.task", func(pe *fibererrors.PanicError) {
		s.fail("fiber.task", pe)
		s.taskScheduled = false
		status = scheduler.Done
	})

	status, err := s.Resume(d)
	if err != nil {
		fibererrors.ReportError(s.id, err)
	}
	if status == scheduler.Yielded || s.wip != nil {
		return scheduler.Yielded
	}
	s.taskScheduled = false
	return scheduler.Done
}

// Pending reports whether a render is in flight.
func (s *Session) Pending() bool {
	return s.wip != nil
}

// Generation returns the number of the most recently started generation.
func (s *Session) Generation() uint64 {
	return s.generation
}

// Committed returns the root unit of the committed tree, or nil before the
// first commit.
func (s *Session) Committed() *WorkUnit {
	if s.committed == nil {
		return nil
	}
	return s.committed.root
}

// InProgress returns the root unit of the in-flight tree, or nil.
func (s *Session) InProgress() *WorkUnit {
	if s.wip == nil {
		return nil
	}
	return s.wip.root
}

// Previous resolves u's counterpart in the committed tree. It returns nil when
// u is new or the committed tree has moved on.
func (s *Session) Previous(u *WorkUnit) *WorkUnit {
	return s.committed.resolve(u.previous)
}

// fail discards the in-progress tree and wraps err for the caller. The
// committed tree is left untouched.
func (s *Session) fail(op string, err error) error {
	fe := &fibererrors.FiberError{
		Op:         op,
		Kind:       kindOf(err),
		Err:        err,
		Session:    s.id,
		StackTrace: fibererrors.CaptureStack(),
		Timestamp:  time.Now(),
	}
	if s.wip != nil {
		s.observer.Discarded(s.wip.generation)
	}
	s.wip = nil
	s.nextUnit = nil
	s.deletions = nil
	s.nested = 0
	s.nestedErr = nil
	s.observer.Failed(fe)
	s.logger.Error().Err(err).Str("op", op).Str("kind", fe.Kind.String()).Msg("render aborted")
	return fe
}

func kindOf(err error) fibererrors.ErrorKind {
	var (
		alignment *fibererrors.StateAlignmentError
		hostErr   *fibererrors.HostOperationError
		invariant *fibererrors.InvariantViolation
		build     *fibererrors.BuildError
		panicked  *fibererrors.PanicError
	)
	switch {
	case errors.Is(err, ErrTooManyRenders):
		return fibererrors.KindState
	case errors.As(err, &alignment):
		return fibererrors.KindState
	case errors.As(err, &hostErr):
		return fibererrors.KindHost
	case errors.As(err, &invariant):
		return fibererrors.KindInvariant
	case errors.As(err, &build):
		return fibererrors.KindBuild
	case errors.As(err, &panicked):
		return fibererrors.KindPanic
	default:
		return fibererrors.KindUnknown
	}
}

// RenderSync renders element into container on a fresh synchronous session
// and returns the session once the first commit has finished, together with
// the error that aborted it, if any.
func RenderSync(h host.Host, element *core.Element, container host.Handle, opts ...Option) (*Session, error) {
	var failure error
	opts = append(opts,
		WithScheduler(&scheduler.Immediate{}),
		WithObserver(failureObserver{err: &failure}),
	)
	s := NewSession(h, opts...)
	s.Render(element, container)
	return s, failure
}

type failureObserver struct {
	nopObserver
	err *error
}

func (o failureObserver) Failed(err error) {
	if *o.err == nil {
		*o.err = err
	}
}
