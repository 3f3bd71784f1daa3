package testing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/go-drift/fiber/pkg/core"
	"github.com/go-drift/fiber/pkg/fiber"
	"github.com/go-drift/fiber/pkg/host/memhost"
	"github.com/go-drift/fiber/pkg/scheduler"
)

const (
	// DefaultSlice is the time slice of one Pump.
	DefaultSlice = 5 * time.Millisecond
	// DefaultUnitCost is how far the fake clock moves per unit of work.
	DefaultUnitCost = time.Millisecond
	// ContainerKind is the kind of the container node renders go into.
	ContainerKind = "root"

	textKind = string(core.TextKind)
)

// ErrSettleTimeout is returned when PumpAndSettle exceeds its timeout.
var ErrSettleTimeout = errors.New("PumpAndSettle timed out: session did not settle")

// ErrNoListener is returned when an event reaches a node without listeners.
var ErrNoListener = errors.New("no listener for event")

// SessionTester renders into an in-memory host on a loop driven by a fake
// clock. Nothing runs until Pump or PumpAndSettle is called, so a test can
// observe a render in progress.
type SessionTester struct {
	host      *memhost.Host
	container *memhost.Node
	loop      *scheduler.Loop
	clock     *FakeClock
	session   *fiber.Session
	slice     time.Duration
	errs      []error
	stats     []fiber.RenderStats
}

// TesterOption configures a SessionTester.
type TesterOption func(*testerConfig)

type testerConfig struct {
	slice    time.Duration
	unitCost time.Duration
	session  []fiber.Option
}

// WithSlice sets the time slice of each Pump.
func WithSlice(d time.Duration) TesterOption {
	return func(c *testerConfig) { c.slice = d }
}

// WithUnitCost sets how much fake time each unit of work takes.
func WithUnitCost(d time.Duration) TesterOption {
	return func(c *testerConfig) { c.unitCost = d }
}

// WithSessionOptions passes options through to the session.
func WithSessionOptions(opts ...fiber.Option) TesterOption {
	return func(c *testerConfig) { c.session = append(c.session, opts...) }
}

// NewSessionTester creates a tester with a fresh host and container.
func NewSessionTester(opts ...TesterOption) *SessionTester {
	cfg := testerConfig{slice: DefaultSlice, unitCost: DefaultUnitCost}
	for _, opt := range opts {
		opt(&cfg)
	}

	clock := NewFakeClock()
	clock.AutoAdvance(cfg.unitCost)
	h := memhost.New()
	t := &SessionTester{
		host:      h,
		container: h.NewContainer(ContainerKind),
		clock:     clock,
		slice:     cfg.slice,
		loop:      scheduler.NewLoop(scheduler.WithClock(clock), scheduler.WithSlice(cfg.slice)),
	}
	sessionOpts := append([]fiber.Option{
		fiber.WithScheduler(t.loop),
		fiber.WithObserver(testerObserver{t}),
	}, cfg.session...)
	t.session = fiber.NewSession(h, sessionOpts...)
	return t
}

// NewSessionTesterWithT creates a tester that logs through t and fails the
// test on cleanup if a render error was left unchecked.
func NewSessionTesterWithT(t *testing.T, opts ...TesterOption) *SessionTester {
	t.Helper()
	logger := zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.WarnLevel)
	opts = append([]TesterOption{WithSessionOptions(fiber.WithLogger(logger))}, opts...)
	tester := NewSessionTester(opts...)
	t.Cleanup(func() {
		for _, err := range tester.errs {
			t.Errorf("unchecked render error: %v", err)
		}
	})
	return tester
}

type testerObserver struct {
	t *SessionTester
}

func (o testerObserver) UnitPerformed(string)              {}
func (o testerObserver) Yielded()                          {}
func (o testerObserver) Discarded(uint64)                  {}
func (o testerObserver) Committed(stats fiber.RenderStats) { o.t.stats = append(o.t.stats, stats) }
func (o testerObserver) Failed(err error)                  { o.t.errs = append(o.t.errs, err) }

// Render starts rendering element into the container and pumps until the
// session settles. It returns the first render error, if any.
func (t *SessionTester) Render(element *core.Element) error {
	t.session.Render(element, t.container)
	if err := t.PumpAndSettle(time.Second); err != nil {
		return err
	}
	return t.TakeError()
}

// Start begins rendering element without pumping.
func (t *SessionTester) Start(element *core.Element) {
	t.session.Render(element, t.container)
}

// Pump runs queued posts and one slice of the session's render task. It
// reports whether any work was done.
func (t *SessionTester) Pump() bool {
	return t.loop.Step()
}

// PumpAndSettle pumps until the loop is idle or timeout of fake time has
// elapsed. Returns ErrSettleTimeout if the session does not settle.
func (t *SessionTester) PumpAndSettle(timeout time.Duration) error {
	var elapsed time.Duration
	for elapsed < timeout {
		if !t.loop.Step() {
			return nil
		}
		elapsed += t.slice
	}
	return ErrSettleTimeout
}

// Settle runs the loop until it is idle, with no time limit.
func (t *SessionTester) Settle() error {
	return t.loop.RunUntilIdle(context.Background())
}

// Dispatch delivers an event of kind to the first node finder matches. The
// listeners run immediately; the renders they request wait for Pump.
func (t *SessionTester) Dispatch(finder Finder, kind string, detail map[string]any) error {
	n := t.Find(finder).FirstOrNil()
	if n == nil {
		return fmt.Errorf("dispatch %s: %s found nothing", kind, finder.Description())
	}
	if t.host.Dispatch(n, kind, detail) == 0 {
		return fmt.Errorf("dispatch %s on %s: %w", kind, finder.Description(), ErrNoListener)
	}
	return nil
}

// Tap dispatches a click to the first node finder matches.
func (t *SessionTester) Tap(finder Finder) error {
	return t.Dispatch(finder, "click", nil)
}

// Find evaluates finder against the container.
func (t *SessionTester) Find(finder Finder) FinderResult {
	return FinderResult{nodes: finder.Evaluate(t.container), finder: finder}
}

// Markup returns the container rendered as HTML-like text.
func (t *SessionTester) Markup() string {
	return t.host.Markup(t.container)
}

// TakeError returns the oldest unchecked render error and forgets it.
func (t *SessionTester) TakeError() error {
	if len(t.errs) == 0 {
		return nil
	}
	err := t.errs[0]
	t.errs = t.errs[1:]
	return err
}

// Stats returns the stats of every committed generation, oldest first.
func (t *SessionTester) Stats() []fiber.RenderStats {
	return t.stats
}

// Session returns the session under test.
func (t *SessionTester) Session() *fiber.Session { return t.session }

// Host returns the in-memory host.
func (t *SessionTester) Host() *memhost.Host { return t.host }

// Container returns the node renders go into.
func (t *SessionTester) Container() *memhost.Node { return t.container }

// Clock returns the fake clock driving the loop.
func (t *SessionTester) Clock() *FakeClock { return t.clock }

// Loop returns the scheduler loop the session runs on.
func (t *SessionTester) Loop() *scheduler.Loop { return t.loop }
