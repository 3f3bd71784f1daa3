package fiber

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-drift/fiber/pkg/core"
	"github.com/go-drift/fiber/pkg/hooks"
	"github.com/go-drift/fiber/pkg/host"
	"github.com/go-drift/fiber/pkg/host/memhost"
	"github.com/go-drift/fiber/pkg/scheduler"
)

var policies = []hooks.Policy{hooks.PolicyCircular, hooks.PolicyAppend}

// manualScheduler keeps scheduled tasks so a test can drive Resume itself.
type manualScheduler struct {
	tasks []scheduler.Task
}

func (m *manualScheduler) Schedule(task scheduler.Task) {
	m.tasks = append(m.tasks, task)
}

// recorder is an Observer that keeps every notification.
type recorder struct {
	units     []string
	yields    int
	discarded []uint64
	commits   []RenderStats
	failures  []error
}

func (r *recorder) UnitPerformed(kind string)   { r.units = append(r.units, kind) }
func (r *recorder) Yielded()                    { r.yields++ }
func (r *recorder) Discarded(generation uint64) { r.discarded = append(r.discarded, generation) }
func (r *recorder) Committed(stats RenderStats) { r.commits = append(r.commits, stats) }
func (r *recorder) Failed(err error)            { r.failures = append(r.failures, err) }

// appendOnly hides the Inserter capability of a host.
type appendOnly struct {
	host.Host
}

// panicOnCreate panics from the next CreateNode while armed.
type panicOnCreate struct {
	*memhost.Host
	armed bool
}

func (p *panicOnCreate) CreateNode(kind string) (host.Handle, error) {
	if p.armed {
		p.armed = false
		panic("host exploded creating " + kind)
	}
	return p.Host.CreateNode(kind)
}

type fixture struct {
	session   *Session
	host      *memhost.Host
	container *memhost.Node
	events    *recorder
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	h := memhost.New()
	events := &recorder{}
	opts = append([]Option{WithObserver(events)}, opts...)
	return &fixture{
		session:   NewSession(h, opts...),
		host:      h,
		container: h.NewContainer("root"),
		events:    events,
	}
}

func (f *fixture) render(t *testing.T, el *core.Element) {
	t.Helper()
	failures := len(f.events.failures)
	f.session.Render(el, f.container)
	require.Len(t, f.events.failures, failures, "render failed: %v", f.events.failures)
}

func (f *fixture) markup() string {
	return f.host.Markup(f.container)
}

func (f *fixture) click(t *testing.T, match func(*memhost.Node) bool) {
	t.Helper()
	n := f.host.Find(f.container, match)
	require.NotNil(t, n)
	require.Positive(t, f.host.Dispatch(n, "click", nil))
}

func increment(n int) int { return n + 1 }

// twoSlots renders "a/b" from two state slots; clicking the button adds one
// to the first slot.
var twoSlots = core.NewComponent("TwoSlots", func(c *hooks.Cursor, props core.Props) *core.Element {
	a, setA := hooks.UseState(c, 0)
	b, _ := hooks.UseState(c, 1)
	return core.E("button", core.Props{
		"onClick": core.On(func(core.Event) { setA(hooks.Transform(increment)) }),
	}, fmt.Sprintf("%d/%d", a, b))
})

func list(items ...string) *core.Element {
	children := make([]any, len(items))
	for i, item := range items {
		children[i] = core.E("li", nil, item)
	}
	return core.E("ul", nil, children...)
}
