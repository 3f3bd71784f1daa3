package fiber

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/fiber/pkg/core"
	fibererrors "github.com/go-drift/fiber/pkg/errors"
	"github.com/go-drift/fiber/pkg/hooks"
	"github.com/go-drift/fiber/pkg/host/memhost"
	"github.com/go-drift/fiber/pkg/scheduler"
)

func TestInitialRender(t *testing.T) {
	f := newFixture(t)
	f.render(t, core.E("div", core.Props{"id": "container"}, "Hello, World", "This is my first render"))

	assert.Equal(t, `<root><div id="container">Hello, WorldThis is my first render</div></root>`, f.markup())

	var names, placements []string
	for _, op := range f.host.Ops() {
		names = append(names, op.Name)
		if op.Name == memhost.OpAppend {
			placements = append(placements, op.String())
		}
	}
	assert.Equal(t, []string{
		memhost.OpCreate, memhost.OpSetAttribute,
		memhost.OpCreate, memhost.OpSetAttribute,
		memhost.OpCreate, memhost.OpSetAttribute,
		memhost.OpAppend, memhost.OpAppend, memhost.OpAppend,
	}, names)
	// The container is node 1, the div 2 and the two texts 3 and 4.
	assert.Equal(t, []string{"append 1 -> 2", "append 2 -> 3", "append 2 -> 4"}, placements)
	div := f.container.Children[0]
	require.Len(t, div.Children, 2)
	assert.Equal(t, "Hello, World", div.Children[0].Text())
	assert.Equal(t, "This is my first render", div.Children[1].Text())

	require.Len(t, f.events.commits, 1)
	stats := f.events.commits[0]
	assert.Equal(t, 4, stats.Units)
	assert.Equal(t, 3, stats.Placements)
	assert.Zero(t, stats.Updates)
	assert.Zero(t, stats.Deletions)
	assert.False(t, f.session.Pending())
}

func TestRerenderWithEqualPropsIsSilent(t *testing.T) {
	f := newFixture(t)
	onClick := core.On(func(core.Event) {})
	build := func() *core.Element {
		return core.E("div", core.Props{"id": "x", "onClick": onClick}, "text", core.E("span", core.Props{"n": []int{1, 2}}))
	}
	f.render(t, build())
	f.host.ResetOps()

	f.render(t, build())
	assert.Empty(t, f.host.Ops())
	assert.Equal(t, 3, f.events.commits[1].Updates)
}

func TestPositionalDeletion(t *testing.T) {
	f := newFixture(t)
	f.render(t, list("A", "B", "C"))
	third := f.container.Children[0].Children[2]
	f.host.ResetOps()

	f.render(t, list("A", "C"))
	assert.Equal(t, `<root><ul><li>A</li><li>C</li></ul></root>`, f.markup())

	ops := f.host.Ops()
	require.Len(t, ops, 2)
	assert.Equal(t, memhost.OpRemove, ops[0].Name)
	assert.Equal(t, third.ID, ops[0].Node)
	assert.Equal(t, memhost.OpSetAttribute, ops[1].Name)
	assert.Equal(t, "C", ops[1].Value)
}

func TestKindChangeReplacesNode(t *testing.T) {
	f := newFixture(t)
	f.render(t, core.E("div", nil, core.E("p", nil), core.E("span", nil)))
	f.host.ResetOps()

	f.render(t, core.E("div", nil, core.E("span", nil)))
	assert.Equal(t, `<root><div><span></span></div></root>`, f.markup())
	assert.Equal(t, 2, f.host.CountOps(memhost.OpRemove))
	assert.Equal(t, 1, f.host.CountOps(memhost.OpCreate))
}

func TestPlacementKeepsElementOrder(t *testing.T) {
	f := newFixture(t)
	f.render(t, core.E("div", nil, core.E("li", nil), core.E("li", core.Props{"id": "kept"})))

	f.render(t, core.E("div", nil, core.E("p", nil), core.E("li", core.Props{"id": "kept"})))
	assert.Equal(t, `<root><div><p></p><li id="kept"></li></div></root>`, f.markup())
	assert.Equal(t, 1, f.host.CountOps(memhost.OpInsert))
}

func TestPlacementAppendsWithoutInserter(t *testing.T) {
	h := memhost.New()
	container := h.NewContainer("root")
	s := NewSession(appendOnly{h})
	s.Render(core.E("div", nil, core.E("li", nil), core.E("li", nil)), container)

	s.Render(core.E("div", nil, core.E("p", nil), core.E("li", nil)), container)
	assert.Equal(t, `<root><div><li></li><p></p></div></root>`, h.Markup(container))
	assert.Zero(t, h.CountOps(memhost.OpInsert))
}

func TestPlacementSeesThroughComponents(t *testing.T) {
	wrap := core.NewComponent("Wrap", func(_ *hooks.Cursor, props core.Props) *core.Element {
		return core.E("section", nil, props.Children())
	})
	f := newFixture(t)
	f.render(t, core.E("div", nil, core.E("li", nil), core.C(wrap, nil)))

	f.render(t, core.E("div", nil, core.E("p", nil), core.C(wrap, nil)))
	assert.Equal(t, `<root><div><p></p><section></section></div></root>`, f.markup())
}

func TestDeletingComponentRemovesItsHostNode(t *testing.T) {
	panel := core.NewComponent("Panel", func(_ *hooks.Cursor, props core.Props) *core.Element {
		return core.E("aside", nil, core.E("h1", nil, "title"), props.Children())
	})
	f := newFixture(t)
	f.render(t, core.E("main", nil, core.C(panel, nil, "body")))
	assert.Equal(t, `<root><main><aside><h1>title</h1>body</aside></main></root>`, f.markup())
	f.host.ResetOps()

	f.render(t, core.E("main", nil))
	assert.Equal(t, `<root><main></main></root>`, f.markup())
	assert.Equal(t, 1, f.host.CountOps(memhost.OpRemove))
	assert.Equal(t, 1, f.events.commits[1].Deletions)
}

func TestComponentRenderingNothing(t *testing.T) {
	empty := core.NewComponent("Empty", func(*hooks.Cursor, core.Props) *core.Element { return nil })
	f := newFixture(t)
	f.render(t, core.E("main", nil, core.C(empty, nil)))
	assert.Equal(t, `<root><main></main></root>`, f.markup())

	f.render(t, core.E("main", nil))
	assert.Zero(t, f.host.CountOps(memhost.OpRemove))
	assert.Equal(t, 1, f.events.commits[1].Deletions)
}

func TestStateUpdateFromListener(t *testing.T) {
	for _, policy := range policies {
		t.Run(policy.String(), func(t *testing.T) {
			f := newFixture(t, WithQueuePolicy(policy))
			f.render(t, core.C(twoSlots, nil))
			assert.Equal(t, `<root><button>0/1</button></root>`, f.markup())

			f.click(t, memhost.ByKind("button"))
			assert.Equal(t, `<root><button>1/1</button></root>`, f.markup())

			f.click(t, memhost.ByKind("button"))
			f.click(t, memhost.ByKind("button"))
			assert.Equal(t, `<root><button>3/1</button></root>`, f.markup())

			slots := f.session.Committed().Child().Slots()
			require.Len(t, slots, 2)
			assert.Equal(t, 3, slots[0].Value())
			assert.Zero(t, slots[0].Pending())
		})
	}
}

func TestListenerReplacedEveryRender(t *testing.T) {
	f := newFixture(t)
	f.render(t, core.C(twoSlots, nil))
	f.host.ResetOps()

	f.click(t, memhost.ByKind("button"))
	assert.Equal(t, 1, f.host.CountOps(memhost.OpRemoveListener))
	assert.Equal(t, 1, f.host.CountOps(memhost.OpAddListener))

	button := f.host.Find(f.container, memhost.ByKind("button"))
	assert.Len(t, button.Listeners["click"], 1)
}

func TestRenderYieldsAndResumes(t *testing.T) {
	sched := &manualScheduler{}
	f := newFixture(t, WithScheduler(sched))
	f.session.Render(core.E("div", nil, "a", "b"), f.container)
	require.Len(t, sched.tasks, 1)
	assert.True(t, f.session.Pending())

	status, err := f.session.Resume(scheduler.NewStepBudget(2))
	require.NoError(t, err)
	assert.Equal(t, scheduler.Yielded, status)
	assert.Zero(t, f.host.CountOps(memhost.OpAppend))
	assert.Nil(t, f.session.Committed())

	status, err = f.session.Resume(scheduler.NewStepBudget(1))
	require.NoError(t, err)
	assert.Equal(t, scheduler.Yielded, status)
	assert.Nil(t, f.session.Committed())

	status, err = f.session.Resume(scheduler.Unlimited())
	require.NoError(t, err)
	assert.Equal(t, scheduler.Done, status)
	assert.Equal(t, `<root><div>ab</div></root>`, f.markup())
	assert.Equal(t, 2, f.events.yields)
	assert.Equal(t, 3, f.events.commits[0].Turns)

	status, err = f.session.Resume(scheduler.Unlimited())
	require.NoError(t, err)
	assert.Equal(t, scheduler.Done, status)
}

func TestTaskReportsYieldUntilCommitted(t *testing.T) {
	sched := &manualScheduler{}
	f := newFixture(t, WithScheduler(sched))
	f.session.Render(core.E("div", nil, "a"), f.container)
	require.Len(t, sched.tasks, 1)
	task := sched.tasks[0]

	assert.Equal(t, scheduler.Yielded, task(scheduler.NewStepBudget(1)))
	assert.Equal(t, scheduler.Done, task(scheduler.Unlimited()))

	f.session.Render(core.E("div", nil, "b"), f.container)
	assert.Len(t, sched.tasks, 2)
}

func TestDispatchDuringRenderRestartsFromRoot(t *testing.T) {
	sched := &manualScheduler{}
	f := newFixture(t, WithScheduler(sched))
	f.session.Render(core.E("main", nil, core.C(twoSlots, nil), "tail"), f.container)
	_, err := f.session.Resume(scheduler.Unlimited())
	require.NoError(t, err)

	f.session.Render(core.E("main", nil, core.C(twoSlots, nil), "new tail"), f.container)
	_, err = f.session.Resume(scheduler.NewStepBudget(3))
	require.NoError(t, err)
	interrupted := f.session.Generation()

	f.click(t, memhost.ByKind("button"))
	assert.Equal(t, []uint64{interrupted}, f.events.discarded)
	assert.Equal(t, interrupted+1, f.session.Generation())
	assert.Same(t, f.session.InProgress(), f.session.nextUnit)

	status, err := f.session.Resume(scheduler.Unlimited())
	require.NoError(t, err)
	assert.Equal(t, scheduler.Done, status)
	assert.Equal(t, `<root><main><button>1/1</button>new tail</main></root>`, f.markup())
}

func TestHostFailureLeavesCommittedTree(t *testing.T) {
	boom := errors.New("boom")
	sched := &manualScheduler{}
	f := newFixture(t, WithScheduler(sched))
	f.session.Render(core.C(twoSlots, nil), f.container)
	_, err := f.session.Resume(nil)
	require.NoError(t, err)
	committed := f.session.Committed()

	f.host.FailOn(memhost.OpSetAttribute, boom)
	f.click(t, memhost.ByKind("button"))
	status, err := f.session.Resume(nil)
	assert.Equal(t, scheduler.Done, status)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var fe *fibererrors.FiberError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fibererrors.KindHost, fe.Kind)
	assert.Equal(t, "fiber.commit", fe.Op)
	assert.Equal(t, f.session.ID(), fe.Session)

	assert.Same(t, committed, f.session.Committed())
	assert.False(t, f.session.Pending())
	assert.Len(t, f.events.failures, 1)

	f.host.FailOn(memhost.OpSetAttribute, nil)
	f.session.ScheduleRender()
	_, err = f.session.Resume(nil)
	require.NoError(t, err)
	assert.Equal(t, `<root><button>1/1</button></root>`, f.markup())
}

func TestFailedCommitDoesNotLeakListeners(t *testing.T) {
	sched := &manualScheduler{}
	f := newFixture(t, WithScheduler(sched))
	f.session.Render(core.C(twoSlots, nil), f.container)
	_, err := f.session.Resume(nil)
	require.NoError(t, err)

	// The button swaps its listener before the text update fails.
	f.host.FailOn(memhost.OpSetAttribute, errors.New("boom"))
	f.click(t, memhost.ByKind("button"))
	_, err = f.session.Resume(nil)
	require.Error(t, err)

	f.host.FailOn(memhost.OpSetAttribute, nil)
	f.session.ScheduleRender()
	_, err = f.session.Resume(nil)
	require.NoError(t, err)

	button := f.host.Find(f.container, memhost.ByKind("button"))
	require.NotNil(t, button)
	assert.Len(t, button.Listeners["click"], 1)

	f.click(t, memhost.ByKind("button"))
	_, err = f.session.Resume(nil)
	require.NoError(t, err)
	assert.Equal(t, `<root><button>2/1</button></root>`, f.markup())
}

func TestHostPanicResetsSession(t *testing.T) {
	cases := []struct {
		name  string
		sched func() (scheduler.Scheduler, func() error)
	}{
		{"loop", func() (scheduler.Scheduler, func() error) {
			loop := scheduler.NewLoop()
			return loop, func() error { return loop.RunUntilIdle(context.Background()) }
		}},
		{"immediate", func() (scheduler.Scheduler, func() error) {
			return &scheduler.Immediate{}, func() error { return nil }
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := memhost.New()
			ph := &panicOnCreate{Host: h, armed: true}
			sched, drain := tc.sched()
			events := &recorder{}
			s := NewSession(ph, WithScheduler(sched), WithObserver(events))
			container := h.NewContainer("root")

			s.Render(core.E("div", nil, "x"), container)
			require.NoError(t, drain())

			assert.False(t, s.Pending())
			assert.Nil(t, s.Committed())
			require.Len(t, events.failures, 1)
			var fe *fibererrors.FiberError
			require.ErrorAs(t, events.failures[0], &fe)
			assert.Equal(t, fibererrors.KindPanic, fe.Kind)
			assert.Equal(t, "fiber.task", fe.Op)
			assert.Equal(t, s.ID(), fe.Session)

			s.Render(core.E("div", nil, "y"), container)
			require.NoError(t, drain())

			assert.False(t, s.Pending())
			assert.Len(t, events.failures, 1)
			require.Len(t, events.commits, 1)
			assert.Equal(t, `<root><div>y</div></root>`, h.Markup(container))
		})
	}
}

func TestCreateFailureAbortsBeforeCommit(t *testing.T) {
	f := newFixture(t)
	f.host.FailOn(memhost.OpCreate, errors.New("no nodes"))
	f.session.Render(core.E("div", nil), f.container)

	require.Len(t, f.events.failures, 1)
	var hostErr *fibererrors.HostOperationError
	require.ErrorAs(t, f.events.failures[0], &hostErr)
	assert.Equal(t, "CreateNode", hostErr.Op)
	assert.Equal(t, "div", hostErr.Kind)
	assert.Nil(t, f.session.Committed())
	assert.Equal(t, `<root></root>`, f.markup())
}

func TestStateAlignmentErrors(t *testing.T) {
	shaky := core.NewComponent("Shaky", func(c *hooks.Cursor, props core.Props) *core.Element {
		hooks.UseState(c, 0)
		for range props["extra"].(int) {
			hooks.UseState(c, "")
		}
		return nil
	})

	for name, extra := range map[string]int{"more": 2, "fewer": 0} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			f.render(t, core.C(shaky, core.Props{"extra": 1}))
			committed := f.session.Committed()

			f.session.Render(core.C(shaky, core.Props{"extra": extra}), f.container)
			require.Len(t, f.events.failures, 1)
			var alignment *fibererrors.StateAlignmentError
			require.ErrorAs(t, f.events.failures[0], &alignment)
			assert.Equal(t, "Shaky", alignment.Component)

			var fe *fibererrors.FiberError
			require.ErrorAs(t, f.events.failures[0], &fe)
			assert.Equal(t, fibererrors.KindState, fe.Kind)
			assert.Same(t, committed, f.session.Committed())
		})
	}
}

func TestComponentPanicBecomesBuildError(t *testing.T) {
	broken := core.NewComponent("Broken", func(*hooks.Cursor, core.Props) *core.Element {
		panic("boom")
	})
	h := memhost.New()
	s, err := RenderSync(h, core.E("div", nil, core.C(broken, nil)), h.NewContainer("root"))
	require.Error(t, err)

	var build *fibererrors.BuildError
	require.ErrorAs(t, err, &build)
	assert.Equal(t, "Broken", build.Component)
	assert.Equal(t, "boom", build.Recovered)
	assert.NotEmpty(t, build.StackTrace)
	assert.Nil(t, s.Committed())
	assert.Zero(t, h.CountOps(memhost.OpAppend))
}

func TestDispatchFromBodyIsBounded(t *testing.T) {
	loop := core.NewComponent("Loop", func(c *hooks.Cursor, _ core.Props) *core.Element {
		n, set := hooks.UseState(c, 0)
		set(hooks.Replace(n + 1))
		return nil
	})
	h := memhost.New()
	_, err := RenderSync(h, core.C(loop, nil), h.NewContainer("root"), WithMaxNestedRenders(5))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooManyRenders)
}

func TestComponentReceivesChildrenAndProps(t *testing.T) {
	type labelProps struct {
		Text string `prop:"text"`
	}
	label := core.NewComponent("Label", func(_ *hooks.Cursor, props core.Props) *core.Element {
		var p labelProps
		if err := props.Decode(&p); err != nil {
			panic(err)
		}
		return core.E("label", core.Props{"for": p.Text}, props.Children())
	})
	f := newFixture(t)
	f.render(t, core.C(label, core.Props{"text": "name"}, "Name", core.E("em", nil, "*")))
	assert.Equal(t, `<root><label for="name">Name<em>*</em></label></root>`, f.markup())
}

func TestRenderIntoNewContainerStartsFresh(t *testing.T) {
	f := newFixture(t)
	f.render(t, core.E("p", nil))
	other := f.host.NewContainer("other")

	f.session.Render(core.E("p", nil), other)
	assert.Equal(t, `<other><p></p></other>`, f.host.Markup(other))
	assert.Equal(t, `<root><p></p></root>`, f.markup())
}

func TestSnapshot(t *testing.T) {
	f := newFixture(t)
	assert.Nil(t, f.session.Snapshot())

	f.render(t, core.E("main", core.Props{"id": "m"}, core.C(twoSlots, nil)))
	snap := f.session.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, string(RootKind), snap.Kind)
	require.Len(t, snap.Children, 1)

	main := snap.Children[0]
	assert.Equal(t, "main", main.Kind)
	assert.Equal(t, map[string]string{"id": "m"}, main.Props)
	assert.Equal(t, "place", main.Effect)

	counter := main.Children[0]
	assert.True(t, counter.Component)
	assert.False(t, counter.HasNode)
	assert.Equal(t, []string{"0", "1"}, counter.State)
	assert.Equal(t, "<listener>", counter.Children[0].Props["onClick"])
}

func TestRenderSyncRendersImmediately(t *testing.T) {
	h := memhost.New()
	container := h.NewContainer("root")
	s, err := RenderSync(h, core.E("p", nil, "hi"), container, WithID("fixed"))
	require.NoError(t, err)
	assert.Equal(t, "fixed", s.ID())
	assert.Equal(t, `<root><p>hi</p></root>`, h.Markup(container))
}
