package hooks

import (
	"testing"

	"github.com/go-drift/fiber/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingScheduler struct {
	renders int
}

func (s *countingScheduler) ScheduleRender() {
	s.renders++
}

// generation runs body as one invocation and commits its slots.
func generation(t *testing.T, prev []*Slot, update bool, policy Policy, sched Scheduler, body func(*Cursor)) []*Slot {
	t.Helper()
	c := NewCursor("Counter", prev, update, policy, sched)
	body(c)
	slots, err := c.Finish()
	require.NoError(t, err)
	for _, s := range slots {
		s.Commit()
	}
	return slots
}

func TestUseStateMountUsesInitial(t *testing.T) {
	for _, policy := range policies {
		var got int
		slots := generation(t, nil, false, policy, nil, func(c *Cursor) {
			got, _ = UseState(c, 42)
		})
		assert.Equal(t, 42, got)
		require.Len(t, slots, 1)
		assert.Equal(t, 42, slots[0].Value())
	}
}

func TestUseStateTwoSlotsTransformOnFirst(t *testing.T) {
	for _, policy := range policies {
		t.Run(policy.String(), func(t *testing.T) {
			sched := &countingScheduler{}
			var a, b int
			var setA SetState[int]
			body := func(c *Cursor) {
				a, setA = UseState(c, 0)
				b, _ = UseState(c, 1)
			}

			slots := generation(t, nil, false, policy, sched, body)
			assert.Equal(t, []int{0, 1}, []int{a, b})

			setA(Transform(func(n int) int { return n + 1 }))
			assert.Equal(t, 1, sched.renders)

			generation(t, slots, true, policy, sched, body)
			assert.Equal(t, 1, a)
			assert.Equal(t, 1, b)
		})
	}
}

func TestUseStateFIFOAcrossPolicies(t *testing.T) {
	changes := []Change[int]{
		Transform(func(n int) int { return n + 3 }),
		Replace(10),
		Transform(func(n int) int { return n * 2 }),
		Transform(func(n int) int { return n - 1 }),
	}

	results := map[Policy]int{}
	for _, policy := range policies {
		var v int
		var set SetState[int]
		body := func(c *Cursor) { v, set = UseState(c, 5) }

		slots := generation(t, nil, false, policy, nil, body)
		for _, ch := range changes {
			set(ch)
		}
		generation(t, slots, true, policy, nil, body)
		results[policy] = v
	}

	assert.Equal(t, 19, results[PolicyCircular])
	assert.Equal(t, results[PolicyCircular], results[PolicyAppend])
}

func TestUseStateReplaceIsStableAcrossNoopRenders(t *testing.T) {
	for _, policy := range policies {
		var v string
		var set SetState[string]
		body := func(c *Cursor) { v, set = UseState(c, "a") }

		slots := generation(t, nil, false, policy, nil, body)
		set(Replace("x"))
		for range 4 {
			slots = generation(t, slots, true, policy, nil, body)
			assert.Equal(t, "x", v)
			assert.Equal(t, 0, slots[0].Pending())
		}
	}
}

func TestUseStateSetterIsStable(t *testing.T) {
	var v int
	var first SetState[int]
	slots := generation(t, nil, false, PolicyCircular, nil, func(c *Cursor) {
		v, first = UseState(c, 0)
	})

	body := func(c *Cursor) { v, _ = UseState(c, 0) }
	slots = generation(t, slots, true, PolicyCircular, nil, body)

	// A setter captured in an older generation still targets the slot.
	first(Replace(3))
	assert.Equal(t, 1, slots[0].Pending())
	generation(t, slots, true, PolicyCircular, nil, body)
	assert.Equal(t, 3, v)
}

func TestUncommittedRenderKeepsChanges(t *testing.T) {
	var v int
	var set SetState[int]
	body := func(c *Cursor) { v, set = UseState(c, 0) }

	committed := generation(t, nil, false, PolicyAppend, nil, body)
	set(Transform(func(n int) int { return n + 1 }))

	// A render that reads the slot but is discarded before commit.
	c := NewCursor("Counter", committed, true, PolicyAppend, nil)
	body(c)
	assert.Equal(t, 1, v)

	set(Transform(func(n int) int { return n + 1 }))
	generation(t, committed, true, PolicyAppend, nil, body)
	assert.Equal(t, 2, v)
}

func TestChangesDispatchedAfterReadSurviveCommit(t *testing.T) {
	var v int
	var set SetState[int]
	body := func(c *Cursor) { v, set = UseState(c, 0) }

	slots := generation(t, nil, false, PolicyCircular, nil, body)
	set(Replace(1))

	c := NewCursor("Counter", slots, true, PolicyCircular, nil)
	body(c)
	next, err := c.Finish()
	require.NoError(t, err)
	set(Replace(2))
	for _, s := range next {
		s.Commit()
	}
	assert.Equal(t, 1, next[0].Pending())

	generation(t, next, true, PolicyCircular, nil, body)
	assert.Equal(t, 2, v)
}

func TestUseStateExtraCallPanicsWithAlignmentError(t *testing.T) {
	slots := generation(t, nil, false, PolicyCircular, nil, func(c *Cursor) {
		UseState(c, 0)
	})

	c := NewCursor("Counter", slots, true, PolicyCircular, nil)
	UseState(c, 0)

	defer func() {
		r := recover()
		err, ok := r.(*errors.StateAlignmentError)
		require.True(t, ok, "expected StateAlignmentError, got %v", r)
		assert.Equal(t, 1, err.Index)
		assert.Equal(t, "Counter", err.Component)
	}()
	UseState(c, 0)
	t.Fatal("expected panic")
}

func TestUseStateMissingCallFailsFinish(t *testing.T) {
	slots := generation(t, nil, false, PolicyCircular, nil, func(c *Cursor) {
		UseState(c, 0)
		UseState(c, 1)
	})

	c := NewCursor("Counter", slots, true, PolicyCircular, nil)
	UseState(c, 0)
	_, err := c.Finish()

	var alignErr *errors.StateAlignmentError
	require.ErrorAs(t, err, &alignErr)
	assert.Equal(t, 2, alignErr.Previous)
	assert.Equal(t, 1, alignErr.Current)
}

func TestUseStateTypeChangePanics(t *testing.T) {
	slots := generation(t, nil, false, PolicyCircular, nil, func(c *Cursor) {
		UseState(c, 0)
	})

	c := NewCursor("Counter", slots, true, PolicyCircular, nil)
	assert.PanicsWithError(t,
		"state slots misaligned in Counter at slot 0: state type changed between renders (previous=1 current=-1)",
		func() { UseState(c, "zero") })
}

func TestUseStateNilInterfaceState(t *testing.T) {
	var v error
	var set SetState[error]
	body := func(c *Cursor) { v, set = UseState[error](c, nil) }

	slots := generation(t, nil, false, PolicyCircular, nil, body)
	assert.Nil(t, v)

	set(Transform(func(err error) error { return err }))
	generation(t, slots, true, PolicyCircular, nil, body)
	assert.Nil(t, v)
}

func TestCursorMounting(t *testing.T) {
	assert.True(t, NewCursor("Counter", nil, false, PolicyCircular, nil).Mounting())
	assert.False(t, NewCursor("Counter", nil, true, PolicyCircular, nil).Mounting())
}
