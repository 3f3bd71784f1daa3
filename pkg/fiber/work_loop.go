package fiber

import (
	"fmt"
	"time"

	"github.com/go-drift/fiber/pkg/core"
	"github.com/go-drift/fiber/pkg/errors"
	"github.com/go-drift/fiber/pkg/hooks"
	"github.com/go-drift/fiber/pkg/scheduler"
)

// Resume performs units of the in-flight render until the deadline asks it
// to yield or the tree is complete, in which case it commits. It returns
// Done when there is nothing left to do, including after a failure; the
// returned error is a *errors.FiberError and the committed tree is intact.
func (s *Session) Resume(d scheduler.Deadline) (scheduler.Status, error) {
	if s.wip == nil {
		return scheduler.Done, nil
	}
	if d == nil {
		d = scheduler.Unlimited()
	}
	s.stats.Turns++

	for s.nextUnit != nil {
		if d.ShouldYield() {
			s.observer.Yielded()
			s.logger.Trace().Uint64("generation", s.wip.generation).Msg("render yielded")
			return scheduler.Yielded, nil
		}

		wip, unit := s.wip, s.nextUnit
		err := s.perform(unit)
		if err == nil {
			err = s.nestedErr
		}
		if err != nil {
			return scheduler.Done, s.fail("fiber.perform", err)
		}
		if s.wip != wip {
			// A dispatch from inside the unit restarted the render.
			continue
		}
		s.nextUnit = next(unit, nil)
	}

	if err := s.commit(); err != nil {
		return scheduler.Done, s.fail("fiber.commit", err)
	}
	if s.renderRequested {
		s.renderRequested = false
		s.begin()
		return scheduler.Yielded, nil
	}
	return scheduler.Done, nil
}

// perform runs one unit of work: it invokes a component body or creates a
// host node, then reconciles the unit's children.
func (s *Session) perform(u *WorkUnit) error {
	s.performing = true
	defer func() { s.performing = false }()

	var err error
	if comp, ok := u.kind.(*core.Component); ok {
		err = s.performComponent(u, comp)
	} else {
		err = s.performHost(u)
	}
	if err != nil {
		return err
	}
	s.stats.Units++
	s.observer.UnitPerformed(u.kind.String())
	return nil
}

func (s *Session) performComponent(u *WorkUnit, comp *core.Component) error {
	prev := s.Previous(u)
	var previous []*hooks.Slot
	if prev != nil {
		previous = prev.slots
	}
	cursor := hooks.NewCursor(comp.String(), previous, prev != nil, s.policy, s)

	props := (&core.Element{Kind: u.kind, Props: u.props, Children: u.elements}).ComponentProps()
	wip := s.wip
	child, err := s.invoke(comp, cursor, props)
	if err != nil {
		return err
	}
	if s.wip != wip {
		return nil
	}
	slots, err := cursor.Finish()
	if err != nil {
		return err
	}
	u.slots = slots

	var elements []*core.Element
	if child != nil {
		elements = []*core.Element{child}
	}
	s.reconcileChildren(u, elements)
	return nil
}

// invoke calls the component body, converting a panic into an error. State
// misuse keeps its own error type; any other panic becomes a BuildError.
func (s *Session) invoke(comp *core.Component, cursor *hooks.Cursor, props core.Props) (child *core.Element, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if alignment, ok := r.(*errors.StateAlignmentError); ok {
			err = alignment
			return
		}
		buildErr := &errors.BuildError{
			Component:  comp.String(),
			Recovered:  r,
			StackTrace: errors.CaptureStack(),
			Timestamp:  time.Now(),
		}
		if e, ok := r.(error); ok {
			buildErr.Err = e
		}
		err = buildErr
	}()
	return comp.Render(cursor, props), nil
}

func (s *Session) performHost(u *WorkUnit) error {
	if u.node == nil {
		kind := u.kind.String()
		node, err := s.host.CreateNode(kind)
		if err != nil {
			return &errors.HostOperationError{Op: "CreateNode", Kind: kind, Err: err}
		}
		if node == nil {
			return &errors.HostOperationError{Op: "CreateNode", Kind: kind, Err: fmt.Errorf("host returned no node")}
		}
		u.node = node
		u.mounted = &mounted{}
		if err := s.applyProps(u.node, kind, u.mounted, u.props); err != nil {
			return err
		}
	}
	s.reconcileChildren(u, u.elements)
	return nil
}

func (s *Session) reconcileChildren(u *WorkUnit, elements []*core.Element) {
	var oldFirst *WorkUnit
	if prev := s.Previous(u); prev != nil {
		oldFirst = prev.child
	}
	_, deletions := reconcile(s.wip, u, oldFirst, elements)
	s.deletions = append(s.deletions, deletions...)
}
