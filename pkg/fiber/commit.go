package fiber

import (
	"time"

	"github.com/go-drift/fiber/pkg/core"
	"github.com/go-drift/fiber/pkg/errors"
	"github.com/go-drift/fiber/pkg/host"
)

// commit applies the in-progress tree to the host and promotes it. Deletions
// run first, then placements and updates in depth-first order. Slots are
// committed only after every host operation succeeded.
func (s *Session) commit() error {
	s.committing = true
	defer func() { s.committing = false }()

	start := time.Now()
	root := s.wip.root

	for _, unit := range s.deletions {
		if err := s.commitDeletion(unit); err != nil {
			return err
		}
		s.stats.Deletions++
	}

	for u := root.child; u != nil; u = next(u, root) {
		if err := s.commitUnit(u); err != nil {
			return err
		}
	}

	for _, u := range s.wip.units {
		for _, slot := range u.slots {
			slot.Commit()
		}
	}

	s.committed = s.wip
	s.wip = nil
	s.nextUnit = nil
	s.deletions = nil
	s.nested = 0

	s.stats.Commit = time.Since(start)
	s.stats.Render = time.Since(s.stats.Started)
	s.observer.Committed(s.stats)
	s.logger.Debug().
		Uint64("generation", s.stats.Generation).
		Int("units", s.stats.Units).
		Int("turns", s.stats.Turns).
		Int("placements", s.stats.Placements).
		Int("updates", s.stats.Updates).
		Int("deletions", s.stats.Deletions).
		Dur("commit", s.stats.Commit).
		Msg("render committed")
	return nil
}

func (s *Session) commitUnit(u *WorkUnit) error {
	if u.node == nil {
		return nil
	}
	switch u.effect {
	case EffectPlace:
		parent, err := hostParent(u, "fiber.commit")
		if err != nil {
			return err
		}
		if err := s.place(parent.node, u); err != nil {
			return err
		}
		s.stats.Placements++
	case EffectUpdate:
		if s.Previous(u) == nil || u.mounted == nil {
			return &errors.InvariantViolation{
				Op:     "fiber.commit",
				Unit:   describe(u),
				Detail: "update unit without a previous generation",
			}
		}
		if err := s.applyProps(u.node, u.kind.String(), u.mounted, u.props); err != nil {
			return err
		}
		s.stats.Updates++
	}
	return nil
}

// place attaches u's node under parent. Hosts that implement host.Inserter
// get the node inserted before the next sibling that is already mounted, so
// it lands at its element position; other hosts append.
func (s *Session) place(parent host.Handle, u *WorkUnit) error {
	if inserter, ok := s.host.(host.Inserter); ok {
		if before := mountedAfter(u); before != nil {
			if err := inserter.InsertBefore(parent, u.node, before.node); err != nil {
				return &errors.HostOperationError{Op: "InsertBefore", Kind: u.kind.String(), Err: err}
			}
			return nil
		}
	}
	if err := s.host.Append(parent, u.node); err != nil {
		return &errors.HostOperationError{Op: "Append", Kind: u.kind.String(), Err: err}
	}
	return nil
}

// commitDeletion removes the host node of a unit from the previous
// generation. A component unit owns no node, so the node removed is the one
// of its nearest host descendant; a component that rendered nothing removes
// nothing.
func (s *Session) commitDeletion(u *WorkUnit) error {
	target := firstHost(u)
	if target == nil {
		return nil
	}
	parent, err := hostParent(u, "fiber.delete")
	if err != nil {
		return err
	}
	if err := s.host.Remove(parent.node, target.node); err != nil {
		return &errors.HostOperationError{Op: "Remove", Kind: target.kind.String(), Err: err}
	}
	return nil
}

// hostParent returns the nearest ancestor of u that owns a host node.
func hostParent(u *WorkUnit, op string) (*WorkUnit, error) {
	for p := u.parent; p != nil; p = p.parent {
		if p.node != nil {
			return p, nil
		}
	}
	return nil, &errors.InvariantViolation{
		Op:     op,
		Unit:   describe(u),
		Detail: "no ancestor owns a host node",
	}
}

// mountedAfter finds the first host unit after u, in host sibling order,
// whose node is already attached. Siblings hidden behind component units
// count; the search stops at u's host parent.
func mountedAfter(u *WorkUnit) *WorkUnit {
	for n := u; n != nil; n = n.parent {
		for sib := n.sibling; sib != nil; sib = sib.sibling {
			h := firstHost(sib)
			if h != nil && h.effect != EffectPlace {
				return h
			}
		}
		if n.parent == nil || !n.parent.IsComponent() {
			return nil
		}
	}
	return nil
}

func describe(u *WorkUnit) string {
	if u == nil {
		return "<nil>"
	}
	if _, ok := u.kind.(*core.Component); ok {
		return "<" + u.kind.String() + "/>"
	}
	return "<" + u.kind.String() + ">"
}
