package fiber

import (
	"github.com/go-drift/fiber/pkg/core"
	"github.com/go-drift/fiber/pkg/hooks"
	"github.com/go-drift/fiber/pkg/host"
)

// RootKind is the kind of the unit that owns the external container node.
const RootKind core.HostKind = "#root"

// Effect is the host mutation a unit requires at commit.
type Effect uint8

const (
	// EffectNone requires nothing.
	EffectNone Effect = iota
	// EffectPlace attaches a newly created host node.
	EffectPlace
	// EffectUpdate diffs the attributes of a reused host node.
	EffectUpdate
	// EffectDelete removes the unit's host nodes.
	EffectDelete
)

func (e Effect) String() string {
	switch e {
	case EffectPlace:
		return "place"
	case EffectUpdate:
		return "update"
	case EffectDelete:
		return "delete"
	default:
		return "none"
	}
}

// UnitRef is a weak handle to a unit of one generation. The zero UnitRef
// refers to nothing.
type UnitRef struct {
	Generation uint64
	Index      int
}

// IsZero reports whether the ref refers to nothing.
func (r UnitRef) IsZero() bool {
	return r.Generation == 0
}

// mounted records the props a host node holds right now. Every unit that
// reuses the node points at the same record, so a commit that stops halfway
// leaves the record matching the host rather than either generation.
type mounted struct {
	props core.Props
}

// WorkUnit is one node of a generation's tree.
type WorkUnit struct {
	ref      UnitRef
	kind     core.Kind
	props    core.Props
	elements []*core.Element
	node     host.Handle
	mounted  *mounted

	parent  *WorkUnit
	child   *WorkUnit
	sibling *WorkUnit

	previous UnitRef
	effect   Effect
	slots    []*hooks.Slot
}

// Ref returns the unit's own handle.
func (u *WorkUnit) Ref() UnitRef { return u.ref }

// Kind returns the host tag or component of the unit.
func (u *WorkUnit) Kind() core.Kind { return u.kind }

// Props returns the unit's props for its generation.
func (u *WorkUnit) Props() core.Props { return u.props }

// Node returns the host node owned by the unit, or nil.
func (u *WorkUnit) Node() host.Handle { return u.node }

// Parent returns the unit's parent within its generation.
func (u *WorkUnit) Parent() *WorkUnit { return u.parent }

// Child returns the unit's first child.
func (u *WorkUnit) Child() *WorkUnit { return u.child }

// Sibling returns the unit's next sibling.
func (u *WorkUnit) Sibling() *WorkUnit { return u.sibling }

// Previous returns the handle of the matching unit of the previous generation.
func (u *WorkUnit) Previous() UnitRef { return u.previous }

// Effect returns the unit's effect tag.
func (u *WorkUnit) Effect() Effect { return u.effect }

// Slots returns the state slots of a component unit.
func (u *WorkUnit) Slots() []*hooks.Slot { return u.slots }

// IsComponent reports whether the unit is a component unit.
func (u *WorkUnit) IsComponent() bool {
	_, ok := u.kind.(*core.Component)
	return ok
}

// Children returns the unit's children in order.
func (u *WorkUnit) Children() []*WorkUnit {
	var out []*WorkUnit
	for c := u.child; c != nil; c = c.sibling {
		out = append(out, c)
	}
	return out
}

// next returns the depth-first successor of u: its child, else the first
// sibling found walking up through its ancestors. It returns nil once the
// walk climbs above stop.
func next(u, stop *WorkUnit) *WorkUnit {
	if u.child != nil {
		return u.child
	}
	for n := u; n != nil && n != stop; n = n.parent {
		if n.sibling != nil {
			return n.sibling
		}
	}
	return nil
}

// firstHost returns u, or the nearest descendant reached through single
// component children, that owns a host node.
func firstHost(u *WorkUnit) *WorkUnit {
	for n := u; n != nil; n = n.child {
		if n.node != nil {
			return n
		}
		if !n.IsComponent() {
			return nil
		}
	}
	return nil
}
