package fiber

import (
	"fmt"

	"github.com/go-drift/fiber/pkg/core"
)

// UnitSnapshot is a serializable view of one work unit.
type UnitSnapshot struct {
	Kind      string            `json:"kind"`
	Component bool              `json:"component,omitempty"`
	Effect    string            `json:"effect"`
	Props     map[string]string `json:"props,omitempty"`
	State     []string          `json:"state,omitempty"`
	Pending   int               `json:"pending,omitempty"`
	HasNode   bool              `json:"hasNode"`
	Children  []*UnitSnapshot   `json:"children,omitempty"`
}

// Snapshot describes the committed tree, or returns nil before the first
// commit. It must be called on the render thread.
func (s *Session) Snapshot() *UnitSnapshot {
	return SnapshotUnit(s.Committed())
}

// SnapshotUnit describes u and its descendants.
func SnapshotUnit(u *WorkUnit) *UnitSnapshot {
	if u == nil {
		return nil
	}
	snap := &UnitSnapshot{
		Kind:      u.kind.String(),
		Component: u.IsComponent(),
		Effect:    u.effect.String(),
		HasNode:   u.node != nil,
	}
	for key, value := range u.props {
		if key == core.ChildrenKey {
			continue
		}
		if snap.Props == nil {
			snap.Props = make(map[string]string)
		}
		snap.Props[key] = describeValue(value)
	}
	for _, slot := range u.slots {
		snap.State = append(snap.State, fmt.Sprintf("%v", slot.Value()))
		snap.Pending += slot.Pending()
	}
	for c := u.child; c != nil; c = c.sibling {
		snap.Children = append(snap.Children, SnapshotUnit(c))
	}
	return snap
}

func describeValue(v any) string {
	if _, ok := v.(*core.Listener); ok {
		return "<listener>"
	}
	return fmt.Sprintf("%v", v)
}
