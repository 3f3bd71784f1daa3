package fiber

import "github.com/go-drift/fiber/pkg/core"

// reconcile builds the children of parent for the new generation from
// elements, walking them in lockstep with the previous generation's children
// starting at oldFirst. Matching is positional: the unit at index i is kept
// (UPDATE) when its kind equals element i's kind, otherwise element i gets a
// new unit (PLACE) and the old unit is tagged DELETE and returned in
// deletions. The new sibling chain follows the order of elements.
func reconcile(wip *tree, parent, oldFirst *WorkUnit, elements []*core.Element) (first *WorkUnit, deletions []*WorkUnit) {
	var prev *WorkUnit
	old := oldFirst
	for index := 0; index < len(elements) || old != nil; index++ {
		var el *core.Element
		if index < len(elements) {
			el = elements[index]
		}

		same := old != nil && el != nil && old.kind == el.Kind

		var unit *WorkUnit
		switch {
		case same:
			unit = &WorkUnit{
				kind:     el.Kind,
				props:    el.Props,
				elements: el.Children,
				node:     old.node,
				mounted:  old.mounted,
				parent:   parent,
				previous: old.ref,
				effect:   EffectUpdate,
			}
		case el != nil:
			unit = &WorkUnit{
				kind:     el.Kind,
				props:    el.Props,
				elements: el.Children,
				parent:   parent,
				effect:   EffectPlace,
			}
		}
		if old != nil && !same {
			old.effect = EffectDelete
			deletions = append(deletions, old)
		}

		if old != nil {
			old = old.sibling
		}
		if unit == nil {
			continue
		}
		wip.add(unit)
		if prev == nil {
			first = unit
		} else {
			prev.sibling = unit
		}
		prev = unit
	}
	parent.child = first
	return first, deletions
}
