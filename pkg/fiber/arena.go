package fiber

// tree is the arena of one generation. Units are registered in creation
// order and addressed by UnitRef.
type tree struct {
	generation uint64
	units      []*WorkUnit
	root       *WorkUnit
}

func newTree(generation uint64) *tree {
	return &tree{generation: generation}
}

func (t *tree) add(u *WorkUnit) {
	u.ref = UnitRef{Generation: t.generation, Index: len(t.units)}
	t.units = append(t.units, u)
}

// resolve returns the unit ref points at, or nil when ref belongs to
// another generation.
func (t *tree) resolve(ref UnitRef) *WorkUnit {
	if t == nil || ref.IsZero() || ref.Generation != t.generation {
		return nil
	}
	if ref.Index < 0 || ref.Index >= len(t.units) {
		return nil
	}
	return t.units[ref.Index]
}
