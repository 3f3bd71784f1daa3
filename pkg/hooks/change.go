package hooks

// ChangeOp tags the variant held by a PendingChange.
type ChangeOp uint8

const (
	// OpReplace sets the state to Value.
	OpReplace ChangeOp = iota + 1
	// OpTransform sets the state to Transform(state).
	OpTransform
)

func (op ChangeOp) String() string {
	switch op {
	case OpReplace:
		return "replace"
	case OpTransform:
		return "transform"
	default:
		return "invalid"
	}
}

// PendingChange is one queued state update. Exactly one of Value or
// Transform is meaningful, selected by Op.
type PendingChange struct {
	Op        ChangeOp
	Value     any
	Transform func(any) any
}

// Apply returns the state that results from applying the change to state.
func (c PendingChange) Apply(state any) any {
	switch c.Op {
	case OpReplace:
		return c.Value
	case OpTransform:
		return c.Transform(state)
	default:
		return state
	}
}

// Change is the typed form of a PendingChange, built with Replace or Transform.
type Change[T any] struct {
	op        ChangeOp
	value     T
	transform func(T) T
}

// Replace returns a change that sets the state to value.
func Replace[T any](value T) Change[T] {
	return Change[T]{op: OpReplace, value: value}
}

// Transform returns a change that derives the next state from the current one.
func Transform[T any](fn func(T) T) Change[T] {
	return Change[T]{op: OpTransform, transform: fn}
}

// Op reports which variant the change holds.
func (c Change[T]) Op() ChangeOp {
	return c.op
}

func (c Change[T]) pending() PendingChange {
	switch c.op {
	case OpReplace:
		return PendingChange{Op: OpReplace, Value: c.value}
	case OpTransform:
		fn := c.transform
		return PendingChange{Op: OpTransform, Transform: func(state any) any {
			current, _ := state.(T)
			return fn(current)
		}}
	default:
		return PendingChange{}
	}
}
