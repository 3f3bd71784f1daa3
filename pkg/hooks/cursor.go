package hooks

import "github.com/go-drift/fiber/pkg/errors"

// Cursor walks the state slots of one component invocation.
type Cursor struct {
	component string
	previous  []*Slot
	update    bool
	slots     []*Slot
	policy    Policy
	scheduler Scheduler
}

// NewCursor prepares a cursor for one invocation of component. When update
// is true the invocation must reproduce exactly the slots in previous;
// otherwise every UseState call creates a fresh slot.
func NewCursor(component string, previous []*Slot, update bool, policy Policy, scheduler Scheduler) *Cursor {
	return &Cursor{
		component: component,
		previous:  previous,
		update:    update,
		policy:    policy,
		scheduler: scheduler,
	}
}

// Component returns the name of the component being invoked.
func (c *Cursor) Component() string {
	return c.component
}

// Mounting reports whether this is the component's first invocation.
func (c *Cursor) Mounting() bool {
	return !c.update
}

// Finish returns the slots built by the invocation. It fails when an update
// invocation created fewer slots than the previous generation.
func (c *Cursor) Finish() ([]*Slot, error) {
	if c.update && len(c.slots) != len(c.previous) {
		return nil, &errors.StateAlignmentError{
			Component: c.component,
			Index:     len(c.slots),
			Previous:  len(c.previous),
			Current:   len(c.slots),
			Detail:    "fewer state calls than the previous render",
		}
	}
	return c.slots, nil
}

func (c *Cursor) misaligned(index int, detail string) *errors.StateAlignmentError {
	return &errors.StateAlignmentError{
		Component: c.component,
		Index:     index,
		Previous:  len(c.previous),
		Current:   index + 1,
		Detail:    detail,
	}
}
