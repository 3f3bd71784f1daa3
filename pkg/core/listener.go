package core

// Event is delivered by the host to a listener.
type Event struct {
	// Type is the listener kind, e.g. "click".
	Type string
	// Target is the host node the event was dispatched on.
	Target any
	// Detail carries host specific payload.
	Detail map[string]any
}

// Listener is an event callback stored under an "on" prop. Listeners are
// compared by pointer, so a listener created during render is a new
// listener for every generation.
type Listener struct {
	handle func(Event)
}

// On wraps handle as a listener prop value.
func On(handle func(Event)) *Listener {
	return &Listener{handle: handle}
}

// Handle invokes the callback. It is safe on a nil listener.
func (l *Listener) Handle(ev Event) {
	if l == nil || l.handle == nil {
		return
	}
	l.handle(ev)
}
