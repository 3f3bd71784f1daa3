package core

import "github.com/go-drift/fiber/pkg/hooks"

// Kind identifies what an Element describes. It is either a HostKind or a
// *Component; two kinds match when they are == equal.
type Kind interface {
	String() string
	isKind()
}

// HostKind is the tag name of a node created by the host.
type HostKind string

func (HostKind) isKind() {}

func (k HostKind) String() string {
	return string(k)
}

// TextKind is the host kind used for text leaves. Its text lives in the
// NodeValue prop.
const TextKind HostKind = "TEXT_ELEMENT"

// NodeValue is the prop holding the content of a TextKind element.
const NodeValue = "nodeValue"

// RenderFunc is the body of a component. It must call hooks in the same
// number and order on every invocation. A nil result renders nothing.
type RenderFunc func(c *hooks.Cursor, props Props) *Element

// Component is a kind whose element expands into the element returned by its
// RenderFunc. Components are compared by identity, so create each one once.
type Component struct {
	name   string
	render RenderFunc
}

// NewComponent creates a component kind.
func NewComponent(name string, render RenderFunc) *Component {
	return &Component{name: name, render: render}
}

func (*Component) isKind() {}

// String returns the component name.
func (c *Component) String() string {
	return c.name
}

// Render invokes the component body.
func (c *Component) Render(cursor *hooks.Cursor, props Props) *Element {
	if c.render == nil {
		return nil
	}
	return c.render(cursor, props)
}

// Element is an immutable description of one tree node.
type Element struct {
	Kind     Kind
	Props    Props
	Children []*Element
}

// Host returns the host kind of the element, if it describes a host node.
func (e *Element) Host() (HostKind, bool) {
	k, ok := e.Kind.(HostKind)
	return k, ok
}

// Component returns the component of the element, if it describes one.
func (e *Element) Component() (*Component, bool) {
	c, ok := e.Kind.(*Component)
	return c, ok
}

// IsText reports whether the element is a text leaf.
func (e *Element) IsText() bool {
	return e.Kind == TextKind
}
