// Package host defines the boundary through which the engine mutates the
// rendered tree. The engine never creates or edits host nodes itself; it
// calls a Host.
package host

import "github.com/go-drift/fiber/pkg/core"

// Handle is an opaque host node. A nil Handle means no node.
type Handle any

// Host creates and mutates host nodes.
//
// All methods are called from the render thread. A returned error aborts the
// current render or commit pass; the previously committed tree stays current.
type Host interface {
	// CreateNode creates a detached node of the given kind.
	CreateNode(kind string) (Handle, error)
	// SetAttribute assigns a plain attribute.
	SetAttribute(node Handle, key string, value any) error
	// ClearAttribute resets a plain attribute to empty.
	ClearAttribute(node Handle, key string) error
	// AddListener attaches a listener for the given event kind.
	AddListener(node Handle, kind string, listener *core.Listener) error
	// RemoveListener detaches a listener previously attached with AddListener.
	RemoveListener(node Handle, kind string, listener *core.Listener) error
	// Append adds child as the last child of parent.
	Append(parent, child Handle) error
	// Remove detaches child from parent.
	Remove(parent, child Handle) error
}

// Inserter is implemented by hosts that can place a node before an existing
// child. When available the engine uses it to keep newly placed nodes in
// element order among siblings that were kept from the previous render.
type Inserter interface {
	InsertBefore(parent, child, before Handle) error
}
