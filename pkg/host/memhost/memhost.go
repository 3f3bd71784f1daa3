// Package memhost is an in-memory Host. It keeps a plain node tree, records
// every mutation, and can inject failures, which makes it the host used by
// tests, the debug server and the demo CLI.
package memhost

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-drift/fiber/pkg/core"
	"github.com/go-drift/fiber/pkg/host"
)

// ErrForeignHandle is returned when a handle was not created by this host.
var ErrForeignHandle = errors.New("memhost: handle not created by this host")

// ErrNotChild is returned when removing a node from a parent it is not attached to.
var ErrNotChild = errors.New("memhost: node is not a child of parent")

// Op names recorded in the operation log.
const (
	OpCreate         = "create"
	OpSetAttribute   = "set"
	OpClearAttribute = "clear"
	OpAddListener    = "listen"
	OpRemoveListener = "unlisten"
	OpAppend         = "append"
	OpInsert         = "insert"
	OpRemove         = "remove"
)

// Op is one recorded host mutation.
type Op struct {
	Name   string
	Node   int
	Target int
	Key    string
	Value  any
}

func (o Op) String() string {
	switch o.Name {
	case OpAppend, OpInsert, OpRemove:
		return fmt.Sprintf("%s %d -> %d", o.Name, o.Target, o.Node)
	default:
		return fmt.Sprintf("%s %d %s", o.Name, o.Node, o.Key)
	}
}

// Node is a host node kept in memory.
type Node struct {
	ID        int
	Kind      string
	Attrs     map[string]any
	Listeners map[string][]*core.Listener
	Children  []*Node
	Parent    *Node
}

// Text returns the node's text content: its own nodeValue for text nodes,
// the concatenated text of its descendants otherwise.
func (n *Node) Text() string {
	if n.Kind == string(core.TextKind) {
		return fmt.Sprint(n.Attrs[core.NodeValue])
	}
	var out string
	for _, c := range n.Children {
		out += c.Text()
	}
	return out
}

// Host is an in-memory host.Host and host.Inserter.
type Host struct {
	mu     sync.Mutex
	nextID int
	ops    []Op
	fail   map[string]error
}

var (
	_ host.Host     = (*Host)(nil)
	_ host.Inserter = (*Host)(nil)
)

// New creates an empty host.
func New() *Host {
	return &Host{}
}

// NewContainer creates a root node that is not recorded as a created node.
func (h *Host) NewContainer(kind string) *Node {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.newNode(kind)
}

func (h *Host) newNode(kind string) *Node {
	h.nextID++
	return &Node{
		ID:        h.nextID,
		Kind:      kind,
		Attrs:     make(map[string]any),
		Listeners: make(map[string][]*core.Listener),
	}
}

// FailOn makes every subsequent call to op fail with err. A nil err clears it.
func (h *Host) FailOn(op string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fail == nil {
		h.fail = make(map[string]error)
	}
	if err == nil {
		delete(h.fail, op)
		return
	}
	h.fail[op] = err
}

// Ops returns a copy of the operation log.
func (h *Host) Ops() []Op {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Op(nil), h.ops...)
}

// ResetOps clears the operation log.
func (h *Host) ResetOps() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ops = nil
}

// CountOps returns how many recorded operations have the given name.
func (h *Host) CountOps(name string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, op := range h.ops {
		if op.Name == name {
			n++
		}
	}
	return n
}

func (h *Host) record(op Op) error {
	if err := h.fail[op.Name]; err != nil {
		return err
	}
	h.ops = append(h.ops, op)
	return nil
}

func node(handle host.Handle) (*Node, error) {
	n, ok := handle.(*Node)
	if !ok || n == nil {
		return nil, ErrForeignHandle
	}
	return n, nil
}

// CreateNode creates a detached node.
func (h *Host) CreateNode(kind string) (host.Handle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.fail[OpCreate]; err != nil {
		return nil, err
	}
	n := h.newNode(kind)
	h.ops = append(h.ops, Op{Name: OpCreate, Node: n.ID, Key: kind})
	return n, nil
}

// SetAttribute assigns a plain attribute.
func (h *Host) SetAttribute(handle host.Handle, key string, value any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	n, err := node(handle)
	if err != nil {
		return err
	}
	if err := h.record(Op{Name: OpSetAttribute, Node: n.ID, Key: key, Value: value}); err != nil {
		return err
	}
	n.Attrs[key] = value
	return nil
}

// ClearAttribute removes a plain attribute.
func (h *Host) ClearAttribute(handle host.Handle, key string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	n, err := node(handle)
	if err != nil {
		return err
	}
	if err := h.record(Op{Name: OpClearAttribute, Node: n.ID, Key: key}); err != nil {
		return err
	}
	delete(n.Attrs, key)
	return nil
}

// AddListener attaches a listener.
func (h *Host) AddListener(handle host.Handle, kind string, l *core.Listener) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	n, err := node(handle)
	if err != nil {
		return err
	}
	if err := h.record(Op{Name: OpAddListener, Node: n.ID, Key: kind}); err != nil {
		return err
	}
	n.Listeners[kind] = append(n.Listeners[kind], l)
	return nil
}

// RemoveListener detaches a listener. Removing an unknown listener is a no-op.
func (h *Host) RemoveListener(handle host.Handle, kind string, l *core.Listener) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	n, err := node(handle)
	if err != nil {
		return err
	}
	if err := h.record(Op{Name: OpRemoveListener, Node: n.ID, Key: kind}); err != nil {
		return err
	}
	list := n.Listeners[kind]
	for i, existing := range list {
		if existing == l {
			n.Listeners[kind] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(n.Listeners[kind]) == 0 {
		delete(n.Listeners, kind)
	}
	return nil
}

// Append adds child as the last child of parent, detaching it from any
// previous parent first.
func (h *Host) Append(parentHandle, childHandle host.Handle) error {
	return h.insert(OpAppend, parentHandle, childHandle, nil)
}

// InsertBefore adds child to parent before the existing child before. A nil
// or foreign before appends.
func (h *Host) InsertBefore(parentHandle, childHandle, beforeHandle host.Handle) error {
	before, _ := beforeHandle.(*Node)
	return h.insert(OpInsert, parentHandle, childHandle, before)
}

func (h *Host) insert(op string, parentHandle, childHandle host.Handle, before *Node) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	parent, err := node(parentHandle)
	if err != nil {
		return err
	}
	child, err := node(childHandle)
	if err != nil {
		return err
	}
	if err := h.record(Op{Name: op, Node: child.ID, Target: parent.ID}); err != nil {
		return err
	}
	if child.Parent != nil {
		detach(child.Parent, child)
	}
	child.Parent = parent
	for i, c := range parent.Children {
		if before != nil && c == before {
			parent.Children = append(parent.Children[:i:i], append([]*Node{child}, parent.Children[i:]...)...)
			return nil
		}
	}
	parent.Children = append(parent.Children, child)
	return nil
}

// Remove detaches child from parent.
func (h *Host) Remove(parentHandle, childHandle host.Handle) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	parent, err := node(parentHandle)
	if err != nil {
		return err
	}
	child, err := node(childHandle)
	if err != nil {
		return err
	}
	if child.Parent != parent {
		return ErrNotChild
	}
	if err := h.record(Op{Name: OpRemove, Node: child.ID, Target: parent.ID}); err != nil {
		return err
	}
	detach(parent, child)
	child.Parent = nil
	return nil
}

func detach(parent, child *Node) {
	for i, c := range parent.Children {
		if c == child {
			parent.Children = append(parent.Children[:i:i], parent.Children[i+1:]...)
			return
		}
	}
}

// Dispatch delivers an event to the listeners attached to n for kind. The
// listeners run without the host lock held, so they may trigger renders.
func (h *Host) Dispatch(n *Node, kind string, detail map[string]any) int {
	h.mu.Lock()
	listeners := append([]*core.Listener(nil), n.Listeners[kind]...)
	h.mu.Unlock()

	for _, l := range listeners {
		l.Handle(core.Event{Type: kind, Target: n, Detail: detail})
	}
	return len(listeners)
}
