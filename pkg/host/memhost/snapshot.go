package memhost

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-drift/fiber/pkg/core"
)

// NodeSnapshot is a serialisable copy of a node subtree.
type NodeSnapshot struct {
	ID        int             `json:"id"`
	Kind      string          `json:"kind"`
	Attrs     map[string]any  `json:"attrs,omitempty"`
	Listeners []string        `json:"listeners,omitempty"`
	Children  []*NodeSnapshot `json:"children,omitempty"`
}

// Snapshot copies the subtree rooted at n under the host lock.
func (h *Host) Snapshot(n *Node) *NodeSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return snapshot(n)
}

func snapshot(n *Node) *NodeSnapshot {
	if n == nil {
		return nil
	}
	s := &NodeSnapshot{ID: n.ID, Kind: n.Kind}
	if len(n.Attrs) > 0 {
		s.Attrs = make(map[string]any, len(n.Attrs))
		for k, v := range n.Attrs {
			s.Attrs[k] = v
		}
	}
	for kind, list := range n.Listeners {
		for range list {
			s.Listeners = append(s.Listeners, kind)
		}
	}
	sort.Strings(s.Listeners)
	for _, c := range n.Children {
		s.Children = append(s.Children, snapshot(c))
	}
	return s
}

// Markup renders the subtree rooted at n as HTML-like text. Attributes are
// sorted by name; text nodes render their value.
func (h *Host) Markup(n *Node) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var sb strings.Builder
	markup(&sb, n)
	return sb.String()
}

func markup(sb *strings.Builder, n *Node) {
	if n == nil {
		return
	}
	if n.Kind == string(core.TextKind) {
		fmt.Fprint(sb, n.Attrs[core.NodeValue])
		return
	}
	sb.WriteString("<")
	sb.WriteString(n.Kind)
	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(sb, " %s=%q", k, fmt.Sprint(n.Attrs[k]))
	}
	sb.WriteString(">")
	for _, c := range n.Children {
		markup(sb, c)
	}
	sb.WriteString("</")
	sb.WriteString(n.Kind)
	sb.WriteString(">")
}

// Find returns the first node in the subtree rooted at n, in document order,
// for which match returns true.
func (h *Host) Find(n *Node, match func(*Node) bool) *Node {
	h.mu.Lock()
	defer h.mu.Unlock()
	return find(n, match)
}

func find(n *Node, match func(*Node) bool) *Node {
	if n == nil {
		return nil
	}
	if match(n) {
		return n
	}
	for _, c := range n.Children {
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}

// ByAttr matches nodes whose attribute key equals value.
func ByAttr(key string, value any) func(*Node) bool {
	return func(n *Node) bool {
		v, ok := n.Attrs[key]
		return ok && v == value
	}
}

// ByKind matches nodes of the given kind.
func ByKind(kind string) func(*Node) bool {
	return func(n *Node) bool { return n.Kind == kind }
}
