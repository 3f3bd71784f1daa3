package testing

import (
	"fmt"
	"strings"

	"github.com/go-drift/fiber/pkg/host/memhost"
)

// Finder locates nodes in the host tree.
type Finder interface {
	// Evaluate returns all matching nodes under root (depth-first pre-order).
	Evaluate(root *memhost.Node) []*memhost.Node
	// Description returns a human-readable description for error messages.
	Description() string
}

// FinderResult wraps finder results with convenient accessors.
type FinderResult struct {
	nodes  []*memhost.Node
	finder Finder
}

// First returns the first match. Panics if no matches.
func (r FinderResult) First() *memhost.Node {
	if len(r.nodes) == 0 {
		panic(fmt.Sprintf("Finder found no nodes: %s", r.describe()))
	}
	return r.nodes[0]
}

// FirstOrNil returns the first match, or nil if none.
func (r FinderResult) FirstOrNil() *memhost.Node {
	if len(r.nodes) == 0 {
		return nil
	}
	return r.nodes[0]
}

// At returns the match at index. Panics if out of range.
func (r FinderResult) At(index int) *memhost.Node {
	if index < 0 || index >= len(r.nodes) {
		panic(fmt.Sprintf("Finder index %d out of range (found %d): %s", index, len(r.nodes), r.describe()))
	}
	return r.nodes[index]
}

// All returns all matches in traversal order.
func (r FinderResult) All() []*memhost.Node {
	return r.nodes
}

// Count returns the number of matches.
func (r FinderResult) Count() int {
	return len(r.nodes)
}

// Exists returns true if at least one match was found.
func (r FinderResult) Exists() bool {
	return len(r.nodes) > 0
}

// Text returns the text content of the first match. Panics if no matches.
func (r FinderResult) Text() string {
	return r.First().Text()
}

func (r FinderResult) describe() string {
	if r.finder == nil {
		return "unknown"
	}
	return r.finder.Description()
}

type predicateFinder struct {
	match func(*memhost.Node) bool
	desc  string
}

func (f predicateFinder) Evaluate(root *memhost.Node) []*memhost.Node {
	var out []*memhost.Node
	var walk func(n *memhost.Node)
	walk = func(n *memhost.Node) {
		if f.match(n) {
			out = append(out, n)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}

func (f predicateFinder) Description() string {
	return f.desc
}

// ByKind finds nodes created with the given kind.
func ByKind(kind string) Finder {
	return predicateFinder{match: memhost.ByKind(kind), desc: fmt.Sprintf("ByKind(%q)", kind)}
}

// ByAttr finds nodes whose attribute key equals value.
func ByAttr(key string, value any) Finder {
	return predicateFinder{match: memhost.ByAttr(key, value), desc: fmt.Sprintf("ByAttr(%q, %v)", key, value)}
}

// ByText finds non-text nodes whose text content is exactly text.
func ByText(text string) Finder {
	return predicateFinder{
		match: func(n *memhost.Node) bool {
			return n.Kind != textKind && n.Text() == text
		},
		desc: fmt.Sprintf("ByText(%q)", text),
	}
}

// ByTextContaining finds non-text nodes whose text content contains substr.
func ByTextContaining(substr string) Finder {
	return predicateFinder{
		match: func(n *memhost.Node) bool {
			return n.Kind != textKind && strings.Contains(n.Text(), substr)
		},
		desc: fmt.Sprintf("ByTextContaining(%q)", substr),
	}
}

// ByListener finds nodes with at least one listener of the given kind.
func ByListener(kind string) Finder {
	return predicateFinder{
		match: func(n *memhost.Node) bool { return len(n.Listeners[kind]) > 0 },
		desc:  fmt.Sprintf("ByListener(%q)", kind),
	}
}

// ByPredicate finds nodes for which match returns true.
func ByPredicate(desc string, match func(*memhost.Node) bool) Finder {
	return predicateFinder{match: match, desc: desc}
}
