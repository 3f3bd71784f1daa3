package core

import "fmt"

// E builds a host element. Children may be *Element, []*Element, nil
// (skipped), or any primitive value, which becomes a text element.
func E(tag string, props Props, children ...any) *Element {
	return build(HostKind(tag), props, children)
}

// C builds a component element.
func C(component *Component, props Props, children ...any) *Element {
	return build(component, props, children)
}

// Text builds a text leaf.
func Text(value string) *Element {
	return &Element{Kind: TextKind, Props: Props{NodeValue: value}}
}

func build(kind Kind, props Props, children []any) *Element {
	if props == nil {
		props = Props{}
	}
	el := &Element{Kind: kind, Props: props}
	for _, child := range children {
		el.Children = appendChild(el.Children, child)
	}
	return el
}

func appendChild(out []*Element, child any) []*Element {
	switch c := child.(type) {
	case nil:
		return out
	case *Element:
		if c == nil {
			return out
		}
		return append(out, c)
	case []*Element:
		for _, el := range c {
			if el != nil {
				out = append(out, el)
			}
		}
		return out
	case string:
		return append(out, Text(c))
	case fmt.Stringer:
		return append(out, Text(c.String()))
	default:
		return append(out, Text(fmt.Sprint(c)))
	}
}
