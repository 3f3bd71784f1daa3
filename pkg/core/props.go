package core

import (
	"strings"

	"github.com/mitchellh/mapstructure"
)

// ChildrenKey is reserved: it carries an element's children into a component
// body and is never treated as a host attribute.
const ChildrenKey = "children"

const listenerPrefix = "on"

// Props are the attributes of an element. Props are shared between
// generations and must not be modified after the element is built.
type Props map[string]any

// IsListenerKey reports whether key names an event listener.
func IsListenerKey(key string) bool {
	return len(key) > len(listenerPrefix) && strings.HasPrefix(key, listenerPrefix)
}

// ListenerKind derives the host event kind from a listener key.
func ListenerKind(key string) string {
	return strings.ToLower(strings.TrimPrefix(key, listenerPrefix))
}

// IsAttributeKey reports whether key reaches the host as a plain attribute.
func IsAttributeKey(key string) bool {
	return key != ChildrenKey && !IsListenerKey(key)
}

// Children returns the elements passed to a component as children.
func (p Props) Children() []*Element {
	children, _ := p[ChildrenKey].([]*Element)
	return children
}

// withChildren returns a copy of p carrying children under ChildrenKey.
func (p Props) withChildren(children []*Element) Props {
	out := make(Props, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	out[ChildrenKey] = children
	return out
}

// ComponentProps returns the props a component element's body receives.
func (e *Element) ComponentProps() Props {
	if len(e.Children) == 0 {
		return e.Props
	}
	return e.Props.withChildren(e.Children)
}

// Decode copies props into the struct pointed to by out. Fields are matched
// by their `prop` tag, or case-insensitively by name.
func (p Props) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "prop",
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(map[string]any(p))
}
