package fiber

import (
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/go-drift/fiber/pkg/core"
	"github.com/go-drift/fiber/pkg/errors"
	"github.com/go-drift/fiber/pkg/host"
)

// applyProps brings node's attributes and listeners from what m records to
// next in four passes: clear removed attributes, detach removed or replaced
// listeners, set new or changed attributes, attach new or replaced
// listeners. Keys are visited in sorted order within a pass. m is updated
// after every host call that succeeds, so after a failure it still matches
// the node.
func (s *Session) applyProps(node host.Handle, kind string, m *mounted, next core.Props) error {
	if m.props == nil {
		m.props = core.Props{}
	}
	prev := maps.Clone(m.props)
	prevKeys := slices.Sorted(maps.Keys(prev))
	nextKeys := slices.Sorted(maps.Keys(next))

	for _, key := range prevKeys {
		if !core.IsAttributeKey(key) {
			continue
		}
		if _, ok := next[key]; ok {
			continue
		}
		if err := s.host.ClearAttribute(node, key); err != nil {
			return &errors.HostOperationError{Op: "ClearAttribute", Kind: kind, Err: err}
		}
		delete(m.props, key)
	}

	for _, key := range prevKeys {
		if !core.IsListenerKey(key) {
			continue
		}
		value, ok := next[key]
		if ok && !listenerChanged(prev[key], value) {
			continue
		}
		if listener, ok := s.listener(kind, key, prev[key]); ok {
			if err := s.host.RemoveListener(node, core.ListenerKind(key), listener); err != nil {
				return &errors.HostOperationError{Op: "RemoveListener", Kind: kind, Err: err}
			}
		}
		delete(m.props, key)
	}

	for _, key := range nextKeys {
		if !core.IsAttributeKey(key) {
			continue
		}
		if old, ok := prev[key]; ok && !valueChanged(old, next[key]) {
			continue
		}
		if err := s.host.SetAttribute(node, key, next[key]); err != nil {
			return &errors.HostOperationError{Op: "SetAttribute", Kind: kind, Err: err}
		}
		m.props[key] = next[key]
	}

	for _, key := range nextKeys {
		if !core.IsListenerKey(key) {
			continue
		}
		if old, ok := prev[key]; ok && !listenerChanged(old, next[key]) {
			continue
		}
		if listener, ok := s.listener(kind, key, next[key]); ok {
			if err := s.host.AddListener(node, core.ListenerKind(key), listener); err != nil {
				return &errors.HostOperationError{Op: "AddListener", Kind: kind, Err: err}
			}
		}
		m.props[key] = next[key]
	}
	return nil
}

// listener extracts the listener stored under key. Values of any other type
// are skipped with a warning.
func (s *Session) listener(kind, key string, value any) (*core.Listener, bool) {
	l, ok := value.(*core.Listener)
	if !ok || l == nil {
		s.logger.Warn().
			Str("kind", kind).
			Str("key", key).
			Str("type", fmt.Sprintf("%T", value)).
			Msg("ignoring listener prop that is not a *core.Listener")
		return nil, false
	}
	return l, true
}

// listenerChanged compares listener props by identity.
func listenerChanged(a, b any) bool {
	la, okA := a.(*core.Listener)
	lb, okB := b.(*core.Listener)
	if okA && okB {
		return la != lb
	}
	return valueChanged(a, b)
}

func valueChanged(a, b any) bool {
	return !reflect.DeepEqual(a, b)
}
