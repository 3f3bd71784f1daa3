// Package core defines the immutable tree description consumed by the engine.
//
// An Element describes one node: its Kind, its Props, and its ordered
// children. A Kind is either a HostKind, a tag name the host knows how to
// create, or a *Component, a function that turns props into exactly one
// child Element and may keep state between invocations through hooks.
//
// Elements are values produced fresh on every render and are never mutated
// after construction. Build them with E and C:
//
//	counter := core.NewComponent("Counter", func(c *hooks.Cursor, props core.Props) *core.Element {
//	    n, setN := hooks.UseState(c, 0)
//	    return core.E("button", core.Props{
//	        "onClick": core.On(func(core.Event) {
//	            setN(hooks.Transform(func(v int) int { return v + 1 }))
//	        }),
//	    }, "Count: ", n)
//	})
//
//	root := core.E("div", core.Props{"id": "container"}, core.C(counter, nil))
//
// # Props
//
// Keys starting with "on" hold *Listener values and are attached to the host
// as event listeners; the listener kind is the lower-cased remainder of the
// key ("onClick" listens for "click"). The "children" key is reserved and
// never reaches the host. Components can decode their props into a struct
// with Props.Decode.
package core
