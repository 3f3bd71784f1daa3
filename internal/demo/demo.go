// Package demo contains the components rendered by the fiber CLI.
package demo

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/go-drift/fiber/pkg/core"
	"github.com/go-drift/fiber/pkg/hooks"
)

// ButtonID is the id attribute of the counter's button.
const ButtonID = "bump"

// CounterProps are the props accepted by the counter component.
type CounterProps struct {
	Label string `prop:"label"`
	Step  int    `prop:"step"`
}

// NewCounter returns a component holding three counters, starting at 0, 1
// and 2, that all advance by step when its button is clicked. Every
// invocation is logged at debug level.
func NewCounter(logger zerolog.Logger) *core.Component {
	return core.NewComponent("Counter", func(c *hooks.Cursor, props core.Props) *core.Element {
		var p CounterProps
		if err := props.Decode(&p); err != nil {
			panic(fmt.Errorf("counter props: %w", err))
		}
		if p.Step == 0 {
			p.Step = 1
		}

		numA, setNumA := hooks.UseState(c, 0)
		numB, setNumB := hooks.UseState(c, 1)
		numC, setNumC := hooks.UseState(c, 2)

		phase := "update"
		if c.Mounting() {
			phase = "mount"
		}
		logger.Debug().
			Str("phase", phase).
			Ints("num", []int{numA, numB, numC}).
			Msg("counter rendered")

		step := func(v int) int { return v + p.Step }
		children := []any{fmt.Sprintf("%d %d %d", numA, numB, numC)}
		if p.Label != "" {
			children = append([]any{core.E("span", core.Props{"id": "label"}, p.Label)}, children...)
		}
		return core.E("div", core.Props{"id": "counter"},
			append(children, core.E("button", core.Props{
				"id": ButtonID,
				"onClick": core.On(func(core.Event) {
					setNumA(hooks.Transform(step))
					setNumB(hooks.Transform(step))
					setNumC(hooks.Transform(step))
				}),
			}, "+"))...,
		)
	})
}

// Greeting is a static tree with no components.
func Greeting() *core.Element {
	return core.E("div", core.Props{"className": "simpleReact", "id": "container"},
		core.E("div", core.Props{"id": "text_1"}, "Hello, World"),
		core.E("div", core.Props{"id": "text_2"}, "This is my first simple React"),
	)
}

// App renders the greeting followed by a labelled counter.
func App(counter *core.Component, label string) *core.Element {
	return core.E("main", core.Props{"id": "app"},
		Greeting(),
		core.C(counter, core.Props{"label": label}),
	)
}
