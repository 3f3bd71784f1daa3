package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/go-drift/fiber/internal/config"
	"github.com/go-drift/fiber/internal/demo"
	"github.com/go-drift/fiber/pkg/engine"
	"github.com/go-drift/fiber/pkg/host/memhost"
)

type runOptions struct {
	clicks int
	label  string
	json   bool
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Render the counter into an in-memory host and click it",
		Long: `Renders the demo app into an in-memory host, clicks the counter button
the requested number of times and prints the host tree after every commit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, logger, err := root.setup()
			if err != nil {
				return err
			}
			return runDemo(cmd.Context(), cmd.OutOrStdout(), res, logger, opts)
		},
	}
	cmd.Flags().IntVarP(&opts.clicks, "clicks", "n", 2, "number of clicks to dispatch")
	cmd.Flags().StringVar(&opts.label, "label", "clicks", "counter label")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print host snapshots as JSON instead of markup")
	return cmd
}

func engineOptions(res *config.Resolved, logger zerolog.Logger) []engine.Option {
	return []engine.Option{
		engine.WithLogger(logger),
		engine.WithQueuePolicy(res.Policy),
		engine.WithTimeSlice(res.TimeSlice),
		engine.WithMaxUnitsPerTurn(res.MaxUnitsPerTurn),
		engine.WithRegistry(engine.NewRegistry()),
	}
}

// runDemo drives the engine loop on the calling goroutine.
func runDemo(ctx context.Context, out io.Writer, res *config.Resolved, logger zerolog.Logger, opts *runOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	h := memhost.New()
	container := h.NewContainer("root")
	e := engine.New(h, engineOptions(res, logger)...)
	dispatch := dispatchByID(h, container)

	settle := func(step string) error {
		if err := e.Loop().RunUntilIdle(ctx); err != nil {
			return err
		}
		if failures := e.Trace().Snapshot().Failures; failures > 0 {
			return fmt.Errorf("%s: render failed (%d failures, see log)", step, failures)
		}
		return printHost(out, h, container, opts.json)
	}

	e.Render(demo.App(demo.NewCounter(logger), opts.label), container)
	if err := settle("mount"); err != nil {
		return err
	}
	for i := range opts.clicks {
		if err := dispatch(demo.ButtonID, "click", nil); err != nil {
			return err
		}
		if err := settle(fmt.Sprintf("click %d", i+1)); err != nil {
			return err
		}
	}
	logger.Info().
		Int("clicks", opts.clicks).
		Uint64("generation", e.Session().Generation()).
		Msg("demo finished")
	return nil
}

func printHost(out io.Writer, h *memhost.Host, container *memhost.Node, asJSON bool) error {
	if !asJSON {
		_, err := fmt.Fprintln(out, h.Markup(container))
		return err
	}
	data, err := json.Marshal(h.Snapshot(container))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
