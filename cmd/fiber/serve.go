package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/go-drift/fiber/internal/demo"
	"github.com/go-drift/fiber/internal/observability"
	"github.com/go-drift/fiber/pkg/engine"
	"github.com/go-drift/fiber/pkg/host/memhost"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		addr  string
		label string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the engine with the HTTP debug server",
		Long: `Mounts the demo app and keeps the engine loop running. When enabled, the
debug server exposes the unit tree, the host tree, render samples, prometheus metrics and
a dispatch endpoint for clicking the counter over HTTP.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, logger, err := root.setup()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				res.DebugAddr = addr
				res.DebugEnabled = true
			}

			h := memhost.New()
			container := h.NewContainer("root")
			opts := engineOptions(res, logger)
			if res.DebugEnabled {
				opts = append(opts,
					engine.WithDebugAddr(res.DebugAddr),
					engine.WithHostView(func() any { return h.Snapshot(container) }),
					engine.WithDispatcher(dispatchByID(h, container)),
					engine.WithHTTPMiddleware(observability.RequestLogger(logger)),
				)
			} else {
				logger.Warn().Msg("debug server disabled; set debug.enabled or pass --addr")
			}
			e := engine.New(h, opts...)
			e.Render(demo.App(demo.NewCounter(logger), label), container)

			ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info().
				Bool("debug", res.DebugEnabled).
				Str("session", e.Session().ID()).
				Msg("serving")
			if err := e.Run(ctx); err != nil {
				return err
			}
			logger.Info().Msg("stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "debug server listen address (overrides debug.addr)")
	cmd.Flags().StringVar(&label, "label", "clicks", "counter label")
	return cmd
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
