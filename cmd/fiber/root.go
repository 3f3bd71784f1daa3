package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/go-drift/fiber/internal/config"
	"github.com/go-drift/fiber/internal/observability"
	fibererrors "github.com/go-drift/fiber/pkg/errors"
	"github.com/go-drift/fiber/pkg/host/memhost"
)

// Version information set at build time.
var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
)

type rootOptions struct {
	dir      string
	logLevel string
	verbose  bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "fiber",
		Short:         "Incremental tree reconciliation engine",
		Long:          "fiber renders component trees into a host in interruptible slices and commits the changes in one pass.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.PersistentFlags().StringVar(&opts.dir, "dir", ".", "project directory containing fiber.yaml")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug|info|warn|error)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "attach stack traces to logged errors")

	cmd.AddCommand(newRunCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// resolve loads the project configuration. A directory outside any Go
// module still gets its fiber.yaml applied over the defaults.
func (o *rootOptions) resolve() (*config.Resolved, error) {
	dir, err := filepath.Abs(o.dir)
	if err != nil {
		return nil, err
	}

	res, err := config.Resolve(dir)
	if err != nil {
		var fe *fibererrors.FiberError
		if errors.As(err, &fe) && fe.Kind == fibererrors.KindConfig {
			return nil, err
		}
		cfg, loadErr := config.LoadOptional(dir)
		if loadErr != nil {
			return nil, loadErr
		}
		if res, err = cfg.Apply(config.Defaults()); err != nil {
			return nil, err
		}
		res.Root = dir
	}

	if o.logLevel != "" {
		level, err := zerolog.ParseLevel(o.logLevel)
		if err != nil {
			return nil, fmt.Errorf("--log-level: %w", err)
		}
		res.LogLevel = level
	}
	return res, nil
}

// setup resolves the configuration, builds the logger and routes engine
// errors to it.
func (o *rootOptions) setup() (*config.Resolved, zerolog.Logger, error) {
	res, err := o.resolve()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	logger := observability.NewLogger(res.AppName, res.LogLevel)
	fibererrors.SetHandler(&fibererrors.LogHandler{Logger: &logger, Verbose: o.verbose})
	return res, logger, nil
}

// dispatchByID delivers events to the first node whose id attribute matches.
func dispatchByID(h *memhost.Host, container *memhost.Node) func(target, kind string, detail map[string]any) error {
	return func(target, kind string, detail map[string]any) error {
		n := h.Find(container, memhost.ByAttr("id", target))
		if n == nil {
			return fmt.Errorf("no node with id %q", target)
		}
		if h.Dispatch(n, kind, detail) == 0 {
			return fmt.Errorf("no %s listener on %q", kind, target)
		}
		return nil
	}
}
