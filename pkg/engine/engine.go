package engine

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/go-drift/fiber/pkg/core"
	"github.com/go-drift/fiber/pkg/fiber"
	"github.com/go-drift/fiber/pkg/hooks"
	"github.com/go-drift/fiber/pkg/host"
	"github.com/go-drift/fiber/pkg/scheduler"
)

// ErrRunning is returned by Run when the engine is already running.
var ErrRunning = errors.New("engine already running")

// Dispatcher delivers an event to a host node identified by target. It runs
// on the render thread.
type Dispatcher func(target, kind string, detail map[string]any) error

// HostView returns a serializable view of the host tree. It runs on the
// render thread.
type HostView func() any

// Option configures an Engine.
type Option func(*config)

type config struct {
	logger        zerolog.Logger
	policy        hooks.Policy
	slice         time.Duration
	maxUnits      int
	clock         scheduler.Clock
	debugAddr     string
	registry      *prometheus.Registry
	traceCapacity int
	slowRender    time.Duration
	hostView      HostView
	dispatcher    Dispatcher
	session       []fiber.Option
	middleware    []func(http.Handler) http.Handler
}

// WithLogger sets the engine and session logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithQueuePolicy selects the state queue policy of the session.
func WithQueuePolicy(policy hooks.Policy) Option {
	return func(c *config) { c.policy = policy }
}

// WithTimeSlice sets how long each loop turn may render before yielding.
func WithTimeSlice(d time.Duration) Option {
	return func(c *config) { c.slice = d }
}

// WithMaxUnitsPerTurn caps how many units one loop turn may perform, in
// addition to the time slice. Zero means no cap.
func WithMaxUnitsPerTurn(n int) Option {
	return func(c *config) { c.maxUnits = n }
}

// WithHTTPMiddleware adds middleware to the debug server router, after the
// built-in panic recoverer.
func WithHTTPMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(c *config) { c.middleware = append(c.middleware, mw...) }
}

// WithClock sets the clock that measures time slices.
func WithClock(clock scheduler.Clock) Option {
	return func(c *config) { c.clock = clock }
}

// WithDebugAddr makes Run serve the debug endpoints on addr.
func WithDebugAddr(addr string) Option {
	return func(c *config) { c.debugAddr = addr }
}

// WithRegistry sets the prometheus registry metrics are registered with and
// served from.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(c *config) { c.registry = reg }
}

// WithRenderTrace sizes the render trace buffer and sets the duration above
// which a render counts as slow.
func WithRenderTrace(capacity int, slow time.Duration) Option {
	return func(c *config) {
		c.traceCapacity = capacity
		c.slowRender = slow
	}
}

// WithHostView exposes the host tree on the debug server.
func WithHostView(view HostView) Option {
	return func(c *config) { c.hostView = view }
}

// WithDispatcher accepts events posted to the debug server.
func WithDispatcher(d Dispatcher) Option {
	return func(c *config) { c.dispatcher = d }
}

// WithSessionOptions passes extra options to the session.
func WithSessionOptions(opts ...fiber.Option) Option {
	return func(c *config) { c.session = append(c.session, opts...) }
}

// Engine owns a session and the loop it runs on.
type Engine struct {
	logger     zerolog.Logger
	loop       *scheduler.Loop
	session    *fiber.Session
	metrics    *Metrics
	trace      *RenderTraceBuffer
	registry   *prometheus.Registry
	debugAddr  string
	hostView   HostView
	dispatcher Dispatcher
	middleware []func(http.Handler) http.Handler
	debug      debugServer
	running    atomic.Bool
}

// New creates an engine rendering through h.
func New(h host.Host, opts ...Option) *Engine {
	cfg := config{
		logger: zerolog.Nop(),
		policy: hooks.PolicyCircular,
		slice:  scheduler.DefaultSlice,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.registry == nil {
		cfg.registry = NewRegistry()
	}

	loopOpts := []scheduler.LoopOption{
		scheduler.WithSlice(cfg.slice),
		scheduler.WithMaxUnits(cfg.maxUnits),
	}
	if cfg.clock != nil {
		loopOpts = append(loopOpts, scheduler.WithClock(cfg.clock))
	}

	e := &Engine{
		logger:     cfg.logger.With().Str("component", "engine").Logger(),
		loop:       scheduler.NewLoop(loopOpts...),
		metrics:    NewMetrics(cfg.registry),
		trace:      NewRenderTraceBuffer(cfg.traceCapacity, cfg.slowRender),
		registry:   cfg.registry,
		debugAddr:  cfg.debugAddr,
		hostView:   cfg.hostView,
		dispatcher: cfg.dispatcher,
		middleware: cfg.middleware,
	}
	sessionOpts := append([]fiber.Option{
		fiber.WithLogger(cfg.logger),
		fiber.WithQueuePolicy(cfg.policy),
		fiber.WithScheduler(e.loop),
		fiber.WithObserver(e.metrics),
		fiber.WithObserver(e.trace),
	}, cfg.session...)
	e.session = fiber.NewSession(h, sessionOpts...)
	return e
}

// Session returns the engine's session. Use it only on the render thread.
func (e *Engine) Session() *fiber.Session { return e.session }

// Loop returns the loop the session runs on.
func (e *Engine) Loop() *scheduler.Loop { return e.loop }

// Metrics returns the render metrics.
func (e *Engine) Metrics() *Metrics { return e.metrics }

// Trace returns the render trace buffer.
func (e *Engine) Trace() *RenderTraceBuffer { return e.trace }

// Registry returns the prometheus registry served on /metrics.
func (e *Engine) Registry() *prometheus.Registry { return e.registry }

// Render asks the loop to render element into container. Safe from any
// goroutine.
func (e *Engine) Render(element *core.Element, container host.Handle) {
	e.loop.Post(func() {
		e.session.Render(element, container)
	})
}

// Do runs fn on the render thread and waits for it to return. The loop must
// be running, either through Run or by the caller stepping it. When ctx ends
// first, fn may still run later, so it must not write to memory the caller
// reads afterwards.
func (e *Engine) Do(ctx context.Context, fn func(*fiber.Session)) error {
	done := make(chan struct{})
	e.loop.Post(func() {
		defer close(done)
		fn(e.session)
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// query runs fn on the render thread and returns its result. The result
// travels over a channel, so a caller that gives up on ctx never shares
// memory with a closure that runs later.
func query[T any](ctx context.Context, e *Engine, fn func(*fiber.Session) T) (T, error) {
	results := make(chan T, 1)
	e.loop.Post(func() {
		results <- fn(e.session)
	})
	select {
	case v := <-results:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// WaitIdle blocks until no render is in flight. The loop must be running.
func (e *Engine) WaitIdle(ctx context.Context) error {
	for {
		pending, err := query(ctx, e, (*fiber.Session).Pending)
		if err != nil {
			return err
		}
		if !pending {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
}

// Snapshot returns the committed unit tree, read on the render thread.
func (e *Engine) Snapshot(ctx context.Context) (*fiber.UnitSnapshot, error) {
	return query(ctx, e, (*fiber.Session).Snapshot)
}

// Run starts the debug server, if configured, and runs the loop until ctx is
// cancelled.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer e.running.Store(false)

	if e.debugAddr != "" {
		addr, err := e.StartDebugServer(e.debugAddr)
		if err != nil {
			return err
		}
		e.logger.Info().Str("addr", addr).Msg("debug server listening")
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := e.StopDebugServer(shutdownCtx); err != nil {
				e.logger.Warn().Err(err).Msg("debug server shutdown")
			}
		}()
	}

	e.logger.Debug().Str("session", e.session.ID()).Msg("loop started")
	err := e.loop.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
