package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/go-drift/fiber/pkg/fiber"
)

// inspectTimeout bounds how long a debug request waits for the render thread.
const inspectTimeout = 2 * time.Second

// debugServer manages the HTTP server for tree inspection.
type debugServer struct {
	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// StartDebugServer serves the debug endpoints on addr and returns the bound
// address (useful with port 0). Starting a running server returns its
// current address.
func (e *Engine) StartDebugServer(addr string) (string, error) {
	e.debug.mu.Lock()
	defer e.debug.mu.Unlock()

	if e.debug.server != nil {
		return e.debug.listener.Addr().String(), nil
	}

	// Bind first to fail fast on port conflicts.
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("debug server listen: %w", err)
	}

	server := &http.Server{
		Handler:           e.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	e.debug.server = server
	e.debug.listener = listener

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			e.debug.mu.Lock()
			e.debug.server = nil
			e.debug.listener = nil
			e.debug.mu.Unlock()
			e.logger.Error().Err(err).Msg("debug server stopped")
		}
	}()

	return listener.Addr().String(), nil
}

// StopDebugServer gracefully shuts down the debug server.
func (e *Engine) StopDebugServer(ctx context.Context) error {
	e.debug.mu.Lock()
	server := e.debug.server
	e.debug.server = nil
	e.debug.listener = nil
	e.debug.mu.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

// Handler returns the debug router.
//
//	GET  /health    liveness
//	GET  /tree      committed unit tree
//	GET  /hosttree  host tree, when a HostView is configured
//	GET  /renders   recent render samples
//	GET  /metrics   prometheus metrics
//	POST /dispatch  deliver an event, when a Dispatcher is configured
func (e *Engine) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	for _, mw := range e.middleware {
		r.Use(mw)
	}

	r.Get("/health", e.handleHealth)
	r.Get("/tree", e.handleTree)
	r.Get("/hosttree", e.handleHostTree)
	r.Get("/renders", e.handleRenders)
	r.Post("/dispatch", e.handleDispatch)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{}))
	return r
}

func (e *Engine) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"session": e.session.ID(),
		"running": e.running.Load(),
	})
}

func (e *Engine) handleTree(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), inspectTimeout)
	defer cancel()

	snap, err := e.Snapshot(ctx)
	if err != nil {
		http.Error(w, fmt.Sprintf("render thread unavailable: %v", err), http.StatusServiceUnavailable)
		return
	}
	if snap == nil {
		http.Error(w, "no committed tree", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (e *Engine) handleHostTree(w http.ResponseWriter, r *http.Request) {
	if e.hostView == nil {
		http.Error(w, "host tree not exposed", http.StatusNotFound)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), inspectTimeout)
	defer cancel()

	view, err := query(ctx, e, func(*fiber.Session) any { return e.hostView() })
	if err != nil {
		http.Error(w, fmt.Sprintf("render thread unavailable: %v", err), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (e *Engine) handleRenders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, e.trace.Snapshot())
}

type dispatchRequest struct {
	Target string         `json:"target"`
	Kind   string         `json:"kind"`
	Detail map[string]any `json:"detail,omitempty"`
}

func (e *Engine) handleDispatch(w http.ResponseWriter, r *http.Request) {
	if e.dispatcher == nil {
		http.Error(w, "dispatch not enabled", http.StatusNotFound)
		return
	}
	var req dispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.Target == "" || req.Kind == "" {
		http.Error(w, "target and kind are required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), inspectTimeout)
	defer cancel()

	dispatchErr, err := query(ctx, e, func(*fiber.Session) error {
		return e.dispatcher(req.Target, req.Kind, req.Detail)
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("render thread unavailable: %v", err), http.StatusServiceUnavailable)
		return
	}
	if dispatchErr != nil {
		http.Error(w, dispatchErr.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "dispatched"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, fmt.Sprintf("json encode error: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
