package errors

import "github.com/rs/zerolog"

// LogHandler is an ErrorHandler that writes structured log events.
// The zero value discards everything.
type LogHandler struct {
	// Logger receives the events. Nil disables logging.
	Logger *zerolog.Logger
	// Verbose attaches stack traces to the events.
	Verbose bool
}

func (h *LogHandler) logger() *zerolog.Logger {
	if h.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return h.Logger
}

// HandleError logs a FiberError.
func (h *LogHandler) HandleError(err *FiberError) {
	if err == nil {
		return
	}
	ev := h.logger().Error().
		Str("op", err.Op).
		Stringer("kind", err.Kind).
		Err(err.Err)
	if err.Session != "" {
		ev = ev.Str("session", err.Session)
	}
	if h.Verbose && err.StackTrace != "" {
		ev = ev.Str("stack", err.StackTrace)
	}
	ev.Msg("fiber error")
}

// HandlePanic logs a PanicError.
func (h *LogHandler) HandlePanic(err *PanicError) {
	if err == nil {
		return
	}
	ev := h.logger().Error().Interface("value", err.Value)
	if err.Op != "" {
		ev = ev.Str("op", err.Op)
	}
	if h.Verbose && err.StackTrace != "" {
		ev = ev.Str("stack", err.StackTrace)
	}
	ev.Msg("fiber panic")
}

// HandleBuildError logs a BuildError.
func (h *LogHandler) HandleBuildError(err *BuildError) {
	if err == nil {
		return
	}
	ev := h.logger().Error().Str("component", err.Component)
	if err.Err != nil {
		ev = ev.Err(err.Err)
	}
	if err.Recovered != nil {
		ev = ev.Interface("recovered", err.Recovered)
	}
	if h.Verbose && err.StackTrace != "" {
		ev = ev.Str("stack", err.StackTrace)
	}
	ev.Msg("component build failed")
}
