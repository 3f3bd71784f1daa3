package errors

import (
	stderrors "errors"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	// DefaultHandler is the global error handler.
	// It defaults to LogHandler with a disabled logger.
	DefaultHandler ErrorHandler = &LogHandler{}

	handlerMu sync.RWMutex
)

// SetHandler configures the global error handler.
// Pass nil to restore the default LogHandler.
func SetHandler(h ErrorHandler) {
	handlerMu.Lock()
	defer handlerMu.Unlock()
	if h == nil {
		DefaultHandler = &LogHandler{}
	} else {
		DefaultHandler = h
	}
}

func getHandler() ErrorHandler {
	handlerMu.RLock()
	defer handlerMu.RUnlock()
	return DefaultHandler
}

// Report sends an error to the global handler.
// If err.Timestamp is zero, it is set to the current time.
func Report(err *FiberError) {
	if err == nil {
		return
	}
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	if h := getHandler(); h != nil {
		h.HandleError(err)
	}
}

// ReportPanic sends a panic error to the global handler.
func ReportPanic(err *PanicError) {
	if err == nil {
		return
	}
	if h := getHandler(); h != nil {
		h.HandlePanic(err)
	}
}

// ReportBuildError sends a build error to the global handler.
func ReportBuildError(err *BuildError) {
	if err == nil {
		return
	}
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	if h := getHandler(); h != nil {
		h.HandleBuildError(err)
	}
}

// ReportError routes err to the handler method matching its type. Errors
// without a session get the given session id. Anything that is not one of
// the engine's error types is wrapped as a KindUnknown FiberError.
func ReportError(session string, err error) {
	if err == nil {
		return
	}
	var be *BuildError
	if stderrors.As(err, &be) {
		ReportBuildError(be)
		return
	}
	var fe *FiberError
	if !stderrors.As(err, &fe) {
		kind := KindUnknown
		var pe *PanicError
		if stderrors.As(err, &pe) {
			kind = KindPanic
		}
		fe = &FiberError{Op: "report", Kind: kind, Err: err}
	}
	if fe.Session == "" {
		fe.Session = session
	}
	Report(fe)
}

// Recover is a helper for deferred panic recovery. The recovered panic is
// reported, then passed to each hook so the caller can reset its own state.
// Usage: defer errors.Recover("fiber.task", session.reset)
func Recover(op string, hooks ...func(*PanicError)) {
	r := recover()
	if r == nil {
		return
	}
	pe := &PanicError{
		Op:         op,
		Value:      r,
		StackTrace: CaptureStack(),
		Timestamp:  time.Now(),
	}
	ReportPanic(pe)
	for _, hook := range hooks {
		hook(pe)
	}
}

// CaptureStack returns the current call stack as a string.
// It skips the frames of CaptureStack and its caller's deferred recover.
func CaptureStack() string {
	const maxDepth = 32
	var pcs [maxDepth]uintptr
	n := runtime.Callers(3, pcs[:])
	if n == 0 {
		return ""
	}

	frames := runtime.CallersFrames(pcs[:n])
	var sb strings.Builder
	for {
		frame, more := frames.Next()
		sb.WriteString(frame.Function)
		sb.WriteString("\n\t")
		sb.WriteString(frame.File)
		sb.WriteString(":")
		sb.WriteString(strconv.Itoa(frame.Line))
		sb.WriteString("\n")
		if !more {
			break
		}
	}
	return sb.String()
}
