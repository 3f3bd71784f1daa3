// Package errors provides structured error handling for the fiber engine.
package errors

import (
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindHost indicates a failed host mutation (create, append, remove, attribute).
	KindHost
	// KindState indicates a state slot misuse such as misaligned slot calls.
	KindState
	// KindInvariant indicates an internal tree invariant was broken.
	KindInvariant
	// KindBuild indicates a component body failed while producing its element.
	KindBuild
	// KindPanic indicates a recovered panic.
	KindPanic
	// KindConfig indicates invalid configuration.
	KindConfig
)

func (k ErrorKind) String() string {
	switch k {
	case KindHost:
		return "host"
	case KindState:
		return "state"
	case KindInvariant:
		return "invariant"
	case KindBuild:
		return "build"
	case KindPanic:
		return "panic"
	case KindConfig:
		return "config"
	default:
		return "unknown"
	}
}

// FiberError represents a structured error in the engine.
type FiberError struct {
	// Op is the operation that failed (e.g., "fiber.commit").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// Session is the render session ID, if applicable.
	Session string
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *FiberError) Error() string {
	if e.Session != "" {
		return fmt.Sprintf("%s [%s] session=%s: %v", e.Op, e.Kind, e.Session, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *FiberError) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "scheduler.Loop").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// BuildError represents a failure while invoking a component body.
type BuildError struct {
	// Component is the name of the component that failed.
	Component string
	// Recovered is the panic value (nil for regular errors).
	Recovered any
	// Err is the underlying error (nil for panics).
	Err error
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *BuildError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("error in %s: %v", e.Component, e.Err)
	}
	if e.Recovered != nil {
		return fmt.Sprintf("panic in %s: %v", e.Component, e.Recovered)
	}
	return fmt.Sprintf("unknown error in %s", e.Component)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// StateAlignmentError is raised when a component calls a different number or
// order of state-creating operations than it did in the previous generation.
type StateAlignmentError struct {
	// Component is the name of the component whose slots misaligned.
	Component string
	// Index is the slot position where the mismatch was detected.
	Index int
	// Previous is the slot count recorded by the previous generation.
	Previous int
	// Current is the slot count observed in this invocation, or -1 when the
	// mismatch is a type change at Index.
	Current int
	// Detail describes the mismatch.
	Detail string
}

func (e *StateAlignmentError) Error() string {
	return fmt.Sprintf("state slots misaligned in %s at slot %d: %s (previous=%d current=%d)",
		e.Component, e.Index, e.Detail, e.Previous, e.Current)
}

// InvariantViolation reports a broken structural invariant of the unit tree,
// for example a unit with no host-owning ancestor.
type InvariantViolation struct {
	// Op is the operation that detected the violation.
	Op string
	// Unit describes the work unit involved.
	Unit string
	// Detail describes the violated invariant.
	Detail string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation in %s at %s: %s", e.Op, e.Unit, e.Detail)
}

// HostOperationError wraps a failure returned by the host.
type HostOperationError struct {
	// Op is the host operation (e.g., "CreateNode", "Append").
	Op string
	// Kind is the kind of the node involved, if known.
	Kind string
	// Err is the error returned by the host.
	Err error
}

func (e *HostOperationError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("host %s(%s): %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("host %s: %v", e.Op, e.Err)
}

func (e *HostOperationError) Unwrap() error {
	return e.Err
}

// ErrorHandler receives errors reported by the engine.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *FiberError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
	// HandleBuildError is called when a component body fails.
	HandleBuildError(err *BuildError)
}
