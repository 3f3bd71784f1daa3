// Package engine runs a fiber session on a scheduler loop and exposes it for
// inspection: prometheus metrics, a ring buffer of recent renders, and an
// HTTP debug server.
//
// All session access goes through the loop. Callers on other goroutines use
// Render to start a render and Do to run a function on the render thread and
// wait for it.
package engine
