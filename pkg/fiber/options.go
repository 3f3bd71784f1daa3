package fiber

import (
	"github.com/rs/zerolog"

	"github.com/go-drift/fiber/pkg/hooks"
	"github.com/go-drift/fiber/pkg/scheduler"
)

// DefaultMaxNestedRenders bounds how many times component bodies may restart
// the render they are part of before the session gives up.
const DefaultMaxNestedRenders = 50

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithQueuePolicy selects how pending state changes are queued.
func WithQueuePolicy(policy hooks.Policy) Option {
	return func(s *Session) {
		s.policy = policy
	}
}

// WithScheduler sets where the session's render task runs. The default runs
// it synchronously to completion.
func WithScheduler(sched scheduler.Scheduler) Option {
	return func(s *Session) {
		if sched != nil {
			s.scheduler = sched
		}
	}
}

// WithObserver registers an observer for render lifecycle events. It may be
// given more than once.
func WithObserver(observer Observer) Option {
	return func(s *Session) {
		if observer != nil {
			s.observer = append(s.observer, observer)
		}
	}
}

// WithMaxNestedRenders sets how many renders a component body may restart
// by dispatching while it runs. Zero or less disables the limit.
func WithMaxNestedRenders(n int) Option {
	return func(s *Session) {
		s.maxNested = n
	}
}

// WithID overrides the generated session ID.
func WithID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}
