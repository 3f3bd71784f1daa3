package scheduler

import "time"

// MinRemaining is the smallest time budget worth starting another unit in.
const MinRemaining = time.Millisecond

// Clock provides the current time. Tests inject a fake clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock {
	return systemClock{}
}

// Deadline is consulted between units of work.
type Deadline interface {
	// TimeRemaining reports how much of the current turn is left.
	TimeRemaining() time.Duration
	// ShouldYield reports whether the task must return control now.
	ShouldYield() bool
}

type unlimited struct{}

func (unlimited) TimeRemaining() time.Duration { return time.Duration(1<<63 - 1) }
func (unlimited) ShouldYield() bool            { return false }

// Unlimited returns a deadline that never asks to yield.
func Unlimited() Deadline {
	return unlimited{}
}

// StepBudget allows a fixed number of units per turn.
type StepBudget struct {
	remaining int
}

// NewStepBudget returns a deadline that yields after n units.
func NewStepBudget(n int) *StepBudget {
	return &StepBudget{remaining: n}
}

// TimeRemaining reports one nominal millisecond per remaining unit.
func (b *StepBudget) TimeRemaining() time.Duration {
	return time.Duration(max(b.remaining, 0)) * MinRemaining
}

// ShouldYield consumes one unit of budget, or reports true when none is left.
func (b *StepBudget) ShouldYield() bool {
	if b.remaining <= 0 {
		return true
	}
	b.remaining--
	return false
}

// TimeBudget is a wall-clock slice measured with a Clock.
type TimeBudget struct {
	clock Clock
	end   time.Time
}

// NewTimeBudget starts a slice of the given length now.
func NewTimeBudget(clock Clock, slice time.Duration) *TimeBudget {
	if clock == nil {
		clock = SystemClock()
	}
	return &TimeBudget{clock: clock, end: clock.Now().Add(slice)}
}

// TimeRemaining reports how long until the slice ends.
func (b *TimeBudget) TimeRemaining() time.Duration {
	return b.end.Sub(b.clock.Now())
}

// ShouldYield reports whether less than MinRemaining is left.
func (b *TimeBudget) ShouldYield() bool {
	return b.TimeRemaining() < MinRemaining
}

type earliest []Deadline

// Earliest combines deadlines; the turn ends as soon as any of them asks to
// yield. Deadlines are consulted in order and later ones are skipped once one
// has yielded, so a StepBudget placed last only spends units that will run.
func Earliest(deadlines ...Deadline) Deadline {
	return earliest(deadlines)
}

func (e earliest) TimeRemaining() time.Duration {
	remaining := Unlimited().TimeRemaining()
	for _, d := range e {
		remaining = min(remaining, d.TimeRemaining())
	}
	return remaining
}

func (e earliest) ShouldYield() bool {
	for _, d := range e {
		if d.ShouldYield() {
			return true
		}
	}
	return false
}
