package clock

import "time"

// Clock is the injectable time source used by the state machine and the
// background sweeps, so hold expiry and refund timing are deterministic in
// tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystem returns a clock backed by time.Now in UTC.
func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

type fixedClock struct {
	now time.Time
}

// NewFixed returns a clock pinned to a single instant, for tests.
func NewFixed(t time.Time) Clock {
	return fixedClock{now: t.UTC()}
}

func (f fixedClock) Now() time.Time {
	return f.now
}

// Fake is a mutable clock for tests that need to advance time between steps.
type Fake struct {
	now time.Time
}

func NewFake(t time.Time) *Fake {
	return &Fake{now: t.UTC()}
}

func (f *Fake) Now() time.Time {
	return f.now
}

func (f *Fake) Advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *Fake) Set(t time.Time) {
	f.now = t.UTC()
}
