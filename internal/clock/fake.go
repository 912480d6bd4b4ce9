package clock

import "time"

// FakeClock holds a fixed instant that tests move forward explicitly.
// Usage-period and rate-limit window tests drive it across boundaries.
type FakeClock struct {
	now time.Time
}

func NewFakeClock(at time.Time) *FakeClock {
	return &FakeClock{now: at.UTC()}
}

func (f *FakeClock) Now() time.Time { return f.now }

func (f *FakeClock) Advance(d time.Duration) {
	f.now = f.now.Add(d)
}
