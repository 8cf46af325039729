package kernel

import "time"

// Clock is the wall-clock source for urgency evaluation and transition stamps.
// Production code uses SystemClock; tests pin time with FixedClock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

// FixedClock always returns the same instant.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}
