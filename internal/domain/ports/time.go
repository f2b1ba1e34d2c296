package ports

import "time"

// TimeProvider is the clock behind cache ages, derived artifact names and
// compile durations
type TimeProvider interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

type wallClock struct{}

// NewRealTimeProvider returns the system wall clock
func NewRealTimeProvider() TimeProvider {
	return wallClock{}
}

func (wallClock) Now() time.Time                  { return time.Now() }
func (wallClock) Since(t time.Time) time.Duration { return time.Since(t) }
