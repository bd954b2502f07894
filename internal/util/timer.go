package util

import "time"

// Timer measures elapsed wall-clock time for a single check.
type Timer struct {
	start time.Time
}

// StartTimer begins timing.
func StartTimer() Timer {
	return Timer{start: time.Now()}
}

// ElapsedMs returns the elapsed milliseconds since the timer started.
func (t Timer) ElapsedMs() int64 {
	return time.Since(t.start).Milliseconds()
}
