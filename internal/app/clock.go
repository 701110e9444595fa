package app

import "time"

// Clock abstracts the time calls the orchestrator makes.
type Clock interface {
	Now() time.Time
	// AfterFunc calls f after d. The returned func cancels a pending call
	// and reports whether it did.
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}
