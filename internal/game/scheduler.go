package game

import "time"

// CancelFunc stops a scheduled call. Reports whether the call was stopped
// before it ran.
type CancelFunc func() bool

// Scheduler runs a function once after a delay. The engine drives every
// question timeout and reveal pause through this so both stay cancellable
// and tests can fire them deterministically.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) CancelFunc
}

type timerScheduler struct{}

// NewTimerScheduler returns the production scheduler backed by time.AfterFunc.
func NewTimerScheduler() Scheduler { return timerScheduler{} }

func (timerScheduler) Schedule(d time.Duration, fn func()) CancelFunc {
	t := time.AfterFunc(d, fn)
	return t.Stop
}
