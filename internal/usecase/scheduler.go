package usecase

import "time"

// Scheduler runs deferred actions off the event-processing path. A
// scheduled task must acquire whatever locks it needs itself, so it can
// never deadlock against the orchestrator's critical section.
type Scheduler interface {
	After(delay time.Duration, task func())
}

// TimerScheduler runs tasks on plain runtime timers.
type TimerScheduler struct{}

func (TimerScheduler) After(delay time.Duration, task func()) {
	time.AfterFunc(delay, task)
}
