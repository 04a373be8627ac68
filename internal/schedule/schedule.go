// Package schedule provides the clock and repeating-task primitives the
// delivery simulator runs on, with a wall-clock and a manually advanced
// implementation.
package schedule

import (
	"sync"
	"time"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// Task is a handle to a repeating callback.
type Task interface {
	// Stop cancels future runs. It is safe to call more than once and from
	// inside the callback itself.
	Stop()
}

// Scheduler runs fn every interval until the returned task is stopped.
type Scheduler interface {
	Every(interval time.Duration, fn func()) Task
}

// Real is the wall-clock Clock and Scheduler.
type Real struct{}

// NewReal returns the wall-clock implementation.
func NewReal() Real { return Real{} }

// Now implements Clock.
func (Real) Now() time.Time { return time.Now() }

// Every implements Scheduler. Each task owns a ticker goroutine that exits on Stop.
func (Real) Every(interval time.Duration, fn func()) Task {
	t := &realTask{done: make(chan struct{})}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-t.done:
				return
			case <-ticker.C:
				// Stop may race with a tick that was already delivered
				select {
				case <-t.done:
					return
				default:
				}
				fn()
			}
		}
	}()
	return t
}

type realTask struct {
	once sync.Once
	done chan struct{}
}

func (t *realTask) Stop() {
	t.once.Do(func() { close(t.done) })
}

var (
	_ Clock     = Real{}
	_ Scheduler = Real{}
)
