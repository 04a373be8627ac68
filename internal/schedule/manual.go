package schedule

import (
	"sync"
	"time"
)

// Manual is a Clock and Scheduler driven by Advance. Callbacks run
// synchronously on the goroutine calling Advance, in due-time order.
type Manual struct {
	mu    sync.Mutex
	now   time.Time
	tasks []*manualTask
}

// NewManual returns a manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now implements Clock.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Every implements Scheduler. The first run is due one interval from now.
func (m *Manual) Every(interval time.Duration, fn func()) Task {
	if interval <= 0 {
		interval = time.Nanosecond
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTask{owner: m, interval: interval, next: m.now.Add(interval), fn: fn}
	m.tasks = append(m.tasks, t)
	return t
}

// Advance moves the clock forward by d, firing every run that falls due on the way.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		t := m.nextDueLocked(target)
		if t == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = t.next
		t.next = t.next.Add(t.interval)
		fn := t.fn
		m.mu.Unlock()

		fn()
	}
}

// Pending returns the number of tasks that have not been stopped.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

func (m *Manual) nextDueLocked(target time.Time) *manualTask {
	var due *manualTask
	for _, t := range m.tasks {
		if t.next.After(target) {
			continue
		}
		if due == nil || t.next.Before(due.next) {
			due = t
		}
	}
	return due
}

func (m *Manual) remove(t *manualTask) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, v := range m.tasks {
		if v == t {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return
		}
	}
}

type manualTask struct {
	owner    *Manual
	interval time.Duration
	next     time.Time
	fn       func()
}

func (t *manualTask) Stop() { t.owner.remove(t) }

var (
	_ Clock     = (*Manual)(nil)
	_ Scheduler = (*Manual)(nil)
)
