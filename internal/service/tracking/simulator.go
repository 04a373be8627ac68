package tracking

import (
	"sync"
	"time"

	"shopflow-tracking/internal/schedule"
)

// Simulator keeps at most one repeating movement task per order.
type Simulator struct {
	sched    schedule.Scheduler
	interval time.Duration
	metrics  Metrics

	mu     sync.Mutex
	gen    uint64
	runs   map[string]simRun
	closed bool
}

type simRun struct {
	gen  uint64
	task schedule.Task
}

// NewSimulator returns a simulator ticking every interval on sched.
func NewSimulator(sched schedule.Scheduler, interval time.Duration, m Metrics) *Simulator {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if m == nil {
		m = nopMetrics{}
	}
	return &Simulator{
		sched:    sched,
		interval: interval,
		metrics:  m,
		runs:     make(map[string]simRun),
	}
}

// Start schedules tick for orderID, replacing the running task if any.
// tick receives the generation of its run so it can detect that it has been
// superseded. Start returns that generation, or 0 after Close.
func (s *Simulator) Start(orderID string, tick func(gen uint64)) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	s.stopLocked(orderID)

	s.gen++
	gen := s.gen
	task := s.sched.Every(s.interval, func() { tick(gen) })
	s.runs[orderID] = simRun{gen: gen, task: task}
	s.metrics.SimulationStarted()
	return gen
}

// Cancel stops the task for orderID. It reports whether one was running.
func (s *Simulator) Cancel(orderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked(orderID)
}

// Finish stops the task for orderID only if gen is still the current run.
func (s *Simulator) Finish(orderID string, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.runs[orderID]; !ok || r.gen != gen {
		return false
	}
	return s.stopLocked(orderID)
}

// Current reports whether gen is the running generation for orderID.
func (s *Simulator) Current(orderID string, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[orderID]
	return ok && r.gen == gen
}

// Running reports whether a task is scheduled for orderID.
func (s *Simulator) Running(orderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.runs[orderID]
	return ok
}

// Active returns the number of running tasks.
func (s *Simulator) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runs)
}

// Close stops every task. Later Start calls are ignored.
func (s *Simulator) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.runs {
		s.stopLocked(id)
	}
	s.closed = true
}

func (s *Simulator) stopLocked(orderID string) bool {
	r, ok := s.runs[orderID]
	if !ok {
		return false
	}
	r.task.Stop()
	delete(s.runs, orderID)
	s.metrics.SimulationStopped()
	return true
}
