// Package schedule provides cancelable delayed tasks. Real wraps the
// runtime timer; Manual is a hand-driven clock for tests.
package schedule

import (
	"sort"
	"sync"
	"time"
)

// Task is a handle to a scheduled callback.
type Task interface {
	// Stop cancels the callback. It reports whether the call prevented it
	// from running.
	Stop() bool
}

type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Task
}

// Real schedules on time.AfterFunc.
type Real struct{}

func (Real) AfterFunc(d time.Duration, fn func()) Task {
	return time.AfterFunc(d, fn)
}

// Manual fires callbacks only when Advance moves its clock past their
// deadline. Callbacks run on the goroutine calling Advance.
type Manual struct {
	mu    sync.Mutex
	now   time.Duration
	seq   int
	tasks []*manualTask
}

type manualTask struct {
	m    *Manual
	at   time.Duration
	seq  int
	fn   func()
	done bool
}

func NewManual() *Manual { return &Manual{} }

func (m *Manual) AfterFunc(d time.Duration, fn func()) Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d < 0 {
		d = 0
	}
	m.seq++
	t := &manualTask{m: m, at: m.now + d, seq: m.seq, fn: fn}
	m.tasks = append(m.tasks, t)
	return t
}

func (t *manualTask) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	t.m.removeLocked(t)
	return true
}

// Advance moves the clock forward by d and runs every task that became due,
// earliest first.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now += d
	now := m.now
	m.mu.Unlock()

	for {
		m.mu.Lock()
		due := m.nextDueLocked(now)
		if due == nil {
			m.mu.Unlock()
			return
		}
		due.done = true
		m.removeLocked(due)
		m.mu.Unlock()
		due.fn()
	}
}

// Pending reports how many tasks are scheduled and not yet fired or stopped.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// Now is the elapsed manual time.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) nextDueLocked(now time.Duration) *manualTask {
	if len(m.tasks) == 0 {
		return nil
	}
	sort.SliceStable(m.tasks, func(i, j int) bool {
		if m.tasks[i].at != m.tasks[j].at {
			return m.tasks[i].at < m.tasks[j].at
		}
		return m.tasks[i].seq < m.tasks[j].seq
	})
	if m.tasks[0].at > now {
		return nil
	}
	return m.tasks[0]
}

func (m *Manual) removeLocked(t *manualTask) {
	for i, cur := range m.tasks {
		if cur == t {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return
		}
	}
}
