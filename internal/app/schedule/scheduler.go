/*
Package schedule runs delayed tasks grouped by a key.

Room and session services use it for the delayed handshake completion and the
delayed audio synthesis. Canceling a key drops every pending task of that
group; a task that already started is not interrupted.
*/
package schedule

import (
	"sync"
	"time"
)

// Scheduler owns a set of keyed time.AfterFunc timers.
type Scheduler struct {
	mu      sync.Mutex
	tasks   map[string]map[uint64]*time.Timer
	nextID  uint64
	stopped bool
}

// New returns an empty scheduler.
func New() *Scheduler {
	return &Scheduler{
		tasks: make(map[string]map[uint64]*time.Timer),
	}
}

// After runs fn once d has elapsed unless key is canceled first. It returns
// false when the scheduler has been stopped.
func (s *Scheduler) After(key string, d time.Duration, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return false
	}

	s.nextID++
	id := s.nextID

	group, ok := s.tasks[key]
	if !ok {
		group = make(map[uint64]*time.Timer)
		s.tasks[key] = group
	}

	group[id] = time.AfterFunc(d, func() {
		if !s.claim(key, id) {
			return
		}
		fn()
	})

	return true
}

// claim removes a fired task and reports whether it was still pending.
func (s *Scheduler) claim(key string, id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	group, ok := s.tasks[key]
	if !ok {
		return false
	}
	if _, ok := group[id]; !ok {
		return false
	}

	delete(group, id)
	if len(group) == 0 {
		delete(s.tasks, key)
	}

	return true
}

// Cancel drops all pending tasks under key and returns how many were dropped.
func (s *Scheduler) Cancel(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	group := s.tasks[key]
	for _, timer := range group {
		timer.Stop()
	}
	delete(s.tasks, key)

	return len(group)
}

// Pending returns the number of tasks still waiting under key.
func (s *Scheduler) Pending(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.tasks[key])
}

// Stop cancels every pending task and rejects new ones.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for key, group := range s.tasks {
		for _, timer := range group {
			timer.Stop()
		}
		delete(s.tasks, key)
	}
}
