package client

import "time"

// Clock schedules callbacks. Tests substitute a manual clock.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a scheduled callback.
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// scheduler owns at most one pending task. Its fields belong to the session
// loop; the timer callback only posts back to the loop, where a generation
// check turns a task that fired after being cancelled into a no-op.
type scheduler struct {
	clock Clock
	post  func(func()) bool

	gen   uint64
	timer Timer
}

func newScheduler(clock Clock, post func(func()) bool) *scheduler {
	return &scheduler{clock: clock, post: post}
}

// schedule replaces any pending task with fn after d.
func (s *scheduler) schedule(d time.Duration, fn func()) {
	s.cancel()
	gen := s.gen
	s.timer = s.clock.AfterFunc(d, func() {
		s.post(func() {
			if s.gen != gen || s.timer == nil {
				return
			}
			s.timer = nil
			fn()
		})
	})
}

// cancel drops the pending task, if any.
func (s *scheduler) cancel() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

func (s *scheduler) pending() bool {
	return s.timer != nil
}
