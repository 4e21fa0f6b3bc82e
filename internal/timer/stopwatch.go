// Package timer implements the per-user stopwatch used to track work on a
// task and the saving of finished runs.
package timer

import (
	"sync"
	"time"
)

// DefaultInterval is how often OnTick listeners are called while running.
const DefaultInterval = time.Second

type Option func(*Stopwatch)

func WithInterval(d time.Duration) Option { return func(s *Stopwatch) { s.interval = d } }

func WithClock(now func() time.Time) Option { return func(s *Stopwatch) { s.now = now } }

// Stopwatch measures running time across start/pause cycles. Listener
// callbacks run on the tick goroutine and must not call Pause, Reset or
// Close.
type Stopwatch struct {
	interval time.Duration
	now      func() time.Time

	mu          sync.Mutex
	running     bool
	startedAt   time.Time
	accumulated time.Duration
	closed      bool
	nextID      int
	listeners   map[int]func(time.Duration)
	stopTick    chan struct{}
	tickDone    chan struct{}
}

func NewStopwatch(opts ...Option) *Stopwatch {
	s := &Stopwatch{
		interval:  DefaultInterval,
		now:       time.Now,
		listeners: make(map[int]func(time.Duration)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start resumes timing. It reports false when already running or closed.
func (s *Stopwatch) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running || s.closed {
		return false
	}
	s.running = true
	s.startedAt = s.now()
	s.stopTick = make(chan struct{})
	s.tickDone = make(chan struct{})
	go s.tick(s.stopTick, s.tickDone)
	return true
}

// Pause stops timing and keeps the elapsed time. No tick is delivered
// after it returns.
func (s *Stopwatch) Pause() {
	s.mu.Lock()
	done := s.stopLocked()
	s.mu.Unlock()
	wait(done)
}

// Reset stops timing and zeroes the elapsed time.
func (s *Stopwatch) Reset() {
	s.mu.Lock()
	done := s.stopLocked()
	s.accumulated = 0
	s.mu.Unlock()
	wait(done)
}

// Take stops timing and returns the elapsed time, zeroing it in the same
// step. Concurrent callers never get the same run twice.
func (s *Stopwatch) Take() time.Duration {
	s.mu.Lock()
	done := s.stopLocked()
	d := s.elapsed()
	s.accumulated = 0
	s.mu.Unlock()
	wait(done)
	return d
}

// Restore adds d back, undoing a Take whose run could not be used.
func (s *Stopwatch) Restore(d time.Duration) {
	s.mu.Lock()
	s.accumulated += d
	s.mu.Unlock()
}

// Close stops the stopwatch for good and drops its listeners.
func (s *Stopwatch) Close() {
	s.mu.Lock()
	done := s.stopLocked()
	s.closed = true
	s.listeners = make(map[int]func(time.Duration))
	s.mu.Unlock()
	wait(done)
}

// stopLocked signals the tick goroutine to stop and returns the channel
// closed when it has. Callers wait on it after releasing s.mu, even when
// another caller did the stopping.
func (s *Stopwatch) stopLocked() chan struct{} {
	if s.running {
		s.accumulated += s.now().Sub(s.startedAt)
		s.running = false
		close(s.stopTick)
	}
	return s.tickDone
}

func wait(done chan struct{}) {
	if done != nil {
		<-done
	}
}

func (s *Stopwatch) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Elapsed is the total running time in whole seconds.
func (s *Stopwatch) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed()
}

func (s *Stopwatch) elapsed() time.Duration {
	d := s.accumulated
	if s.running {
		d += s.now().Sub(s.startedAt)
	}
	return d.Truncate(time.Second)
}

// OnTick registers fn to receive the elapsed time on every tick. The
// returned func removes it.
func (s *Stopwatch) OnTick(fn func(elapsed time.Duration)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Stopwatch) tick(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	t := time.NewTicker(s.interval)
	defer t.Stop()

	for {
		select {
		case <-stop:
			return
		case <-t.C:
		}

		s.mu.Lock()
		elapsed := s.elapsed()
		fns := make([]func(time.Duration), 0, len(s.listeners))
		for _, fn := range s.listeners {
			fns = append(fns, fn)
		}
		s.mu.Unlock()

		for _, fn := range fns {
			select {
			case <-stop:
				return
			default:
			}
			fn(elapsed)
		}
	}
}
