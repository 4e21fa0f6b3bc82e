package timer

import "sync"

// Registry holds one stopwatch per user.
type Registry struct {
	mu    sync.Mutex
	opts  []Option
	users map[string]*Stopwatch
}

func NewRegistry(opts ...Option) *Registry {
	return &Registry{opts: opts, users: make(map[string]*Stopwatch)}
}

// Get returns the user's stopwatch, creating it on first use.
func (r *Registry) Get(userID string) *Stopwatch {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.users[userID]
	if !ok {
		s = NewStopwatch(r.opts...)
		r.users[userID] = s
	}
	return s
}

// Remove closes and forgets the user's stopwatch.
func (r *Registry) Remove(userID string) {
	r.mu.Lock()
	s, ok := r.users[userID]
	delete(r.users, userID)
	r.mu.Unlock()
	if ok {
		s.Close()
	}
}

// Close closes every stopwatch.
func (r *Registry) Close() {
	r.mu.Lock()
	all := r.users
	r.users = make(map[string]*Stopwatch)
	r.mu.Unlock()
	for _, s := range all {
		s.Close()
	}
}
