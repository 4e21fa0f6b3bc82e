// Package session tracks who is signed in for one client and gates
// protected content on that state.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"tasker/internal/logger"
	"tasker/internal/service"
)

// Resolver looks up the signed-in user. A nil session with a nil error
// means nobody is signed in.
type Resolver func(ctx context.Context) (*service.Session, error)

// TokenResolver resolves the user from a session cookie value.
func TokenResolver(token string, opts service.VerifyOptions, now func() time.Time) Resolver {
	return func(context.Context) (*service.Session, error) {
		if token == "" {
			return nil, nil
		}
		return service.VerifySessionToken(token, now(), opts)
	}
}

// Context holds the current user of one client. Init resolves once;
// concurrent callers wait for and share that result.
type Context struct {
	client  string
	resolve Resolver
	keys    KeyStore
	log     *slog.Logger

	once    sync.Once
	initErr error

	mu        sync.Mutex
	user      *service.Session
	ready     bool
	nextID    int
	listeners map[int]func(*service.Session)
}

// NewContext builds a session context for client. A nil KeyStore keeps the
// last-known id in memory.
func NewContext(client string, resolve Resolver, keys KeyStore) *Context {
	if keys == nil {
		keys = NewMemoryKeyStore()
	}
	return &Context{
		client:    client,
		resolve:   resolve,
		keys:      keys,
		log:       logger.With("component", "session", "client", client),
		listeners: make(map[int]func(*service.Session)),
	}
}

// Init resolves the current user. Only the first call runs the resolver.
// A resolver error leaves the context signed out and is returned to every
// caller.
func (c *Context) Init(ctx context.Context) (*service.Session, error) {
	c.once.Do(func() {
		u, err := c.resolve(ctx)
		if err != nil {
			c.log.Warn("session init failed", "error", err)
			c.initErr = err
			u = nil
		}
		c.Set(ctx, u)
	})
	return c.User(), c.initErr
}

// Ready reports whether the user has been resolved or set.
func (c *Context) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

func (c *Context) User() *service.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

// CurrentUserID returns the resolved user's id, or before initialization
// the last-known id from the key store.
func (c *Context) CurrentUserID(ctx context.Context) string {
	c.mu.Lock()
	if c.ready {
		defer c.mu.Unlock()
		if c.user == nil {
			return ""
		}
		return c.user.UserID
	}
	c.mu.Unlock()

	id, err := c.keys.Get(ctx, c.client)
	if err != nil {
		c.log.Warn("last user lookup failed", "error", err)
		return ""
	}
	return id
}

// Set records u as the current user (nil signs out), persists the
// last-known id and notifies listeners.
func (c *Context) Set(ctx context.Context, u *service.Session) {
	c.mu.Lock()
	c.user = u
	c.ready = true
	fns := make([]func(*service.Session), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	var err error
	if u != nil {
		err = c.keys.Put(ctx, c.client, u.UserID)
	} else {
		err = c.keys.Delete(ctx, c.client)
	}
	if err != nil {
		c.log.Warn("last user persist failed", "error", err)
	}

	for _, fn := range fns {
		fn(u)
	}
}

// OnChange registers fn for every later Set. The returned func removes it.
func (c *Context) OnChange(fn func(*service.Session)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}
