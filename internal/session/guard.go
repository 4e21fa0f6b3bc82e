package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"tasker/internal/logger"
	"tasker/internal/service"
)

type State int

const (
	Initializing State = iota
	Authorized
	Unauthorized
)

func (s State) String() string {
	switch s {
	case Authorized:
		return "authorized"
	case Unauthorized:
		return "unauthorized"
	default:
		return "initializing"
	}
}

// Render is what a guarded view shows for the current state.
type Render int

const (
	RenderFallback Render = iota
	RenderProtected
	RenderUnauthorized
)

// Confirmer checks a server-issued session synchronously. The guard asks it
// before redirecting when the first resolution reports no user.
type Confirmer interface {
	Confirm(ctx context.Context) bool
}

// ConfirmFunc adapts a func to Confirmer.
type ConfirmFunc func(ctx context.Context) bool

func (f ConfirmFunc) Confirm(ctx context.Context) bool { return f(ctx) }

// CookieConfirmer confirms a session cookie value.
func CookieConfirmer(token string, opts service.VerifyOptions, now func() time.Time) Confirmer {
	return ConfirmFunc(func(context.Context) bool {
		_, err := service.VerifySessionToken(token, now(), opts)
		return err == nil
	})
}

type GuardOption func(*Guard)

func WithConfirmer(c Confirmer) GuardOption {
	return func(g *Guard) { g.confirm = c }
}

func WithGuardLogger(l *slog.Logger) GuardOption {
	return func(g *Guard) { g.log = l }
}

// Guard gates protected content on resolved auth state. An unauthorized
// resolution calls redirect with the login path once; it is not called
// again until a user has been authorized in between.
type Guard struct {
	loginPath string
	redirect  func(path string)
	confirm   Confirmer
	log       *slog.Logger

	mu         sync.Mutex
	state      State
	redirected bool
}

func NewGuard(loginPath string, redirect func(path string), opts ...GuardOption) *Guard {
	g := &Guard{
		loginPath: loginPath,
		redirect:  redirect,
		log:       logger.With("component", "guard"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Guard) Render() Render {
	switch g.State() {
	case Authorized:
		return RenderProtected
	case Unauthorized:
		return RenderUnauthorized
	default:
		return RenderFallback
	}
}

// Resolve applies an auth resolution. An error counts as no user and
// skips the confirmer.
func (g *Guard) Resolve(ctx context.Context, u *service.Session, err error) State {
	failed := err != nil
	if failed {
		g.log.Warn("auth resolution failed", "error", err)
		u = nil
	}

	g.mu.Lock()
	first := g.state == Initializing
	g.mu.Unlock()

	// The confirmer call may block, so it runs outside the lock.
	authorized := u != nil
	if !authorized && first && !failed && g.confirm != nil {
		authorized = g.confirm.Confirm(ctx)
	}

	g.mu.Lock()
	var fire bool
	if authorized {
		g.state = Authorized
		g.redirected = false
	} else {
		g.state = Unauthorized
		fire = !g.redirected
		g.redirected = true
	}
	state := g.state
	g.mu.Unlock()

	if fire && g.redirect != nil {
		g.log.Info("redirecting to login", "path", g.loginPath)
		g.redirect(g.loginPath)
	}
	return state
}

// Attach initializes sc and resolves g on every later change. The returned
// func stops following sc.
func (g *Guard) Attach(ctx context.Context, sc *Context) func() {
	_, err := sc.Init(ctx)
	stop := sc.OnChange(func(u *service.Session) {
		g.Resolve(ctx, u, nil)
	})
	g.Resolve(ctx, sc.User(), err)
	return stop
}
