package ws

import (
	"context"
	"encoding/json"
	"time"

	"tasker/internal/apperr"
	"tasker/internal/dashboard"
	"tasker/internal/session"
	"tasker/internal/store"
	"tasker/internal/timer"
	"tasker/internal/timeutil"
	"tasker/internal/validation"
)

// Live streams a user's dashboard and stopwatch over one connection and
// redirects the browser once the session ends.
type Live struct {
	Gateway   dashboard.Gateway
	Notifier  store.Notifier
	Timers    *timer.Registry
	LoginPath string
	Now       func() time.Time
	Options   []dashboard.Option
}

// Sink is where Serve writes; *Client implements it.
type Sink interface {
	Emit(msgType string, data any)
	Close()
}

// TimerState renders a stopwatch for the timer message.
func TimerState(sw *timer.Stopwatch) TimerPayload {
	secs := int64(sw.Elapsed() / time.Second)
	return TimerPayload{Running: sw.Running(), Elapsed: secs, Display: timeutil.FormatTimer(secs)}
}

// Serve runs until ctx is done. It returns the inbound message handler
// to pass to Client.Run; the session is torn down when ctx ends.
func (l *Live) Serve(ctx context.Context, out Sink, sc *session.Context, confirm session.Confirmer) func(Message) {
	now := l.Now
	if now == nil {
		now = time.Now
	}

	out.Emit(MsgLoading, nil)

	opts := []session.GuardOption{}
	if confirm != nil {
		opts = append(opts, session.WithConfirmer(confirm))
	}
	guard := session.NewGuard(l.LoginPath, func(path string) {
		out.Emit(MsgRedirect, RedirectPayload{Location: path})
		out.Close()
	}, opts...)

	stopGuard := guard.Attach(ctx, sc)
	if guard.State() != session.Authorized {
		stopGuard()
		return nil
	}
	userID := sc.CurrentUserID(ctx)
	if userID == "" {
		stopGuard()
		out.Emit(MsgError, ErrorPayload{Error: session.Reason(nil)})
		out.Close()
		return nil
	}

	ctrl := dashboard.NewController(l.Gateway, append([]dashboard.Option{dashboard.WithClock(now)}, l.Options...)...)
	ctrl.OnUpdate(func(v dashboard.View) {
		if v.Ready {
			out.Emit(MsgDashboard, v)
		}
	})
	if err := ctrl.Start(ctx, userID); err != nil {
		out.Emit(MsgError, ErrorPayload{Error: apperr.Message(err)})
	}

	var stopTick func()
	if l.Timers != nil {
		sw := l.Timers.Get(userID)
		out.Emit(MsgTimer, TimerState(sw))
		stopTick = sw.OnTick(func(time.Duration) {
			out.Emit(MsgTimer, TimerState(sw))
		})
	}

	if l.Notifier != nil {
		changes, err := l.Notifier.Listen(ctx, userID, store.Auth)
		if err == nil {
			go func() {
				for range changes {
					sc.Set(ctx, nil)
				}
			}()
		}
	}

	go func() {
		<-ctx.Done()
		if stopTick != nil {
			stopTick()
		}
		ctrl.Stop()
		stopGuard()
	}()

	return func(msg Message) {
		if msg.Type != MsgRange {
			return
		}
		var p RangePayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			out.Emit(MsgError, ErrorPayload{Error: "invalid range"})
			return
		}
		r, err := validation.Range(p.Preset, p.From, p.To, now())
		if err != nil {
			out.Emit(MsgError, ErrorPayload{Error: apperr.Message(err)})
			return
		}
		ctrl.SetRange(r)
	}
}
