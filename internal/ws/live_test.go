package ws

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasker/internal/dashboard"
	"tasker/internal/domain"
	"tasker/internal/logger"
	"tasker/internal/service"
	"tasker/internal/session"
	"tasker/internal/store"
	"tasker/internal/store/storetest"
	"tasker/internal/timer"
)

type recordedSink struct {
	mu     sync.Mutex
	types  []string
	last   map[string]any
	closed bool
}

func (s *recordedSink) Emit(msgType string, data any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		s.last = map[string]any{}
	}
	s.types = append(s.types, msgType)
	s.last[msgType] = data
}

func (s *recordedSink) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *recordedSink) count(msgType string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.types {
		if t == msgType {
			n++
		}
	}
	return n
}

func (s *recordedSink) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *recordedSink) lastView() dashboard.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, _ := s.last[MsgDashboard].(dashboard.View)
	return v
}

func resolveTo(u *service.Session) session.Resolver {
	return func(context.Context) (*service.Session, error) { return u, nil }
}

func newLive(s *store.Store) *Live {
	return &Live{
		Gateway:   s,
		Notifier:  s.Notifier(),
		Timers:    timer.NewRegistry(timer.WithInterval(time.Hour)),
		LoginPath: "/login",
	}
}

func TestLiveRedirectsWithoutSession(t *testing.T) {
	s, _ := storetest.New()
	out := &recordedSink{}
	sc := session.NewContext("c1", resolveTo(nil), nil)

	handle := newLive(s).Serve(context.Background(), out, sc, nil)
	assert.Nil(t, handle)
	assert.Equal(t, []string{MsgLoading, MsgRedirect}, out.types)
	assert.Equal(t, RedirectPayload{Location: "/login"}, out.last[MsgRedirect])
	assert.True(t, out.isClosed())
}

func TestLiveStreamsDashboardUntilSignOut(t *testing.T) {
	s, _ := storetest.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &recordedSink{}
	sc := session.NewContext("c1", resolveTo(&service.Session{UserID: "u1"}), nil)
	handle := newLive(s).Serve(ctx, out, sc, nil)
	require.NotNil(t, handle)

	require.Eventually(t, func() bool { return out.count(MsgDashboard) >= 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, out.count(MsgTimer))
	assert.True(t, out.lastView().Summary.Empty)

	_, err := s.AddTask(ctx, "u1", domain.Task{Title: "Plan sprint", Project: "Work"})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return out.lastView().Summary.Stats.Total == 1 }, 2*time.Second, 5*time.Millisecond)

	before := out.count(MsgDashboard)
	data, _ := json.Marshal(RangePayload{Preset: "today"})
	handle(Message{Type: MsgRange, Data: data})
	assert.Equal(t, before+1, out.count(MsgDashboard))

	handle(Message{Type: MsgRange, Data: json.RawMessage(`{"preset":"someday"}`)})
	assert.Equal(t, 1, out.count(MsgError))

	s.NotifySignOut(ctx, "u1")
	require.Eventually(t, out.isClosed, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, out.count(MsgRedirect))
}

func TestTimerState(t *testing.T) {
	sw := timer.NewStopwatch(timer.WithInterval(time.Hour))
	defer sw.Close()
	assert.Equal(t, TimerPayload{Running: false, Elapsed: 0, Display: "00:00:00"}, TimerState(sw))
}

func TestHubCountsClients(t *testing.T) {
	h := NewHub()
	a := NewClient("u1", nil, h)
	b := NewClient("u1", nil, h)
	h.Register(a)
	h.Register(b)
	assert.Equal(t, 2, h.Count("u1"))

	h.Broadcast("u1", MsgTimer, TimerPayload{Elapsed: 3})
	assert.Len(t, a.Send, 1)
	assert.Len(t, b.Send, 1)

	h.Unregister(a)
	h.Unregister(a)
	assert.Equal(t, 1, h.Count("u1"))

	h.CloseAll()
	b.Emit(MsgTimer, nil)
	assert.Len(t, b.Send, 1)
}

func TestClientLogsResolvedUser(t *testing.T) {
	var buf bytes.Buffer
	c := NewClient("", nil, nil)
	c.log = logger.New(&buf, "debug", true).With("component", "ws")

	c.SetUser("u9")
	assert.Equal(t, "u9", c.UserID)

	c.Emit(MsgTimer, make(chan int))
	assert.Contains(t, buf.String(), `"user_id":"u9"`)
	assert.Contains(t, buf.String(), "ws marshal failed")
}
