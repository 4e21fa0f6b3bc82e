package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"tasker/internal/dashboard"
	httpserver "tasker/internal/http"
	"tasker/internal/http/handlers"
	"tasker/internal/repository"
	"tasker/internal/service"
	"tasker/internal/session"
	"tasker/internal/store"
	"tasker/internal/timer"
	"tasker/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
)

func newServer(t *testing.T, db *pgxpool.Pool) *httptest.Server {
	t.Helper()
	cache := dashboard.NewMemoryCache(time.Minute)
	st := store.New(
		repository.NewTaskRepository(db),
		repository.NewCategoryRepository(db),
		repository.NewTimeEntryRepository(db),
		dashboard.NewInvalidatingNotifier(store.NewMemoryNotifier(), cache),
	)
	timers := timer.NewRegistry()
	t.Cleanup(timers.Close)

	h := &handlers.Handler{
		Store:     st,
		Identity:  service.NewIdentity(repository.NewUserRepository(db), service.NewPasswordHasher(4), nil),
		Tokens:    service.NewTokenIssuer("test-secret", "tasker", time.Hour),
		Snapshots: dashboard.NewSnapshotService(st, cache),
		Timers:    timers,
		Saver:     timer.NewSaver(st),
		Keys:      session.NewMemoryKeyStore(),
		Hub:       ws.NewHub(),
		Live:      &ws.Live{Gateway: st, Notifier: st.Notifier(), Timers: timers, LoginPath: "/login"},
		LoginPath: "/login",
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	httpserver.RegisterRoutes(r, h, handlers.NewHealthHandler(db, nil, "test"), nil, httpserver.Limits{Auth: 100, API: 100})
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func TestE2E_LiveDashboard(t *testing.T) {
	db := connect(t)
	ts := newServer(t, db)

	jar, _ := cookiejar.New(nil)
	client := &http.Client{
		Jar: jar,
		// keep the logout redirect visible
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}

	email := "e2e-" + uuid.NewString()[:8] + "@example.com"
	form := url.Values{"name": {"E2E"}, "email": {email}, "password": {"secret123"}}
	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/register", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("register: expected 201 got %d", res.StatusCode)
	}
	t.Cleanup(func() {
		_, _ = db.Exec(context.Background(), `DELETE FROM users WHERE email = $1`, email)
	})

	base, _ := url.Parse(ts.URL)
	var cookie string
	for _, c := range jar.Cookies(base) {
		if c.Name == session.CookieName {
			cookie = c.Value
		}
	}
	if cookie == "" {
		t.Fatalf("no session cookie after register")
	}

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws?client=" + uuid.NewString()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Cookie": {session.CookieName + "=" + cookie}})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	msgs := make(chan ws.Message, 32)
	go func() {
		defer close(msgs)
		for {
			var m ws.Message
			if err := conn.ReadJSON(&m); err != nil {
				return
			}
			msgs <- m
		}
	}()

	waitFor := func(typ string, ok func(ws.Message) bool) ws.Message {
		t.Helper()
		deadline := time.After(5 * time.Second)
		for {
			select {
			case m, open := <-msgs:
				if !open {
					t.Fatalf("connection closed while waiting for %s", typ)
				}
				if m.Type == typ && (ok == nil || ok(m)) {
					return m
				}
			case <-deadline:
				t.Fatalf("timed out waiting for %s", typ)
			}
		}
	}

	waitFor(ws.MsgDashboard, nil)

	req, _ = http.NewRequest(http.MethodPost, ts.URL+"/api/tasks", strings.NewReader(`{"title":"Live task"}`))
	req.Header.Set("Content-Type", "application/json")
	res, err = client.Do(req)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create task: expected 201 got %d", res.StatusCode)
	}

	waitFor(ws.MsgDashboard, func(m ws.Message) bool {
		var v dashboard.View
		_ = json.Unmarshal(m.Data, &v)
		return v.Summary.Stats.Total == 1
	})

	res, err = client.Get(ts.URL + "/api/logout")
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusFound {
		t.Fatalf("logout: expected 302 got %d", res.StatusCode)
	}

	m := waitFor(ws.MsgRedirect, nil)
	var p ws.RedirectPayload
	_ = json.Unmarshal(m.Data, &p)
	if p.Location != "/login" {
		t.Fatalf("expected redirect to /login, got %q", p.Location)
	}
}
