package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"tasker/internal/apperr"
	"tasker/internal/dashboard"
	"tasker/internal/domain"
	"tasker/internal/http/handlers"
	"tasker/internal/service"
	"tasker/internal/session"
	"tasker/internal/store/storetest"
	"tasker/internal/timer"
	"tasker/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type oneUser struct{ u *domain.User }

func (o oneUser) SignUp(context.Context, string, string, string) (*domain.User, error) {
	return nil, apperr.New(apperr.CodeOperationNotAllowed, "")
}

func (o oneUser) SignIn(context.Context, string, string) (*domain.User, error) { return o.u, nil }

func (o oneUser) User(_ context.Context, id string) (*domain.User, error) {
	if id != o.u.ID {
		return nil, apperr.ErrNotFound
	}
	return o.u, nil
}

type server struct {
	r      *gin.Engine
	h      *handlers.Handler
	cookie *http.Cookie
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st, _ := storetest.New()
	tokens := service.NewTokenIssuer("secret", "tasker", time.Hour)
	hub := ws.NewHub()
	timers := timer.NewRegistry()
	t.Cleanup(timers.Close)

	h := &handlers.Handler{
		Store:     st,
		Identity:  oneUser{u: &domain.User{ID: "u1", Email: "ann@example.com", DisplayName: "Ann"}},
		Tokens:    tokens,
		Snapshots: dashboard.NewSnapshotService(st, dashboard.NewMemoryCache(time.Minute)),
		Timers:    timers,
		Saver:     timer.NewSaver(st),
		Keys:      session.NewMemoryKeyStore(),
		Hub:       hub,
		Live:      &ws.Live{Gateway: st, Notifier: st.Notifier(), Timers: timers, LoginPath: "/login"},
		LoginPath: "/login",
	}
	health := handlers.NewHealthHandler(handlers.PingFunc(func(context.Context) error { return nil }), nil, "test")

	r := gin.New()
	RegisterRoutes(r, h, health, nil, Limits{Auth: 100, API: 100})

	token, _, err := tokens.Issue(&domain.User{ID: "u1", Email: "ann@example.com"})
	require.NoError(t, err)
	return &server{r: r, h: h, cookie: &http.Cookie{Name: session.CookieName, Value: token}}
}

func (s *server) do(method, path, body string, signedIn bool) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if signedIn {
		req.AddCookie(s.cookie)
	}
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	return w
}

func TestAPIRequiresSession(t *testing.T) {
	s := newServer(t)

	w := s.do(http.MethodGet, "/api/tasks", "", false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Please sign in to continue"}`, w.Body.String())

	w = s.do(http.MethodGet, "/dashboard", "", false)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/login?error="))

	w = s.do(http.MethodGet, "/dashboard", "", true)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTaskLifecycle(t *testing.T) {
	s := newServer(t)

	w := s.do(http.MethodPost, "/api/tasks", `{"title":"Write report","project":"Work","priority":"high"}`, true)
	require.Equal(t, http.StatusCreated, w.Code)
	var created domain.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "u1", created.UserID)
	assert.Equal(t, domain.PriorityHigh, created.Priority)

	w = s.do(http.MethodPost, "/api/tasks", `{"title":"x"}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "at least 2 characters")

	w = s.do(http.MethodPost, "/api/tasks/"+created.ID+"/toggle", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"completed":true`)

	w = s.do(http.MethodPatch, "/api/tasks/"+created.ID, `{"title":"Write final report"}`, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Write final report")

	w = s.do(http.MethodGet, "/api/tasks", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Tasks []domain.Task `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Tasks, 1)

	w = s.do(http.MethodDelete, "/api/tasks/"+created.ID, "", true)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodPost, "/api/tasks/"+created.ID+"/toggle", "", true)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDashboardIsCachedUntilChange(t *testing.T) {
	s := newServer(t)

	w := s.do(http.MethodGet, "/api/dashboard", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "miss", w.Header().Get("X-Cache"))

	w = s.do(http.MethodGet, "/api/dashboard", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hit", w.Header().Get("X-Cache"))

	var v dashboard.View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	assert.True(t, v.Ready)
	assert.Equal(t, 0, v.Summary.Stats.Total)

	w = s.do(http.MethodGet, "/api/dashboard?preset=nope", "", true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Unknown date range")
}

func TestTimerRejectsEmptySave(t *testing.T) {
	s := newServer(t)

	w := s.do(http.MethodGet, "/api/timer", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"running":false,"elapsed":0,"display":"00:00:00"}`, w.Body.String())

	w = s.do(http.MethodPost, "/api/timer/start", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"running":true`)

	w = s.do(http.MethodPost, "/api/timer/save", `{"task_name":"Reading"}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Start the timer before saving")
}

func TestTimerConcurrentSavesRecordOneEntry(t *testing.T) {
	s := newServer(t)
	s.h.Timers.Get("u1").Restore(5 * time.Second)

	const n = 8
	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = s.do(http.MethodPost, "/api/timer/save", `{"task_name":"Reading"}`, true).Code
		}(i)
	}
	wg.Wait()

	created := 0
	for _, code := range codes {
		if code == http.StatusCreated {
			created++
		} else {
			assert.Equal(t, http.StatusBadRequest, code)
		}
	}
	assert.Equal(t, 1, created)

	w := s.do(http.MethodGet, "/api/time-entries", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		TimeEntries []domain.TimeEntry `json:"time_entries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.TimeEntries, 1)
	assert.Equal(t, int64(5), body.TimeEntries[0].Duration)
	assert.Zero(t, s.h.Timers.Get("u1").Elapsed())
}

func TestTimerKeepsRunWhenSaveFails(t *testing.T) {
	s := newServer(t)
	s.h.Timers.Get("u1").Restore(5 * time.Second)

	w := s.do(http.MethodPost, "/api/timer/save", `{"task_name":"  "}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 5*time.Second, s.h.Timers.Get("u1").Elapsed())
}

func TestExports(t *testing.T) {
	s := newServer(t)
	s.do(http.MethodPost, "/api/tasks", `{"title":"Write report","project":"Work"}`, true)
	s.do(http.MethodPost, "/api/tasks", `{"title":"Buy milk"}`, true)

	w := s.do(http.MethodGet, "/api/export/tasks.csv", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, 3, strings.Count(w.Body.String(), "\n"))

	w = s.do(http.MethodGet, "/api/export/report.txt?project=Work", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "TASKER - TASK REPORT")
	assert.Contains(t, w.Body.String(), "Write report")
	assert.NotContains(t, w.Body.String(), "Buy milk")
}

func TestHealthAndMetrics(t *testing.T) {
	s := newServer(t)

	w := s.do(http.MethodGet, "/healthz", "", false)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/readyz", "", false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"disabled"`)

	w = s.do(http.MethodGet, "/metrics", "", false)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadinessFailsWithoutDatabase(t *testing.T) {
	gin.SetMode(gin.TestMode)
	health := handlers.NewHealthHandler(handlers.PingFunc(func(context.Context) error { return errors.New("down") }), nil, "test")
	r := gin.New()
	r.GET("/readyz", health.Readiness)
	r.GET("/health", health.Health)

	for _, path := range []string{"/readyz", "/health"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
	}
}

func TestCategoriesAndTimeEntries(t *testing.T) {
	s := newServer(t)

	w := s.do(http.MethodPost, "/api/categories", `{"name":"Work","color":"#3b82f6"}`, true)
	require.Equal(t, http.StatusCreated, w.Code)
	var cat domain.Category
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cat))

	w = s.do(http.MethodGet, "/api/categories", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Work"`)

	w = s.do(http.MethodDelete, "/api/categories/"+cat.ID, "", true)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodPost, "/api/tasks", `{"title":"Write report"}`, true)
	require.Equal(t, http.StatusCreated, w.Code)
	var task domain.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))

	end := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	start := end.Add(-30 * time.Minute)
	body := `{"task_id":"` + task.ID + `","start":"` + start.Format(time.RFC3339) + `","end":"` + end.Format(time.RFC3339) + `"}`
	w = s.do(http.MethodPost, "/api/time-entries", body, true)
	require.Equal(t, http.StatusCreated, w.Code)
	var entry domain.TimeEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
	assert.Equal(t, int64(1800), entry.Duration)
	assert.Equal(t, "Write report", entry.TaskName)

	w = s.do(http.MethodGet, "/api/time-entries", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), entry.ID)

	w = s.do(http.MethodDelete, "/api/time-entries/"+entry.ID, "", true)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
