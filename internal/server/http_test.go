package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alfredjeanlab/history/internal/deeplink"
	"github.com/alfredjeanlab/history/internal/events"
	"github.com/alfredjeanlab/history/internal/gate"
	"github.com/alfredjeanlab/history/internal/globe"
	"github.com/alfredjeanlab/history/internal/model"
	"github.com/alfredjeanlab/history/internal/quota"
	"github.com/alfredjeanlab/history/internal/resolver"
	"github.com/alfredjeanlab/history/internal/views"
)

// mockStore is an in-memory store.Store for handler tests.
type mockStore struct {
	mu    sync.Mutex
	tasks map[string]*model.ResearchTask
	usage map[string]int // actor|window -> count
}

func newMockStore() *mockStore {
	return &mockStore{
		tasks: make(map[string]*model.ResearchTask),
		usage: make(map[string]int),
	}
}

func (m *mockStore) CreateTask(_ context.Context, t *model.ResearchTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	cp := *t
	m.tasks[t.Token] = &cp
	return nil
}

func (m *mockStore) GetTask(_ context.Context, token string) (*model.ResearchTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *t
	return &cp, nil
}

func (m *mockStore) ListTasks(_ context.Context, filter model.TaskFilter) ([]*model.ResearchTask, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.ResearchTask
	for _, t := range m.tasks {
		if filter.CreatedBy != "" && t.CreatedBy != filter.CreatedBy {
			continue
		}
		if len(filter.Status) > 0 {
			match := false
			for _, s := range filter.Status {
				if t.Status == s {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		if !filter.Since.IsZero() && t.CreatedAt.Before(filter.Since) {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Token < out[j].Token })
	total := len(out)
	if filter.Offset > 0 {
		out = out[min(filter.Offset, len(out)):]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, total, nil
}

func (m *mockStore) UpdateTaskStatus(_ context.Context, token string, status model.TaskStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[token]
	if !ok {
		return sql.ErrNoRows
	}
	t.Status = status
	return nil
}

func usageKey(actor string, windowStart time.Time) string {
	return actor + "|" + windowStart.UTC().Format(time.RFC3339)
}

func (m *mockStore) GetUsage(_ context.Context, actor string, windowStart time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.usage[usageKey(actor, windowStart)], nil
}

func (m *mockStore) IncrementUsage(_ context.Context, actor string, windowStart time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := usageKey(actor, windowStart)
	m.usage[k]++
	return m.usage[k], nil
}

// usageOf sums the actor's usage across windows.
func (m *mockStore) usageOf(actor string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, v := range m.usage {
		if strings.HasPrefix(k, actor+"|") {
			n += v
		}
	}
	return n
}

func (m *mockStore) Close() error { return nil }

// capturePublisher records published events.
type capturePublisher struct {
	mu     sync.Mutex
	topics []string
	events []any
}

func (p *capturePublisher) Publish(_ context.Context, topic string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) find(topic string) (any, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, t := range p.topics {
		if t == topic {
			return p.events[i], true
		}
	}
	return nil, false
}

type testServer struct {
	srv     *HistoryServer
	store   *mockStore
	pub     *capturePublisher
	handler http.Handler
}

// newTestServer wires a HistoryServer over a mock store with the real quota
// gate, resolver and place catalog. quotaLimit is the per-day session quota.
func newTestServer(t *testing.T, quotaLimit int) *testServer {
	t.Helper()
	ms := newMockStore()
	pub := &capturePublisher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	counter, err := quota.NewWindowCounter(ms, quotaLimit, 24*time.Hour, nil)
	if err != nil {
		t.Fatal(err)
	}
	s := NewHistoryServer(Deps{
		Store:     ms,
		Publisher: pub,
		Quota:     quota.NewGate(counter, quota.WithLogger(logger)),
		Resolver:  resolver.New(resolver.StoreLookup(ms), time.Second, logger),
		Random:    globe.NewCatalog(1),
		Logger:    logger,
	})
	t.Cleanup(s.Views().CloseAll)
	return &testServer{srv: s, store: ms, pub: pub, handler: s.NewHTTPHandler("")}
}

// doJSON performs an HTTP request with an optional JSON body and returns the recorder.
func doJSON(t *testing.T, handler http.Handler, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		b, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// requireStatus asserts the recorder has the expected HTTP status code.
func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, code int) {
	t.Helper()
	if rec.Code != code {
		t.Fatalf("expected status %d, got %d; body: %s", code, rec.Code, rec.Body.String())
	}
}

// decodeJSON decodes the recorder's response body into v.
func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func (ts *testServer) openView(t *testing.T, url string) viewResponse {
	t.Helper()
	rec := doJSON(t, ts.handler, "POST", "/v1/views", map[string]string{"url": url})
	requireStatus(t, rec, http.StatusCreated)
	var v viewResponse
	decodeJSON(t, rec, &v)
	if !strings.HasPrefix(v.ID, "vw-") {
		t.Fatalf("view id = %q", v.ID)
	}
	return v
}

func (ts *testServer) getView(t *testing.T, id string) viewResponse {
	t.Helper()
	rec := doJSON(t, ts.handler, "GET", "/v1/views/"+id, nil)
	requireStatus(t, rec, http.StatusOK)
	var v viewResponse
	decodeJSON(t, rec, &v)
	return v
}

// waitForSession polls the view until its session is at name.
func (ts *testServer) waitForSession(t *testing.T, id, name string) viewResponse {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		v := ts.getView(t, id)
		if v.Session != nil && v.Session.Location.Name == name && !v.Resolving {
			return v
		}
		if time.Now().After(deadline) {
			t.Fatalf("view %s never reached session %q; last: %+v", id, name, v.View)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

var rome = model.Location{Name: "Rome", Lat: 41.9028, Lng: 12.4964}

func TestHandleHTTPErrors(t *testing.T) {
	ts := newTestServer(t, 5)
	v := ts.openView(t, "/")

	for _, tc := range []struct {
		name      string
		method    string
		path      string
		body      any
		code      int
		wantError string
	}{
		{"GetView/NotFound", "GET", "/v1/views/vw-missing", nil, 404, ""},
		{"DeleteView/NotFound", "DELETE", "/v1/views/vw-missing", nil, 404, ""},
		{"Auth/InvalidOutcome", "POST", "/v1/views/" + v.ID + "/auth", map[string]any{"outcome": "maybe"}, 400, ""},
		{"Task/NoSession", "POST", "/v1/views/" + v.ID + "/tasks", nil, 409, ""},
		{"Navigate/BadDirection", "POST", "/v1/views/" + v.ID + "/navigate", map[string]any{"direction": "sideways"}, 400, ""},
		{"Navigate/NoHistory", "POST", "/v1/views/" + v.ID + "/navigate", map[string]any{"direction": "back"}, 409, "no earlier history entry"},
		{"Notify/BadSeverity", "POST", "/v1/views/" + v.ID + "/notify", map[string]any{"severity": "loud", "message": "x"}, 400, ""},
		{"Notify/MissingMessage", "POST", "/v1/views/" + v.ID + "/notify", map[string]any{}, 400, "message is required"},
		{"GetTask/NotFound", "GET", "/v1/research/rs-missing", nil, 404, "research task not found"},
		{"CreateTask/MissingLocation", "POST", "/v1/research", map[string]any{}, 400, ""},
		{"ListTasks/BadStatus", "GET", "/v1/research?status=done", nil, 400, "invalid status done"},
		{"ListTasks/BadSince", "GET", "/v1/research?since=yesterday", nil, 400, ""},
		{"Inquiry/MissingFields", "POST", "/v1/enterprise/inquiry", map[string]any{"company_name": "Acme"}, 400, ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, ts.handler, tc.method, tc.path, tc.body)
			requireStatus(t, rec, tc.code)
			if tc.wantError != "" {
				var body map[string]string
				decodeJSON(t, rec, &body)
				if body["error"] != tc.wantError {
					t.Fatalf("expected error=%q, got %q", tc.wantError, body["error"])
				}
			}
		})
	}
}

func TestHandleInvalidJSON(t *testing.T) {
	ts := newTestServer(t, 5)
	req := httptest.NewRequest("POST", "/v1/research", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	requireStatus(t, rec, http.StatusBadRequest)
}

func TestHandleHealth(t *testing.T) {
	ts := newTestServer(t, 5)
	ts.openView(t, "/")
	rec := doJSON(t, ts.handler, "GET", "/v1/health", nil)
	requireStatus(t, rec, 200)
	var body struct {
		Status string `json:"status"`
		Views  int    `json:"views"`
	}
	decodeJSON(t, rec, &body)
	if body.Status != "ok" || body.Views != 1 {
		t.Fatalf("health = %+v", body)
	}
}

func TestViews_OpenListDelete(t *testing.T) {
	ts := newTestServer(t, 5)
	v := ts.openView(t, "")
	if v.State != model.GateOpen || v.URL != "/" || v.Session != nil {
		t.Fatalf("new view = %+v", v)
	}

	rec := doJSON(t, ts.handler, "GET", "/v1/views", nil)
	requireStatus(t, rec, 200)
	var list struct {
		Views []struct {
			ID string `json:"id"`
		} `json:"views"`
		Total int `json:"total"`
	}
	decodeJSON(t, rec, &list)
	if list.Total != 1 || list.Views[0].ID != v.ID {
		t.Fatalf("list = %+v", list)
	}

	requireStatus(t, doJSON(t, ts.handler, "DELETE", "/v1/views/"+v.ID, nil), http.StatusNoContent)
	requireStatus(t, doJSON(t, ts.handler, "GET", "/v1/views/"+v.ID, nil), http.StatusNotFound)
}

func TestViews_AnonymousSelectThenGuest(t *testing.T) {
	ts := newTestServer(t, 5)
	v := ts.openView(t, "/")

	rec := doJSON(t, ts.handler, "POST", "/v1/views/"+v.ID+"/select", selectInput{Location: rome})
	requireStatus(t, rec, 200)
	var got viewResponse
	decodeJSON(t, rec, &got)
	if got.State != model.GateAwaitingAuth || got.Pending == nil || got.Pending.Location.Name != "Rome" || got.Session != nil {
		t.Fatalf("after anonymous select: %+v", got.View)
	}

	rec = doJSON(t, ts.handler, "POST", "/v1/views/"+v.ID+"/auth", map[string]string{"outcome": "continued_as_guest"})
	requireStatus(t, rec, 200)
	got = viewResponse{}
	decodeJSON(t, rec, &got)
	if got.State != model.GateOpen || got.Pending != nil || got.Session == nil || got.Session.Location.Name != "Rome" {
		t.Fatalf("after guest: %+v", got.View)
	}
}

func TestViews_SelectPassesCoordinatesThrough(t *testing.T) {
	ts := newTestServer(t, 5)
	v := ts.openView(t, "/")
	offGlobe := model.Location{Name: "", Lat: 95, Lng: 200}

	rec := doJSON(t, ts.handler, "POST", "/v1/views/"+v.ID+"/select", selectInput{Location: offGlobe})
	requireStatus(t, rec, 200)
	var got viewResponse
	decodeJSON(t, rec, &got)
	if got.State != model.GateAwaitingAuth || got.Pending == nil || got.Pending.Location != offGlobe {
		t.Fatalf("after anonymous select: %+v", got.View)
	}

	rec = doJSON(t, ts.handler, "POST", "/v1/views/"+v.ID+"/select", selectInput{Location: offGlobe}, ActorHeader, "alice")
	requireStatus(t, rec, 200)
	got = viewResponse{}
	decodeJSON(t, rec, &got)
	if got.State != model.GateOpen || got.Session == nil || got.Session.Location != offGlobe {
		t.Fatalf("after signed-in select: %+v", got.View)
	}

	// Task creation still requires a real location.
	rec = doJSON(t, ts.handler, "POST", "/v1/views/"+v.ID+"/tasks", nil, ActorHeader, "alice")
	requireStatus(t, rec, http.StatusBadRequest)
}

func TestStatusFor(t *testing.T) {
	for _, tc := range []struct {
		err  error
		want int
	}{
		{inputError("bad"), http.StatusBadRequest},
		{gate.ErrInvalidOutcome, http.StatusBadRequest},
		{views.ErrNotFound, http.StatusNotFound},
		{gate.ErrNoSession, http.StatusConflict},
		{fmt.Errorf("%w: now Kyoto", gate.ErrSessionChanged), http.StatusConflict},
		{gate.ErrClosed, http.StatusGone},
		{errors.New("boom"), http.StatusInternalServerError},
	} {
		if got := statusFor(tc.err); got != tc.want {
			t.Errorf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestViews_SelectAndCreateTask(t *testing.T) {
	ts := newTestServer(t, 5)
	v := ts.openView(t, "/globe?layer=night")

	rec := doJSON(t, ts.handler, "POST", "/v1/views/"+v.ID+"/select", selectInput{Location: rome}, ActorHeader, "alice")
	requireStatus(t, rec, 200)

	rec = doJSON(t, ts.handler, "POST", "/v1/views/"+v.ID+"/tasks", nil, ActorHeader, "alice")
	requireStatus(t, rec, http.StatusCreated)
	var out struct {
		Task model.ResearchTask `json:"task"`
		View viewResponse       `json:"view"`
	}
	decodeJSON(t, rec, &out)

	if !strings.HasPrefix(out.Task.Token, "rs-") || out.Task.CreatedBy != "alice" || out.Task.Status != model.TaskQueued {
		t.Fatalf("task = %+v", out.Task)
	}
	if out.View.Session == nil || out.View.Session.Token != out.Task.Token {
		t.Fatalf("session = %+v", out.View.Session)
	}
	if tok, ok := deeplink.Token(out.View.URL, deeplink.DefaultParam); !ok || tok != out.Task.Token {
		t.Fatalf("url = %q, want research=%s", out.View.URL, out.Task.Token)
	}
	if !strings.Contains(out.View.URL, "layer=night") {
		t.Fatalf("url lost existing params: %q", out.View.URL)
	}
	if _, err := ts.store.GetTask(context.Background(), out.Task.Token); err != nil {
		t.Fatalf("task not stored: %v", err)
	}
	if n := ts.store.usageOf("alice"); n != 1 {
		t.Fatalf("usage = %d, want 1", n)
	}
	if _, ok := ts.pub.find(events.TopicResearchCreated); !ok {
		t.Fatal("expected research.created event")
	}

	// A second task for the same session is rejected.
	rec = doJSON(t, ts.handler, "POST", "/v1/views/"+v.ID+"/tasks", nil, ActorHeader, "alice")
	requireStatus(t, rec, http.StatusConflict)
}

func TestViews_GuestTaskCountsAgainstView(t *testing.T) {
	ts := newTestServer(t, 5)
	v := ts.openView(t, "/")
	doJSON(t, ts.handler, "POST", "/v1/views/"+v.ID+"/select", selectInput{Location: rome})
	doJSON(t, ts.handler, "POST", "/v1/views/"+v.ID+"/auth", map[string]string{"outcome": "continued_as_guest"})

	rec := doJSON(t, ts.handler, "POST", "/v1/views/"+v.ID+"/tasks", nil)
	requireStatus(t, rec, http.StatusCreated)
	if n := ts.store.usageOf("guest:" + v.ID); n != 1 {
		t.Fatalf("guest usage = %d, want 1", n)
	}
}

func TestViews_QuotaExhausted(t *testing.T) {
	ts := newTestServer(t, 0)
	v := ts.openView(t, "/")

	rec := doJSON(t, ts.handler, "POST", "/v1/views/"+v.ID+"/select", selectInput{Location: rome}, ActorHeader, "bob")
	requireStatus(t, rec, 200)
	var got viewResponse
	decodeJSON(t, rec, &got)
	if got.State != model.GateAwaitingQuota || got.ResetAt == nil || got.Session != nil {
		t.Fatalf("after select: %+v", got.View)
	}
	if !got.ResetAt.After(time.Now()) {
		t.Fatalf("reset_at %v not in the future", got.ResetAt)
	}

	rec = doJSON(t, ts.handler, "POST", "/v1/views/"+v.ID+"/quota/dismiss", nil)
	requireStatus(t, rec, 200)
	got = viewResponse{}
	decodeJSON(t, rec, &got)
	if got.State != model.GateOpen || got.ResetAt != nil || got.Pending != nil || got.Session != nil {
		t.Fatalf("after dismiss: %+v", got.View)
	}
}

func TestViews_RandomAndClose(t *testing.T) {
	ts := newTestServer(t, 5)
	v := ts.openView(t, "/")

	rec := doJSON(t, ts.handler, "POST", "/v1/views/"+v.ID+"/random", nil, ActorHeader, "carol")
	requireStatus(t, rec, 200)
	var got viewResponse
	decodeJSON(t, rec, &got)
	if got.Session == nil || got.Session.Location.Name == "" {
		t.Fatalf("random session = %+v", got.Session)
	}

	rec = doJSON(t, ts.handler, "POST", "/v1/views/"+v.ID+"/close", nil)
	requireStatus(t, rec, 200)
	got = viewResponse{}
	decodeJSON(t, rec, &got)
	if got.Session != nil {
		t.Fatalf("session after close = %+v", got.Session)
	}
	if _, ok := ts.pub.find(events.TopicSessionClosed); !ok {
		t.Fatal("expected session.closed event")
	}
}

func TestViews_DeepLinkResolves(t *testing.T) {
	ts := newTestServer(t, 5)
	ts.store.CreateTask(context.Background(), &model.ResearchTask{
		Token: "rs-petra", LocationName: "Petra", LocationLat: 30.3285, LocationLng: 35.4444, Status: model.TaskCompleted,
	})

	v := ts.openView(t, "/?research=rs-petra")
	if v.Session == nil || v.Session.Token != "rs-petra" {
		t.Fatalf("initial session = %+v", v.Session)
	}
	got := ts.waitForSession(t, v.ID, "Petra")
	if got.Session.Token != "rs-petra" || got.Session.Location.Lat != 30.3285 {
		t.Fatalf("resolved session = %+v", got.Session)
	}
}

func TestViews_DeepLinkUnknownKeepsPlaceholder(t *testing.T) {
	ts := newTestServer(t, 5)
	v := ts.openView(t, "/?research=rs-nope")
	got := ts.waitForSession(t, v.ID, model.PlaceholderName)
	if got.Session.Token != "rs-nope" {
		t.Fatalf("session = %+v", got.Session)
	}

	// A placeholder session has no location to research yet.
	rec := doJSON(t, ts.handler, "POST", "/v1/views/"+v.ID+"/tasks", nil)
	requireStatus(t, rec, http.StatusConflict)
}

func TestViews_NavigateToDeepLink(t *testing.T) {
	ts := newTestServer(t, 5)
	ts.store.CreateTask(context.Background(), &model.ResearchTask{
		Token: "rs-kyoto", LocationName: "Kyoto", LocationLat: 35.0116, LocationLng: 135.7681, Status: model.TaskCompleted,
	})
	v := ts.openView(t, "/")

	rec := doJSON(t, ts.handler, "POST", "/v1/views/"+v.ID+"/navigate", map[string]string{"url": "/?research=rs-kyoto"})
	requireStatus(t, rec, 200)
	ts.waitForSession(t, v.ID, "Kyoto")

	// Back to a URL without a token leaves the session open.
	rec = doJSON(t, ts.handler, "POST", "/v1/views/"+v.ID+"/navigate", map[string]string{"direction": "back"})
	requireStatus(t, rec, 200)
	got := ts.getView(t, v.ID)
	if got.URL != "/" || got.Session == nil || got.Session.Location.Name != "Kyoto" {
		t.Fatalf("after back: %+v", got.View)
	}

	rec = doJSON(t, ts.handler, "POST", "/v1/views/"+v.ID+"/navigate", map[string]string{"direction": "forward"})
	requireStatus(t, rec, 200)
	got = ts.getView(t, v.ID)
	if got.URL != "/?research=rs-kyoto" {
		t.Fatalf("after forward url = %q", got.URL)
	}
}

func TestViews_AuthCallbackNotification(t *testing.T) {
	ts := newTestServer(t, 5)
	v := ts.openView(t, "/?checkout=success")
	if v.Notification == nil || v.Notification.Severity != model.SeveritySuccess {
		t.Fatalf("notification = %+v", v.Notification)
	}
	if v.URL != "/" {
		t.Fatalf("callback params not stripped: %q", v.URL)
	}

	requireStatus(t, doJSON(t, ts.handler, "DELETE", "/v1/views/"+v.ID+"/notification", nil), http.StatusNoContent)
	if got := ts.getView(t, v.ID); got.Notification != nil {
		t.Fatalf("notification after clear = %+v", got.Notification)
	}
}

func TestViews_Notify(t *testing.T) {
	ts := newTestServer(t, 5)
	v := ts.openView(t, "/")
	rec := doJSON(t, ts.handler, "POST", "/v1/views/"+v.ID+"/notify", map[string]string{"message": "hello"})
	requireStatus(t, rec, 200)
	var n model.Notification
	decodeJSON(t, rec, &n)
	if n.Severity != model.SeverityInfo || n.Message != "hello" {
		t.Fatalf("notification = %+v", n)
	}
}

func TestHandleResearch(t *testing.T) {
	ts := newTestServer(t, 5)

	rec := doJSON(t, ts.handler, "POST", "/v1/research", map[string]any{"location": rome}, ActorHeader, "alice")
	requireStatus(t, rec, http.StatusCreated)
	var created model.ResearchTask
	decodeJSON(t, rec, &created)
	if created.LocationName != "Rome" || created.CreatedBy != "alice" {
		t.Fatalf("created = %+v", created)
	}

	rec = doJSON(t, ts.handler, "GET", "/v1/research/"+created.Token, nil)
	requireStatus(t, rec, 200)
	var got model.ResearchTask
	decodeJSON(t, rec, &got)
	if got.Token != created.Token || got.LocationLat != rome.Lat {
		t.Fatalf("got = %+v", got)
	}

	doJSON(t, ts.handler, "POST", "/v1/research", map[string]any{"location": map[string]any{"name": "Oslo", "lat": 59.9, "lng": 10.7}}, ActorHeader, "bob")

	rec = doJSON(t, ts.handler, "GET", "/v1/research?created_by=alice&status=queued", nil)
	requireStatus(t, rec, 200)
	var list struct {
		Tasks []model.ResearchTask `json:"tasks"`
		Total int                  `json:"total"`
	}
	decodeJSON(t, rec, &list)
	if list.Total != 1 || list.Tasks[0].Token != created.Token {
		t.Fatalf("list = %+v", list)
	}
}

func TestHandleListTasks_Empty(t *testing.T) {
	ts := newTestServer(t, 5)
	rec := doJSON(t, ts.handler, "GET", "/v1/research", nil)
	requireStatus(t, rec, 200)
	if !strings.Contains(rec.Body.String(), `"tasks":[]`) {
		t.Fatalf("expected empty tasks array, got %s", rec.Body.String())
	}
}

func TestHandleInquiry(t *testing.T) {
	ts := newTestServer(t, 5)
	in := model.Inquiry{
		CompanyName:  "Acme",
		ContactName:  "Dana",
		ContactEmail: "dana@acme.test",
		JobTitle:     "CTO",
		UseCase:      "Field research",
		BookedCall:   true,
	}
	rec := doJSON(t, ts.handler, "POST", "/v1/enterprise/inquiry", in)
	requireStatus(t, rec, http.StatusAccepted)

	evt, ok := ts.pub.find(events.TopicEnterpriseInquiry)
	if !ok {
		t.Fatal("expected inquiry event")
	}
	if got := evt.(events.InquiryReceived).Inquiry; got.ContactEmail != in.ContactEmail || !got.BookedCall {
		t.Fatalf("inquiry = %+v", got)
	}

	in.ContactEmail = "not-an-email"
	requireStatus(t, doJSON(t, ts.handler, "POST", "/v1/enterprise/inquiry", in), http.StatusBadRequest)
}
