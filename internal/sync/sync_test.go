package sync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alfredjeanlab/history/internal/model"
)

// mockDestination records calls to Write.
type mockDestination struct {
	writes atomic.Int64
	last   atomic.Value // []byte
	err    error
}

func (d *mockDestination) Write(_ context.Context, data []byte) error {
	d.writes.Add(1)
	cp := make([]byte, len(data))
	copy(cp, data)
	d.last.Store(cp)
	return d.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSchedulerStartStop(t *testing.T) {
	ms := newMockStore()
	ms.tasks["rs-1"] = &model.ResearchTask{Token: "rs-1", LocationName: "Rome", CreatedAt: time.Now().UTC()}

	dest := &mockDestination{}
	sched := NewScheduler(ms, []Destination{dest}, 50*time.Millisecond, discardLogger())
	sched.Start()

	// Initial export plus at least one tick.
	time.Sleep(120 * time.Millisecond)
	sched.Stop()

	if writes := dest.writes.Load(); writes < 2 {
		t.Fatalf("expected at least 2 writes, got %d", writes)
	}
	data, ok := dest.last.Load().([]byte)
	if !ok || len(nonEmptyLines(string(data))) != 2 {
		t.Fatalf("last export = %q, want header + 1 task", data)
	}
}

func TestSyncOnce_CountsFailures(t *testing.T) {
	ms := newMockStore()
	ok := &mockDestination{}
	bad := &mockDestination{err: errors.New("denied")}
	sched := NewScheduler(ms, []Destination{ok, bad}, time.Hour, discardLogger())

	if failed := sched.SyncOnce(context.Background()); failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}
	if ok.writes.Load() != 1 || bad.writes.Load() != 1 {
		t.Errorf("writes = %d, %d", ok.writes.Load(), bad.writes.Load())
	}

	ms.err = errStoreDown
	if failed := sched.SyncOnce(context.Background()); failed != 2 {
		t.Errorf("failed on export error = %d, want 2", failed)
	}
	if ok.writes.Load() != 1 {
		t.Error("destination written after export failure")
	}
}

func TestS3Destination_PutsObject(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("AWS_CONFIG_FILE", "/dev/null")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/dev/null")

	type put struct {
		method, path, contentType string
		body                      string
	}
	got := make(chan put, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- put{r.Method, r.URL.Path, r.Header.Get("Content-Type"), string(body)}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	dest, err := NewS3Destination(context.Background(), "exports", "history/tasks.jsonl", "us-east-1", srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if dest.Location() != "s3://exports/history/tasks.jsonl" {
		t.Errorf("Location = %q", dest.Location())
	}
	if err := dest.Write(context.Background(), []byte("{}\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	p := <-got
	if p.method != http.MethodPut || p.path != "/exports/history/tasks.jsonl" {
		t.Errorf("request = %s %s", p.method, p.path)
	}
	if p.contentType != "application/x-ndjson" {
		t.Errorf("content type = %q", p.contentType)
	}
	if !strings.Contains(p.body, "{}") {
		t.Errorf("body = %q", p.body)
	}
}

func TestNewS3Destination_RequiresBucket(t *testing.T) {
	if _, err := NewS3Destination(context.Background(), "", "k", "us-east-1", ""); err == nil {
		t.Fatal("expected error")
	}
}
