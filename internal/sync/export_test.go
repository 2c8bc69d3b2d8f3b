package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alfredjeanlab/history/internal/model"
)

func nonEmptyLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

func TestExportJSONL_Empty(t *testing.T) {
	ms := newMockStore()
	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), ms, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := nonEmptyLines(buf.String())
	if len(lines) != 1 {
		t.Fatalf("expected 1 line (header only), got %d", len(lines))
	}
	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.Version != "1" || h.Type != "header" || h.TaskCount != 0 {
		t.Fatalf("unexpected header: %+v", h)
	}
}

func TestExportJSONL_Tasks(t *testing.T) {
	ms := newMockStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ms.tasks["rs-old"] = &model.ResearchTask{Token: "rs-old", LocationName: "Rome & Ostia", Status: model.TaskCompleted, CreatedAt: base}
	ms.tasks["rs-new"] = &model.ResearchTask{Token: "rs-new", LocationName: "Cairo", Status: model.TaskQueued, CreatedAt: base.Add(time.Hour)}

	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), ms, &buf); err != nil {
		t.Fatal(err)
	}
	lines := nonEmptyLines(buf.String())
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if strings.Contains(lines[2], `&`) {
		t.Errorf("HTML escaping applied: %s", lines[2])
	}

	var rec struct {
		Type string             `json:"type"`
		Data model.ResearchTask `json:"data"`
	}
	if err := json.Unmarshal([]byte(lines[1]), &rec); err != nil {
		t.Fatal(err)
	}
	if rec.Type != "task" || rec.Data.Token != "rs-new" {
		t.Errorf("first record = %+v, want rs-new", rec)
	}
}

func TestExportJSONL_Pages(t *testing.T) {
	ms := newMockStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	n := exportPageSize + 7
	for i := 0; i < n; i++ {
		tok := fmt.Sprintf("rs-%04d", i)
		ms.tasks[tok] = &model.ResearchTask{Token: tok, LocationName: "X", CreatedAt: base.Add(time.Duration(i) * time.Second)}
	}

	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), ms, &buf); err != nil {
		t.Fatal(err)
	}
	if got := len(nonEmptyLines(buf.String())); got != n+1 {
		t.Errorf("lines = %d, want %d", got, n+1)
	}
	if ms.calls != 2 {
		t.Errorf("ListTasks calls = %d, want 2", ms.calls)
	}
}

func TestExportJSONL_StoreError(t *testing.T) {
	ms := newMockStore()
	ms.err = errStoreDown
	if err := ExportJSONL(context.Background(), ms, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error")
	}
}
