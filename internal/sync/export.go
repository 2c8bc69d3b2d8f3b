package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/alfredjeanlab/history/internal/model"
)

// exportPageSize bounds each ListTasks call during export.
const exportPageSize = 500

// TaskLister is the slice of store.Store the exporter reads.
type TaskLister interface {
	ListTasks(ctx context.Context, filter model.TaskFilter) ([]*model.ResearchTask, int, error)
}

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version   string    `json:"version"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	TaskCount int       `json:"task_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ExportJSONL writes every research task as JSONL to w, newest first, after
// a header line carrying the task count.
func ExportJSONL(ctx context.Context, s TaskLister, w io.Writer) error {
	var tasks []*model.ResearchTask
	for offset := 0; ; offset += exportPageSize {
		page, total, err := s.ListTasks(ctx, model.TaskFilter{Limit: exportPageSize, Offset: offset})
		if err != nil {
			return fmt.Errorf("list tasks: %w", err)
		}
		tasks = append(tasks, page...)
		if len(page) < exportPageSize || len(tasks) >= total {
			break
		}
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:   "1",
		Type:      "header",
		Timestamp: time.Now().UTC(),
		TaskCount: len(tasks),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, t := range tasks {
		if err := enc.Encode(record{Type: "task", Data: t}); err != nil {
			return fmt.Errorf("encode task %s: %w", t.Token, err)
		}
	}
	return nil
}
