// Package store defines persistence for research tasks and quota usage.
package store

import (
	"context"
	"time"

	"github.com/alfredjeanlab/history/internal/model"
)

// Store is the persistence interface. Lookups of missing rows return
// sql.ErrNoRows.
type Store interface {
	// Research tasks
	CreateTask(ctx context.Context, task *model.ResearchTask) error
	GetTask(ctx context.Context, token string) (*model.ResearchTask, error)
	ListTasks(ctx context.Context, filter model.TaskFilter) ([]*model.ResearchTask, int, error) // tasks, total count, error
	UpdateTaskStatus(ctx context.Context, token string, status model.TaskStatus) error

	// Quota usage, counted per actor per fixed window.
	GetUsage(ctx context.Context, actor string, windowStart time.Time) (int, error)
	IncrementUsage(ctx context.Context, actor string, windowStart time.Time) (int, error)

	// Lifecycle
	Close() error
}
