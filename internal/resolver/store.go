package resolver

import (
	"context"

	"github.com/alfredjeanlab/history/internal/model"
)

// TaskGetter is the slice of store.Store used for in-process lookups.
type TaskGetter interface {
	GetTask(ctx context.Context, token string) (*model.ResearchTask, error)
}

// StoreLookup resolves tokens directly against the task store, for servers
// that host the research tasks themselves.
func StoreLookup(s TaskGetter) Lookup {
	return LookupFunc(s.GetTask)
}
