package sync

import (
	"context"
	"errors"
	"sort"

	"github.com/alfredjeanlab/history/internal/model"
)

// mockStore is a minimal in-memory TaskLister for export tests.
type mockStore struct {
	tasks map[string]*model.ResearchTask
	err   error
	calls int
}

func newMockStore() *mockStore {
	return &mockStore{tasks: make(map[string]*model.ResearchTask)}
}

func (m *mockStore) ListTasks(_ context.Context, filter model.TaskFilter) ([]*model.ResearchTask, int, error) {
	m.calls++
	if m.err != nil {
		return nil, 0, m.err
	}
	all := make([]*model.ResearchTask, 0, len(m.tasks))
	for _, t := range m.tasks {
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].Token < all[j].Token
	})
	total := len(all)
	if filter.Offset >= total {
		return nil, total, nil
	}
	all = all[filter.Offset:]
	if filter.Limit > 0 && len(all) > filter.Limit {
		all = all[:filter.Limit]
	}
	return all, total, nil
}

var errStoreDown = errors.New("store down")
