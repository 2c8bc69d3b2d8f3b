package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/alfredjeanlab/history/internal/clock"
	"github.com/alfredjeanlab/history/internal/model"
)

// UsageStore persists per-actor usage counts keyed by window start.
type UsageStore interface {
	GetUsage(ctx context.Context, actor string, windowStart time.Time) (int, error)
	IncrementUsage(ctx context.Context, actor string, windowStart time.Time) (int, error)
}

// WindowCounter is a fixed-window Counter: each actor may start Limit
// sessions per Window, windows aligned to the Unix epoch.
type WindowCounter struct {
	store  UsageStore
	limit  int
	window time.Duration
	clock  clock.Clock
}

// NewWindowCounter returns a counter allowing limit uses per window.
func NewWindowCounter(store UsageStore, limit int, window time.Duration, clk clock.Clock) (*WindowCounter, error) {
	if limit < 0 {
		return nil, fmt.Errorf("quota limit must be >= 0, got %d", limit)
	}
	if window <= 0 {
		return nil, fmt.Errorf("quota window must be positive, got %s", window)
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &WindowCounter{store: store, limit: limit, window: window, clock: clk}, nil
}

// Usage implements Counter.
func (w *WindowCounter) Usage(ctx context.Context, actor string) (model.QuotaSnapshot, time.Time, error) {
	now := w.clock.Now()
	start := w.windowStart(now)
	used, err := w.store.GetUsage(ctx, actor, start)
	if err != nil {
		return model.QuotaSnapshot{}, time.Time{}, fmt.Errorf("get usage: %w", err)
	}
	remaining := max(w.limit-used, 0)
	return model.QuotaSnapshot{
		Allowed:   remaining > 0,
		Remaining: remaining,
		ResetAt:   start.Add(w.window),
	}, now, nil
}

// Increment implements Counter.
func (w *WindowCounter) Increment(ctx context.Context, actor string) error {
	if _, err := w.store.IncrementUsage(ctx, actor, w.windowStart(w.clock.Now())); err != nil {
		return fmt.Errorf("increment usage: %w", err)
	}
	return nil
}

func (w *WindowCounter) windowStart(t time.Time) time.Time {
	return t.UTC().Truncate(w.window)
}
