// Package quota is the contract boundary between the gate orchestrator and
// whatever counts research sessions per actor.
//
// The Gate performs no counting itself. It fails closed: an unreachable
// counter or a snapshot older than the configured staleness limit is reported
// as not allowed.
package quota

import (
	"context"
	"log/slog"
	"time"

	"github.com/alfredjeanlab/history/internal/clock"
	"github.com/alfredjeanlab/history/internal/model"
)

// Counter is the counting collaborator.
type Counter interface {
	// Usage returns the actor's current snapshot and the time it was computed.
	Usage(ctx context.Context, actor string) (model.QuotaSnapshot, time.Time, error)
	// Increment records one consumed unit for the actor.
	Increment(ctx context.Context, actor string) error
}

// Gate answers whether an actor may start a new research session.
type Gate struct {
	counter      Counter
	clock        clock.Clock
	maxStaleness time.Duration
	timeout      time.Duration
	logger       *slog.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithMaxStaleness rejects snapshots older than d. Zero disables the check.
func WithMaxStaleness(d time.Duration) Option {
	return func(g *Gate) { g.maxStaleness = d }
}

// WithTimeout bounds each call to the counter.
func WithTimeout(d time.Duration) Option {
	return func(g *Gate) { g.timeout = d }
}

// WithClock overrides the real clock.
func WithClock(c clock.Clock) Option {
	return func(g *Gate) { g.clock = c }
}

// WithLogger overrides slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(g *Gate) { g.logger = l }
}

// NewGate returns a Gate over counter.
func NewGate(counter Counter, opts ...Option) *Gate {
	g := &Gate{
		counter: counter,
		clock:   clock.Real(),
		timeout: 2 * time.Second,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CheckAllowed returns the actor's snapshot, normalized to fail closed.
func (g *Gate) CheckAllowed(ctx context.Context, actor string) model.QuotaSnapshot {
	now := g.clock.Now()
	if g.counter == nil {
		return denied(now)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	snap, asOf, err := g.counter.Usage(ctx, actor)
	if err != nil {
		g.logger.Warn("quota check failed, denying", "actor", actor, "error", err)
		return denied(now)
	}
	if g.maxStaleness > 0 && now.Sub(asOf) > g.maxStaleness {
		g.logger.Warn("quota snapshot stale, denying", "actor", actor, "as_of", asOf)
		snap.Allowed = false
	}
	if snap.ResetAt.IsZero() {
		snap.ResetAt = now
	}
	return snap
}

// RecordUse tells the counter one unit was consumed. Failures are logged;
// the session has already been opened.
func (g *Gate) RecordUse(ctx context.Context, actor string) {
	if g.counter == nil {
		return
	}
	if err := g.counter.Increment(ctx, actor); err != nil {
		g.logger.Warn("failed to record quota use", "actor", actor, "error", err)
	}
}

func denied(now time.Time) model.QuotaSnapshot {
	return model.QuotaSnapshot{Allowed: false, Remaining: 0, ResetAt: now}
}
