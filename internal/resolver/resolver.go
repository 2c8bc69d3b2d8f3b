// Package resolver turns a deep-link research token into the location it
// was created for.
//
// Every lookup failure (unknown token, timeout, 4xx, 5xx, malformed body)
// is reported as ErrNotFound: callers only need to know whether a location
// came back.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alfredjeanlab/history/internal/model"
)

// ErrNotFound is returned when a token does not resolve to a location.
var ErrNotFound = errors.New("research task not found")

// Lookup fetches the research task behind a token.
type Lookup interface {
	Lookup(ctx context.Context, token string) (*model.ResearchTask, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, token string) (*model.ResearchTask, error)

// Lookup implements Lookup.
func (f LookupFunc) Lookup(ctx context.Context, token string) (*model.ResearchTask, error) {
	return f(ctx, token)
}

// Resolver resolves tokens through a Lookup.
type Resolver struct {
	lookup  Lookup
	timeout time.Duration
	logger  *slog.Logger
}

// New returns a Resolver. A zero timeout means the caller's context alone
// bounds each lookup.
func New(lookup Lookup, timeout time.Duration, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{lookup: lookup, timeout: timeout, logger: logger}
}

// Resolve returns the location for token, or an error wrapping ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, token string) (model.Location, error) {
	if strings.TrimSpace(token) == "" {
		return model.Location{}, fmt.Errorf("%w: empty token", ErrNotFound)
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	task, err := r.lookup.Lookup(ctx, token)
	if err != nil {
		r.logger.Debug("research lookup failed", "token", token, "error", err)
		return model.Location{}, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if task == nil || strings.TrimSpace(task.LocationName) == "" {
		return model.Location{}, fmt.Errorf("%w: %s", ErrNotFound, token)
	}
	return task.Location(), nil
}
