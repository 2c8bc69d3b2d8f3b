// Package views keeps the live gate orchestrators for open views, one per
// browser tab, and reaps the ones that go idle.
//
// Each view owns a deep-link store backed by an in-memory history, so the
// server can stand in for the browser's address bar: clients report
// back/forward navigation through the store and read the URL it holds.
package views

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/alfredjeanlab/history/internal/clock"
	"github.com/alfredjeanlab/history/internal/deeplink"
	"github.com/alfredjeanlab/history/internal/gate"
	"github.com/alfredjeanlab/history/internal/idgen"
)

// ErrNotFound is returned for unknown or reaped view IDs.
var ErrNotFound = errors.New("views: view not found")

// Builder wires an orchestrator for a new view around its deep-link store.
type Builder func(id string, links *deeplink.Store) (*gate.Orchestrator, error)

// View is one open view.
type View struct {
	ID      string
	Gate    *gate.Orchestrator
	Links   *deeplink.Store
	History *deeplink.History
	Opened  time.Time
}

// Entry describes a view for listings.
type Entry struct {
	ID       string    `json:"id"`
	URL      string    `json:"url"`
	Opened   time.Time `json:"opened"`
	LastSeen time.Time `json:"last_seen"`
	IdleSecs float64   `json:"idle_secs"`
}

// ReaperConfig configures the idle-view reaper.
type ReaperConfig struct {
	// IdleTimeout is how long a view may go untouched before it is closed.
	// Default: 30 minutes.
	IdleTimeout time.Duration

	// SweepInterval is how often the reaper scans. Default: 1 minute.
	SweepInterval time.Duration

	// OnReap is called for each reaped view, outside the lock.
	OnReap func(id string)
}

// Registry holds open views by ID.
type Registry struct {
	build  Builder
	param  string
	clock  clock.Clock
	logger *slog.Logger

	mu    sync.Mutex
	views map[string]*viewState

	reaperStop chan struct{}
	reaperDone chan struct{}
}

type viewState struct {
	view     *View
	lastSeen time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithParam sets the deep-link query parameter for new views.
func WithParam(param string) Option { return func(r *Registry) { r.param = param } }

// WithClock sets the clock used for idle tracking.
func WithClock(c clock.Clock) Option { return func(r *Registry) { r.clock = c } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(r *Registry) { r.logger = l } }

// New returns an empty registry that builds orchestrators with build.
func New(build Builder, opts ...Option) *Registry {
	r := &Registry{
		build:  build,
		param:  deeplink.DefaultParam,
		clock:  clock.Real(),
		logger: slog.Default(),
		views:  make(map[string]*viewState),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open creates a view at initialURL and starts its orchestrator, which
// reconciles any research token already in the URL.
func (r *Registry) Open(ctx context.Context, initialURL string) (*View, error) {
	if initialURL == "" {
		initialURL = "/"
	}
	id, err := idgen.View()
	if err != nil {
		return nil, err
	}

	history := deeplink.NewHistory(initialURL)
	links := deeplink.NewStore(initialURL, deeplink.WithParam(r.param), deeplink.WithNavigator(history))
	o, err := r.build(id, links)
	if err != nil {
		return nil, fmt.Errorf("build view %s: %w", id, err)
	}
	if err := o.Start(ctx); err != nil {
		o.Close()
		return nil, fmt.Errorf("start view %s: %w", id, err)
	}

	now := r.clock.Now()
	v := &View{ID: id, Gate: o, Links: links, History: history, Opened: now}
	r.mu.Lock()
	r.views[id] = &viewState{view: v, lastSeen: now}
	r.mu.Unlock()

	r.logger.Debug("view opened", "view", id, "url", initialURL)
	return v, nil
}

// Get returns the view and marks it active.
func (r *Registry) Get(id string) (*View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.views[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	st.lastSeen = r.clock.Now()
	return st.view, nil
}

// Close removes the view and closes its orchestrator.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	st, ok := r.views[id]
	delete(r.views, id)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	st.view.Gate.Close()
	return nil
}

// CloseAll closes every view.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := r.views
	r.views = make(map[string]*viewState)
	r.mu.Unlock()
	for _, st := range all {
		st.view.Gate.Close()
	}
}

// List returns every open view, most recently active first.
func (r *Registry) List() []Entry {
	now := r.clock.Now()
	r.mu.Lock()
	entries := make([]Entry, 0, len(r.views))
	for id, st := range r.views {
		entries = append(entries, Entry{
			ID:       id,
			URL:      st.view.Links.URL(),
			Opened:   st.view.Opened,
			LastSeen: st.lastSeen,
			IdleSecs: now.Sub(st.lastSeen).Seconds(),
		})
	}
	r.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].LastSeen.After(entries[j].LastSeen)
	})
	return entries
}

// Len returns the number of open views.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

// StartReaper launches the background reaper. Call Stop to shut it down.
func (r *Registry) StartReaper(cfg ReaperConfig) {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 30 * time.Minute
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}

	r.reaperStop = make(chan struct{})
	r.reaperDone = make(chan struct{})
	ticker := r.clock.NewTicker(cfg.SweepInterval)

	go func() {
		defer close(r.reaperDone)
		defer ticker.Stop()
		for {
			select {
			case <-r.reaperStop:
				return
			case <-ticker.C:
				r.Sweep(cfg)
			}
		}
	}()
	r.logger.Info("views: reaper started",
		"idle_timeout", cfg.IdleTimeout,
		"sweep_interval", cfg.SweepInterval)
}

// Stop shuts down the reaper.
func (r *Registry) Stop() {
	if r.reaperStop != nil {
		close(r.reaperStop)
		<-r.reaperDone
		r.reaperStop = nil
		r.reaperDone = nil
	}
}

// Sweep closes views idle for longer than cfg.IdleTimeout and returns how
// many were reaped.
func (r *Registry) Sweep(cfg ReaperConfig) int {
	now := r.clock.Now()
	var idle []*View

	r.mu.Lock()
	for id, st := range r.views {
		if now.Sub(st.lastSeen) > cfg.IdleTimeout {
			idle = append(idle, st.view)
			delete(r.views, id)
		}
	}
	r.mu.Unlock()

	for _, v := range idle {
		v.Gate.Close()
		r.logger.Info("views: reaped idle view", "view", v.ID, "threshold", cfg.IdleTimeout)
		if cfg.OnReap != nil {
			cfg.OnReap(v.ID)
		}
	}
	return len(idle)
}
