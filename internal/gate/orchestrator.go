// Package gate is the access-gated, deep-link-synchronized session
// orchestrator behind a single view of the globe.
//
// Every "open research for this location" request passes through the
// Orchestrator, which either commits it as the current session, or parks it
// as the pending candidate behind the sign-up prompt (no identity) or the
// quota dialog (quota exhausted). The current session's token is mirrored
// into the deep-link store, and on start a token already in the URL is
// resolved back into a session.
//
// The Orchestrator is the only writer of gate state. Presentation layers read
// Snapshot and listen through an Observer. Observer callbacks run after the
// state lock is released, in mutation order, except OnNotify which may also
// arrive from the expiry timer. Observers must be safe for concurrent use and
// must not call back into the Orchestrator synchronously.
package gate

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alfredjeanlab/history/internal/clock"
	"github.com/alfredjeanlab/history/internal/deeplink"
	"github.com/alfredjeanlab/history/internal/model"
	"github.com/alfredjeanlab/history/internal/notify"
)

var (
	// ErrClosed is returned by operations on a closed Orchestrator.
	ErrClosed = errors.New("gate: orchestrator closed")

	// ErrNoSession is returned by TaskCreated when no session is open.
	ErrNoSession = errors.New("gate: no open session")

	// ErrSessionChanged is returned by TaskCreated when the open session is
	// no longer the one the task was created for.
	ErrSessionChanged = errors.New("gate: session changed")

	// ErrInvalidOutcome is returned for an unknown sign-up prompt outcome.
	ErrInvalidOutcome = errors.New("gate: invalid auth prompt outcome")
)

// QuotaGate reports whether an actor may open a new session and records use.
// Implementations must fail closed.
type QuotaGate interface {
	CheckAllowed(ctx context.Context, actor string) model.QuotaSnapshot
	RecordUse(ctx context.Context, actor string)
}

// Resolver turns a deep-link token into a location.
type Resolver interface {
	Resolve(ctx context.Context, token string) (model.Location, error)
}

// RandomPicker chooses a location for the "random location" action.
type RandomPicker interface {
	PickRandom(ctx context.Context) (model.Location, error)
}

// Observer receives the Orchestrator's outward events.
type Observer interface {
	OnLocationChosen(s model.Session)
	OnSessionClosed()
	// OnNotify receives each new notification, and nil when it is cleared.
	OnNotify(n *model.Notification)
	// OnGateStateChanged receives the new state; resetAt is set only for
	// GateAwaitingQuota.
	OnGateStateChanged(state model.GateState, resetAt *time.Time)
}

// NopObserver ignores every event. Embed it to implement part of Observer.
type NopObserver struct{}

func (NopObserver) OnLocationChosen(model.Session)                 {}
func (NopObserver) OnSessionClosed()                               {}
func (NopObserver) OnNotify(*model.Notification)                   {}
func (NopObserver) OnGateStateChanged(model.GateState, *time.Time) {}

// Config wires an Orchestrator to its collaborators. Links, Quota and
// Resolver are required.
type Config struct {
	Links    *deeplink.Store
	Quota    QuotaGate
	Resolver Resolver
	Random   RandomPicker
	Observer Observer
	Clock    clock.Clock
	Logger   *slog.Logger

	// GuestActor is the quota key used when an anonymous user continues
	// without an account.
	GuestActor string

	// NotificationTTL overrides notify.DefaultTTL.
	NotificationTTL time.Duration
}

// View is a read-only snapshot of the Orchestrator's state.
type View struct {
	State        model.GateState     `json:"state"`
	ResetAt      *time.Time          `json:"reset_at,omitempty"`
	Session      *model.Session      `json:"session,omitempty"`
	Pending      *model.Candidate    `json:"pending,omitempty"`
	Notification *model.Notification `json:"notification,omitempty"`
	URL          string              `json:"url"`
	Resolving    bool                `json:"resolving"`
}

// Orchestrator is the gate state machine for one view.
type Orchestrator struct {
	links    *deeplink.Store
	quota    QuotaGate
	resolver Resolver
	random   RandomPicker
	observer Observer
	notifier *notify.Channel
	logger   *slog.Logger
	guest    string

	baseCtx    context.Context
	cancelBase context.CancelFunc
	wg         sync.WaitGroup

	// emitMu orders observer dispatch; it is taken before mu is released.
	emitMu sync.Mutex

	mu            sync.Mutex
	state         model.GateState
	resetAt       time.Time
	current       *model.Session
	pending       *model.Candidate
	resolveGen    uint64
	resolveTarget string
	resolveCancel context.CancelFunc
	unsubscribe   func()

	// closed is written under mu and read without it on the notify path.
	closed atomic.Bool
}

// New returns an Orchestrator in the Open state with no session.
func New(cfg Config) *Orchestrator {
	if cfg.Observer == nil {
		cfg.Observer = NopObserver{}
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.GuestActor == "" {
		cfg.GuestActor = "guest"
	}

	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		links:      cfg.Links,
		quota:      cfg.Quota,
		resolver:   cfg.Resolver,
		random:     cfg.Random,
		observer:   cfg.Observer,
		logger:     cfg.Logger,
		guest:      cfg.GuestActor,
		baseCtx:    ctx,
		cancelBase: cancel,
		state:      model.GateOpen,
	}

	opts := []notify.Option{notify.WithListener(o.onNotification)}
	if cfg.NotificationTTL > 0 {
		opts = append(opts, notify.WithTTL(cfg.NotificationTTL))
	}
	o.notifier = notify.New(cfg.Clock, opts...)
	return o
}

// Start subscribes to browser-driven deep-link changes, turns auth callback
// parameters into notifications, and reconciles the session from the URL.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.closed.Load() {
		o.mu.Unlock()
		return ErrClosed
	}
	if o.unsubscribe == nil {
		o.unsubscribe = o.links.Subscribe(o.onLinkChange)
	}
	o.mu.Unlock()

	o.HandleAuthCallback()
	return o.ReconcileFromLink(ctx)
}

// Close unregisters the deep-link subscription, cancels in-flight
// resolutions and waits for them to exit. Close is idempotent.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed.Swap(true) {
		o.mu.Unlock()
		return
	}
	unsubscribe := o.unsubscribe
	o.unsubscribe = nil
	o.resolveGen++
	o.resolveTarget = ""
	o.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	o.cancelBase()
	o.wg.Wait()
	o.notifier.Clear()
}

// Snapshot returns the current state.
func (o *Orchestrator) Snapshot() View {
	o.mu.Lock()
	v := View{
		State:     o.state,
		URL:       o.links.URL(),
		Resolving: o.resolveTarget != "",
	}
	if o.state == model.GateAwaitingQuota {
		t := o.resetAt
		v.ResetAt = &t
	}
	if o.current != nil {
		s := *o.current
		v.Session = &s
	}
	if o.pending != nil {
		c := *o.pending
		v.Pending = &c
	}
	o.mu.Unlock()

	if n, ok := o.notifier.Current(); ok {
		v.Notification = &n
	}
	return v
}

// Notify surfaces a transient message, replacing any current one.
func (o *Orchestrator) Notify(severity model.Severity, message string) model.Notification {
	return o.notifier.Notify(severity, message)
}

// ClearNotification dismisses the current notification.
func (o *Orchestrator) ClearNotification() {
	o.notifier.Clear()
}

// onNotification runs with or without mu and emitMu held, so it takes
// neither.
func (o *Orchestrator) onNotification(n *model.Notification) {
	if o.closed.Load() {
		return
	}
	o.observer.OnNotify(n)
}

// event is a deferred observer call collected while mu is held.
type event func(Observer)

// unlockAndEmit releases mu and dispatches events in order.
func (o *Orchestrator) unlockAndEmit(events []event) {
	if len(events) == 0 {
		o.mu.Unlock()
		return
	}
	o.emitMu.Lock()
	o.mu.Unlock()
	defer o.emitMu.Unlock()
	for _, e := range events {
		e(o.observer)
	}
}

// setStateLocked transitions the gate and returns the change event, or nil
// when the state (and reset time) did not change.
func (o *Orchestrator) setStateLocked(state model.GateState, resetAt time.Time) event {
	if state != model.GateAwaitingQuota {
		resetAt = time.Time{}
	}
	if o.state == state && o.resetAt.Equal(resetAt) {
		return nil
	}
	o.state = state
	o.resetAt = resetAt
	return func(ob Observer) {
		var r *time.Time
		if state == model.GateAwaitingQuota {
			r = &resetAt
		}
		ob.OnGateStateChanged(state, r)
	}
}

func appendEvent(events []event, e event) []event {
	if e == nil {
		return events
	}
	return append(events, e)
}

func chosen(s model.Session) event {
	return func(ob Observer) { ob.OnLocationChosen(s) }
}

func closedEvent(ob Observer) { ob.OnSessionClosed() }

func actorOf(id *model.Identity) string {
	if id == nil {
		return ""
	}
	return id.Actor
}
