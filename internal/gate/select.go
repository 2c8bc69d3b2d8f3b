package gate

import (
	"context"
	"fmt"
	"time"

	"github.com/alfredjeanlab/history/internal/model"
)

const (
	signedUpMessage     = "Account created! Check your email to confirm your account."
	randomFailedMessage = "Couldn't pick a random location. Please try again."
	linkWriteFailed     = "Couldn't update the page address."
)

// RequestSelection asks to open a research session for candidate. With no
// identity the candidate is parked behind the sign-up prompt; when the quota
// gate denies it is parked behind the quota dialog; otherwise it becomes the
// current session. The resulting gate state is returned.
func (o *Orchestrator) RequestSelection(ctx context.Context, c model.Candidate, id *model.Identity) (model.GateState, error) {
	o.mu.Lock()
	if o.closed.Load() {
		o.mu.Unlock()
		return "", ErrClosed
	}
	var events []event
	if id == nil {
		pending := c
		o.pending = &pending
		events = appendEvent(events, o.setStateLocked(model.GateAwaitingAuth, time.Time{}))
	} else {
		events = o.admitLocked(ctx, c, id.Actor, events)
	}
	state := o.state
	o.unlockAndEmit(events)
	return state, nil
}

// RequestRandom is RequestSelection for the "random location" action. The
// location is chosen by the RandomPicker only once the request is admitted.
func (o *Orchestrator) RequestRandom(ctx context.Context, id *model.Identity) (model.GateState, error) {
	return o.RequestSelection(ctx, model.Candidate{Random: true}, id)
}

// admitLocked runs the quota check and commits or parks c.
func (o *Orchestrator) admitLocked(ctx context.Context, c model.Candidate, actor string, events []event) []event {
	snap := o.quota.CheckAllowed(ctx, actor)
	if !snap.Allowed {
		pending := c
		o.pending = &pending
		return appendEvent(events, o.setStateLocked(model.GateAwaitingQuota, snap.ResetAt))
	}
	return o.commitLocked(ctx, c, events)
}

// commitLocked makes c the current session and opens the gate.
func (o *Orchestrator) commitLocked(ctx context.Context, c model.Candidate, events []event) []event {
	o.pending = nil
	events = appendEvent(events, o.setStateLocked(model.GateOpen, time.Time{}))

	if c.Random {
		if o.random == nil {
			return append(events, o.notifyEvent(model.SeverityError, randomFailedMessage))
		}
		loc, err := o.random.PickRandom(ctx)
		if err != nil {
			o.logger.Warn("random location pick failed", "error", err)
			return append(events, o.notifyEvent(model.SeverityError, randomFailedMessage))
		}
		c.Location = loc
	}

	o.supersedeResolutionLocked()
	s := c.Session()
	o.current = &s

	if s.Token != "" {
		if _, err := o.links.Write(s.Token); err != nil {
			o.logger.Warn("deep link write failed", "token", s.Token, "error", err)
			events = append(events, o.notifyEvent(model.SeverityError, linkWriteFailed))
		}
	} else if _, ok := o.links.Read(); ok {
		// The URL still names the previous session.
		if _, err := o.links.Clear(); err != nil {
			o.logger.Warn("deep link clear failed", "error", err)
		}
	}
	return append(events, chosen(s))
}

// ResolveAuthPrompt dismisses the sign-up prompt. continued_as_guest replays
// the pending candidate through the quota gate under the guest actor and
// always discards it; signed_up keeps the pending candidate without opening
// it and reports success.
//
// A guest replay the quota gate denies leaves the gate in AwaitingQuota with
// its reset time rather than Open, so a guest cannot skip the quota dialog
// by way of the sign-up prompt.
func (o *Orchestrator) ResolveAuthPrompt(ctx context.Context, outcome model.AuthOutcome) (model.GateState, error) {
	if !outcome.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidOutcome, outcome)
	}
	o.mu.Lock()
	if o.closed.Load() {
		o.mu.Unlock()
		return "", ErrClosed
	}
	var events []event
	switch outcome {
	case model.AuthContinuedAsGuest:
		pending := o.pending
		o.pending = nil
		events = appendEvent(events, o.setStateLocked(model.GateOpen, time.Time{}))
		if pending != nil {
			events = o.admitLocked(ctx, *pending, o.guest, events)
			o.pending = nil
		}
	case model.AuthSignedUp:
		events = appendEvent(events, o.setStateLocked(model.GateOpen, time.Time{}))
		events = append(events, o.notifyEvent(model.SeveritySuccess, signedUpMessage))
	}
	state := o.state
	o.unlockAndEmit(events)
	return state, nil
}

// ResolveQuotaPrompt dismisses the quota dialog and discards the pending
// candidate.
func (o *Orchestrator) ResolveQuotaPrompt() error {
	o.mu.Lock()
	if o.closed.Load() {
		o.mu.Unlock()
		return ErrClosed
	}
	o.pending = nil
	e := o.setStateLocked(model.GateOpen, time.Time{})
	o.unlockAndEmit(appendEvent(nil, e))
	return nil
}

// CloseSession ends the current session and clears the deep-link token. Any
// in-flight resolution is discarded. The gate state is unaffected.
func (o *Orchestrator) CloseSession() error {
	o.mu.Lock()
	if o.closed.Load() {
		o.mu.Unlock()
		return ErrClosed
	}
	o.supersedeResolutionLocked()
	o.current = nil
	if _, err := o.links.Clear(); err != nil {
		o.logger.Warn("deep link clear failed", "error", err)
	}
	o.unlockAndEmit([]event{closedEvent})
	return nil
}

// TaskCreated attaches a newly created research token to the current
// session, writes it to the deep link and records one unit of quota use for
// the actor (the guest actor when id is nil). expected is the session the
// task was created for; when the open session is no longer that one the
// token is not attached and ErrSessionChanged is returned.
func (o *Orchestrator) TaskCreated(ctx context.Context, expected model.Session, token string, id *model.Identity) (model.Session, error) {
	if token == "" {
		return model.Session{}, fmt.Errorf("task created: empty token")
	}
	o.mu.Lock()
	if o.closed.Load() {
		o.mu.Unlock()
		return model.Session{}, ErrClosed
	}
	if o.current == nil {
		o.mu.Unlock()
		return model.Session{}, ErrNoSession
	}
	if *o.current != expected || o.resolveTarget != "" {
		o.mu.Unlock()
		return model.Session{}, fmt.Errorf("%w: now %s", ErrSessionChanged, o.current.Location.Name)
	}
	o.supersedeResolutionLocked()
	o.current.Token = token
	s := *o.current
	var events []event
	if _, err := o.links.Write(token); err != nil {
		o.logger.Warn("deep link write failed", "token", token, "error", err)
		events = append(events, o.notifyEvent(model.SeverityError, linkWriteFailed))
	}
	events = append(events, chosen(s))
	o.unlockAndEmit(events)

	actor := actorOf(id)
	if actor == "" {
		actor = o.guest
	}
	o.quota.RecordUse(ctx, actor)
	return s, nil
}

// notifyEvent defers a notification until after the state lock is released.
func (o *Orchestrator) notifyEvent(severity model.Severity, message string) event {
	return func(Observer) { o.notifier.Notify(severity, message) }
}
