package gate

import (
	"context"

	"github.com/alfredjeanlab/history/internal/model"
)

// ReconcileFromLink opens a session for the token in the deep link, if any.
// A placeholder session is shown at once and replaced when the token
// resolves; when resolution fails the placeholder stays. Nothing happens when
// a session for that token is already open or being resolved.
func (o *Orchestrator) ReconcileFromLink(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	token, ok := o.links.Read()
	if !ok {
		return nil
	}
	return o.reconcile(token)
}

// onLinkChange handles browser-driven deep-link changes. Token removals are
// ignored, which keeps Clear safe to call while mu is held.
func (o *Orchestrator) onLinkChange(token string, ok bool) {
	if !ok {
		return
	}
	if err := o.reconcile(token); err != nil {
		o.logger.Debug("deep link change ignored", "token", token, "error", err)
	}
}

func (o *Orchestrator) reconcile(token string) error {
	o.mu.Lock()
	if o.closed.Load() {
		o.mu.Unlock()
		return ErrClosed
	}
	if o.resolveTarget == token || (o.current != nil && o.current.Token == token) {
		o.mu.Unlock()
		return nil
	}

	o.supersedeResolutionLocked()
	placeholder := model.Session{Location: model.Placeholder(), Token: token}
	o.current = &placeholder

	ctx, cancel := context.WithCancel(o.baseCtx)
	o.resolveTarget = token
	o.resolveCancel = cancel
	gen := o.resolveGen

	o.wg.Add(1)
	go o.resolve(ctx, cancel, gen, token)

	o.unlockAndEmit([]event{chosen(placeholder)})
	return nil
}

// resolve runs the lookup without holding mu and applies the result only if
// no later request has superseded it.
func (o *Orchestrator) resolve(ctx context.Context, cancel context.CancelFunc, gen uint64, token string) {
	defer o.wg.Done()
	defer cancel()

	loc, err := o.resolver.Resolve(ctx, token)

	o.mu.Lock()
	if o.closed.Load() || gen != o.resolveGen || o.resolveTarget != token {
		o.mu.Unlock()
		o.logger.Debug("discarding stale resolution", "token", token)
		return
	}
	o.resolveTarget = ""
	o.resolveCancel = nil
	if err != nil {
		o.mu.Unlock()
		o.logger.Warn("research token did not resolve", "token", token, "error", err)
		return
	}
	s := model.Session{Location: loc, Token: token}
	o.current = &s
	o.unlockAndEmit([]event{chosen(s)})
}

// supersedeResolutionLocked discards any in-flight resolution.
func (o *Orchestrator) supersedeResolutionLocked() {
	o.resolveGen++
	o.resolveTarget = ""
	if o.resolveCancel != nil {
		o.resolveCancel()
		o.resolveCancel = nil
	}
}
