// Package notify holds the single transient notification shown in the banner.
//
// A new notification replaces the old one outright and restarts the dismiss
// timer; there is no queue. Expiry callbacks carry the generation they were
// scheduled for, so a timer that fires after a newer Notify or a Clear is a
// no-op even if Stop lost the race.
package notify

import (
	"sync"
	"time"

	"github.com/alfredjeanlab/history/internal/clock"
	"github.com/alfredjeanlab/history/internal/model"
)

// DefaultTTL is how long a notification stays visible.
const DefaultTTL = 5 * time.Second

// Listener is called after every change. n is nil when the channel was cleared,
// either explicitly or by expiry.
type Listener func(n *model.Notification)

// Channel holds at most one live notification.
type Channel struct {
	clock    clock.Clock
	ttl      time.Duration
	listener Listener

	mu      sync.Mutex
	current *model.Notification
	timer   *clock.Timer
	gen     uint64
}

// Option configures a Channel.
type Option func(*Channel)

// WithTTL overrides DefaultTTL.
func WithTTL(d time.Duration) Option {
	return func(c *Channel) { c.ttl = d }
}

// WithListener registers the change listener.
func WithListener(l Listener) Option {
	return func(c *Channel) { c.listener = l }
}

// New returns an empty channel using clk for timestamps and expiry.
func New(clk clock.Clock, opts ...Option) *Channel {
	c := &Channel{clock: clk, ttl: DefaultTTL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Notify replaces the current notification and restarts the dismiss timer.
func (c *Channel) Notify(severity model.Severity, message string) model.Notification {
	n := model.Notification{
		Severity:  severity,
		Message:   message,
		CreatedAt: c.clock.Now(),
	}

	c.mu.Lock()
	c.stopTimerLocked()
	c.gen++
	gen := c.gen
	c.current = &n
	c.mu.Unlock()

	// Scheduled outside the lock: the fake clock runs zero-delay callbacks inline.
	timer := c.clock.AfterFunc(c.ttl, func() { c.expire(gen) })

	c.mu.Lock()
	if c.gen == gen {
		c.timer = timer
	} else {
		timer.Stop()
	}
	c.mu.Unlock()

	c.emit(&n)
	return n
}

// Clear cancels the timer and empties the channel. Clearing an empty channel
// does not notify the listener.
func (c *Channel) Clear() {
	c.mu.Lock()
	c.stopTimerLocked()
	c.gen++
	had := c.current != nil
	c.current = nil
	c.mu.Unlock()

	if had {
		c.emit(nil)
	}
}

// Current returns the live notification, if any.
func (c *Channel) Current() (model.Notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return model.Notification{}, false
	}
	return *c.current, true
}

func (c *Channel) expire(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.current == nil {
		c.mu.Unlock()
		return
	}
	c.current = nil
	c.timer = nil
	c.mu.Unlock()

	c.emit(nil)
}

func (c *Channel) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Channel) emit(n *model.Notification) {
	if c.listener != nil {
		c.listener(n)
	}
}
