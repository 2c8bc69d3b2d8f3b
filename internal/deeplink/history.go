package deeplink

import "sync"

// History is an in-memory Navigator that behaves like a browser history
// stack. Back and Forward return the URL that became current, which the
// caller feeds to Store.Navigated.
type History struct {
	mu      sync.Mutex
	entries []string
	pos     int
}

// NewHistory returns a History whose only entry is initialURL.
func NewHistory(initialURL string) *History {
	return &History{entries: []string{initialURL}}
}

// Push appends url after the current entry, dropping any forward entries.
func (h *History) Push(url string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries[:h.pos+1], url)
	h.pos = len(h.entries) - 1
}

// Replace overwrites the current entry.
func (h *History) Replace(url string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[h.pos] = url
}

// Back moves one entry back.
func (h *History) Back() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pos == 0 {
		return "", false
	}
	h.pos--
	return h.entries[h.pos], true
}

// Forward moves one entry forward.
func (h *History) Forward() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pos >= len(h.entries)-1 {
		return "", false
	}
	h.pos++
	return h.entries[h.pos], true
}

// Current returns the current entry.
func (h *History) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[h.pos]
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
