// Package deeplink keeps the research token in the navigable URL state.
//
// URL transitions are pure functions (url.go); the Store applies them to its
// current URL and hands the result to a Navigator, the only component that
// talks to real browser history.
//
// Subscribers hear about browser-driven changes (Navigated) and about Clear,
// which broadcasts a synthetic change. Write does not broadcast: the caller
// already knows what it wrote.
package deeplink

import (
	"sync"
)

// Navigator pushes or replaces history entries without reloading the page.
type Navigator interface {
	Push(url string)
	Replace(url string)
}

// ChangeFunc receives the token in the new URL state (ok is false when absent).
type ChangeFunc func(token string, ok bool)

// Store holds the current URL and its subscribers.
type Store struct {
	param string
	nav   Navigator

	mu     sync.Mutex
	url    string
	subs   map[uint64]ChangeFunc
	nextID uint64
}

// Option configures a Store.
type Option func(*Store)

// WithParam overrides DefaultParam.
func WithParam(param string) Option {
	return func(s *Store) { s.param = param }
}

// WithNavigator sets the history adapter. Without one, URL changes are only
// recorded in the Store.
func WithNavigator(nav Navigator) Option {
	return func(s *Store) { s.nav = nav }
}

// NewStore returns a Store positioned at initialURL.
func NewStore(initialURL string, opts ...Option) *Store {
	s := &Store{
		param: DefaultParam,
		url:   initialURL,
		subs:  make(map[uint64]ChangeFunc),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.url == "" {
		s.url = "/"
	}
	return s
}

// Param returns the query parameter name the store manages.
func (s *Store) Param() string { return s.param }

// URL returns the current serialized URL.
func (s *Store) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url
}

// Read returns the token in the current URL.
func (s *Store) Read() (string, bool) {
	return Token(s.URL(), s.param)
}

// Write merges token into the URL and pushes a history entry.
func (s *Store) Write(token string) (string, error) {
	s.mu.Lock()
	next, err := WithToken(s.url, s.param, token)
	if err != nil {
		s.mu.Unlock()
		return "", err
	}
	s.url = next
	s.mu.Unlock()

	s.push(next)
	return next, nil
}

// Clear removes the token, pushes a history entry and broadcasts the change.
func (s *Store) Clear() (string, error) {
	s.mu.Lock()
	next, err := WithoutToken(s.url, s.param)
	if err != nil {
		s.mu.Unlock()
		return "", err
	}
	s.url = next
	s.mu.Unlock()

	s.push(next)
	s.broadcast(next)
	return next, nil
}

// Strip removes the given query parameters and replaces the current history
// entry rather than pushing. Subscribers are not notified.
func (s *Store) Strip(params ...string) (string, error) {
	s.mu.Lock()
	next, err := WithoutParams(s.url, params...)
	if err != nil {
		s.mu.Unlock()
		return "", err
	}
	s.url = next
	s.mu.Unlock()

	if s.nav != nil {
		s.nav.Replace(next)
	}
	return next, nil
}

// Navigated records a browser-driven URL change (back/forward) and notifies
// subscribers.
func (s *Store) Navigated(url string) {
	s.mu.Lock()
	s.url = url
	s.mu.Unlock()

	s.broadcast(url)
}

// Subscribe registers fn for URL state changes. The returned function
// unregisters it and is safe to call more than once.
func (s *Store) Subscribe(fn ChangeFunc) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) push(url string) {
	if s.nav != nil {
		s.nav.Push(url)
	}
}

func (s *Store) broadcast(url string) {
	s.mu.Lock()
	fns := make([]ChangeFunc, 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	tok, ok := Token(url, s.param)
	for _, fn := range fns {
		fn(tok, ok)
	}
}
