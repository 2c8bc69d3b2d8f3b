package deeplink

import (
	"fmt"
	"net/url"
)

// DefaultParam is the query parameter carrying the research token.
const DefaultParam = "research"

// Token extracts param from rawURL. A URL that does not parse is treated as
// carrying no token.
func Token(rawURL, param string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	tok := u.Query().Get(param)
	return tok, tok != ""
}

// WithToken returns rawURL with param set to token, keeping every other query
// parameter.
func WithToken(rawURL, param, token string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	q := u.Query()
	q.Set(param, token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// WithoutToken returns rawURL with param removed. When no query parameters
// remain the query is dropped entirely, and an empty path becomes "/".
func WithoutToken(rawURL, param string) (string, error) {
	return WithoutParams(rawURL, param)
}

// WithoutParams removes each named query parameter from rawURL.
func WithoutParams(rawURL string, params ...string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	q := u.Query()
	for _, p := range params {
		q.Del(p)
	}
	u.RawQuery = q.Encode()
	u.ForceQuery = false
	if u.Path == "" && u.Host == "" {
		u.Path = "/"
	}
	return u.String(), nil
}
