// Package idgen generates the short, URL-safe identifiers used for research
// tokens and view IDs.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes by identifier kind.
const (
	TokenPrefix = "rs-"
	ViewPrefix  = "vw-"
)

// Alphabet is URL-safe so tokens survive a query string unescaped.
const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters after the prefix.
const Length = 12

// Token returns a new research token.
func Token() (string, error) {
	return WithPrefix(TokenPrefix)
}

// View returns a new view ID.
func View() (string, error) {
	return WithPrefix(ViewPrefix)
}

// WithPrefix returns a new ID with the given prefix.
func WithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}
