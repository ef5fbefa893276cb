// Package normalization maps loosely written configuration strings onto
// typed enum values.
package normalization

import (
	"sort"
	"strings"
)

// Normalizer resolves case- and whitespace-insensitive keys to values of T.
type Normalizer[T comparable] struct {
	values   map[string]T
	fallback T
	keys     []string
}

// NewNormalizer creates a normalizer. Keys are folded with Clean; fallback is
// returned by Normalize for anything unrecognized.
func NewNormalizer[T comparable](values map[string]T, fallback T) *Normalizer[T] {
	n := &Normalizer[T]{
		values:   make(map[string]T, len(values)),
		fallback: fallback,
		keys:     make([]string, 0, len(values)),
	}
	for k, v := range values {
		key := Clean(k)
		n.values[key] = v
		n.keys = append(n.keys, key)
	}
	sort.Strings(n.keys)
	return n
}

// Lookup reports the value for raw and whether raw was recognized.
func (n *Normalizer[T]) Lookup(raw string) (T, bool) {
	v, ok := n.values[Clean(raw)]
	return v, ok
}

// Normalize returns the value for raw, or the fallback.
func (n *Normalizer[T]) Normalize(raw string) T {
	if v, ok := n.Lookup(raw); ok {
		return v
	}
	return n.fallback
}

// Keys returns the accepted spellings in sorted order.
func (n *Normalizer[T]) Keys() []string {
	return append([]string(nil), n.keys...)
}

// Clean lowercases and trims s.
func Clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
