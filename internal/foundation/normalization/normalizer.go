// Package normalization maps loosely spelled configuration values onto
// canonical enum values.
package normalization

import (
	"fmt"
	"sort"
	"strings"

	"git.home.luguber.info/inful/zephyrforge/internal/foundation/errors"
)

// Normalizer provides type-safe string-to-enum normalization. Keys are
// matched case-insensitively after trimming.
type Normalizer[T comparable] struct {
	values   map[string]T
	fallback T
	keys     []string // sorted, for error messages
}

// NewNormalizer creates a normalizer from spelling->value pairs. Several
// spellings may map to the same value.
func NewNormalizer[T comparable](values map[string]T, fallback T) *Normalizer[T] {
	n := &Normalizer[T]{
		values:   make(map[string]T, len(values)),
		fallback: fallback,
		keys:     make([]string, 0, len(values)),
	}
	for k, v := range values {
		key := Key(k)
		n.values[key] = v
		n.keys = append(n.keys, key)
	}
	sort.Strings(n.keys)
	return n
}

// Key is the canonical lookup form of raw.
func Key(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Lookup reports the value raw spells, if any.
func (n *Normalizer[T]) Lookup(raw string) (T, bool) {
	v, ok := n.values[Key(raw)]
	return v, ok
}

// Normalize returns the value raw spells, or the fallback.
func (n *Normalizer[T]) Normalize(raw string) T {
	if v, ok := n.Lookup(raw); ok {
		return v
	}
	return n.fallback
}

// NormalizeWithError is Normalize for strict fields: unknown spellings
// are a validation error listing the accepted ones.
func (n *Normalizer[T]) NormalizeWithError(raw string) (T, error) {
	if v, ok := n.Lookup(raw); ok {
		return v, nil
	}
	var zero T
	return zero, errors.ValidationError(fmt.Sprintf("invalid value %q, valid options: %s", raw, strings.Join(n.keys, ", "))).
		WithContext("valid", n.Keys()).
		Build()
}

// Keys returns the accepted spellings, sorted.
func (n *Normalizer[T]) Keys() []string {
	out := make([]string, len(n.keys))
	copy(out, n.keys)
	return out
}
