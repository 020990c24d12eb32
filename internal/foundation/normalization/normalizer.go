// Package normalization case-folds user supplied enumeration values.
package normalization

import (
	"fmt"
	"sort"
	"strings"
)

// Normalizer maps loosely written strings onto a fixed set of enum values.
type Normalizer[T ~string] struct {
	values    map[string]T
	validKeys []string
}

// New creates a normalizer accepting values in any case and with surrounding
// whitespace.
func New[T ~string](values ...T) *Normalizer[T] {
	n := &Normalizer[T]{values: make(map[string]T, len(values))}
	for _, v := range values {
		key := fold(string(v))
		n.values[key] = v
		n.validKeys = append(n.validKeys, key)
	}
	sort.Strings(n.validKeys)
	return n
}

// Normalize returns the canonical value for raw. Unknown values are returned
// trimmed but otherwise unchanged so validation can report them.
func (n *Normalizer[T]) Normalize(raw T) T {
	if v, ok := n.values[fold(string(raw))]; ok {
		return v
	}
	return T(strings.TrimSpace(string(raw)))
}

// Parse is Normalize with an error for unknown values.
func (n *Normalizer[T]) Parse(raw string) (T, error) {
	if v, ok := n.values[fold(raw)]; ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid value %q, valid options: %v", raw, n.validKeys)
}

// ValidKeys returns the accepted values in sorted order.
func (n *Normalizer[T]) ValidKeys() []string {
	return append([]string(nil), n.validKeys...)
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
