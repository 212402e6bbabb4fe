// Package casing transforms field-name tokens between wire-format case
// styles. Internal names are always underscore-style; Encode produces the
// wire form and Decode recovers the internal form.
package casing

import (
	"fmt"
	"strings"
)

// Style is a wire-format case style.
type Style string

const (
	// Camelize renders user_name as userName.
	Camelize Style = "camelize"
	// Dasherize renders user_name as user-name.
	Dasherize Style = "dasherize"
	// Underscore leaves user_name as user_name.
	Underscore Style = "underscore"
)

// Default is the style used when none is configured.
const Default = Camelize

// ParseStyle validates a configured style name.
func ParseStyle(s string) (Style, error) {
	switch Style(s) {
	case Camelize, Dasherize, Underscore:
		return Style(s), nil
	case "":
		return Default, nil
	}
	return "", fmt.Errorf("unknown case style %q (want camelize, dasherize, or underscore)", s)
}

// Encode converts an internal underscore-style token to the wire form.
// Single-word tokens are unchanged under every style.
func (s Style) Encode(token string) string {
	switch s {
	case Dasherize:
		return strings.ReplaceAll(token, "_", "-")
	case Camelize:
		return camelize(token)
	default:
		return token
	}
}

// Decode converts a wire-format string back to the internal underscore form.
// Decode is the inverse of Encode for tokens composed of lowercase
// alphanumeric words.
func (s Style) Decode(wire string) string {
	switch s {
	case Dasherize:
		return strings.ReplaceAll(wire, "-", "_")
	case Camelize:
		return underscore(wire)
	default:
		return wire
	}
}

// camelize joins underscore-separated words, upcasing the first letter of
// every word after the first. Empty segments (leading, trailing, or doubled
// underscores) are preserved as literal underscores so Decode can restore
// them.
func camelize(token string) string {
	parts := strings.Split(token, "_")
	var b strings.Builder
	b.Grow(len(token))
	first := true
	for _, p := range parts {
		if p == "" {
			b.WriteByte('_')
			continue
		}
		if first {
			b.WriteString(p)
			first = false
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

// underscore splits a camelCase string back into underscore-separated
// lowercase words.
func underscore(wire string) string {
	var b strings.Builder
	b.Grow(len(wire) + 4)
	for _, r := range wire {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
