// Package sanitize strips markup from free-text cells before they reach a prompt.
package sanitize

import "regexp"

// markup matches the shortest <...> span, so "<b>x</b" keeps the dangling "</b".
var markup = regexp.MustCompile(`<.*?>`)

// Value returns v with markup removed when v is a string, and v unchanged otherwise.
func Value(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	return String(s)
}

// String removes every <...> span from s.
func String(s string) string {
	if s == "" {
		return s
	}
	return markup.ReplaceAllString(s, "")
}
