// Package topic maps concrete event types to the wildcard patterns that
// match them.
//
// Event types are segmented by a separator (default "."). A subscriber
// pattern is either an exact type, a prefix wildcard ending in "<sep>*", or
// the global wildcard "*":
//
//	order.created      exact
//	order.*            every event below "order"
//	*                  everything
//
// Wildcards only match on segment boundaries and always cover every deeper
// level: "order.*" matches "order.created" and "order.item.added".
package topic

import "strings"

const (
	// DefaultSeparator delimits topic segments.
	DefaultSeparator = "."
	// Wildcard is the global wildcard and the suffix of prefix wildcards.
	Wildcard = "*"
)

// ExpandWildcards returns every wildcard pattern that matches t, global
// wildcard first, followed by the prefix wildcards from shortest to longest:
//
//	ExpandWildcards(".", "a.b.c") // ["*", "a.*", "a.b.*"]
//
// The exact type itself is not included. A topic without sep (or an empty
// topic, or an empty sep) only yields the global wildcard. The result has
// one entry per separator occurrence plus one.
func ExpandWildcards(sep, t string) []string {
	if sep == "" {
		return []string{Wildcard}
	}

	out := make([]string, 1, strings.Count(t, sep)+1)
	out[0] = Wildcard

	offset := 0
	for {
		i := strings.Index(t[offset:], sep)
		if i < 0 {
			return out
		}
		end := offset + i + len(sep)
		out = append(out, t[:end]+Wildcard)
		offset = end
	}
}

// Candidates returns t followed by ExpandWildcards(sep, t), i.e. every
// pattern a subscriber could have used to match t.
func Candidates(sep, t string) []string {
	return append([]string{t}, ExpandWildcards(sep, t)...)
}

// Matches reports whether pattern matches the concrete type t.
func Matches(sep, pattern, t string) bool {
	if pattern == t || pattern == Wildcard {
		return true
	}
	prefix, ok := strings.CutSuffix(pattern, sep+Wildcard)
	if !ok {
		return false
	}
	return strings.HasPrefix(t, prefix+sep)
}
