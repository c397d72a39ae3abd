package communitycontent

import "strings"

// NormalizeEmail returns the canonical form of an email used as identity and
// join key.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeKind lowercases a user-facing kind name.
func NormalizeKind(s string) Kind {
	return Kind(strings.ToLower(strings.TrimSpace(s)))
}
