package util

import (
	"regexp"
	"strings"
)

// emailRx matches the same grammar the dashboard enforced:
// no whitespace or '@' in the local part, a domain with at least one dot.
var emailRx = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s looks like a deliverable email address.
func ValidEmail(s string) bool {
	return emailRx.MatchString(s)
}

// TrimDedup trims whitespace from each element and removes duplicates,
// preserving first-occurrence order. Empty elements are dropped.
func TrimDedup(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
