package classify

import "strings"

// NormalizeDescription lower-cases, trims, and collapses whitespace runs
// to single spaces. Every description comparison in the system (rule
// matching, duplicate keys) goes through this.
func NormalizeDescription(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
