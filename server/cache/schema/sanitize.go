package schema

import (
	"strconv"
	"strings"
)

// Identifier sanitization produces names safe to interpolate into DDL and
// DML. Values always travel as bind parameters; identifiers are constrained
// to [a-z0-9_] (tables keep case) so quoting is never needed.

// SanitizeTableName maps every character outside [A-Za-z0-9_] to '_'.
func SanitizeTableName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

// SanitizeColumnName lowercases, maps everything outside [a-z0-9_] to '_'
// and prefixes digit-leading results with "f_".
func SanitizeColumnName(name string) string {
	lowered := strings.ToLower(name)

	var b strings.Builder
	b.Grow(len(lowered) + 2)
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	result := b.String()
	if result == "" {
		return "_"
	}
	if result[0] >= '0' && result[0] <= '9' {
		result = "f_" + result
	}
	return result
}

// dedupeName suffixes _2, _3, ... until the name is unused, then claims it
// in the used set.
func dedupeName(name string, used map[string]bool) string {
	candidate := name
	for n := 2; used[candidate]; n++ {
		candidate = name + "_" + strconv.Itoa(n)
	}
	used[candidate] = true
	return candidate
}
