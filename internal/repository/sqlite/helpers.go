package sqlite

import "strings"

// Default and maximum page sizes for list queries.
const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// listLimit clamps a requested page size into [1, maxListLimit],
// substituting the default for zero/negative requests.
func listLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// prefixColumns rewrites "a, b, c" as "t.a, t.b, t.c" so a column-list
// constant can be reused in joined queries without ambiguity.
func prefixColumns(table, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = table + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// joinAnd combines WHERE fragments with AND.
func joinAnd(conds []string) string {
	return strings.Join(conds, " AND ")
}
